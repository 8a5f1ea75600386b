package models

import "time"

// PortfolioFormValues holds the schema-validated fields of the portfolio form.
// Links is the raw comma-separated text as typed by the user.
type PortfolioFormValues struct {
	Title       string `json:"title" validate:"min=2"`
	Description string `json:"description" validate:"min=50"`
	Links       string `json:"links" validate:"omitempty"`
}

// UpdatePortfolioFormFieldsRequest carries a partial field update; nil fields are left untouched
type UpdatePortfolioFormFieldsRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Description *string `json:"description" binding:"omitempty,max=10000"`
	Links       *string `json:"links" binding:"omitempty,max=10000"`
}

// SetPortfolioFormSkillsRequest replaces the skill selection. A null or empty list clears it.
type SetPortfolioFormSkillsRequest struct {
	Skills []string `json:"skills" binding:"max=30,dive,max=50"`
}

// SetPortfolioFormImagesRequest replaces the image selection
type SetPortfolioFormImagesRequest struct {
	Images []ImageAttachment `json:"images" binding:"max=10,dive"`
}

// PortfolioFormImage describes a selected image without its payload
type PortfolioFormImage struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

// PortfolioFormState is the client-facing snapshot of an open portfolio form
type PortfolioFormState struct {
	ID              string               `json:"id"`
	Open            bool                 `json:"open"`
	Values          PortfolioFormValues  `json:"values"`
	Errors          map[string]string    `json:"errors"`
	Dirty           bool                 `json:"dirty"`
	SubmitCount     int                  `json:"submitCount"`
	Skills          []string             `json:"skills"`
	Images          []PortfolioFormImage `json:"images"`
	NoSkillsError   bool                 `json:"noSkillsError"`
	NoSkillsMessage string               `json:"noSkillsMessage,omitempty"`
	Pending         bool                 `json:"pending"`
	ExpiresAt       time.Time            `json:"expiresAt"`
}

// SubmitPortfolioFormResponse is returned by the submit endpoint
type SubmitPortfolioFormResponse struct {
	Outcome   string              `json:"outcome"`
	Portfolio *Portfolio          `json:"portfolio,omitempty"`
	Form      *PortfolioFormState `json:"form"`
	Error     string              `json:"error,omitempty"`
}

// Notification is a user-facing toast produced by a form
type Notification struct {
	Level     string    `json:"level"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationsResponse returns the drained notifications of a form
type NotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
}
