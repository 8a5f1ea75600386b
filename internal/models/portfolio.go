package models

import "time"

// ImageAttachment is a portfolio image as selected in the form
type ImageAttachment struct {
	Image       string `json:"image" binding:"required"` // base64 encoded image or data URI
	FileName    string `json:"fileName" binding:"required,max=255"`
	ContentType string `json:"contentType" binding:"required,oneof=image/jpeg image/jpg image/png image/webp"`
}

// SubmissionPayload is the normalized bundle handed to the create operation
type SubmissionPayload struct {
	Title       string            `json:"title" binding:"required,min=2,max=200"`
	Description string            `json:"description" binding:"required,min=50,max=10000"`
	Links       []string          `json:"links" binding:"max=20,dive,max=500"`
	Skills      []string          `json:"skills" binding:"required,min=1,max=30,dive,max=50"`
	Images      []ImageAttachment `json:"images" binding:"required,min=1,max=10,dive"`
}

// Portfolio is a persisted portfolio record
type Portfolio struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Links       []string  `json:"links"`
	Skills      []string  `json:"skills"`
	ImageURLs   []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreatePortfolioResult is returned by the create operation
type CreatePortfolioResult struct {
	NewPortfolio *Portfolio `json:"newPortfolio"`
	Message      string     `json:"message"`
}

// PortfoliosResponse lists portfolios of the caller
type PortfoliosResponse struct {
	Portfolios []*Portfolio `json:"portfolios"`
}

// Skill is one entry of the selectable skill vocabulary
type Skill struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SkillsResponse lists the skill vocabulary
type SkillsResponse struct {
	Skills []Skill `json:"skills"`
}
