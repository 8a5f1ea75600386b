package form

import (
	"errors"
	"reflect"
	"strings"

	"github.com/getmentor/portfolio-api/internal/models"
	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a form field (JSON name) to a human-readable message
type FieldErrors map[string]string

const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldLinks       = "links"
)

var schemaMessages = map[string]string{
	"title.min":       "Title must be at least 2 characters.",
	"description.min": "Description must be at least 50 characters.",
}

var schema = newSchemaValidator()

func newSchemaValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Message returns the schema message for a field/rule pair. Field may be the
// JSON name or the Go struct field name.
func Message(field, tag string) (string, bool) {
	msg, ok := schemaMessages[strings.ToLower(field)+"."+tag]
	return msg, ok
}

// Validate runs the schema over values. An empty map means success.
func Validate(values models.PortfolioFormValues) FieldErrors {
	errs := FieldErrors{}

	err := schema.Struct(values)
	if err == nil {
		return errs
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["_form"] = err.Error()
		return errs
	}

	for _, fe := range validationErrors {
		if _, exists := errs[fe.Field()]; exists {
			continue
		}
		msg, ok := Message(fe.Field(), fe.Tag())
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		errs[fe.Field()] = msg
	}

	return errs
}

// SplitLinks explodes the raw links text on commas and trims every segment.
// Empty input yields a single empty segment.
func SplitLinks(raw string) []string {
	segments := strings.Split(raw, ",")
	for i, segment := range segments {
		segments[i] = strings.TrimSpace(segment)
	}
	return segments
}

// BuildPayload assembles the normalized submission payload
func BuildPayload(values models.PortfolioFormValues, skills []string, images []models.ImageAttachment) *models.SubmissionPayload {
	return &models.SubmissionPayload{
		Title:       values.Title,
		Description: values.Description,
		Links:       SplitLinks(values.Links),
		Skills:      append([]string(nil), skills...),
		Images:      append([]models.ImageAttachment(nil), images...),
	}
}
