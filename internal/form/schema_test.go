package form

import (
	"strings"
	"testing"

	"github.com/getmentor/portfolio-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestValidate_Title(t *testing.T) {
	description := strings.Repeat("x", 50)

	tests := []struct {
		title   string
		wantErr bool
	}{
		{title: "", wantErr: true},
		{title: "A", wantErr: true},
		{title: "Ab", wantErr: false},
		{title: "My Project", wantErr: false},
		{title: "Яд", wantErr: false},
		// Lengths are counted in code points: one emoji is one character
		// even though UTF-16 spells it with two units.
		{title: "😀", wantErr: true},
		{title: "😀😀", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			errs := Validate(models.PortfolioFormValues{Title: tt.title, Description: description})
			if tt.wantErr {
				assert.Equal(t, "Title must be at least 2 characters.", errs[FieldTitle])
			} else {
				assert.NotContains(t, errs, FieldTitle)
			}
		})
	}
}

func TestValidate_Description(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{name: "empty", length: 0, wantErr: true},
		{name: "one short", length: 49, wantErr: true},
		{name: "exact minimum", length: 50, wantErr: false},
		{name: "long", length: 500, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(models.PortfolioFormValues{Title: "Ok", Description: strings.Repeat("d", tt.length)})
			if tt.wantErr {
				assert.Equal(t, "Description must be at least 50 characters.", errs[FieldDescription])
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestValidate_ReportsEveryField(t *testing.T) {
	errs := Validate(models.PortfolioFormValues{Links: "not validated"})

	assert.Len(t, errs, 2)
	assert.Contains(t, errs, FieldTitle)
	assert.Contains(t, errs, FieldDescription)
	assert.NotContains(t, errs, FieldLinks)
}

func TestMessage_AcceptsStructFieldName(t *testing.T) {
	msg, ok := Message("Title", "min")
	assert.True(t, ok)
	assert.Equal(t, "Title must be at least 2 characters.", msg)

	_, ok = Message("Links", "min")
	assert.False(t, ok)
}

func TestSplitLinks(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "two links with spaces", raw: "http://a.com, http://b.com ", want: []string{"http://a.com", "http://b.com"}},
		{name: "single", raw: "https://github.com/me", want: []string{"https://github.com/me"}},
		{name: "empty keeps one segment", raw: "", want: []string{""}},
		{name: "trailing comma", raw: "a,", want: []string{"a", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLinks(tt.raw))
		})
	}
}

func TestBuildPayload_CopiesSelections(t *testing.T) {
	skills := []string{"Go"}
	images := []models.ImageAttachment{{Image: "aGk=", FileName: "a.png", ContentType: "image/png"}}

	payload := BuildPayload(models.PortfolioFormValues{Title: "T", Description: "D", Links: "x, y"}, skills, images)
	skills[0] = "Rust"
	images[0].FileName = "changed.png"

	assert.Equal(t, []string{"Go"}, payload.Skills)
	assert.Equal(t, "a.png", payload.Images[0].FileName)
	assert.Equal(t, []string{"x", "y"}, payload.Links)
}
