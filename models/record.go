package models

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

const (
	// DisplayDateLayout renders as "January 15, 2024".
	DisplayDateLayout = "January 02, 2006"
	// ISODateLayout is used in QR payloads and ledger entries.
	ISODateLayout = "2006-01-02"
)

var ErrValidation = errors.New("validation failed")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// RecordInput is the field set collected by the form before a record is built.
type RecordInput struct {
	RecipientName string    `json:"recipient_name" validate:"required,max=120"`
	Category      string    `json:"category" validate:"required"`
	Achievement   string    `json:"achievement" validate:"required"`
	IssueDate     time.Time `json:"issue_date" validate:"required"`
	Notes         string    `json:"notes" validate:"max=1000"`
}

// AchievementRecord is the validated, immutable source of one generated artifact.
type AchievementRecord struct {
	RecipientName string    `json:"recipient_name"`
	Category      string    `json:"category"`
	Achievement   string    `json:"achievement"`
	IssueDate     time.Time `json:"issue_date"`
	Notes         string    `json:"notes,omitempty"`
}

// NewRecord normalizes and validates in against catalog. The returned error
// is always a *ValidationError when the input is rejected.
func NewRecord(catalog *Catalog, in RecordInput) (AchievementRecord, error) {
	in.RecipientName = cleanText(in.RecipientName)
	in.Category = cleanText(in.Category)
	in.Achievement = cleanText(in.Achievement)
	in.Notes = cleanText(in.Notes)

	if err := validate.Struct(in); err != nil {
		return AchievementRecord{}, newValidationError(err)
	}
	if !catalog.HasCategory(in.Category) {
		return AchievementRecord{}, &ValidationError{Fields: []FieldError{
			{Field: "category", Message: "category is not in the catalog"},
		}}
	}
	if !catalog.Contains(in.Category, in.Achievement) {
		return AchievementRecord{}, &ValidationError{Fields: []FieldError{
			{Field: "achievement", Message: "achievement is not listed under " + in.Category},
		}}
	}

	y, m, d := in.IssueDate.Date()
	return AchievementRecord{
		RecipientName: in.RecipientName,
		Category:      in.Category,
		Achievement:   in.Achievement,
		IssueDate:     time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Notes:         in.Notes,
	}, nil
}

func (r AchievementRecord) DisplayDate() string {
	return r.IssueDate.Format(DisplayDateLayout)
}

func (r AchievementRecord) ISODate() string {
	return r.IssueDate.Format(ISODateLayout)
}

func (r AchievementRecord) HasNotes() bool {
	return r.Notes != ""
}

// cleanText composes to NFC and trims surrounding whitespace. Inner spacing
// is kept as typed.
func cleanText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
