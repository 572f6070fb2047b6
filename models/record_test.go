package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func janeInput() RecordInput {
	return RecordInput{
		RecipientName: "Jane Doe",
		Category:      "Volunteer Milestones",
		Achievement:   "Completed 10 Hours Community Service",
		IssueDate:     time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestNewRecord(t *testing.T) {
	rec, err := NewRecord(DefaultCatalog(), janeInput())
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", rec.RecipientName)
	assert.Equal(t, "January 15, 2024", rec.DisplayDate())
	assert.Equal(t, "2024-01-15", rec.ISODate())
	assert.False(t, rec.HasNotes())
}

func TestNewRecordNormalizesText(t *testing.T) {
	in := janeInput()
	in.RecipientName = "  José   García "
	in.Notes = "  led the Saturday shift \n"
	in.IssueDate = time.Date(2024, time.March, 3, 18, 45, 0, 0, time.FixedZone("EST", -5*3600))

	rec, err := NewRecord(DefaultCatalog(), in)
	require.NoError(t, err)
	assert.Equal(t, "José   García", rec.RecipientName)
	assert.Equal(t, "led the Saturday shift", rec.Notes)
	assert.Equal(t, "2024-03-03", rec.ISODate())
	assert.Equal(t, time.UTC, rec.IssueDate.Location())
}

func TestNewRecordRejectsEmptyName(t *testing.T) {
	in := janeInput()
	in.RecipientName = "   "

	_, err := NewRecord(DefaultCatalog(), in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "recipient_name", verr.Fields[0].Field)
	assert.Equal(t, "recipient_name is required", verr.Fields[0].Message)
}

func TestNewRecordRejectsMismatchedAchievement(t *testing.T) {
	in := janeInput()
	in.Achievement = "Completed 5 books"

	_, err := NewRecord(DefaultCatalog(), in)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "achievement", verr.Fields[0].Field)
}

func TestNewRecordRejectsUnknownCategory(t *testing.T) {
	in := janeInput()
	in.Category = "Underwater Basket Weaving"

	_, err := NewRecord(DefaultCatalog(), in)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "category", verr.Fields[0].Field)
}

func TestNewRecordRejectsMissingDateAndLongNotes(t *testing.T) {
	in := janeInput()
	in.IssueDate = time.Time{}
	in.Notes = strings.Repeat("x", 1001)

	_, err := NewRecord(DefaultCatalog(), in)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "issue_date is required", fields["issue_date"])
	assert.Equal(t, "notes must be at most 1000 characters", fields["notes"])
}

func TestNewLedgerEntry(t *testing.T) {
	rec, err := NewRecord(DefaultCatalog(), janeInput())
	require.NoError(t, err)

	assert.Equal(t, LedgerEntry{
		Name:        "Jane Doe",
		Category:    "Volunteer Milestones",
		Achievement: "Completed 10 Hours Community Service",
		IssueDate:   "2024-01-15",
	}, NewLedgerEntry(rec))
}
