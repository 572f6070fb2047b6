package models

// LedgerEntry is the tabular projection of a generated record.
type LedgerEntry struct {
	Name        string `json:"Name"`
	Category    string `json:"Category"`
	Achievement string `json:"Achievement"`
	IssueDate   string `json:"Issue Date"`
}

func NewLedgerEntry(r AchievementRecord) LedgerEntry {
	return LedgerEntry{
		Name:        r.RecipientName,
		Category:    r.Category,
		Achievement: r.Achievement,
		IssueDate:   r.ISODate(),
	}
}
