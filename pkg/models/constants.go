package models

import (
	"strings"

	"github.com/google/uuid"
)

const (
	AttachmentsFolder      = "SageOne"
	FakeAPIIDPrefix        = "foo-"
	TempImagePrefix        = "tmpimg-"
	ContactsCompanyDefault = "-"
)

// Owner types for attachments
const (
	IncomeAttachment  = "incomes"
	ExpenseAttachment = "expenses"
	ContactAttachment = "contacts"
)

// NewLocalID returns an id for a record that has not reached the server yet.
// The prefix overwrites the head of a random UUID so the length is unchanged.
func NewLocalID() string {
	return FakeAPIIDPrefix + uuid.NewString()[len(FakeAPIIDPrefix):]
}

// IsPersistedOnServer reports whether id was assigned by the remote store.
func IsPersistedOnServer(id string) bool {
	return strings.TrimSpace(id) != "" && !strings.HasPrefix(id, FakeAPIIDPrefix)
}
