package models

// Record is the part of an externally stored row this tool reads
type Record struct {
	ID     string
	Status SyncStatus
}

// IsPersistedOnServer reports whether the record carries a server-assigned id.
func (r Record) IsPersistedOnServer() bool {
	return IsPersistedOnServer(r.ID)
}

// Table describes an external table whose rows carry a sync status column.
type Table struct {
	Name         string `yaml:"name"`
	IDColumn     string `yaml:"id_column"`
	StatusColumn string `yaml:"status_column"`
}

// Default column names used by the mobile client schema
const (
	DefaultIDColumn     = "id"
	DefaultStatusColumn = "sync"
)

// WithDefaults fills empty column names.
func (t Table) WithDefaults() Table {
	if t.IDColumn == "" {
		t.IDColumn = DefaultIDColumn
	}
	if t.StatusColumn == "" {
		t.StatusColumn = DefaultStatusColumn
	}
	return t
}
