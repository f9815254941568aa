package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SyncStatus labels a record with its state relative to the remote store.
// The numeric value of each variant is persisted and must never be reused.
type SyncStatus int

const (
	SyncSuccess     SyncStatus = 0 // synchronized, nothing pending
	SyncError       SyncStatus = 1 // last attempt failed, no retry state set
	NeedsSyncCreate SyncStatus = 2
	NeedsSyncUpdate SyncStatus = 3
	NeedsSyncDelete SyncStatus = 4
	SyncRetryCreate SyncStatus = 5
	SyncRetryUpdate SyncStatus = 6
	SyncRetryDelete SyncStatus = 7
)

// ErrUnknownSyncStatus is returned when a code or name maps to no variant.
var ErrUnknownSyncStatus = errors.New("unknown sync status")

var syncStatusNames = [...]string{
	SyncSuccess:     "SYNC_SUCCESS",
	SyncError:       "SYNC_ERROR",
	NeedsSyncCreate: "NEEDS_SYNC_CREATE",
	NeedsSyncUpdate: "NEEDS_SYNC_UPDATE",
	NeedsSyncDelete: "NEEDS_SYNC_DELETE",
	SyncRetryCreate: "SYNC_RETRY_CREATE",
	SyncRetryUpdate: "SYNC_RETRY_UPDATE",
	SyncRetryDelete: "SYNC_RETRY_DELETE",
}

// DefaultSyncStatus is the status of records that originate on the remote side.
func DefaultSyncStatus() SyncStatus {
	return SyncSuccess
}

// DefaultLocalSyncStatus is the status of records freshly created locally.
func DefaultLocalSyncStatus() SyncStatus {
	return NeedsSyncCreate
}

// AllSyncStatuses returns every variant in code order.
func AllSyncStatuses() []SyncStatus {
	all := make([]SyncStatus, 0, len(syncStatusNames))
	for i := range syncStatusNames {
		all = append(all, SyncStatus(i))
	}
	return all
}

// FromCode decodes a persisted status code.
func FromCode(code int) (SyncStatus, error) {
	s := SyncStatus(code)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: code %d", ErrUnknownSyncStatus, code)
	}
	return s, nil
}

// ParseSyncStatus accepts a variant name (any case) or a decimal code.
func ParseSyncStatus(text string) (SyncStatus, error) {
	text = strings.TrimSpace(text)
	if code, err := strconv.Atoi(text); err == nil {
		return FromCode(code)
	}
	for i, name := range syncStatusNames {
		if strings.EqualFold(name, text) {
			return SyncStatus(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSyncStatus, text)
}

// Code returns the stable integer code.
func (s SyncStatus) Code() int {
	return int(s)
}

// Valid reports whether s is one of the eight defined variants.
func (s SyncStatus) Valid() bool {
	return s >= SyncSuccess && int(s) < len(syncStatusNames)
}

func (s SyncStatus) String() string {
	if !s.Valid() {
		return fmt.Sprintf("SyncStatus(%d)", int(s))
	}
	return syncStatusNames[s]
}

// NeedsSync reports whether a local change is waiting for its first push.
// Retry variants are not included; see HasError.
func (s SyncStatus) NeedsSync() bool {
	return s == NeedsSyncCreate || s == NeedsSyncUpdate || s == NeedsSyncDelete
}

// HasError reports whether the last push attempt failed.
func (s SyncStatus) HasError() bool {
	return s == SyncError || s == SyncRetryCreate || s == SyncRetryUpdate || s == SyncRetryDelete
}

// IsRetry reports whether a failed push is eligible for retry.
func (s SyncStatus) IsRetry() bool {
	return s == SyncRetryCreate || s == SyncRetryUpdate || s == SyncRetryDelete
}

func (s SyncStatus) NeedsCreate() bool {
	return s == NeedsSyncCreate || s == SyncRetryCreate
}

func (s SyncStatus) NeedsUpdate() bool {
	return s == NeedsSyncUpdate || s == SyncRetryUpdate
}

func (s SyncStatus) NeedsDelete() bool {
	return s == NeedsSyncDelete || s == SyncRetryDelete
}

// Operation returns the push operation still outstanding for s.
func (s SyncStatus) Operation() Operation {
	switch {
	case s.NeedsCreate():
		return OpCreate
	case s.NeedsUpdate():
		return OpUpdate
	case s.NeedsDelete():
		return OpDelete
	default:
		return OpNone
	}
}

// StatusesFor returns the variants whose outstanding operation is op.
func StatusesFor(op Operation) []SyncStatus {
	var out []SyncStatus
	for _, s := range AllSyncStatuses() {
		if s.Operation() == op {
			out = append(out, s)
		}
	}
	return out
}

// MarshalJSON encodes the status as its integer code.
func (s SyncStatus) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: code %d", ErrUnknownSyncStatus, int(s))
	}
	return []byte(strconv.Itoa(int(s))), nil
}

// UnmarshalJSON accepts an integer code or a quoted variant name. null is
// rejected like a NULL column in Scan.
func (s *SyncStatus) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return fmt.Errorf("%w: null", ErrUnknownSyncStatus)
	}
	var code int
	if err := json.Unmarshal(data, &code); err == nil {
		v, err := FromCode(code)
		if err != nil {
			return err
		}
		*s = v
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("sync status must be a number or string: %w", err)
	}
	v, err := ParseSyncStatus(name)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Value implements the driver.Valuer interface
func (s SyncStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: code %d", ErrUnknownSyncStatus, int(s))
	}
	return int64(s), nil
}

// Scan implements the sql.Scanner interface
func (s *SyncStatus) Scan(value interface{}) error {
	var code int64
	switch v := value.(type) {
	case nil:
		return fmt.Errorf("%w: NULL", ErrUnknownSyncStatus)
	case int64:
		code = v
	case []byte:
		n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrUnknownSyncStatus, v)
		}
		code = n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrUnknownSyncStatus, v)
		}
		code = n
	default:
		return fmt.Errorf("cannot convert %T to SyncStatus", value)
	}
	v, err := FromCode(int(code))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
