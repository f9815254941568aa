package models

// Stats represents sync status counts for one table
type Stats struct {
	Table     string
	Total     int64
	ByStatus  map[SyncStatus]int64
	Invalid   int64 // NULL or unknown status codes
	LocalOnly int64 // ids still carrying FakeAPIIDPrefix
}

// NewStats returns empty stats for the named table.
func NewStats(table string) *Stats {
	return &Stats{
		Table:    table,
		ByStatus: make(map[SyncStatus]int64),
	}
}

// Add counts n records with the given status.
func (s *Stats) Add(status SyncStatus, n int64) {
	if s.ByStatus == nil {
		s.ByStatus = make(map[SyncStatus]int64)
	}
	s.Total += n
	s.ByStatus[status] += n
}

// AddInvalid counts records whose status could not be decoded.
func (s *Stats) AddInvalid(n int64) {
	s.Total += n
	s.Invalid += n
}

func (s *Stats) Count(status SyncStatus) int64 {
	return s.ByStatus[status]
}

func (s *Stats) Synced() int64 {
	return s.ByStatus[SyncSuccess]
}

func (s *Stats) NeedsSync() int64 {
	return s.sum(SyncStatus.NeedsSync)
}

func (s *Stats) Errors() int64 {
	return s.sum(SyncStatus.HasError)
}

func (s *Stats) Retries() int64 {
	return s.sum(SyncStatus.IsRetry)
}

// Pending counts records waiting for op, first attempts and retries alike.
func (s *Stats) Pending(op Operation) int64 {
	return s.sum(func(status SyncStatus) bool {
		return status.Operation() == op
	})
}

// Progress is the synced share of all records in percent.
func (s *Stats) Progress() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Synced()) / float64(s.Total) * 100
}

func (s *Stats) sum(match func(SyncStatus) bool) int64 {
	var n int64
	for status, count := range s.ByStatus {
		if match(status) {
			n += count
		}
	}
	return n
}
