package rawdata

import "time"

// Payload archives one raw EA API response so sessions can be re-combined
// after pipeline fixes without refetching.
type Payload struct {
	Source      string
	EntityType  string
	EntityKey   string
	ClubID      string
	MatchID     string
	PayloadJSON string
	PayloadHash string
	FetchedAt   time.Time
}
