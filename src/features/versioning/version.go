package versioning

import (
	"time"
)

// TokenFormat is the wall-clock layout a version token is built from.
// Millisecond granularity keeps tokens lexically sortable in creation order;
// two writes inside the same millisecond are disambiguated with a counter
// suffix ("-1", "-2", ...).
const TokenFormat = "20060102-150405.000"

// Version is an immutable, timestamped copy of a tracked file. Once written
// it is never edited in place, only created.
type Version struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Path      string    `json:"path"`
	Token     string    `json:"token"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
