// internal/inventory/types.go
package inventory

import (
	"time"

	"github.com/tamzrod/uhf-inventory/internal/protocol"
)

// State is the engine lifecycle.
type State int

const (
	Idle State = iota
	Scanning
)

func (s State) String() string {
	if s == Scanning {
		return "scanning"
	}
	return "idle"
}

// Observation is one tag sighting, appended to the observation log.
type Observation struct {
	Round int          `json:"round"`
	At    time.Time    `json:"at"`
	EPC   string       `json:"epc"`
	Tag   protocol.Tag `json:"-"`
}

// TagRecord is the per-EPC entry of the unique tag table.
type TagRecord struct {
	EPC       string    `json:"epc"`
	Antenna   int       `json:"antenna"`
	RSSI      int       `json:"rssi"`
	Reads     int       `json:"reads"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// RoundResult summarizes one inventory round. Never mutated once logged.
type RoundResult struct {
	Round      int           `json:"round"`
	Count      int           `json:"count"`
	Elapsed    time.Duration `json:"elapsed"`
	Throughput int           `json:"throughput"` // tags per second
	NewTags    int           `json:"new_tags"`
	Total      time.Duration `json:"total"`
	Status     byte          `json:"status"`
	Target     byte          `json:"target"`
	At         time.Time     `json:"at"`
	Err        error         `json:"-"`
}
