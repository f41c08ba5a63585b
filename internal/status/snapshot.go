// internal/status/snapshot.go
package status

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16 `json:"health"`
	LastErrorCode  uint16 `json:"last_error_code"`
	SecondsInError uint32 `json:"seconds_in_error"`

	Scanning        bool   `json:"scanning"`
	LastRoundCount  uint32 `json:"last_round_count"`
	UniqueTags      uint32 `json:"unique_tags"`
	Rounds          uint32 `json:"rounds"`
	LastRoundStatus uint16 `json:"last_round_status"`
	Feedback        bool   `json:"feedback"`
}
