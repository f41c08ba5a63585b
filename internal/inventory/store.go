// internal/inventory/store.go
package inventory

import (
	"sync"
	"time"

	"github.com/tamzrod/uhf-inventory/internal/protocol"
	"github.com/tamzrod/uhf-inventory/internal/reader"
)

// store owns the observation log, the unique tag table and the round log.
// Readers get copies.
type store struct {
	mu           sync.RWMutex
	observations []Observation
	tags         map[string]*TagRecord
	order        []string
	rounds       []RoundResult
}

func newStore() *store {
	return &store{tags: make(map[string]*TagRecord)}
}

// addTags logs every sighting and returns them as observations.
func (s *store) addTags(round int, at time.Time, tags []protocol.Tag) []Observation {
	if len(tags) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Observation, 0, len(tags))
	for _, t := range tags {
		epc := reader.EncodeHex(t.EPC)
		if epc == "" {
			continue
		}

		o := Observation{Round: round, At: at, EPC: epc, Tag: t}
		s.observations = append(s.observations, o)
		out = append(out, o)

		rec, ok := s.tags[epc]
		if !ok {
			rec = &TagRecord{EPC: epc, FirstSeen: at}
			s.tags[epc] = rec
			s.order = append(s.order, epc)
		}
		rec.Antenna = t.Antenna
		rec.RSSI = t.RSSI
		rec.Reads++
		rec.LastSeen = at
	}
	return out
}

func (s *store) addRound(r RoundResult) {
	s.mu.Lock()
	s.rounds = append(s.rounds, r)
	s.mu.Unlock()
}

func (s *store) tagCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *store) snapshotObservations() []Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Observation(nil), s.observations...)
}

func (s *store) snapshotTags() []TagRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TagRecord, 0, len(s.order))
	for _, epc := range s.order {
		out = append(out, *s.tags[epc])
	}
	return out
}

func (s *store) snapshotRounds() []RoundResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]RoundResult(nil), s.rounds...)
}

func (s *store) reset() {
	s.mu.Lock()
	s.observations = nil
	s.tags = make(map[string]*TagRecord)
	s.order = nil
	s.rounds = nil
	s.mu.Unlock()
}
