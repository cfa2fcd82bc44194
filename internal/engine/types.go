// Package engine orchestrates sync passes and status reporting across
// the configured crates.
package engine

import (
	"github.com/ai-fdocs/cargo-ai-fdocs/internal/fetch"
	"github.com/ai-fdocs/cargo-ai-fdocs/internal/store"
)

// OutcomeKind is the terminal state of syncing one crate.
type OutcomeKind int

const (
	OutcomeSynced OutcomeKind = iota
	OutcomeCached
	OutcomeSkipped
	OutcomeError
)

// Outcome is the result of one crate's sync. Saved is set for synced
// crates and for cached crates whose entry could be re-read.
type Outcome struct {
	Kind    OutcomeKind
	Saved   *store.SavedCrate
	ErrKind fetch.Kind
}

// Stats aggregates a sync pass for the summary line, with per-kind
// error counters for the breakdown.
type Stats struct {
	Synced  int
	Cached  int
	Skipped int
	Errors  int

	AuthErrors      int
	RateLimitErrors int
	NetworkErrors   int
	NotFoundErrors  int
	OtherErrors     int
}

func (s *Stats) recordError(kind fetch.Kind) {
	s.Errors++
	switch kind {
	case fetch.KindAuth:
		s.AuthErrors++
	case fetch.KindRateLimit:
		s.RateLimitErrors++
	case fetch.KindNetwork:
		s.NetworkErrors++
	case fetch.KindNotFound:
		s.NotFoundErrors++
	default:
		s.OtherErrors++
	}
}
