package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mccorkel/mnr-hackathon-mobile/internal/fhir"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/metrics"
	"github.com/rs/zerolog/log"
)

// ErrNotSignedIn is returned when a cycle starts without an auth token
var ErrNotSignedIn = errors.New("not signed in")

// SessionState supplies what a fetch cycle needs from the signed-in session
type SessionState interface {
	AuthToken() (string, error)
	SelfPatientID() (string, error)
}

// Cycle is the published outcome of one fetch-and-render cycle
type Cycle struct {
	Generation  uint64        `json:"generation"`
	Snapshot    fhir.Snapshot `json:"snapshot"`
	Diagnostics []Diagnostic  `json:"-"`
	Reports     []QueryReport `json:"queries"`
	Message     string        `json:"message,omitempty"`
	StartedAt   time.Time     `json:"startedAt"`
	FinishedAt  time.Time     `json:"finishedAt"`
	// Published is false when a later-started cycle had already published
	Published bool `json:"-"`
}

// SyncManager runs fetch cycles and keeps the latest snapshot. Cycles may
// overlap; the snapshot of a cycle is dropped if a cycle started after it has
// already published.
type SyncManager struct {
	fetcher *Fetcher
	session SessionState
	kinds   []fhir.ResourceKind

	mu        sync.RWMutex
	started   uint64
	published uint64
	current   *Cycle

	wg sync.WaitGroup
}

// NewSyncManager creates a new sync manager
func NewSyncManager(fetcher *Fetcher, session SessionState, kinds []fhir.ResourceKind) *SyncManager {
	if len(kinds) == 0 {
		kinds = fhir.DefaultQueryKinds
	}
	return &SyncManager{
		fetcher: fetcher,
		session: session,
		kinds:   kinds,
	}
}

// Sync runs one cycle to completion and publishes it unless it went stale
func (sm *SyncManager) Sync(ctx context.Context) (Cycle, error) {
	startTime := time.Now()
	gen := sm.nextGeneration()

	token, err := sm.session.AuthToken()
	if err != nil {
		return Cycle{}, err
	}
	if token == "" {
		return Cycle{}, ErrNotSignedIn
	}

	log.Info().Uint64("generation", gen).Int("kinds", len(sm.kinds)).Msg("Starting fetch cycle")
	fetched := sm.fetcher.FetchAll(ctx, sm.kinds, token)

	selfID, err := sm.session.SelfPatientID()
	if err != nil {
		log.Error().Err(err).Msg("Failed to read self-patient")
	}

	diags := fetched.Diagnostics
	snap, err := fhir.BuildSnapshot(fetched.Records, selfID)
	if err != nil {
		log.Warn().Err(err).Int("patients", len(snap.Patients)).Msg("Records hidden until a self-patient is chosen")
		diags = append(diags, Diagnostic{Err: err})
	}
	metrics.RecordExtraction(len(snap.Records), snap.Skipped)

	cycle := Cycle{
		Generation:  gen,
		Snapshot:    snap,
		Diagnostics: diags,
		Reports:     fetched.Reports,
		Message:     diagnosticsMessage(diags, fetched.Failed()),
		StartedAt:   startTime,
		FinishedAt:  time.Now(),
	}
	cycle.Published = sm.publish(cycle)

	result := "success"
	switch {
	case fetched.Failed():
		result = "failed"
	case len(diags) > 0:
		result = "partial"
	}
	metrics.RecordCycle(result, startTime)

	log.Info().
		Uint64("generation", gen).
		Int("records", len(snap.Records)).
		Int("vitals", len(snap.Vitals)).
		Int("skipped", snap.Skipped).
		Bool("published", cycle.Published).
		Str("result", result).
		Msg("Completed fetch cycle")
	return cycle, nil
}

// Trigger starts a cycle in the background, the way a pull-to-refresh does.
// In-flight cycles are not cancelled. Nothing starts once ctx is done.
func (sm *SyncManager) Trigger(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		log.Debug().Err(err).Msg("Skipping fetch cycle after shutdown")
		return
	}
	sm.wg.Add(1)
	go func() {
		defer sm.wg.Done()
		if _, err := sm.Sync(ctx); err != nil {
			log.Error().Err(err).Msg("Fetch cycle failed")
		}
	}()
}

// Wait blocks until every triggered cycle has finished
func (sm *SyncManager) Wait() {
	sm.wg.Wait()
}

// Latest returns the most recently published cycle
func (sm *SyncManager) Latest() (Cycle, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if sm.current == nil {
		return Cycle{}, false
	}
	return *sm.current, true
}

func (sm *SyncManager) nextGeneration() uint64 {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.started++
	return sm.started
}

// publish stores the cycle unless a later-started cycle already published
func (sm *SyncManager) publish(c Cycle) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if c.Generation <= sm.published {
		log.Debug().Uint64("generation", c.Generation).Uint64("published", sm.published).Msg("Dropping stale cycle")
		return false
	}
	c.Published = true
	sm.published = c.Generation
	sm.current = &c
	return true
}
