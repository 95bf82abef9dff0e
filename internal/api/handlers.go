package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mccorkel/mnr-hackathon-mobile/internal/auth"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/fhir"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/orchestrator"
	"github.com/rs/zerolog/log"
)

// Syncer is the part of the sync manager the handlers read from
type Syncer interface {
	Latest() (orchestrator.Cycle, bool)
	Trigger(ctx context.Context)
}

// StatusReporter reports the stored session
type StatusReporter interface {
	Status(now time.Time) (auth.Status, error)
}

// Handlers serves the latest published snapshot over HTTP
type Handlers struct {
	// ctx outlives requests; refresh cycles run under it
	ctx     context.Context
	sync    Syncer
	session StatusReporter
}

// NewHandlers creates the HTTP handlers
func NewHandlers(ctx context.Context, sync Syncer, session StatusReporter) *Handlers {
	return &Handlers{ctx: ctx, sync: sync, session: session}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// latest writes 503 and returns false until a cycle has published
func (h *Handlers) latest(w http.ResponseWriter) (orchestrator.Cycle, bool) {
	cycle, ok := h.sync.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "No records loaded yet")
	}
	return cycle, ok
}

// HealthHandler reports liveness
func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RecordsHandler lists normalized records, optionally narrowed by ?category=
func (h *Handlers) RecordsHandler(w http.ResponseWriter, r *http.Request) {
	cycle, ok := h.latest(w)
	if !ok {
		return
	}

	records := cycle.Snapshot.Records
	if name := r.URL.Query().Get("category"); name != "" {
		category, known := parseCategory(name)
		if !known {
			writeError(w, http.StatusBadRequest, "Unknown category: "+name)
			return
		}
		records = fhir.FilterByCategory(records, category)
	}
	if records == nil {
		records = []fhir.NormalizedRecord{}
	}

	log.Debug().
		Str("path", r.URL.Path).
		Int("records", len(records)).
		Uint64("generation", cycle.Generation).
		Msg("Serving records")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"generation": cycle.Generation,
		"message":    cycle.Message,
		"records":    records,
	})
}

// VitalsHandler lists the latest sample per vital type
func (h *Handlers) VitalsHandler(w http.ResponseWriter, r *http.Request) {
	cycle, ok := h.latest(w)
	if !ok {
		return
	}
	vitals := cycle.Snapshot.Vitals
	if vitals == nil {
		vitals = []fhir.VitalSignSample{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"generation": cycle.Generation,
		"vitals":     vitals,
	})
}

// CategoriesHandler lists record counts per category
func (h *Handlers) CategoriesHandler(w http.ResponseWriter, r *http.Request) {
	cycle, ok := h.latest(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"generation": cycle.Generation,
		"categories": cycle.Snapshot.Categories,
	})
}

// PatientsHandler lists the patient identities found in the last cycle
func (h *Handlers) PatientsHandler(w http.ResponseWriter, r *http.Request) {
	cycle, ok := h.latest(w)
	if !ok {
		return
	}
	patients := cycle.Snapshot.Patients
	if patients == nil {
		patients = []fhir.PatientIdentity{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"generation": cycle.Generation,
		"patients":   patients,
	})
}

// StatusHandler reports the session and the last published cycle
func (h *Handlers) StatusHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.session.Status(time.Now())
	if err != nil {
		log.Error().Err(err).Msg("Failed to read session status")
		writeError(w, http.StatusInternalServerError, "Failed to read session")
		return
	}

	body := map[string]interface{}{"session": st}
	if cycle, ok := h.sync.Latest(); ok {
		body["lastCycle"] = map[string]interface{}{
			"generation": cycle.Generation,
			"message":    cycle.Message,
			"queries":    cycle.Reports,
			"startedAt":  cycle.StartedAt,
			"finishedAt": cycle.FinishedAt,
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// RefreshHandler starts a new fetch cycle without waiting for it
func (h *Handlers) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	log.Info().Str("remote_addr", r.RemoteAddr).Msg("Refresh requested")
	h.sync.Trigger(h.ctx)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

func parseCategory(name string) (fhir.Category, bool) {
	for _, c := range fhir.Categories {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}
