package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mccorkel/mnr-hackathon-mobile/internal/fhir"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/gateway"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Querier runs one secure query against the gateway
type Querier interface {
	Query(ctx context.Context, token string, q gateway.QueryRequest) ([]fhir.RawRecord, error)
}

// TokenRefresher exchanges an expired token for a new one
type TokenRefresher interface {
	Refresh(ctx context.Context, token string) (string, error)
}

// Diagnostic explains why a resource kind contributed fewer records than it
// could have. Kind is empty for problems that concern the whole cycle.
type Diagnostic struct {
	Kind  fhir.ResourceKind `json:"resourceKind,omitempty"`
	State QueryState        `json:"-"`
	Err   error             `json:"-"`
}

func (d Diagnostic) String() string {
	if d.Kind == "" {
		return d.Err.Error()
	}
	return fmt.Sprintf("%s: %v", d.Kind.Label(), d.Err)
}

// QueryReport summarizes how one resource kind query went
type QueryReport struct {
	Kind      fhir.ResourceKind `json:"resourceKind"`
	State     QueryState        `json:"-"`
	Outcome   string            `json:"outcome"`
	Attempts  int               `json:"attempts"`
	Refreshed bool              `json:"refreshed"`
	FellBack  bool              `json:"fellBack"`
	Records   int               `json:"records"`
}

// FetchResult is the outcome of querying every resource kind once
type FetchResult struct {
	Records     []fhir.RawRecord
	Diagnostics []Diagnostic
	Reports     []QueryReport
	// Token is the token in use at the end of the cycle, refreshed or not
	Token string
}

// Failed reports whether nothing was loaded: no query succeeded and at least
// one query failed or was skipped
func (r FetchResult) Failed() bool {
	if len(r.Reports) == 0 && len(r.Diagnostics) == 0 {
		return false
	}
	for _, rep := range r.Reports {
		if rep.State == StateSucceeded {
			return false
		}
	}
	return true
}

// Message renders the user-visible explanation of the diagnostics, empty
// when nothing went wrong
func (r FetchResult) Message() string {
	return diagnosticsMessage(r.Diagnostics, r.Failed())
}

func diagnosticsMessage(diags []Diagnostic, failed bool) string {
	if len(diags) == 0 {
		return ""
	}

	var parts []string
	expired := false
	for _, d := range diags {
		parts = append(parts, d.String())
		if errors.Is(d.Err, gateway.ErrAuthExpired) {
			expired = true
		}
	}

	var b strings.Builder
	switch {
	case failed:
		b.WriteString("Could not load your records")
	default:
		b.WriteString("Showing partial results")
	}
	if expired {
		b.WriteString(". Your session has expired, please sign in again")
	}
	b.WriteString(" (")
	b.WriteString(strings.Join(parts, "; "))
	b.WriteString(")")
	return b.String()
}

// Fetcher runs the per-kind queries of a fetch cycle
type Fetcher struct {
	querier   Querier
	refresher TokenRefresher
}

// NewFetcher creates a fetcher. refresher may be nil, in which case expired
// tokens are not recovered.
func NewFetcher(querier Querier, refresher TokenRefresher) *Fetcher {
	return &Fetcher{querier: querier, refresher: refresher}
}

// FetchAll queries every kind in order, one at a time. A failing kind never
// aborts the others; its failure is reported as a diagnostic. Records that do
// not report their own type are tagged with the kind they were queried for.
func (f *Fetcher) FetchAll(ctx context.Context, kinds []fhir.ResourceKind, token string) FetchResult {
	result := FetchResult{Records: []fhir.RawRecord{}, Token: token}

	for _, kind := range kinds {
		if err := ctx.Err(); err != nil {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{Kind: kind, State: StatePending, Err: err})
			continue
		}

		records, report, diags := f.runQuery(ctx, kind, &result.Token)
		result.Reports = append(result.Reports, report)
		result.Diagnostics = append(result.Diagnostics, diags...)

		for _, r := range records {
			result.Records = append(result.Records, fhir.TagKind(r, kind))
		}
	}

	log.Info().
		Int("kinds", len(kinds)).
		Int("records", len(result.Records)).
		Int("diagnostics", len(result.Diagnostics)).
		Msg("Completed fetch")
	return result
}

func (f *Fetcher) runQuery(ctx context.Context, kind fhir.ResourceKind, token *string) ([]fhir.RawRecord, QueryReport, []Diagnostic) {
	startTime := time.Now()
	report := QueryReport{Kind: kind, State: StatePending}
	req := gateway.NewQuery(kind)
	recovered := false
	var diags []Diagnostic

	finish := func(records []fhir.RawRecord) ([]fhir.RawRecord, QueryReport, []Diagnostic) {
		report.Outcome = report.State.String()
		report.Records = len(records)
		metrics.RecordQuery(string(kind), report.Outcome, startTime)
		return records, report, diags
	}

	for {
		report.State = StateSent
		report.Attempts++
		records, err := f.querier.Query(ctx, *token, req)
		report.State = classify(err)

		if report.State == StateSucceeded && err != nil {
			log.Warn().Err(err).Str("resource_kind", string(kind)).Msg("Unusable query response")
			diags = append(diags, Diagnostic{Kind: kind, State: report.State, Err: err})
		}

		action := Transition(report.State, recovered, f.refresher != nil)
		switch action {
		case ActionAccept:
			if report.FellBack {
				metrics.RecordFallback(string(kind), "accepted")
			}
			log.Debug().Str("resource_kind", string(kind)).Int("count", len(records)).Msg("Fetched resources")
			return finish(records)

		case ActionRefreshRetry:
			recovered = true
			log.Info().Str("resource_kind", string(kind)).Msg("Token expired, refreshing")
			newToken, rerr := f.refresher.Refresh(ctx, *token)
			if rerr != nil {
				metrics.RecordTokenRefresh("failed")
				log.Error().Err(rerr).Str("resource_kind", string(kind)).Msg("Failed to refresh token")
				diags = append(diags, Diagnostic{
					Kind:  kind,
					State: report.State,
					Err:   fmt.Errorf("token refresh failed: %w", errors.Join(err, rerr)),
				})
				return finish(nil)
			}
			metrics.RecordTokenRefresh("success")
			*token = newToken
			report.Refreshed = true

		case ActionFallback:
			recovered = true
			log.Warn().Err(err).Str("resource_kind", string(kind)).Int("limit", gateway.FallbackLimit).Msg("Query rejected, sending reduced query")
			req = gateway.FallbackQuery(kind)
			report.FellBack = true

		case ActionGiveUp:
			if report.FellBack {
				metrics.RecordFallback(string(kind), "rejected")
			}
			log.Error().Err(err).Str("resource_kind", string(kind)).Str("state", report.State.String()).Msg("Failed to fetch resources")
			diags = append(diags, Diagnostic{Kind: kind, State: report.State, Err: err})
			return finish(nil)
		}
	}
}
