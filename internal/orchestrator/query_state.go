package orchestrator

import (
	"errors"

	"github.com/mccorkel/mnr-hackathon-mobile/internal/fhir"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/gateway"
)

// QueryState is the state of one resource kind query
type QueryState int

const (
	StatePending QueryState = iota
	StateSent
	StateSucceeded
	StateAuthExpired
	StateServerError
	StateNetworkError
)

func (s QueryState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSent:
		return "sent"
	case StateSucceeded:
		return "succeeded"
	case StateAuthExpired:
		return "auth_expired"
	case StateServerError:
		return "server_error"
	case StateNetworkError:
		return "network_error"
	}
	return "unknown"
}

// Action is what the fetcher does after a query attempt settles
type Action int

const (
	// ActionAccept keeps the attempt's records
	ActionAccept Action = iota
	// ActionRefreshRetry refreshes the token and resends the same query
	ActionRefreshRetry
	// ActionFallback sends the reduced query for the same kind
	ActionFallback
	// ActionGiveUp drops the kind and moves on
	ActionGiveUp
)

func (a Action) String() string {
	switch a {
	case ActionAccept:
		return "accept"
	case ActionRefreshRetry:
		return "refresh_retry"
	case ActionFallback:
		return "fallback"
	}
	return "give_up"
}

// Transition decides the next action for a settled attempt. A query gets at
// most one recovery: once recovered is set, any failure gives up.
func Transition(state QueryState, recovered, canRefresh bool) Action {
	switch state {
	case StateSucceeded:
		return ActionAccept
	case StateAuthExpired:
		if !recovered && canRefresh {
			return ActionRefreshRetry
		}
	case StateServerError:
		if !recovered {
			return ActionFallback
		}
	}
	return ActionGiveUp
}

// classify maps a query error to the state it settles the query in. A
// malformed body counts as a success with no records.
func classify(err error) QueryState {
	switch {
	case err == nil, errors.Is(err, fhir.ErrMalformedResponse):
		return StateSucceeded
	case errors.Is(err, gateway.ErrAuthExpired):
		return StateAuthExpired
	case errors.Is(err, gateway.ErrServerRejected):
		return StateServerError
	}
	return StateNetworkError
}
