package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/record"
)

// alreadyExistsMarker is the fragment the registry puts in conflict errors
// for atoms and triples that are already stored. Matching on text is the
// only signal the registry gives; keep this the single place that does it.
const alreadyExistsMarker = "already exists"

// Outcome is the structured result of an upsert
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeAlreadyExists
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeAlreadyExists:
		return "already_exists"
	default:
		return "failure"
	}
}

// Result pairs an outcome with the failure detail, if any
type Result struct {
	Outcome Outcome
	Err     error
}

// Upsert calls Sync once and classifies the error at the boundary
func Upsert(ctx context.Context, c Client, data map[string]*record.Record) Result {
	err := c.Sync(ctx, data)
	return Result{Outcome: Classify(err), Err: err}
}

// Classify maps a Sync error to an Outcome by inspecting the message of the
// error and of every wrapped cause
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	if mentionsAlreadyExists(err) {
		return OutcomeAlreadyExists
	}
	return OutcomeFailure
}

func mentionsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	if strings.Contains(strings.ToLower(err.Error()), alreadyExistsMarker) {
		return true
	}
	switch e := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if mentionsAlreadyExists(inner) {
				return true
			}
		}
		return false
	default:
		return mentionsAlreadyExists(errors.Unwrap(err))
	}
}
