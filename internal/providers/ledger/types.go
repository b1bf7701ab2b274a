package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/record"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/jsonv"
)

// ErrNotFound is returned by GetDetails for unknown subjects
var ErrNotFound = errors.New("subject not found")

// Client is the contract of the remote registry
type Client interface {
	// Sync upserts one or more subjects with their records
	Sync(ctx context.Context, data map[string]*record.Record) error
	// Search returns subjects matching every criterion
	Search(ctx context.Context, criteria []Criterion, trustedAccounts []string) ([]SearchResult, error)
	// GetDetails returns the stored attributes of one subject
	GetDetails(ctx context.Context, subject string) (*Entry, error)
}

// Criterion matches subjects holding a predicate with the given object value
type Criterion struct {
	Key   string
	Value string
}

// MarshalJSON encodes the criterion as a single-member object {key: value}
func (c Criterion) MarshalJSON() ([]byte, error) {
	out := []byte{'{'}
	out = jsonv.AppendQuoted(out, c.Key)
	out = append(out, ':')
	out = jsonv.AppendQuoted(out, c.Value)
	return append(out, '}'), nil
}

// UnmarshalJSON decodes a single-member object
func (c *Criterion) UnmarshalJSON(data []byte) error {
	v, err := jsonv.Parse(data)
	if err != nil {
		return err
	}
	if !v.IsObject() || v.Members().Len() != 1 {
		return fmt.Errorf("criterion must be an object with exactly one key")
	}
	var decodeErr error
	v.Members().Each(func(key string, value jsonv.Value) {
		if value.Kind() == jsonv.Object || value.Kind() == jsonv.Array || value.IsNull() {
			decodeErr = fmt.Errorf("criterion %q must have a scalar value", key)
			return
		}
		c.Key = key
		c.Value = value.Text()
	})
	return decodeErr
}

// Atom is a stored value. Data is the raw form; Label is an optional display
// form.
type Atom struct {
	Data  string `json:"data"`
	Label string `json:"label,omitempty"`
}

// Display returns the label, falling back to the raw data
func (a Atom) Display() string {
	if a.Label != "" {
		return a.Label
	}
	return a.Data
}

// Triple is one (predicate, object) pair stored for a subject
type Triple struct {
	Predicate string `json:"predicate"`
	Object    Atom   `json:"object"`
}

// Entry is a subject with all of its stored triples
type Entry struct {
	Subject string   `json:"subject"`
	Triples []Triple `json:"triples"`
}

// SearchResult is one subject matching a search
type SearchResult struct {
	Subject string   `json:"subject"`
	Triples []Triple `json:"triples,omitempty"`
}

// Values returns the raw object data stored under predicate
func (e *Entry) Values(predicate string) []string {
	var out []string
	for _, t := range e.Triples {
		if t.Predicate == predicate {
			out = append(out, t.Object.Data)
		}
	}
	return out
}
