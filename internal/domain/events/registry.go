package events

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/record"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/apperr"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/jsonv"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// namespace scopes event subject ids
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://agent-registry/events"))

// Decoded is a validated event ready to sync
type Decoded struct {
	Event   Event
	Subject string
	Record  *record.Record
}

// Registry maps event types to their schemas
type Registry struct {
	schemas map[string]func() Event
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]func() Event)}
}

// DefaultRegistry knows every built-in event type
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(TypeQuizCompleted, func() Event { return &QuizCompleted{} })
	r.Register(TypeCommunityJoined, func() Event { return &CommunityJoined{} })
	return r
}

// Register adds a schema for eventType
func (r *Registry) Register(eventType string, factory func() Event) {
	r.schemas[eventType] = factory
}

// Types lists the registered event types
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.schemas))
	for t := range r.schemas {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Decode validates body against the schema of its type and derives the
// subject and record. The subject is a name-based UUID of the event
// identity, so a replayed delivery maps onto the same subject.
func (r *Registry) Decode(body []byte) (*Decoded, error) {
	doc, err := jsonv.Parse(body)
	if err != nil {
		return nil, apperr.Validation("event body is not valid JSON: %v", err)
	}
	if !doc.IsObject() {
		return nil, apperr.Validation("event body must be a JSON object")
	}

	eventType, _ := doc.LookupString("type")
	factory, ok := r.schemas[eventType]
	if !ok {
		return nil, apperr.Validation("unknown event type %q, expected one of %s", eventType, strings.Join(r.Types(), ", "))
	}

	evt := factory()
	if err := binding.JSON.BindBody(body, evt); err != nil {
		return nil, apperr.Wrap(apperr.CategoryValidation, "invalid "+eventType+" event: "+describe(err), err)
	}

	return &Decoded{
		Event:   evt,
		Subject: SubjectFor(evt),
		Record:  record.Build(doc),
	}, nil
}

// SubjectFor returns the deterministic subject id of evt
func SubjectFor(evt Event) string {
	name := evt.EventType() + "|" + strings.Join(evt.Identity(), "|")
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		parts = append(parts, fmt.Sprintf("%s failed %q", field, fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
