package provisioning

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/go-logr/logr"
)

// Observer is told about every phase transition and every cloud or cluster
// object the agent converges. Implementations must be safe for concurrent
// use; ProvisionAll shares one across workers.
type Observer interface {
	Event(event Event)

	// WithFields derives an observer that stamps fields on every event,
	// typically the cluster and provider of one request.
	WithFields(fields map[string]string) Observer
}

// Event is one observation. Phase carries the "<name> (i/n)" label while a
// pipeline runs.
type Event struct {
	Type      EventType
	Phase     string
	Message   string
	Resource  string // cluster endpoint, DNS name, kubernetes object
	Timestamp time.Time
	Fields    map[string]string
}

// EventType is the dotted event name written under the "event" log key.
type EventType string

const (
	EventPhaseStarted   EventType = "phase.started"
	EventPhaseCompleted EventType = "phase.completed"
	EventPhaseFailed    EventType = "phase.failed"

	// EventResourceCreated covers both a fresh create and an adopted
	// existing object; reruns report the same event.
	EventResourceCreated EventType = "resource.created"
	EventResourceDeleted EventType = "resource.deleted"

	// EventValidationWarning is any condition that is reported but does not
	// fail the request, such as an open control plane CIDR or a DNS record
	// that could not be written.
	EventValidationWarning EventType = "validation.warning"
)

// LogObserver writes events as structured log lines.
type LogObserver struct {
	logger logr.Logger
	fields map[string]string
}

func NewLogObserver(logger logr.Logger) *LogObserver {
	return &LogObserver{logger: logger, fields: map[string]string{}}
}

func (o *LogObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	merged := maps.Clone(o.fields)
	maps.Copy(merged, event.Fields)

	kv := make([]any, 0, 6+2*len(merged))
	kv = append(kv, "event", string(event.Type))
	if event.Phase != "" {
		kv = append(kv, "phase", event.Phase)
	}
	if event.Resource != "" {
		kv = append(kv, "resource", event.Resource)
	}
	for _, k := range slices.Sorted(maps.Keys(merged)) {
		kv = append(kv, k, merged[k])
	}

	if event.Type == EventPhaseFailed {
		// The cause is already in the message; callers get the error itself.
		o.logger.Error(nil, event.Message, kv...)
		return
	}
	o.logger.Info(event.Message, kv...)
}

func (o *LogObserver) WithFields(fields map[string]string) Observer {
	merged := maps.Clone(o.fields)
	maps.Copy(merged, fields)
	return &LogObserver{logger: o.logger, fields: merged}
}

func LogPhaseStart(observer Observer, phase string) {
	observer.Event(Event{Type: EventPhaseStarted, Phase: phase, Message: "starting"})
}

func LogPhaseComplete(observer Observer, phase string, took time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   phase,
		Message: "completed in " + took.Round(time.Millisecond).String(),
	})
}

func LogPhaseFailed(observer Observer, phase string, err error) {
	observer.Event(Event{Type: EventPhaseFailed, Phase: phase, Message: fmt.Sprintf("failed: %v", err)})
}

// LogResource reports that an object of kind is in its desired state.
func LogResource(observer Observer, phase, kind, name string) {
	observer.Event(Event{
		Type:     EventResourceCreated,
		Phase:    phase,
		Resource: name,
		Message:  kind + " ready",
		Fields:   map[string]string{"type": kind},
	})
}

func LogWarning(observer Observer, phase, message string) {
	observer.Event(Event{Type: EventValidationWarning, Phase: phase, Message: message})
}
