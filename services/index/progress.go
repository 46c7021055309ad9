package index

import "time"

type EventType string

const (
	EventInfo     EventType = "info"
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one message on the progress channel. Exactly one terminal event
// (complete or error) is emitted per run, always last.
type Event struct {
	Type        EventType `json:"type"`
	Message     string    `json:"message,omitempty"`
	Current     int       `json:"current,omitempty"`
	Total       int       `json:"total,omitempty"`
	CurrentFile string    `json:"currentFile,omitempty"`
	ETASeconds  int       `json:"eta,omitempty"`
	Success     bool      `json:"success,omitempty"`
	TotalFiles  *int      `json:"totalFiles,omitempty"`
	Indexed     *int      `json:"indexed,omitempty"`
	Skipped     *int      `json:"skipped,omitempty"`
	Error       string    `json:"error,omitempty"`
}

func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

func newInfoEvent(message string) Event {
	return Event{Type: EventInfo, Message: message}
}

func newProgressEvent(current, total int, currentFile, message string, etaSeconds int) Event {
	return Event{
		Type:        EventProgress,
		Current:     current,
		Total:       total,
		CurrentFile: currentFile,
		Message:     message,
		ETASeconds:  etaSeconds,
	}
}

func newCompleteEvent(totalFiles, indexed, skipped int, message string) Event {
	return Event{
		Type:       EventComplete,
		Success:    true,
		TotalFiles: &totalFiles,
		Indexed:    &indexed,
		Skipped:    &skipped,
		Message:    message,
	}
}

func newErrorEvent(err error) Event {
	return Event{Type: EventError, Error: err.Error()}
}

// Sink is the one-way progress channel from the coordinator to a caller.
// Sends are bounded: a consumer that cannot keep up within the timeout
// loses non-terminal events instead of stalling the run.
type Sink struct {
	events  chan Event
	timeout time.Duration
}

func NewSink(buffer int, timeout time.Duration) *Sink {
	return &Sink{
		events:  make(chan Event, buffer),
		timeout: timeout,
	}
}

// Events is the consumer side. The channel is closed after the terminal
// event has been sent.
func (s *Sink) Events() <-chan Event {
	return s.events
}

// emit delivers an event, waiting at most the send timeout. It reports
// whether the event was accepted; terminal events that cannot be delivered
// within the timeout are dropped the same way, the caller decides what a
// lost terminal event means.
func (s *Sink) emit(event Event) bool {
	select {
	case s.events <- event:
		return true
	default:
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case s.events <- event:
		return true
	case <-timer.C:
		return false
	}
}

func (s *Sink) close() {
	close(s.events)
}
