package terminal

import "fmt"

// Severity classifies a notification.
type Severity int

const (
	SeverityNone Severity = iota
	SeveritySuccess
	SeverityFailure
)

func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityFailure:
		return "failure"
	default:
		return "none"
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "success":
		*s = SeveritySuccess
	case "failure":
		*s = SeverityFailure
	case "none", "":
		*s = SeverityNone
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Event is a line of status text for the operator.
type Event struct {
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
}

// Status is a point-in-time view of the machine for renderers.
type Status struct {
	Mode        Mode     `json:"mode"`
	Codes       []string `json:"codes"`
	AllCodes    bool     `json:"all_codes"`
	Automating  bool     `json:"automating"`
	QueuedLines int      `json:"queued_lines"`
	Pending     string   `json:"pending"`
	Event       Event    `json:"event"`
}

// Notifier receives status updates. Notify is called on the key-event
// thread and must not block.
type Notifier interface {
	Notify(Status)
}

// Notifiers fans a status update out to several notifiers.
type Notifiers []Notifier

func (ns Notifiers) Notify(s Status) {
	for _, n := range ns {
		if n != nil {
			n.Notify(s)
		}
	}
}

// NotifierFunc adapts a function to a Notifier.
type NotifierFunc func(Status)

func (f NotifierFunc) Notify(s Status) { f(s) }
