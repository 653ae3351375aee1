package engine

import "time"

// Status is the return code of the command function.
type Status int32

const (
	StatusBusy Status = 0
	StatusOK   Status = 1
)

// OK reports success. Any negative status is an error.
func (s Status) OK() bool { return s == StatusOK }

func (s Status) String() string {
	switch {
	case s == StatusOK:
		return "ok"
	case s == StatusBusy:
		return "busy"
	case s < 0:
		return "error"
	default:
		return "unknown"
	}
}

// Result is one completed library call.
type Result struct {
	Command   string // raw command as sent
	Name      string
	Status    Status
	Text      string
	Truncated bool
	Values    Values // parsed only on success
	Started   time.Time
	Duration  time.Duration
}

func (r *Result) OK() bool { return r.Status.OK() }

// Err returns nil on success and a *CommandError otherwise.
func (r *Result) Err() error {
	if r.OK() {
		return nil
	}
	return &CommandError{Name: r.Name, Status: r.Status, Message: r.Text}
}

// Value returns a parsed value by key.
func (r *Result) Value(key string) (Value, bool) {
	return r.Values.Get(key)
}

// Typed returns the response values converted for display or JSON.
func (r *Result) Typed() map[string]any {
	return r.Values.TypedMap(r.Name)
}
