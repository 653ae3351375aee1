// Package enginetest provides an in-memory engine library for tests.
package enginetest

import (
	"strings"
	"sync"

	"smpctl/core/engine"
)

// Response is one scripted answer.
type Response struct {
	Status int32
	Text   string
}

// FakeLibrary implements engine.Library. Responses are queued per command
// name; the last queued response repeats. Unknown commands fail with
// status -1 like the real engine.
type FakeLibrary struct {
	mu        sync.Mutex
	responses map[string][]Response
	calls     []string
	closed    bool
	closeErr  error

	// Block, when set, is received from before every call returns.
	Block chan struct{}
	// Entered, when set, is sent the raw command as each call starts.
	Entered chan string
}

var _ engine.Library = (*FakeLibrary)(nil)

// NewFakeLibrary returns a fake that knows no commands.
func NewFakeLibrary() *FakeLibrary {
	return &FakeLibrary{responses: make(map[string][]Response)}
}

// On queues a response for the named command.
func (f *FakeLibrary) On(name string, status int32, text string) *FakeLibrary {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[name] = append(f.responses[name], Response{Status: status, Text: text})
	return f
}

// OK queues a successful response.
func (f *FakeLibrary) OK(name, text string) *FakeLibrary {
	return f.On(name, 1, text)
}

// FailClose makes Close return err.
func (f *FakeLibrary) FailClose(err error) {
	f.mu.Lock()
	f.closeErr = err
	f.mu.Unlock()
}

func (f *FakeLibrary) Command(cmd string, out []byte) int32 {
	if f.Entered != nil {
		f.Entered <- cmd
	}
	if f.Block != nil {
		<-f.Block
	}

	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	resp := f.next(name(cmd))
	f.mu.Unlock()

	// like the engine: copy what fits, terminate only if there is room
	n := copy(out, resp.Text)
	if n < len(out) {
		out[n] = 0
	}
	return resp.Status
}

func (f *FakeLibrary) next(name string) Response {
	queue := f.responses[name]
	switch len(queue) {
	case 0:
		return Response{Status: -1, Text: "unknown command: " + name}
	case 1:
		return queue[0]
	default:
		f.responses[name] = queue[1:]
		return queue[0]
	}
}

func (f *FakeLibrary) Path() string   { return "fake" }
func (f *FakeLibrary) Symbol() string { return engine.DefaultSymbol }

func (f *FakeLibrary) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.closeErr
}

// Calls returns the raw commands received so far.
func (f *FakeLibrary) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// Closed reports whether Close was called.
func (f *FakeLibrary) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func name(cmd string) string {
	first, _, _ := strings.Cut(cmd, ";")
	_, v, _ := strings.Cut(first, "=")
	return strings.TrimSpace(v)
}
