package engine

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"time"
)

type request struct {
	ctx   context.Context
	raw   string
	reply chan *Result
}

// Loop serializes every library call onto a single goroutine locked to its
// OS thread. The engine keeps thread affine state, so all calls, including
// the final close, must come from the same thread.
type Loop struct {
	lib  Library
	buf  []byte
	late func(*Result)

	requests chan request
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
	err    error
}

// NewLoop starts the dispatch goroutine. late receives results whose caller
// stopped waiting while the native call was in progress; it may be nil.
func NewLoop(lib Library, bufSize int, late func(*Result)) *Loop {
	l := &Loop{
		lib:      lib,
		buf:      make([]byte, bufSize),
		late:     late,
		requests: make(chan request),
		done:     make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(l.done)

	for req := range l.requests {
		// dropped before the call started
		if req.ctx.Err() != nil {
			continue
		}
		res := l.call(req.raw)
		select {
		case req.reply <- res:
		case <-req.ctx.Done():
			if l.late != nil {
				l.late(res)
			}
		}
	}
	l.err = l.lib.Close()
}

func (l *Loop) call(raw string) *Result {
	clear(l.buf)
	res := &Result{Command: raw, Name: commandName(raw), Started: time.Now()}
	res.Status = Status(l.lib.Command(raw, l.buf))
	res.Duration = time.Since(res.Started)
	res.Text, res.Truncated = DecodeResponse(l.buf)
	if res.OK() {
		res.Values = ParseValues(res.Text)
	}
	return res
}

// Submit runs one raw command and waits for its result. If ctx ends while
// the command is still queued it is never sent. A command already running
// cannot be interrupted; the caller gets ctx.Err() and the result goes to
// the late handler.
func (l *Loop) Submit(ctx context.Context, raw string) (*Result, error) {
	if strings.IndexByte(raw, 0) >= 0 {
		return nil, invalidCommand("command contains a NUL byte")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := request{ctx: ctx, raw: raw, reply: make(chan *Result)}

	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return nil, ErrClosed
	}
	select {
	case l.requests <- req:
		l.mu.RUnlock()
	case <-ctx.Done():
		l.mu.RUnlock()
		return nil, ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting commands, waits for the running one and closes the
// library from the dispatch thread. It is safe to call more than once.
func (l *Loop) Close() error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.requests)
	}
	l.mu.Unlock()

	<-l.done
	return l.err
}

// Library returns the library the loop dispatches to.
func (l *Loop) Library() Library { return l.lib }

// BufferSize is the capacity of the response buffer.
func (l *Loop) BufferSize() int { return len(l.buf) }

func commandName(raw string) string {
	first, _, _ := strings.Cut(raw, ";")
	key, value, found := strings.Cut(first, "=")
	if !found || !strings.EqualFold(strings.TrimSpace(key), "command") {
		return ""
	}
	return strings.TrimSpace(value)
}
