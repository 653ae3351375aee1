package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"smpctl/logger"
)

// Observer is notified of every completed command, including results that
// arrive after their caller gave up waiting.
type Observer interface {
	Observe(ctx context.Context, res *Result)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, res *Result)

func (f ObserverFunc) Observe(ctx context.Context, res *Result) { f(ctx, res) }

// Option configures a Client.
type Option func(*Client)

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observers = append(c.observers, o) }
}

// WithCallTimeout bounds how long a caller waits for each command. Zero
// means no limit beyond the caller's context.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// Client sends commands to the engine through a Loop.
type Client struct {
	loop    *Loop
	timeout time.Duration

	mu        sync.RWMutex
	observers []Observer
}

// Options describes how to open the engine library.
type Options struct {
	LibraryPath string
	Symbols     []string
	BufferSize  int
	CallTimeout time.Duration
}

// Connect opens the library and starts a client on it.
func Connect(o Options, opts ...Option) (*Client, error) {
	lib, err := Open(o.LibraryPath, o.Symbols...)
	if err != nil {
		return nil, err
	}
	logger.Info("engine library loaded",
		logger.String("path", lib.Path()),
		logger.String("symbol", lib.Symbol()))

	if o.CallTimeout > 0 {
		opts = append([]Option{WithCallTimeout(o.CallTimeout)}, opts...)
	}
	return NewClient(lib, o.BufferSize, opts...), nil
}

// NewClient starts a client on an already opened library. The client owns
// the library from now on.
func NewClient(lib Library, bufSize int, opts ...Option) *Client {
	if bufSize <= 0 {
		bufSize = 4096
	}
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	c.loop = NewLoop(lib, bufSize, c.lateResult)
	return c
}

// AddObserver registers o for all following results.
func (c *Client) AddObserver(o Observer) {
	c.mu.Lock()
	c.observers = append(c.observers, o)
	c.mu.Unlock()
}

// Library returns the underlying library.
func (c *Client) Library() Library { return c.loop.Library() }

// Exec sends a raw command and returns the result whatever its status.
// The error is non-nil only when the command could not be run.
func (c *Client) Exec(ctx context.Context, raw string) (*Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	res, err := c.loop.Submit(ctx, raw)
	if err != nil {
		logger.Debug("engine command not completed",
			logger.String("command", raw),
			logger.ErrorField(err))
		return nil, err
	}

	logger.Debug("engine command",
		logger.String("command", raw),
		logger.Int32("status", int32(res.Status)),
		logger.Duration("duration", res.Duration))
	if res.Truncated {
		logger.Warn("engine response truncated",
			logger.String("command", res.Name),
			logger.Int("buffer_size", c.loop.BufferSize()))
	}

	c.notify(context.WithoutCancel(ctx), res)
	return res, nil
}

// Send encodes cmd and executes it leniently.
func (c *Client) Send(ctx context.Context, cmd Command) (*Result, error) {
	raw, err := cmd.Encode()
	if err != nil {
		return nil, err
	}
	return c.Exec(ctx, raw)
}

// Do runs a command and turns any non-success status into a *CommandError.
func (c *Client) Do(ctx context.Context, name string, args ...Arg) (*Result, error) {
	res, err := c.Send(ctx, NewCommand(name, args...))
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// Close shuts down the dispatch loop and releases the library.
func (c *Client) Close() error {
	if err := c.loop.Close(); err != nil {
		return fmt.Errorf("failed to close engine library: %w", err)
	}
	return nil
}

func (c *Client) lateResult(res *Result) {
	logger.Warn("engine command finished after caller gave up",
		logger.String("command", res.Command),
		logger.Int32("status", int32(res.Status)),
		logger.Duration("duration", res.Duration))
	go c.notify(context.Background(), res)
}

func (c *Client) notify(ctx context.Context, res *Result) {
	c.mu.RLock()
	observers := c.observers
	c.mu.RUnlock()

	for _, o := range observers {
		o.Observe(ctx, res)
	}
}
