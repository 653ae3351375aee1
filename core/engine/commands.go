package engine

import (
	"context"
	"fmt"
	"time"
)

// Typed wrappers for the commands used by the tutorials and the demo. They
// all take the strict path, so a failing status comes back as *CommandError.

// Drivers lists the names of the installed audio drivers.
func (c *Client) Drivers(ctx context.Context) ([]string, error) {
	res, err := c.Do(ctx, "getdrivers")
	if err != nil {
		return nil, err
	}
	v, ok := res.Value("driver")
	if !ok {
		return nil, nil
	}
	return v.Strings(), nil
}

// DriverStatus returns one flag per driver, 1 usable and 0 not.
func (c *Client) DriverStatus(ctx context.Context) ([]int, error) {
	res, err := c.Do(ctx, "getdriverstatus")
	if err != nil {
		return nil, err
	}
	return intsValue(res, "value")
}

// ChannelList holds channel names of a driver.
type ChannelList struct {
	Output []string `json:"output"`
	Input  []string `json:"input"`
}

// Channels returns the channel names of a driver, given by index or name.
func (c *Client) Channels(ctx context.Context, driver string) (ChannelList, error) {
	res, err := c.Do(ctx, "getchannels", A("driver", driver))
	if err != nil {
		return ChannelList{}, err
	}
	return channelList(res), nil
}

// ActiveChannels returns the channels opened by init.
func (c *Client) ActiveChannels(ctx context.Context) (ChannelList, error) {
	res, err := c.Do(ctx, "getactivechannels")
	if err != nil {
		return ChannelList{}, err
	}
	return channelList(res), nil
}

func channelList(res *Result) ChannelList {
	var cl ChannelList
	if v, ok := res.Value("output"); ok {
		cl.Output = v.Strings()
	}
	if v, ok := res.Value("input"); ok {
		cl.Input = v.Strings()
	}
	return cl
}

// InitOptions are the arguments of init. Zero fields are not sent.
type InitOptions struct {
	Driver     string
	Output     []int
	Input      []int
	Tracks     int
	SampleRate int
	Extra      []Arg
}

func (o InitOptions) args() []Arg {
	var args []Arg
	if o.Driver != "" {
		args = append(args, A("driver", o.Driver))
	}
	if len(o.Output) > 0 {
		args = append(args, A("output", o.Output))
	}
	if len(o.Input) > 0 {
		args = append(args, A("input", o.Input))
	}
	if o.Tracks > 0 {
		args = append(args, A("track", o.Tracks))
	}
	if o.SampleRate > 0 {
		args = append(args, A("samplerate", o.SampleRate))
	}
	return append(args, o.Extra...)
}

func (c *Client) Init(ctx context.Context, o InitOptions) (*Result, error) {
	return c.Do(ctx, "init", o.args()...)
}

func (c *Client) Initialized(ctx context.Context) (bool, error) {
	res, err := c.Do(ctx, "initialized")
	if err != nil {
		return false, err
	}
	v, ok := firstValue(res, "initialized", "value")
	if !ok {
		return false, fmt.Errorf("initialized: no value in response %q", res.Text)
	}
	return v.Bool()
}

func (c *Client) Version(ctx context.Context) (string, error) {
	res, err := c.Do(ctx, "version")
	if err != nil {
		return "", err
	}
	v, ok := firstValue(res, "version", "value")
	if !ok {
		return res.Text, nil
	}
	return v.Raw, nil
}

// LicenseInfo is the answer of the license command.
type LicenseInfo struct {
	Version string `json:"version"`
	Edition string `json:"edition"`
}

func (c *Client) License(ctx context.Context) (LicenseInfo, error) {
	res, err := c.Do(ctx, "license")
	if err != nil {
		return LicenseInfo{}, err
	}
	var li LicenseInfo
	if v, ok := res.Value("Version"); ok {
		li.Version = v.String()
	}
	if v, ok := res.Value("Ed"); ok {
		li.Edition = v.String()
	}
	return li, nil
}

// Show opens the engine's visualization window.
func (c *Client) Show(ctx context.Context) error {
	_, err := c.Do(ctx, "show")
	return err
}

func (c *Client) Hide(ctx context.Context) error {
	_, err := c.Do(ctx, "hide")
	return err
}

// LoadFileOptions are the arguments of loadfile. Zero fields are not sent.
type LoadFileOptions struct {
	Filename  string
	Tracks    []int
	LoopCount int
	Offset    int
	Name      string
	Extra     []Arg
}

func (o LoadFileOptions) args() []Arg {
	args := []Arg{A("filename", o.Filename)}
	if len(o.Tracks) > 0 {
		args = append(args, A("track", o.Tracks))
	}
	if o.LoopCount > 0 {
		args = append(args, A("loopcount", o.LoopCount))
	}
	if o.Offset > 0 {
		args = append(args, A("offset", o.Offset))
	}
	if o.Name != "" {
		args = append(args, A("name", o.Name))
	}
	return append(args, o.Extra...)
}

// LoadFile queues an audio file for playback.
func (c *Client) LoadFile(ctx context.Context, o LoadFileOptions) (*Result, error) {
	if o.Filename == "" {
		return nil, invalidCommand("loadfile without filename")
	}
	return c.Do(ctx, "loadfile", o.args()...)
}

// StartOptions are the arguments of start. A nil Length uses the engine
// default; 0 plays endlessly and -1 stops once no track has data.
type StartOptions struct {
	Length *int
}

// StartLength returns StartOptions with the given length in samples.
func StartLength(samples int) StartOptions {
	return StartOptions{Length: &samples}
}

func (c *Client) Start(ctx context.Context, o StartOptions) error {
	var args []Arg
	if o.Length != nil {
		args = append(args, A("length", *o.Length))
	}
	_, err := c.Do(ctx, "start", args...)
	return err
}

func (c *Client) Stop(ctx context.Context) error {
	_, err := c.Do(ctx, "stop")
	return err
}

func (c *Client) Pause(ctx context.Context, paused bool) error {
	_, err := c.Do(ctx, "pause", A("value", paused))
	return err
}

// Playing returns one flag per output channel, non-zero while it plays.
func (c *Client) Playing(ctx context.Context) ([]int, error) {
	res, err := c.Do(ctx, "playing")
	if err != nil {
		return nil, err
	}
	return intsValue(res, "value")
}

// Started reports whether the device is running.
func (c *Client) Started(ctx context.Context) (bool, error) {
	res, err := c.Do(ctx, "started")
	if err != nil {
		return false, err
	}
	v, ok := res.Value("value")
	if !ok {
		return false, fmt.Errorf("started: no value in response %q", res.Text)
	}
	return v.Bool()
}

// Wait blocks inside the engine until playback is done. Mode "stop" also
// waits for the device to stop; an empty mode is not sent.
func (c *Client) Wait(ctx context.Context, mode string) error {
	var args []Arg
	if mode != "" {
		args = append(args, A("mode", mode))
	}
	_, err := c.Do(ctx, "wait", args...)
	return err
}

// WaitIdle polls playing until every channel reports 0 or ctx ends. Unlike
// Wait it never blocks the dispatch thread for the whole playback.
func (c *Client) WaitIdle(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		playing, err := c.Playing(ctx)
		if err != nil {
			return err
		}
		if allZero(playing) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Volume sets the master volume, one factor for all channels or one per
// channel.
func (c *Client) Volume(ctx context.Context, values ...float64) error {
	if len(values) == 0 {
		return invalidCommand("volume without values")
	}
	_, err := c.Do(ctx, "volume", A("value", values))
	return err
}

// TrackVolume sets the volume of the given tracks. No tracks means all.
func (c *Client) TrackVolume(ctx context.Context, tracks []int, values ...float64) error {
	if len(values) == 0 {
		return invalidCommand("trackvolume without values")
	}
	var args []Arg
	if len(tracks) > 0 {
		args = append(args, A("track", tracks))
	}
	args = append(args, A("value", values))
	_, err := c.Do(ctx, "trackvolume", args...)
	return err
}

// RecFilename sets the recording file of a channel and returns the file
// names of all recording channels. An empty filename only queries.
func (c *Client) RecFilename(ctx context.Context, channel int, filename string) ([]string, error) {
	var args []Arg
	if filename != "" {
		args = append(args, A("filename", filename), A("channel", channel))
	}
	res, err := c.Do(ctx, "recfilename", args...)
	if err != nil {
		return nil, err
	}
	v, ok := res.Value("value")
	if !ok {
		return nil, nil
	}
	return v.Strings(), nil
}

// LastError returns the message of the last failed command.
func (c *Client) LastError(ctx context.Context) (string, error) {
	res, err := c.Do(ctx, "getlasterror")
	if err != nil {
		return "", err
	}
	if v, ok := res.Value("error"); ok {
		return v.Raw, nil
	}
	return "", nil
}

// Exit shuts the engine down. The library stays loaded until Close.
func (c *Client) Exit(ctx context.Context) error {
	_, err := c.Do(ctx, "exit")
	return err
}

func firstValue(res *Result, keys ...string) (Value, bool) {
	for _, k := range keys {
		if v, ok := res.Value(k); ok {
			return v, true
		}
	}
	return Value{}, false
}

func intsValue(res *Result, key string) ([]int, error) {
	v, ok := res.Value(key)
	if !ok {
		return nil, fmt.Errorf("%s: no %s in response %q", res.Name, key, res.Text)
	}
	ints, err := v.Ints()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", res.Name, err)
	}
	return ints, nil
}

func allZero(xs []int) bool {
	for _, x := range xs {
		if x != 0 {
			return false
		}
	}
	return true
}
