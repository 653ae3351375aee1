package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smpctl/core/engine"
	"smpctl/core/engine/enginetest"
)

func TestTypedHelpers(t *testing.T) {
	lib := enginetest.NewFakeLibrary().
		OK("getdrivers", "driver=ASIO4ALL v2,1234").
		OK("getdriverstatus", "value=1,0").
		OK("getchannels", "output=Out 1,2;input=In 1").
		OK("init", "Version=2;Ed=full").
		OK("initialized", "initialized=1").
		OK("version", "value=2.9.1.0").
		OK("license", "Version=2;Ed=Standard").
		OK("started", "value=1").
		OK("recfilename", "value=myrecfile.wav,rec_1.wav").
		OK("getlasterror", "error=unknown command 'unknown'")
	client := engine.NewClient(lib, 4096)
	defer client.Close()
	ctx := context.Background()

	drivers, err := client.Drivers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ASIO4ALL v2", "1234"}, drivers)

	status, err := client.DriverStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, status)

	channels, err := client.Channels(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, engine.ChannelList{Output: []string{"Out 1", "2"}, Input: []string{"In 1"}}, channels)

	_, err = client.Init(ctx, engine.InitOptions{Driver: "3", Output: []int{0, 1}, Tracks: 4})
	require.NoError(t, err)

	ok, err := client.Initialized(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	version, err := client.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2.9.1.0", version)

	license, err := client.License(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.LicenseInfo{Version: "2", Edition: "Standard"}, license)

	started, err := client.Started(ctx)
	require.NoError(t, err)
	assert.True(t, started)

	files, err := client.RecFilename(ctx, 0, "myrecfile.wav")
	require.NoError(t, err)
	assert.Equal(t, []string{"myrecfile.wav", "rec_1.wav"}, files)

	msg, err := client.LastError(ctx)
	require.NoError(t, err)
	assert.Equal(t, "unknown command 'unknown'", msg)

	assert.Equal(t, []string{
		"command=getdrivers;",
		"command=getdriverstatus;",
		"command=getchannels;driver=3;",
		"command=init;driver=3;output=0,1;track=4;",
		"command=initialized;",
		"command=version;",
		"command=license;",
		"command=started;",
		"command=recfilename;filename=myrecfile.wav;channel=0;",
		"command=getlasterror;",
	}, lib.Calls())
}

func TestPlaybackHelpersEncodeArguments(t *testing.T) {
	lib := enginetest.NewFakeLibrary()
	for _, name := range []string{"loadfile", "start", "stop", "pause", "wait", "volume", "trackvolume", "exit"} {
		lib.OK(name, "")
	}
	client := engine.NewClient(lib, 4096)
	defer client.Close()
	ctx := context.Background()

	_, err := client.LoadFile(ctx, engine.LoadFileOptions{Filename: "../waves/eurovision.wav", LoopCount: 2, Tracks: []int{0, 1}})
	require.NoError(t, err)
	require.NoError(t, client.Start(ctx, engine.StartLength(-1)))
	require.NoError(t, client.Start(ctx, engine.StartOptions{}))
	require.NoError(t, client.Pause(ctx, true))
	require.NoError(t, client.Wait(ctx, "stop"))
	require.NoError(t, client.Volume(ctx, 0.5))
	require.NoError(t, client.TrackVolume(ctx, []int{0, 1}, 0.2, 1))
	require.NoError(t, client.Stop(ctx))
	require.NoError(t, client.Exit(ctx))

	assert.Equal(t, []string{
		"command=loadfile;filename=../waves/eurovision.wav;track=0,1;loopcount=2;",
		"command=start;length=-1;",
		"command=start;",
		"command=pause;value=1;",
		"command=wait;mode=stop;",
		"command=volume;value=0.5;",
		"command=trackvolume;track=0,1;value=0.2,1;",
		"command=stop;",
		"command=exit;",
	}, lib.Calls())

	_, err = client.LoadFile(ctx, engine.LoadFileOptions{})
	assert.ErrorIs(t, err, engine.ErrInvalidCommand)
	assert.ErrorIs(t, client.Volume(ctx), engine.ErrInvalidCommand)
}

func TestWaitIdlePollsUntilSilent(t *testing.T) {
	lib := enginetest.NewFakeLibrary().
		OK("playing", "value=1,1").
		OK("playing", "value=1,0").
		OK("playing", "value=0,0")
	client := engine.NewClient(lib, 4096)
	defer client.Close()

	require.NoError(t, client.WaitIdle(context.Background(), time.Millisecond))
	assert.Len(t, lib.Calls(), 3)
}

func TestWaitIdleHonoursContext(t *testing.T) {
	lib := enginetest.NewFakeLibrary().OK("playing", "value=1")
	client := engine.NewClient(lib, 4096)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := client.WaitIdle(ctx, 5*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHelpersReturnCommandErrors(t *testing.T) {
	lib := enginetest.NewFakeLibrary().On("playing", -1, "not initialized")
	client := engine.NewClient(lib, 4096)
	defer client.Close()

	_, err := client.Playing(context.Background())
	var cerr *engine.CommandError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "not initialized", cerr.Message)

	err = client.WaitIdle(context.Background(), time.Millisecond)
	assert.ErrorAs(t, err, &cerr)
}
