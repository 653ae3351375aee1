package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type driverName string

func (d driverName) String() string { return string(d) }

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"no args", NewCommand("getdrivers"), "command=getdrivers;"},
		{"string", NewCommand("loadfile", A("filename", `..\waves\eurovision.wav`)), `command=loadfile;filename=..\waves\eurovision.wav;`},
		{"ints keep order", NewCommand("init", A("driver", 3), A("output", []int{0, 1}), A("track", 4)), "command=init;driver=3;output=0,1;track=4;"},
		{"bool", NewCommand("pause", A("value", true)), "command=pause;value=1;"},
		{"float", NewCommand("volume", A("value", 0.1)), "command=volume;value=0.1;"},
		{"float list", NewCommand("volume", A("value", []float64{0.5, 1})), "command=volume;value=0.5,1;"},
		{"negative", NewCommand("start", A("length", -1)), "command=start;length=-1;"},
		{"string list", NewCommand("trackname", A("name", []string{"Noise left", "Noise right"})), "command=trackname;name=Noise left,Noise right;"},
		{"stringer", NewCommand("init", A("driver", driverName("ASIO4ALL v2"))), "command=init;driver=ASIO4ALL v2;"},
		{"nil value", NewCommand("wait", A("mode", nil)), "command=wait;mode=;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Encode()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeRejectsReservedCharacters(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
	}{
		{"empty name", NewCommand("")},
		{"semicolon in name", NewCommand("show;exit")},
		{"equals in name", NewCommand("a=b")},
		{"empty key", NewCommand("init", A("", 1))},
		{"equals in key", NewCommand("init", A("dri=ver", 1))},
		{"semicolon in value", NewCommand("loadfile", A("filename", "a;b.wav"))},
		{"comma in list element", NewCommand("trackname", A("name", []string{"a,b"}))},
		{"unsupported type", NewCommand("init", A("driver", struct{}{}))},
		{"nul in value", NewCommand("loadfile", A("filename", "a\x00b"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cmd.Encode()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCommand), "got %v", err)
		})
	}
}

func TestCommandStringOnInvalid(t *testing.T) {
	assert.Equal(t, "<invalid a;b>", NewCommand("a;b").String())
	assert.Equal(t, "command=show;", NewCommand("show").String())
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand("command=init;driver=3;output=0,1;")
	require.NoError(t, err)
	assert.Equal(t, "init", cmd.Name)
	require.Len(t, cmd.Args, 2)
	assert.Equal(t, Arg{Key: "driver", Value: "3"}, cmd.Args[0])
	assert.Equal(t, Arg{Key: "output", Value: "0,1"}, cmd.Args[1])

	v, ok := cmd.Get("output")
	assert.True(t, ok)
	assert.Equal(t, "0,1", v)

	cmd, err = ParseCommand("command=getdrivers")
	require.NoError(t, err)
	assert.Equal(t, "getdrivers", cmd.Name)
	assert.Empty(t, cmd.Args)

	for _, raw := range []string{"", "driver=3", "command=", "command=init;driver"} {
		_, err := ParseCommand(raw)
		assert.ErrorIs(t, err, ErrInvalidCommand, raw)
	}
}

func TestParseCommandRoundTrip(t *testing.T) {
	raw, err := NewCommand("loadfile", A("filename", "x.wav"), A("loopcount", 2)).Encode()
	require.NoError(t, err)

	cmd, err := ParseCommand(raw)
	require.NoError(t, err)
	again, err := cmd.Encode()
	require.NoError(t, err)
	assert.Equal(t, raw, again)
}

func TestSymbolCandidates(t *testing.T) {
	assert.Equal(t, []string{"_SoundDllProCommand", "SoundDllProCommand"}, SymbolCandidates("_SoundDllProCommand"))
	assert.Equal(t, []string{"SoundDllProCommand", "_SoundDllProCommand"}, SymbolCandidates("SoundDllProCommand"))
	assert.Nil(t, SymbolCandidates(""))

	assert.Equal(t,
		[]string{"_SoundDllProCommand", "SoundDllProCommand", "Other", "_Other"},
		expandSymbols([]string{"_SoundDllProCommand", "SoundDllProCommand", "Other"}))
}

func TestOpenFailures(t *testing.T) {
	_, err := Open("")
	assert.ErrorIs(t, err, ErrLibraryLoad)

	_, err = Open("/nonexistent/libSoundDllPro.so")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLibraryLoad) || errors.Is(err, ErrUnsupportedPlatform), "got %v", err)
}
