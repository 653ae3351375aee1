package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResponse(t *testing.T) {
	buf := make([]byte, 16)
	copy(buf, "value=1\x00junk")
	text, truncated := DecodeResponse(buf)
	assert.Equal(t, "value=1", text)
	assert.False(t, truncated)

	text, truncated = DecodeResponse([]byte("driver=ASIO"))
	assert.Equal(t, "driver=ASIO", text)
	assert.True(t, truncated)

	text, truncated = DecodeResponse(make([]byte, 8))
	assert.Equal(t, "", text)
	assert.False(t, truncated)
}

func TestDecodeResponseWindows1252(t *testing.T) {
	// ä as a single 0xE4 byte
	buf := append([]byte("output=K\xe4fig"), 0)
	text, _ := DecodeResponse(buf)
	assert.Equal(t, "output=Käfig", text)

	// a cp1252 pair that also happens to be valid UTF-8
	buf = append([]byte("output=\xc3\xb6"), 0)
	text, _ = DecodeResponse(buf)
	assert.Equal(t, "output=Ã¶", text)

	buf = append([]byte("output=plain"), 0)
	text, _ = DecodeResponse(buf)
	assert.Equal(t, "output=plain", text)
}

func TestParseValues(t *testing.T) {
	vals := ParseValues("driver=ASIO4ALL v2,Focusrite USB;value=1;noequals;;value=2;name='front'")

	assert.Equal(t, []string{"driver", "value", "name"}, vals.Keys())
	assert.Equal(t, 3, vals.Len())

	drivers, ok := vals.Get("driver")
	require.True(t, ok)
	assert.True(t, drivers.IsList())
	assert.Equal(t, []string{"ASIO4ALL v2", "Focusrite USB"}, drivers.Strings())

	v, _ := vals.Get("value")
	n, err := v.Int()
	require.NoError(t, err)
	assert.Equal(t, 2, n, "last value wins")

	name, _ := vals.Get("name")
	assert.Equal(t, "front", name.String())
	assert.Equal(t, "'front'", name.Raw)

	_, ok = vals.Get("noequals")
	assert.False(t, ok)
}

func TestValueTyped(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"1", 1},
		{"-3", -3},
		{"1,0,1", []int{1, 0, 1}},
		{"0.5", 0.5},
		{"44100,0.5", []float64{44100, 0.5}},
		{"ASIO", "ASIO"},
		{`"Noise left",3`, []string{"Noise left", "3"}},
		{"", ""},
		{`"42"`, `42`},
		{`'1',2`, []string{"1", "2"}},
		{"-inf,-12.5", []string{"-inf", "-12.5"}},
		{"nan", "nan"},
		{"1e3", 1000.0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, newValue(tt.raw).Typed())
		})
	}
}

func TestValueAccessors(t *testing.T) {
	v := newValue("1,2,3")
	ints, err := v.Ints()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ints)

	floats, err := v.Floats()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, floats)

	_, err = newValue("1,x").Ints()
	assert.Error(t, err)

	b, err := newValue("0").Bool()
	require.NoError(t, err)
	assert.False(t, b)
	b, err = newValue("2").Bool()
	require.NoError(t, err)
	assert.True(t, b)
	b, err = newValue("true").Bool()
	require.NoError(t, err)
	assert.True(t, b)
	_, err = newValue("maybe").Bool()
	assert.Error(t, err)

	f, err := newValue("0.25").Float()
	require.NoError(t, err)
	assert.Equal(t, 0.25, f)
}

func TestQuotedNumbersStayStrings(t *testing.T) {
	vals := ParseValues(`name="42";value=42;`)
	typed := vals.TypedMap("trackname")
	assert.Equal(t, "42", typed["name"])
	assert.Equal(t, 42, typed["value"])

	name, _ := vals.Get("name")
	_, err := name.Int()
	assert.Error(t, err)
	b, err := name.Bool()
	require.NoError(t, err)
	assert.True(t, b)
}

func TestNonFiniteValuesAreJSONSafe(t *testing.T) {
	typed := ParseValues("value=nan;level=-inf;peak=-12.5").TypedMap("getlevel")
	assert.Equal(t, "nan", typed["value"])
	assert.Equal(t, "-inf", typed["level"])
	assert.Equal(t, -12.5, typed["peak"])

	_, err := json.Marshal(typed)
	assert.NoError(t, err)
}

func TestTypedMapKeepsNamesAsStrings(t *testing.T) {
	vals := ParseValues("output=1,2;input=3")

	assert.Equal(t, map[string]any{"output": []string{"1", "2"}, "input": "3"}, vals.TypedMap("getchannels"))
	assert.Equal(t, map[string]any{"output": []int{1, 2}, "input": 3}, vals.TypedMap("playing"))

	vals = ParseValues("getactivechannels=1;value=1")
	assert.Equal(t, map[string]any{"getactivechannels": "1", "value": 1}, vals.TypedMap("other"))

	vals = ParseValues("driver=1,2")
	assert.Equal(t, map[string]any{"driver": []string{"1", "2"}}, vals.TypedMap("getdrivers"))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "busy", StatusBusy.String())
	assert.Equal(t, "error", Status(-4).String())
	assert.Equal(t, "unknown", Status(7).String())

	res := &Result{Name: "unknown", Status: -1, Text: "unknown command"}
	err := res.Err()
	var cerr *CommandError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, Status(-1), cerr.Status)
	assert.NotErrorIs(t, err, ErrBusy)
	assert.Contains(t, err.Error(), "unknown command")

	busy := &Result{Name: "loadfile", Status: StatusBusy}
	assert.ErrorIs(t, busy.Err(), ErrBusy)
	assert.Equal(t, `command "loadfile" failed with status 0`, busy.Err().Error())

	assert.NoError(t, (&Result{Status: StatusOK}).Err())
}
