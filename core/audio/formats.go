package audio

import (
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

func invalid(format string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: not a %s file", ErrInvalidFile, format)
	}
	return fmt.Errorf("%w: %s: %v", ErrInvalidFile, format, err)
}

func probeWAV(r io.ReadSeeker) (*Info, error) {
	dec := wav.NewDecoder(r)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, invalid("wav", err)
	}
	if dec.NumChans == 0 || dec.SampleRate == 0 || dec.BitDepth == 0 {
		return nil, invalid("wav", nil)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, invalid("wav", err)
	}

	info := &Info{
		Format:     "wav",
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if frameSize := int64(dec.NumChans) * int64(dec.BitDepth/8); frameSize > 0 {
		info.Frames = dec.PCMLen() / frameSize
	}
	info.setDuration()
	return info, nil
}

func probeAIFF(r io.ReadSeeker) (*Info, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, invalid("aiff", dec.Err())
	}
	dec.ReadInfo()
	format := dec.Format()
	if format == nil {
		return nil, invalid("aiff", nil)
	}

	info := &Info{
		Format:     "aiff",
		SampleRate: format.SampleRate,
		Channels:   format.NumChannels,
		BitDepth:   int(dec.BitDepth),
		Frames:     int64(dec.NumSampleFrames),
	}
	info.setDuration()
	return info, nil
}

// go-mp3 always decodes to 16 bit stereo, so that is what the engine gets.
func probeMP3(r io.ReadSeeker) (*Info, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, invalid("mp3", err)
	}

	info := &Info{
		Format:     "mp3",
		SampleRate: dec.SampleRate(),
		Channels:   2,
		BitDepth:   16,
	}
	if n := dec.Length(); n > 0 {
		info.Frames = n / 4
	}
	info.setDuration()
	return info, nil
}

func probeOGG(r io.ReadSeeker) (*Info, error) {
	length, format, err := oggvorbis.GetLength(r)
	if err != nil {
		return nil, invalid("ogg", err)
	}

	info := &Info{
		Format:     "ogg",
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		Frames:     length,
	}
	info.setDuration()
	return info, nil
}
