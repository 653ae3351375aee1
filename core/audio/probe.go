package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Info describes an audio file without decoding its samples.
type Info struct {
	Format     string        `json:"format"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	BitDepth   int           `json:"bit_depth,omitempty"`
	Frames     int64         `json:"frames"`
	Duration   time.Duration `json:"duration"`
}

func (i *Info) String() string {
	return fmt.Sprintf("%s %d Hz, %d ch, %d bit, %d frames (%s)",
		i.Format, i.SampleRate, i.Channels, i.BitDepth, i.Frames, i.Duration)
}

func (i *Info) setDuration() {
	if i.SampleRate > 0 {
		i.Duration = time.Duration(i.Frames) * time.Second / time.Duration(i.SampleRate)
	}
}

// Prober reads the header of one container format.
type Prober interface {
	Probe(r io.ReadSeeker) (*Info, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(r io.ReadSeeker) (*Info, error)

func (f ProberFunc) Probe(r io.ReadSeeker) (*Info, error) { return f(r) }

// Registry maps lower-case file extensions (".wav") to probers.
type Registry struct {
	mu      sync.RWMutex
	probers map[string]Prober
}

func NewRegistry() *Registry {
	return &Registry{probers: make(map[string]Prober)}
}

// DefaultRegistry knows WAV, AIFF, MP3 and Ogg Vorbis.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(".wav", ProberFunc(probeWAV))
	r.Register(".aif", ProberFunc(probeAIFF))
	r.Register(".aiff", ProberFunc(probeAIFF))
	r.Register(".mp3", ProberFunc(probeMP3))
	r.Register(".ogg", ProberFunc(probeOGG))
	return r
}

func (r *Registry) Register(ext string, p Prober) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probers[normalizeExt(ext)] = p
}

func (r *Registry) Lookup(ext string) (Prober, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.probers[normalizeExt(ext)]
	return p, ok
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.probers))
	for ext := range r.probers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether a prober exists for the file name's extension.
func (r *Registry) Supports(name string) bool {
	_, ok := r.Lookup(filepath.Ext(name))
	return ok
}

// Probe picks a prober by the extension of name and reads rs.
func (r *Registry) Probe(name string, rs io.ReadSeeker) (*Info, error) {
	ext := filepath.Ext(name)
	p, ok := r.Lookup(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	info, err := p.Probe(rs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(name), err)
	}
	return info, nil
}

// ProbeFile opens path and probes it.
func (r *Registry) ProbeFile(path string) (*Info, error) {
	if !r.Supports(path) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.Probe(path, f)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
