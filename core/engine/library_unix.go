//go:build darwin || freebsd || linux

package engine

import (
	"fmt"
	"runtime"

	"github.com/ebitengine/purego"
)

type nativeLibrary struct {
	handle uintptr
	path   string
	symbol string
	fn     func(cmd string, out *byte, outLen int32) int32
}

func openNative(path string, symbols []string) (Library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrLibraryLoad, path, err)
	}

	for _, name := range symbols {
		sym, err := purego.Dlsym(handle, name)
		if err != nil || sym == 0 {
			continue
		}
		lib := &nativeLibrary{handle: handle, path: path, symbol: name}
		purego.RegisterFunc(&lib.fn, sym)
		return lib, nil
	}

	_ = purego.Dlclose(handle)
	return nil, symbolNotFound(path, symbols)
}

func (l *nativeLibrary) Command(cmd string, out []byte) int32 {
	var ptr *byte
	if len(out) > 0 {
		ptr = &out[0]
	}
	status := l.fn(cmd, ptr, int32(len(out)))
	runtime.KeepAlive(out)
	return status
}

func (l *nativeLibrary) Path() string   { return l.path }
func (l *nativeLibrary) Symbol() string { return l.symbol }

func (l *nativeLibrary) Close() error {
	if l.handle == 0 {
		return nil
	}
	err := purego.Dlclose(l.handle)
	l.handle = 0
	return err
}
