//go:build windows

package engine

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"
)

// statusBadArgument is returned without calling into the DLL when the
// command cannot be converted to a C string.
const statusBadArgument = -1

type nativeLibrary struct {
	dll    *windows.DLL
	proc   *windows.Proc
	path   string
	symbol string
}

func openNative(path string, symbols []string) (Library, error) {
	dll, err := windows.LoadDLL(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrLibraryLoad, path, err)
	}

	for _, name := range symbols {
		proc, err := dll.FindProc(name)
		if err != nil {
			continue
		}
		return &nativeLibrary{dll: dll, proc: proc, path: path, symbol: name}, nil
	}

	_ = dll.Release()
	return nil, symbolNotFound(path, symbols)
}

func (l *nativeLibrary) Command(cmd string, out []byte) int32 {
	cstr, err := windows.BytePtrFromString(cmd)
	if err != nil {
		return statusBadArgument
	}
	var ptr *byte
	if len(out) > 0 {
		ptr = &out[0]
	}
	r1, _, _ := l.proc.Call(
		uintptr(unsafe.Pointer(cstr)),
		uintptr(unsafe.Pointer(ptr)),
		uintptr(len(out)),
	)
	runtime.KeepAlive(cstr)
	runtime.KeepAlive(out)
	return int32(r1)
}

func (l *nativeLibrary) Path() string   { return l.path }
func (l *nativeLibrary) Symbol() string { return l.symbol }

func (l *nativeLibrary) Close() error {
	if l.dll == nil {
		return nil
	}
	err := l.dll.Release()
	l.dll = nil
	return err
}
