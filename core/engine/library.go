package engine

import (
	"fmt"
	"strings"
)

// DefaultSymbol is the name the engine exports its command function under
// in 32-bit builds. 64-bit builds drop the leading underscore.
const DefaultSymbol = "_SoundDllProCommand"

// Library is the boundary to the native engine: one exported function that
// takes a command string and fills out with a NUL-terminated response.
type Library interface {
	Command(cmd string, out []byte) int32
	Path() string
	Symbol() string
	Close() error
}

// Open loads the library at path and resolves the first symbol that exists.
// Every name is also tried with its leading underscore toggled.
func Open(path string, symbols ...string) (Library, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrLibraryLoad)
	}
	if len(symbols) == 0 {
		symbols = []string{DefaultSymbol}
	}
	return openNative(path, expandSymbols(symbols))
}

// SymbolCandidates returns name followed by its underscore-toggled variant.
func SymbolCandidates(name string) []string {
	if name == "" {
		return nil
	}
	if strings.HasPrefix(name, "_") {
		return []string{name, strings.TrimPrefix(name, "_")}
	}
	return []string{name, "_" + name}
}

func expandSymbols(symbols []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range symbols {
		for _, c := range SymbolCandidates(s) {
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func symbolNotFound(path string, tried []string) error {
	return fmt.Errorf("%w: tried %s in %s", ErrSymbolNotFound, strings.Join(tried, ", "), path)
}
