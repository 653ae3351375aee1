//go:build !(darwin || freebsd || linux || windows)

package engine

func openNative(path string, symbols []string) (Library, error) {
	return nil, ErrUnsupportedPlatform
}
