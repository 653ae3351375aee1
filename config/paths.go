package config

import "runtime"

// defaultLibraryPath mirrors where the engine installer puts its library.
func defaultLibraryPath() string {
	switch runtime.GOOS {
	case "windows":
		return `C:\SoundMexPro\bin\SoundDllPro.dll`
	case "darwin":
		return "libSoundDllPro.dylib"
	default:
		return "libSoundDllPro.so"
	}
}
