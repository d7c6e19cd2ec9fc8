package shared

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
)

var (
	getRuntime  = func() string { return runtime.GOOS }
	execCommand = exec.Command
)

// OpenFolder reveals dir in the host's file manager.
//
// Supports macOS, Linux, and Windows platforms.
func OpenFolder(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	if err := EnsureDir(abs); err != nil {
		return err
	}

	var name string
	switch rt := getRuntime(); rt {
	case "darwin":
		name = "open"
	case "linux", "freebsd", "openbsd":
		name = "xdg-open"
	case "windows":
		name = "explorer"
	default:
		return fmt.Errorf("%w: unsupported platform %s", ErrNotImplemented, rt)
	}

	if err := execCommand(name, abs).Start(); err != nil {
		return fmt.Errorf("failed to open folder: %w", err)
	}
	return nil
}
