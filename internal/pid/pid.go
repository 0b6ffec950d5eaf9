package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/framescore/internal/errors"
)

const (
	pidFile = "framescore.pid"
)

// Path returns the PID file location inside dir, or the system temp
// directory when dir is empty.
func Path(dir string) string {
	if dir == "" {
		dir = os.TempDir()
	}

	return filepath.Join(dir, pidFile)
}

// Write writes the current process ID to the PID file. It fails with
// ErrAlreadyRunning if the file names a live process.
func Write(dir string) error {
	errFactory := errors.New()
	path := Path(dir)

	if pid, err := readPID(path); err == nil && alive(pid) {
		return errFactory.WithData(errors.ErrAlreadyRunning, pid)
	}

	err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600)
	if err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Read returns the PID of the running instance. A missing, unreadable or
// stale PID file yields ErrNotRunning.
func Read(dir string) (int, error) {
	errFactory := errors.New()

	pid, err := readPID(Path(dir))
	if err != nil {
		return 0, errFactory.Wrap(errors.ErrNotRunning, err)
	}
	if !alive(pid) {
		return 0, errFactory.WithData(errors.ErrNotRunning, pid)
	}

	return pid, nil
}

// Signal delivers sig to the running instance.
func Signal(dir string, sig os.Signal) error {
	errFactory := errors.New()

	pid, err := Read(dir)
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return errFactory.Wrap(errors.ErrSignalHost, err)
	}
	if err := process.Signal(sig); err != nil {
		return errFactory.Wrap(errors.ErrSignalHost, err)
	}

	return nil
}

// Remove removes the PID file.
func Remove(dir string) error {
	errFactory := errors.New()
	path := Path(dir)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(path); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

func readPID(path string) (int, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(strings.TrimSpace(string(bytes)))
}

func alive(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}
