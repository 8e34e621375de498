// Package lockfile guards a local database against a second pillbook
// process. The lock holds the owner's PID; a lock whose process is gone is
// reclaimed.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/pillbook/internal/constants"
	"github.com/julianstephens/pillbook/internal/logger"
)

// ErrLocked is returned when another live process holds the lock.
var ErrLocked = errors.New("database is in use by another pillbook process")

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

// Lock is a held lockfile.
type Lock struct {
	path string
}

// PathFor returns the lockfile path guarding dbPath.
func PathFor(dbPath string) string {
	return dbPath + constants.LockfileSuffix
}

// Acquire takes the lock at path. A lock left by a process that no longer
// runs, or by this process, is taken over.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d\n", getpidFunc())
			cerr := f.Close()
			if werr != nil || cerr != nil {
				_ = os.Remove(path)
				return nil, fmt.Errorf("failed to write lockfile: %w", errors.Join(werr, cerr))
			}
			return &Lock{path: path}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("failed to create lockfile: %w", err)
		}

		pid, alive := holder(path)
		if alive {
			return nil, fmt.Errorf("%w (pid %d)", ErrLocked, pid)
		}
		logger.Warn("reclaiming stale lockfile", "path", path, "pid", pid)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove stale lockfile: %w", err)
		}
	}
	return nil, ErrLocked
}

// holder reads the PID in the lockfile and reports whether that process is
// alive and not this one. Unreadable locks count as stale.
func holder(path string) (int, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	if pid == getpidFunc() {
		return pid, false
	}
	proc, err := findProcessFunc(pid)
	if err != nil || proc == nil {
		return pid, false
	}
	return pid, true
}

// Release removes the lockfile. Safe on a nil Lock and more than once.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	l.path = ""
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	return nil
}
