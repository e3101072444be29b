//go:build linux || darwin

package transcriber

import (
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

var outputMu sync.Mutex

// captureOutput runs fn with file descriptors 1 and 2 pointed at a
// temporary file, so writes from native code and child processes that
// inherit them are kept off the terminal. The captured bytes are returned.
func captureOutput(fn func() error) ([]byte, error) {
	outputMu.Lock()
	defer outputMu.Unlock()

	tmp, err := os.CreateTemp("", "murmur-output-*")
	if err != nil {
		return nil, fn()
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	os.Stdout.Sync()
	os.Stderr.Sync()

	savedOut, err := unix.Dup(1)
	if err != nil {
		return nil, fn()
	}
	defer unix.Close(savedOut)
	savedErr, err := unix.Dup(2)
	if err != nil {
		return nil, fn()
	}
	defer unix.Close(savedErr)

	if err := dupTo(int(tmp.Fd()), 1); err != nil {
		return nil, fn()
	}
	if err := dupTo(int(tmp.Fd()), 2); err != nil {
		dupTo(savedOut, 1)
		return nil, fn()
	}

	runErr := func() (err error) {
		defer func() {
			os.Stdout.Sync()
			os.Stderr.Sync()
			dupTo(savedOut, 1)
			dupTo(savedErr, 2)
		}()
		return fn()
	}()

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, runErr
	}
	captured, _ := io.ReadAll(tmp)
	return captured, runErr
}
