//go:build !linux && !darwin

package transcriber

func captureOutput(fn func() error) ([]byte, error) {
	return nil, fn()
}
