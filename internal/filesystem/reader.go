package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/zeebo/xxh3"
)

// ProbeHead reads at most n bytes from the start of a file. Files are opened
// read-only and never modified.
func ProbeHead(path string, n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read file head: %w", err)
	}

	return buf[:read], nil
}

// HashFile streams a file through xxh3-128 and returns the hex digest
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return fmt.Sprintf("%x", h.Sum128().Bytes()), nil
}

// HashBytes returns the xxh3-128 hex digest of data
func HashBytes(data []byte) string {
	return fmt.Sprintf("%x", xxh3.Hash128(data).Bytes())
}

// WithTimeout runs a blocking read in its own goroutine and gives up once ctx
// or the timeout expires. The read itself cannot be interrupted; an abandoned
// read finishes in the background and its result is dropped.
func WithTimeout[T any](ctx context.Context, timeout time.Duration, read func() (T, error)) (T, error) {
	if timeout <= 0 {
		return read()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := read()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("read timed out: %w", ctx.Err())
	}
}
