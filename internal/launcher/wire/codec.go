// Package wire implements the line-delimited JSON protocol shared by
// frontend<->service and service<->plugin (spec §4.1, §6).
package wire

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/kestrel-run/kestrel/internal/launcher/logging"
)

// maxLineBytes bounds a single line; a line beyond this is an error on
// that line only and does not tear down the stream (spec §4.1).
const maxLineBytes = 1 << 20

// Decode reads newline-terminated JSON objects from r and delivers decoded
// values of type T on the returned channel until r is exhausted or ctx is
// canceled. A malformed line is logged and dropped; it never closes the
// channel early (spec §4.1, §7 "Malformed JSON on any stream").
func Decode[T any](ctx context.Context, r io.Reader, tag string) <-chan T {
	out := make(chan T)

	go func() {
		defer close(out)

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var value T
			if err := sonic.Unmarshal(line, &value); err != nil {
				logging.Error("%s: malformed JSON line: %v", tag, err)
				continue
			}

			select {
			case out <- value:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil {
			logging.Error("%s: read error: %v", tag, err)
		}
	}()

	return out
}

// Encoder serializes values as newline-terminated JSON onto an underlying
// writer, flushing after every write (spec §4.1: "writers append \n after
// each object and flush").
type Encoder struct {
	mu sync.Mutex
	bw *bufio.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{bw: bufio.NewWriter(w)}
}

// Encode marshals v, appends a newline, writes it, and flushes.
func (e *Encoder) Encode(v interface{}) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("wire: encode: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.bw.Write(data); err != nil {
		return fmt.Errorf("wire: write: %w", err)
	}
	if err := e.bw.WriteByte('\n'); err != nil {
		return fmt.Errorf("wire: write: %w", err)
	}
	return e.bw.Flush()
}
