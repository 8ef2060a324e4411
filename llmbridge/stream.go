package llmbridge

import (
	"io"
	"strings"
)

// fragmentStream is one open streaming response, reduced to the only two
// things the control loop needs: the next incremental text fragment and a
// way to stop reading. Next returns io.EOF on normal exhaustion; an empty
// fragment with a nil error means the underlying chunk carried no text.
// Each adapter supplies its own implementation; everything else about
// streaming is shared.
type fragmentStream interface {
	Next() (string, error)
	Close() error
}

// funcFragments adapts a pair of closures to fragmentStream, for backends
// whose stream handle is awkward to name as a field type.
type funcFragments struct {
	next  func() (string, error)
	close func() error
}

func (f *funcFragments) Next() (string, error) { return f.next() }

func (f *funcFragments) Close() error {
	if f.close == nil {
		return nil
	}
	return f.close()
}

// consumeStream runs the shared chunk loop: read a chunk, poll the cancel
// signal, accumulate, emit. The contract it enforces:
//
//   - cancellation observed after every chunk returns the text accumulated
//     so far with a nil error and no OnComplete; the chunk in hand is
//     discarded
//   - cancellation takes precedence over a concurrent stream error
//   - a stream error without cancellation propagates unchanged
//   - on normal exhaustion OnComplete fires exactly once, after the last
//     OnToken, with the full text
func consumeStream(fs fragmentStream, cb StreamCallbacks, cancel *CancelSignal) (string, error) {
	defer fs.Close()

	var full strings.Builder
	for {
		fragment, err := fs.Next()
		if cancel.Cancelled() {
			return full.String(), nil
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return full.String(), err
		}
		if fragment != "" {
			full.WriteString(fragment)
			cb.token(fragment)
		}
	}

	text := full.String()
	cb.complete(text)
	return text, nil
}
