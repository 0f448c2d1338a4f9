package card

import (
	"errors"
	"fmt"
	"sync"
)

// ErrExportInFlight means an export for the same target is still running.
var ErrExportInFlight = errors.New("card: export already in flight")

// ExportError wraps a rasterization failure with the target it was for.
// Rasterization is the one operation in the content flow that may fail, and
// it must fail loudly; callers surface the message to the user.
type ExportError struct {
	Target string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("card export %q: %v", e.Target, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Exporter runs a Rasterizer with an at-most-one-in-flight guarantee per
// target. A second export against a target that is still rendering is
// rejected instead of queued; the UI disables the trigger on its side, this
// is the backstop.
type Exporter struct {
	r Rasterizer

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewExporter(r Rasterizer) *Exporter {
	return &Exporter{
		r:        r,
		inflight: make(map[string]struct{}),
	}
}

// Export rasterizes layout for the given target key. Returns
// ErrExportInFlight when the target is busy and *ExportError when the
// rasterizer fails; success returns the encoded image bytes.
func (e *Exporter) Export(target string, layout Layout, scale float64) ([]byte, error) {
	e.mu.Lock()
	if _, busy := e.inflight[target]; busy {
		e.mu.Unlock()
		return nil, ErrExportInFlight
	}
	e.inflight[target] = struct{}{}
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.inflight, target)
		e.mu.Unlock()
	}()

	b, err := e.r.Render(layout, scale)
	if err != nil {
		return nil, &ExportError{Target: target, Err: err}
	}
	return b, nil
}
