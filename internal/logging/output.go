package logging

import (
	"io"
	"sync"

	"go.uber.org/multierr"
)

// teeOutput copies every log entry to all of its targets. A failing target
// (full disk under the rotating file, closed pipe) does not cost the entry
// on the others: the write only fails when no target took it.
type teeOutput struct {
	targets []io.Writer

	mu     sync.Mutex
	failed error
}

func newTeeOutput(targets ...io.Writer) *teeOutput {
	out := &teeOutput{}
	for _, t := range targets {
		if t != nil {
			out.targets = append(out.targets, t)
		}
	}
	return out
}

func (o *teeOutput) Write(p []byte) (int, error) {
	var errs error
	written := false
	for _, t := range o.targets {
		if _, err := t.Write(p); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		written = true
	}
	if errs != nil {
		o.mu.Lock()
		o.failed = multierr.Append(o.failed, errs)
		o.mu.Unlock()
	}
	if !written && len(o.targets) > 0 {
		return 0, errs
	}
	return len(p), nil
}

// Failures returns every target error seen so far.
func (o *teeOutput) Failures() []error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return multierr.Errors(o.failed)
}
