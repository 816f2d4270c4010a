// Package oplog provides a per-call operation logger adapted from the
// teacher's LogEntry: one entry per exported client method, reporting
// duration, result, and error to logrus, and mirroring the same fields
// into an x/net/trace event log for live inspection.
package oplog

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/trace"
)

// Entry tracks one in-flight operation. Create with Start, set Result or
// Error at most once, then defer Finish.
type Entry struct {
	service   string
	op        string
	detail    string
	startTime time.Time
	err       error
	result    string

	trace trace.Trace
}

// Start begins tracking an operation named op against service, with an
// optional free-text detail (a path, a UDID, a service name) for logs and
// the trace viewer.
func Start(service, op, detail string) *Entry {
	return &Entry{
		service:   service,
		op:        op,
		detail:    detail,
		startTime: time.Now(),
		trace:     trace.New(service, op),
	}
}

// Error records a failure result. Panics if a non-nil error was already
// recorded.
func (e *Entry) Error(err error) error {
	if e.err != nil {
		panic(fmt.Sprintf("oplog: error already set to %q, can't set to %q", e.err, err))
	}
	e.err = err
	return err
}

// Result records a non-failure, human-readable summary of the outcome.
func (e *Entry) Result(msg string, args ...interface{}) {
	formatted := fmt.Sprintf(msg, args...)
	if e.result != "" {
		panic(fmt.Sprintf("oplog: result already set to %q, can't set to %q", e.result, formatted))
	}
	e.result = formatted
}

// Finish logs the completed operation. Intended to be deferred.
func (e *Entry) Finish() {
	fields := logrus.Fields{
		"service":     e.service,
		"op":          e.op,
		"duration_ms": time.Since(e.startTime).Milliseconds(),
	}
	if e.detail != "" {
		fields["detail"] = e.detail
	}
	if e.result != "" {
		fields["result"] = e.result
	}

	entry := logrus.WithFields(fields)
	if e.err != nil {
		entry.WithError(e.err).Error(e.op)
		e.trace.SetError()
		e.trace.LazyPrintf("error: %v", e.err)
	} else {
		entry.Debug(e.op)
		e.trace.LazyPrintf("ok: %s", e.result)
	}
	e.trace.Finish()
}
