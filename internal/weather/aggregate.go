package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"time"
)

// providerCall is one pending upstream request inside a fan-out.
type providerCall struct {
	name  string
	fetch func(ctx context.Context) (json.RawMessage, error)
}

// outcome is a settled provider call: payload, empty, or error.
type outcome struct {
	name    string
	payload json.RawMessage
	err     error
}

// settleAll runs every call concurrently and waits until all of them have
// settled. One provider failing or stalling never aborts the others; each call
// gets its own timeout so a slow upstream cannot hold the join open
// indefinitely. Outcomes are collected in completion order.
func settleAll(ctx context.Context, timeout time.Duration, calls []providerCall) []outcome {
	results := make(chan outcome, len(calls))

	for _, c := range calls {
		c := c
		go func() {
			callCtx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			payload, err := c.fetch(callCtx)
			results <- outcome{name: c.name, payload: payload, err: err}
		}()
	}

	settled := make([]outcome, 0, len(calls))
	for range calls {
		settled = append(settled, <-results)
	}
	return settled
}

// collectSources filters settled outcomes into source records. Failures are
// logged and dropped; payloads without usable content are dropped silently.
func collectSources(settled []outcome) []SourceRecord {
	var records []SourceRecord
	for _, o := range settled {
		if o.err != nil {
			log.Printf("provider %s fetch failed: %v", o.name, o.err)
			continue
		}
		if emptyPayload(o.payload) {
			continue
		}
		records = append(records, SourceRecord{Name: o.name, Data: o.payload})
	}
	return records
}

// emptyPayload reports whether a fulfilled response carried no usable data:
// the expected sub-document was missing, null, or an empty object/array.
func emptyPayload(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "{}", "[]":
		return true
	}
	return false
}
