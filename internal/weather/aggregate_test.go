package weather

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func call(name string, fetch func(ctx context.Context) (json.RawMessage, error)) providerCall {
	return providerCall{name: name, fetch: fetch}
}

func TestSettleAllWaitsForEveryCall(t *testing.T) {
	slowDone := false
	calls := []providerCall{
		call("fast", func(context.Context) (json.RawMessage, error) {
			return json.RawMessage(`{"temp":1}`), nil
		}),
		call("slow", func(context.Context) (json.RawMessage, error) {
			time.Sleep(20 * time.Millisecond)
			slowDone = true
			return json.RawMessage(`{"temp":2}`), nil
		}),
		call("broken", func(context.Context) (json.RawMessage, error) {
			return nil, errors.New("boom")
		}),
	}

	settled := settleAll(context.Background(), time.Second, calls)

	if len(settled) != 3 {
		t.Fatalf("expected 3 settled outcomes, got %d", len(settled))
	}
	if !slowDone {
		t.Fatal("settleAll returned before the slow call finished")
	}
}

func TestSettleAllOneFailureDoesNotAbortOthers(t *testing.T) {
	calls := []providerCall{
		call("ok", func(context.Context) (json.RawMessage, error) {
			return json.RawMessage(`{"temp":1}`), nil
		}),
		call("down", func(context.Context) (json.RawMessage, error) {
			return nil, errors.New("api down")
		}),
	}

	sources := collectSources(settleAll(context.Background(), time.Second, calls))

	if len(sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(sources))
	}
	if sources[0].Name != "ok" {
		t.Fatalf("expected surviving source to be 'ok', got %q", sources[0].Name)
	}
}

func TestSettleAllTimeoutExcludesStalledProvider(t *testing.T) {
	calls := []providerCall{
		call("quick", func(context.Context) (json.RawMessage, error) {
			return json.RawMessage(`{"temp":1}`), nil
		}),
		call("stalled", func(ctx context.Context) (json.RawMessage, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}),
	}

	start := time.Now()
	sources := collectSources(settleAll(context.Background(), 10*time.Millisecond, calls))

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("join took too long: %v", elapsed)
	}
	if len(sources) != 1 || sources[0].Name != "quick" {
		t.Fatalf("expected only the quick source, got %+v", sources)
	}
}

func TestCollectSourcesDropsEmptyPayloads(t *testing.T) {
	settled := []outcome{
		{name: "with-data", payload: json.RawMessage(`{"temp":1}`)},
		{name: "missing", payload: nil},
		{name: "null", payload: json.RawMessage(`null`)},
		{name: "empty-object", payload: json.RawMessage(`{}`)},
		{name: "empty-array", payload: json.RawMessage(`[]`)},
	}

	sources := collectSources(settled)

	if len(sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(sources))
	}
	if sources[0].Name != "with-data" {
		t.Fatalf("unexpected source %q", sources[0].Name)
	}
}

func TestEmptyPayload(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"", true},
		{"null", true},
		{"{}", true},
		{"[]", true},
		{" {} ", true},
		{`{"a":1}`, false},
		{`[1]`, false},
		{`0`, false},
	}
	for _, tc := range cases {
		if got := emptyPayload(json.RawMessage(tc.raw)); got != tc.want {
			t.Errorf("emptyPayload(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
