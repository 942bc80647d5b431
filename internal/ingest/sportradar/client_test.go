package sportradar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// countingPacer records waits without sleeping.
type countingPacer struct {
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits++
	return nil
}

func TestFetchScheduleSuccess(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("api_key")
		w.Write([]byte(`{"games": [{"id": "g1", "scheduled": "2021-05-14T23:00:00+00:00"}]}`))
	}))
	defer server.Close()

	pacer := &countingPacer{}
	client := NewWithPacer(server.URL, "secret", pacer)

	payload := client.FetchSchedule(context.Background(), 2021)
	if payload == nil {
		t.Fatal("expected schedule payload, got nil")
	}
	if gotPath != "/games/2021/REG/schedule.json" {
		t.Errorf("unexpected request path: %s", gotPath)
	}
	if gotKey != "secret" {
		t.Errorf("expected api_key query param, got %q", gotKey)
	}
	if client.Calls() != 1 {
		t.Errorf("expected 1 call counted, got %d", client.Calls())
	}
	if pacer.waits != 1 {
		t.Errorf("expected 1 pacer wait, got %d", pacer.waits)
	}
}

func TestFetchReturnsNilOnErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	pacer := &countingPacer{}
	client := NewWithPacer(server.URL, "secret", pacer)

	if payload := client.FetchGameSummary(context.Background(), "g1"); payload != nil {
		t.Errorf("expected nil payload on 403, got %v", payload)
	}
	if client.Calls() != 1 {
		t.Errorf("failed call must still count, got %d", client.Calls())
	}
	if pacer.waits != 1 {
		t.Errorf("failed call must still be paced, got %d waits", pacer.waits)
	}
}

func TestFetchReturnsNilOnBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	client := NewWithPacer(server.URL, "secret", &countingPacer{})

	if payload := client.FetchPlayerProfile(context.Background(), "p1"); payload != nil {
		t.Errorf("expected nil payload on undecodable body, got %v", payload)
	}
	if client.Calls() != 1 {
		t.Errorf("undecodable call must still count, got %d", client.Calls())
	}
}

func TestFetchReturnsNilOnTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	pacer := &countingPacer{}
	client := NewWithPacer(url, "secret", pacer)

	if payload := client.FetchSchedule(context.Background(), 2021); payload != nil {
		t.Errorf("expected nil payload on transport error, got %v", payload)
	}
	if client.Calls() != 1 {
		t.Errorf("transport failure must still count, got %d", client.Calls())
	}
	if pacer.waits != 1 {
		t.Errorf("transport failure must still be paced, got %d waits", pacer.waits)
	}
}

func TestEveryCallIsPaced(t *testing.T) {
	var served int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served++
		if served%2 == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	pacer := &countingPacer{}
	client := NewWithPacer(server.URL, "secret", pacer)

	ctx := context.Background()
	client.FetchSchedule(ctx, 2021)
	client.FetchGameSummary(ctx, "g1")
	client.FetchGameSummary(ctx, "g2")
	client.FetchPlayerProfile(ctx, "p1")

	if client.Calls() != 4 {
		t.Errorf("expected 4 calls counted, got %d", client.Calls())
	}
	if pacer.waits != 4 {
		t.Errorf("expected 4 pacer waits, got %d", pacer.waits)
	}
}

func TestIntervalPacerSpacesCalls(t *testing.T) {
	const interval = 20 * time.Millisecond

	start := time.Now()
	pacer := NewIntervalPacer(interval)
	for i := 0; i < 3; i++ {
		if err := pacer.Wait(context.Background()); err != nil {
			t.Fatalf("wait %d failed: %v", i, err)
		}
	}

	if elapsed := time.Since(start); elapsed < 3*interval {
		t.Errorf("3 calls finished in %v, want at least %v", elapsed, 3*interval)
	}
}

func TestClientSpacesRealCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	const interval = 15 * time.Millisecond

	start := time.Now()
	client := NewWithInterval(server.URL, "secret", interval)
	client.FetchSchedule(context.Background(), 2021)
	client.FetchGameSummary(context.Background(), "g1")

	if elapsed := time.Since(start); elapsed < 2*interval {
		t.Errorf("2 calls finished in %v, want at least %v", elapsed, 2*interval)
	}
}
