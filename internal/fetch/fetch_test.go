package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boreal-data/seaoflow/internal/model"
)

// noSleep records requested waits instead of sleeping.
func noSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		if delays != nil {
			*delays = append(*delays, d)
		}
		return nil
	}
}

func catalogOf(resources ...model.SourceResource) *model.Catalog {
	return &model.Catalog{ResourceCount: len(resources), Resources: resources}
}

func TestMaterializeDownloads(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"releases": []}`))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	var delays []time.Duration
	o := NewOrchestrator(NewClient(), dir, WithSleep(noSleep(&delays)), WithPacing(time.Second))

	cat := catalogOf(model.SourceResource{Name: "a.json", URL: srv.URL + "/a.json", Size: 16})
	res, err := o.Materialize(context.Background(), cat, Params{})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if res.OK != 1 || res.Skipped != 0 || res.Failed != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected 1 request, got %d", hits.Load())
	}

	data, err := os.ReadFile(filepath.Join(dir, "a.json"))
	if err != nil {
		t.Fatalf("expected downloaded file: %v", err)
	}
	if string(data) != `{"releases": []}` {
		t.Fatalf("unexpected content: %s", data)
	}
	// Politeness pause after the successful transfer.
	if len(delays) != 1 || delays[0] != time.Second {
		t.Fatalf("expected one 1s pacing delay, got %v", delays)
	}
}

func TestMaterializeSkipsValidArtifact(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	// 950,000 bytes against a declared 1,000,000: within the 10% tolerance.
	if err := os.WriteFile(filepath.Join(dir, "a.json"), make([]byte, 950_000), 0o644); err != nil {
		t.Fatal(err)
	}

	o := NewOrchestrator(NewClient(), dir, WithSleep(noSleep(nil)))
	cat := catalogOf(model.SourceResource{Name: "a.json", URL: srv.URL + "/a.json", Size: 1_000_000})

	res, err := o.Materialize(context.Background(), cat, Params{})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if res.Skipped != 1 || res.OK != 0 {
		t.Fatalf("expected skip, got %+v", res)
	}
	if hits.Load() != 0 {
		t.Fatalf("expected zero network calls, got %d", hits.Load())
	}
}

func TestMaterializeRedownloadsUndersizedArtifact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fresh"))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	// 80% of the declared size: outside tolerance, must be refetched.
	if err := os.WriteFile(filepath.Join(dir, "a.json"), make([]byte, 800), 0o644); err != nil {
		t.Fatal(err)
	}

	o := NewOrchestrator(NewClient(), dir, WithSleep(noSleep(nil)))
	cat := catalogOf(model.SourceResource{Name: "a.json", URL: srv.URL + "/a.json", Size: 1000})

	res, err := o.Materialize(context.Background(), cat, Params{})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if res.OK != 1 {
		t.Fatalf("expected re-download, got %+v", res)
	}
}

func TestMaterializeZeroDeclaredSizeAlwaysValid(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.json"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	o := NewOrchestrator(NewClient(), dir, WithSleep(noSleep(nil)))
	cat := catalogOf(model.SourceResource{Name: "a.json", URL: srv.URL + "/a.json", Size: 0})

	res, err := o.Materialize(context.Background(), cat, Params{})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if res.Skipped != 1 || hits.Load() != 0 {
		t.Fatalf("expected skip without network, got %+v (%d hits)", res, hits.Load())
	}
}

func TestMaterializeForce(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("forced"))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.json"), []byte("forced"), 0o644); err != nil {
		t.Fatal(err)
	}

	o := NewOrchestrator(NewClient(), dir, WithSleep(noSleep(nil)))
	cat := catalogOf(model.SourceResource{Name: "a.json", URL: srv.URL + "/a.json", Size: 0})

	res, err := o.Materialize(context.Background(), cat, Params{Force: true})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if res.OK != 1 || hits.Load() != 1 {
		t.Fatalf("expected forced re-download, got %+v (%d hits)", res, hits.Load())
	}
}

func TestMaterializeRetriesWithBackoff(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("third time lucky"))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	var delays []time.Duration
	o := NewOrchestrator(NewClient(), dir,
		WithSleep(noSleep(&delays)),
		WithMaxAttempts(3),
		WithBaseDelay(5*time.Second),
		WithPacing(time.Second),
	)

	cat := catalogOf(model.SourceResource{Name: "a.json", URL: srv.URL + "/a.json", Size: 0})
	res, err := o.Materialize(context.Background(), cat, Params{})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if res.OK != 1 || res.Failed != 0 {
		t.Fatalf("expected success after retries, got %+v", res)
	}
	// Linear backoff between attempts, then the pacing pause.
	want := []time.Duration{5 * time.Second, 10 * time.Second, time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delay %d = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestMaterializeRecordsFailure(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	o := NewOrchestrator(NewClient(), dir, WithSleep(noSleep(nil)), WithMaxAttempts(3))

	cat := catalogOf(
		model.SourceResource{Name: "bad.json", URL: srv.URL + "/bad.json", Size: 0},
		model.SourceResource{Name: "absent.json", URL: "http://127.0.0.1:1/absent.json", Size: 0},
	)
	res, err := o.Materialize(context.Background(), cat, Params{})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	// The batch continues past individual failures.
	if res.Failed != 2 || len(res.Failures) != 2 {
		t.Fatalf("expected 2 recorded failures, got %+v", res)
	}
	if hits.Load() != 3 {
		t.Fatalf("expected 3 attempts for the HTTP failure, got %d", hits.Load())
	}
	if res.Failures[0].Name != "bad.json" || !strings.Contains(res.Failures[0].Message, "500") {
		t.Fatalf("unexpected failure detail: %+v", res.Failures[0])
	}
	// No partial artifact left behind.
	if _, err := os.Stat(filepath.Join(dir, "bad.json")); !os.IsNotExist(err) {
		t.Fatal("failed download must not leave a file")
	}
}

func TestMaterializeYearFilter(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("x"))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	o := NewOrchestrator(NewClient(), dir, WithSleep(noSleep(nil)))
	cat := catalogOf(
		model.SourceResource{Name: "a.json", URL: srv.URL + "/a.json", Year: 2023},
		model.SourceResource{Name: "b.json", URL: srv.URL + "/b.json", Year: 2024},
		model.SourceResource{Name: "c.json", URL: srv.URL + "/c.json", Year: 2025},
	)

	res, err := o.Materialize(context.Background(), cat, Params{Years: []int{2024, 2025}})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if res.OK != 2 || hits.Load() != 2 {
		t.Fatalf("expected 2 downloads, got %+v (%d hits)", res, hits.Load())
	}
	if _, err := os.Stat(filepath.Join(dir, "a.json")); !os.IsNotExist(err) {
		t.Fatal("2023 resource must not be downloaded")
	}
}

func TestMaterializeIdempotent(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(make([]byte, 100))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	o := NewOrchestrator(NewClient(), dir, WithSleep(noSleep(nil)))
	cat := catalogOf(model.SourceResource{Name: "a.json", URL: srv.URL + "/a.json", Size: 100})

	if _, err := o.Materialize(context.Background(), cat, Params{}); err != nil {
		t.Fatal(err)
	}
	first := hits.Load()

	res, err := o.Materialize(context.Background(), cat, Params{})
	if err != nil {
		t.Fatal(err)
	}
	if hits.Load() != first {
		t.Fatalf("second run made %d extra network calls", hits.Load()-first)
	}
	if res.Skipped != 1 {
		t.Fatalf("expected skip on second run, got %+v", res)
	}
}
