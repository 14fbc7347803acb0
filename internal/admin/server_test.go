package admin_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/artur/urban-waffle/internal/admin"
	"github.com/artur/urban-waffle/internal/storage"
)

const operatorKey = "sekret"

type retryRecorder struct {
	mu    sync.Mutex
	calls []string
	done  chan struct{}
}

func (r *retryRecorder) retry(chatID int64, link string) error {
	r.mu.Lock()
	r.calls = append(r.calls, link)
	r.mu.Unlock()
	close(r.done)
	return nil
}

func setupServer(t *testing.T) (*httptest.Server, *storage.Store, *retryRecorder) {
	t.Helper()

	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}

	rec := &retryRecorder{done: make(chan struct{})}
	srv := admin.New(store, operatorKey, 3, rec.retry)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, store, rec
}

func post(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "", nil)
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRoot_OpenWithoutKey(t *testing.T) {
	ts, _, _ := setupServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 from liveness route, got %d", resp.StatusCode)
	}
}

func TestAdmin_RejectsBadKey(t *testing.T) {
	ts, _, _ := setupServer(t)

	tests := []struct {
		name string
		url  string
	}{
		{"missing key", "/admin/logs"},
		{"wrong key", "/admin/logs?key=wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.url)
			if err != nil {
				t.Fatalf("GET failed: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusForbidden {
				t.Errorf("Expected 403, got %d", resp.StatusCode)
			}
		})
	}
}

func TestAdmin_Ban(t *testing.T) {
	ts, store, _ := setupServer(t)

	resp := post(t, ts.URL+"/admin/ban?key="+operatorKey+"&user=42")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	u, ok := store.GetUser(42)
	if !ok {
		t.Fatal("Expected user record created by ban")
	}
	if u.Warnings != 3 {
		t.Errorf("Expected warnings raised to threshold, got %d", u.Warnings)
	}
}

func TestAdmin_UnbanKeepsTempBanUnlessAsked(t *testing.T) {
	ts, store, _ := setupServer(t)

	until := time.Now().Add(time.Hour)
	if err := store.SetWarnings(42, 3); err != nil {
		t.Fatalf("SetWarnings failed: %v", err)
	}
	if err := store.SetBanUntil(42, until); err != nil {
		t.Fatalf("SetBanUntil failed: %v", err)
	}

	post(t, ts.URL+"/admin/unban?key="+operatorKey+"&user=42")

	u, _ := store.GetUser(42)
	if u.Warnings != 0 {
		t.Errorf("Expected warnings cleared, got %d", u.Warnings)
	}
	if u.BanUntil == nil {
		t.Error("Expected temporary ban untouched without all=1")
	}

	post(t, ts.URL+"/admin/unban?key="+operatorKey+"&user=42&all=1")

	u, _ = store.GetUser(42)
	if u.BanUntil != nil {
		t.Errorf("Expected temporary ban cleared with all=1, got %v", u.BanUntil)
	}
}

func TestAdmin_TempBan(t *testing.T) {
	ts, store, _ := setupServer(t)

	before := time.Now().Add(23 * time.Hour)
	resp := post(t, ts.URL+"/admin/tempban?key="+operatorKey+"&user=42&hours=24")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	u, _ := store.GetUser(42)
	if u.BanUntil == nil || u.BanUntil.Before(before) {
		t.Errorf("Expected ban roughly 24h out, got %v", u.BanUntil)
	}
}

func TestAdmin_TempBanValidation(t *testing.T) {
	ts, _, _ := setupServer(t)

	tests := []struct {
		name string
		url  string
	}{
		{"missing hours", "/admin/tempban?key=" + operatorKey + "&user=42"},
		{"zero hours", "/admin/tempban?key=" + operatorKey + "&user=42&hours=0"},
		{"bad user", "/admin/tempban?key=" + operatorKey + "&user=abc&hours=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+tt.url)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestAdmin_Retry(t *testing.T) {
	ts, _, rec := setupServer(t)

	resp := post(t, ts.URL+"/admin/retry?key="+operatorKey+"&chat=100&link=https%3A%2F%2Ftiktok.com%2F%40u%2Fvideo%2F1")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", resp.StatusCode)
	}

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for retry dispatch")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.calls) != 1 || rec.calls[0] != "https://tiktok.com/@u/video/1" {
		t.Errorf("Expected retry with decoded link, got %v", rec.calls)
	}
}

func TestAdmin_RetryValidation(t *testing.T) {
	ts, _, _ := setupServer(t)

	resp := post(t, ts.URL+"/admin/retry?key="+operatorKey+"&chat=100")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 without link, got %d", resp.StatusCode)
	}
}

func TestAdmin_LogsAndStats(t *testing.T) {
	ts, store, _ := setupServer(t)

	if _, err := store.GetOrCreateUser(1); err != nil {
		t.Fatalf("GetOrCreateUser failed: %v", err)
	}
	if err := store.AppendLog(storage.LogEntry{Status: storage.StatusSuccess, Type: storage.ModeVideo, UserID: 1, Link: "https://tiktok.com/x"}); err != nil {
		t.Fatalf("AppendLog failed: %v", err)
	}

	resp, err := http.Get(ts.URL + "/admin/logs?key=" + operatorKey)
	if err != nil {
		t.Fatalf("GET logs failed: %v", err)
	}
	defer resp.Body.Close()

	var logs []storage.LogEntry
	if err := json.NewDecoder(resp.Body).Decode(&logs); err != nil {
		t.Fatalf("Failed to decode logs: %v", err)
	}
	if len(logs) != 1 || logs[0].Link != "https://tiktok.com/x" {
		t.Errorf("Unexpected logs payload: %+v", logs)
	}

	resp2, err := http.Get(ts.URL + "/admin/stats?key=" + operatorKey)
	if err != nil {
		t.Fatalf("GET stats failed: %v", err)
	}
	defer resp2.Body.Close()

	var stats struct {
		Totals storage.Totals          `json:"totals"`
		Users  map[string]storage.User `json:"users"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}
	if stats.Totals.Users != 1 || stats.Totals.Succeeded != 1 {
		t.Errorf("Unexpected totals: %+v", stats.Totals)
	}
}

func TestAdmin_MethodRestrictions(t *testing.T) {
	ts, _, _ := setupServer(t)

	// Mutations are POST-only.
	resp, err := http.Get(ts.URL + "/admin/ban?key=" + operatorKey + "&user=42")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET on /admin/ban, got %d", resp.StatusCode)
	}
}
