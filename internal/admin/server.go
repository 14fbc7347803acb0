// Package admin is the operator HTTP surface: ban management, retries and
// read access to the stored records. Every /admin route is gated by a shared
// secret passed as the key query parameter.
package admin

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/artur/urban-waffle/internal/storage"
)

// RetryFunc re-runs the delivery pipeline for a chat and link.
type RetryFunc func(chatID int64, link string) error

type Server struct {
	store       *storage.Store
	key         string
	maxWarnings int
	retry       RetryFunc
}

func New(store *storage.Store, key string, maxWarnings int, retry RetryFunc) *Server {
	return &Server{
		store:       store,
		key:         key,
		maxWarnings: maxWarnings,
		retry:       retry,
	}
}

// Router builds the route table. The root path stays open as a liveness
// probe; everything under /admin requires the operator key.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(s.requireKey)
	admin.HandleFunc("/ban", s.handleBan).Methods(http.MethodPost)
	admin.HandleFunc("/unban", s.handleUnban).Methods(http.MethodPost)
	admin.HandleFunc("/tempban", s.handleTempBan).Methods(http.MethodPost)
	admin.HandleFunc("/retry", s.handleRetry).Methods(http.MethodPost)
	admin.HandleFunc("/logs", s.handleLogs).Methods(http.MethodGet)
	admin.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	return r
}

func (s *Server) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != s.key {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Bot running"))
}

func (s *Server) handleBan(w http.ResponseWriter, r *http.Request) {
	id, ok := userParam(w, r)
	if !ok {
		return
	}
	if err := s.store.SetWarnings(id, s.maxWarnings); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("[ADMIN] Banned user %d", id)
	writeJSON(w, map[string]any{"banned": id})
}

// handleUnban clears the warning strikes. The temporary ban is independent
// and only cleared when the request asks for it with all=1.
func (s *Server) handleUnban(w http.ResponseWriter, r *http.Request) {
	id, ok := userParam(w, r)
	if !ok {
		return
	}
	if err := s.store.SetWarnings(id, 0); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if r.URL.Query().Get("all") == "1" {
		if err := s.store.ClearBanUntil(id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	log.Printf("[ADMIN] Unbanned user %d", id)
	writeJSON(w, map[string]any{"unbanned": id})
}

func (s *Server) handleTempBan(w http.ResponseWriter, r *http.Request) {
	id, ok := userParam(w, r)
	if !ok {
		return
	}
	hours, err := strconv.Atoi(r.URL.Query().Get("hours"))
	if err != nil || hours <= 0 {
		http.Error(w, "hours must be a positive integer", http.StatusBadRequest)
		return
	}
	until := time.Now().Add(time.Duration(hours) * time.Hour)
	if err := s.store.SetBanUntil(id, until); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("[ADMIN] Temp-banned user %d until %s", id, until.Format(time.RFC3339))
	writeJSON(w, map[string]any{"banned": id, "until": until})
}

// handleRetry re-runs a delivery as a brand-new cycle: no guard check, no
// lookup of the original log entry.
func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	chat, err := strconv.ParseInt(r.URL.Query().Get("chat"), 10, 64)
	if err != nil {
		http.Error(w, "chat must be an integer", http.StatusBadRequest)
		return
	}
	link := r.URL.Query().Get("link")
	if link == "" {
		http.Error(w, "link is required", http.StatusBadRequest)
		return
	}

	go func() {
		if err := s.retry(chat, link); err != nil {
			log.Printf("[ADMIN] Retry for chat %d failed: %v", chat, err)
		}
	}()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"retrying": link})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Logs())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"totals": s.store.Totals(),
		"users":  s.store.Users(),
	})
}

func userParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("user"), 10, 64)
	if err != nil {
		http.Error(w, "user must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ADMIN] Failed to encode response: %v", err)
	}
}
