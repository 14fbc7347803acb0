package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

const (
	usersFile = "users.json"
	logsFile  = "logs.json"
)

// ErrUnknownUser is returned by mutations targeting a user that was never seen.
var ErrUnknownUser = errors.New("unknown user")

// Store owns the per-user records and the attempt log. Both live in two JSON
// files that are rewritten whole on every save; the flush goes through a temp
// file and a rename so readers never observe a partial write.
type Store struct {
	mu        sync.Mutex
	usersPath string
	logsPath  string
	users     map[int64]User
	logs      []LogEntry
}

// Open loads both files from dir. Missing files are a fresh start; files that
// exist but do not parse are an error, the caller should not run on top of them.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{
		usersPath: filepath.Join(dir, usersFile),
		logsPath:  filepath.Join(dir, logsFile),
		users:     make(map[int64]User),
	}

	raw := make(map[string]User)
	if err := readJSON(s.usersPath, &raw); err != nil {
		return nil, fmt.Errorf("load %s: %w", usersFile, err)
	}
	for key, u := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("load %s: bad user key %q", usersFile, key)
		}
		s.users[id] = u
	}

	if err := readJSON(s.logsPath, &s.logs); err != nil {
		return nil, fmt.Errorf("load %s: %w", logsFile, err)
	}

	log.Printf("[STORE] Loaded %d users, %d log entries from %s", len(s.users), len(s.logs), dir)
	return s, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// GetOrCreateUser returns the record for id, creating and persisting the
// default record on first contact.
func (s *Store) GetOrCreateUser(id int64) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if ok {
		return u, nil
	}

	u = User{Mode: ModeVideo}
	s.users[id] = u
	if err := s.saveUsersLocked(); err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUser returns the record for id without creating it.
func (s *Store) GetUser(id int64) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// IncrementWarnings adds one warning strike and persists. Returns the new count.
func (s *Store) IncrementWarnings(id int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return 0, ErrUnknownUser
	}
	u.Warnings++
	s.users[id] = u
	if err := s.saveUsersLocked(); err != nil {
		return 0, err
	}
	return u.Warnings, nil
}

// SetMode sets the delivery mode for the next request and persists.
func (s *Store) SetMode(id int64, mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrUnknownUser
	}
	u.Mode = mode
	s.users[id] = u
	return s.saveUsersLocked()
}

// RecordDownload increments the download counter after a successful delivery.
// An audio delivery also spends the one-shot audio mode.
func (s *Store) RecordDownload(id int64, audio bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrUnknownUser
	}
	u.Downloads++
	if audio {
		u.Mode = ModeVideo
	}
	s.users[id] = u
	return s.saveUsersLocked()
}

// SetWarnings overwrites the warning count. Operator surface only.
func (s *Store) SetWarnings(id int64, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.users[id]
	u.Warnings = n
	if u.Mode == "" {
		u.Mode = ModeVideo
	}
	s.users[id] = u
	return s.saveUsersLocked()
}

// SetBanUntil sets a temporary ban deadline. Operator surface only.
func (s *Store) SetBanUntil(id int64, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.users[id]
	u.BanUntil = &until
	if u.Mode == "" {
		u.Mode = ModeVideo
	}
	s.users[id] = u
	return s.saveUsersLocked()
}

// ClearBanUntil removes the temporary ban deadline, leaving warnings alone.
func (s *Store) ClearBanUntil(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrUnknownUser
	}
	u.BanUntil = nil
	s.users[id] = u
	return s.saveUsersLocked()
}

// AppendLog appends one attempt entry and flushes the log file.
func (s *Store) AppendLog(e LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = append(s.logs, e)
	data, err := json.MarshalIndent(s.logs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal logs: %w", err)
	}
	return writeFileAtomic(s.logsPath, data)
}

// SaveUsers rewrites the user file from the in-memory collection.
func (s *Store) SaveUsers() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveUsersLocked()
}

func (s *Store) saveUsersLocked() error {
	raw := make(map[string]User, len(s.users))
	for id, u := range s.users {
		raw[strconv.FormatInt(id, 10)] = u
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal users: %w", err)
	}
	return writeFileAtomic(s.usersPath, data)
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Users returns a copy of the user collection keyed by chat ID.
func (s *Store) Users() map[int64]User {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int64]User, len(s.users))
	for id, u := range s.users {
		out[id] = u
	}
	return out
}

// Logs returns a copy of the attempt log, oldest first.
func (s *Store) Logs() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// Totals aggregates the store for the dashboard.
func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := Totals{Users: int64(len(s.users))}
	for _, u := range s.users {
		t.Downloads += int64(u.Downloads)
	}
	for _, e := range s.logs {
		if e.Status == StatusSuccess {
			t.Succeeded++
		} else {
			t.Failed++
		}
	}
	return t
}
