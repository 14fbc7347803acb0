package storage

import "time"

// Mode selects which asset the next delivery sends.
type Mode string

const (
	ModeVideo Mode = "video"
	ModeAudio Mode = "audio"
)

// Status is the outcome of a delivery attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// User is the persisted per-chat record. Mode is one-shot: it applies to the
// next delivery only and reverts to video after an audio delivery.
type User struct {
	Downloads int        `json:"downloads"`
	Warnings  int        `json:"warnings"`
	Mode      Mode       `json:"mode"`
	BanUntil  *time.Time `json:"ban_until,omitempty"`
}

// LogEntry is one completed delivery attempt, successful or not.
type LogEntry struct {
	Time        time.Time `json:"time"`
	Status      Status    `json:"status"`
	Type        Mode      `json:"type"`
	UserID      int64     `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Username    string    `json:"username,omitempty"`
	Link        string    `json:"link"`
	Error       string    `json:"error,omitempty"`
}

// Totals aggregates the store for the operator dashboard.
type Totals struct {
	Users     int64 `json:"users"`
	Downloads int64 `json:"downloads"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}
