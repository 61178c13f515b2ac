package models

import "time"

// Link maps a short code, scoped to its owner, to a destination URL.
type Link struct {
	ID          string    `json:"id" format:"uuid"`
	Owner       string    `json:"owner"`
	Code        string    `json:"code"`
	Destination string    `json:"destination"`
	Clicks      int64     `json:"clicks"`
	Created     time.Time `json:"created_at"`
}

// Visit is one resolved request against a link, kept for analytics.
type Visit struct {
	LinkID    string    `json:"link_id"`
	Owner     string    `json:"owner"`
	Code      string    `json:"code"`
	Referer   string    `json:"referer"`
	UserAgent string    `json:"user_agent"`
	IPHash    string    `json:"ip_hash"`
	Created   time.Time `json:"created_at"`
}
