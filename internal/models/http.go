package models

// ShortenRequest represents a request to shorten a URL through the JSON API.
type ShortenRequest struct {
	// URL is the destination to be shortened.
	URL string `json:"url"`

	// Alias is an optional owner-scoped custom code.
	Alias string `json:"alias,omitempty"`
}

// ShortenResponse is returned after a link was created.
type ShortenResponse struct {
	// Code is the code assigned to the link.
	Code string `json:"code"`

	// ShortURL is the canonical-host short URL.
	ShortURL string `json:"short_url"`

	// TenantURL is the sub-domain form of the short URL.
	TenantURL string `json:"tenant_url"`
}

// LinkResponse describes one link in the owner's listing.
type LinkResponse struct {
	Code        string `json:"code"`
	Destination string `json:"destination"`
	ShortURL    string `json:"short_url"`
	TenantURL   string `json:"tenant_url"`
	Clicks      int64  `json:"clicks"`
	CreatedAt   string `json:"created_at"`
}
