package service

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/atinyakov/go-link-gate/internal/models"
)

// NewVisit describes one counted resolution of l. The client address is
// kept only as a hex SHA-256 digest; an empty ip leaves IPHash empty.
func NewVisit(l *models.Link, referer, userAgent, ip string) models.Visit {
	v := models.Visit{
		LinkID:    l.ID,
		Owner:     l.Owner,
		Code:      l.Code,
		Referer:   referer,
		UserAgent: userAgent,
		Created:   time.Now().UTC(),
	}
	if ip != "" {
		sum := sha256.Sum256([]byte(ip))
		v.IPHash = hex.EncodeToString(sum[:])
	}
	return v
}
