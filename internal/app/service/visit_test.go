package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atinyakov/go-link-gate/internal/models"
)

func TestNewVisit(t *testing.T) {
	l := &models.Link{ID: "id-1", Owner: "alice", Code: "promo"}

	v := NewVisit(l, "https://ref.example", "curl/8", "203.0.113.7")
	assert.Equal(t, "id-1", v.LinkID)
	assert.Equal(t, "alice", v.Owner)
	assert.Equal(t, "promo", v.Code)
	assert.Equal(t, "https://ref.example", v.Referer)
	assert.Equal(t, "curl/8", v.UserAgent)
	assert.Len(t, v.IPHash, 64)
	assert.NotContains(t, v.IPHash, "203.0.113.7")
	assert.False(t, v.Created.IsZero())

	assert.Equal(t, v.IPHash, NewVisit(l, "", "", "203.0.113.7").IPHash)
	assert.Empty(t, NewVisit(l, "", "", "").IPHash)
}
