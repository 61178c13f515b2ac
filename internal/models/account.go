// Package models defines the domain records shared by the stores, the
// resolution engine and the transport layers, plus the request and response
// shapes of the JSON API.
package models

import (
	"strings"
	"time"
	"unicode"
)

// Role of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Plan is the monetization tier of an account.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// Valid reports whether p is a known plan tier.
func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPremium
}

// Account is a registered user of the service.
type Account struct {
	// Name is the identifying name, always stored normalized.
	Name string `json:"name"`

	// PasswordHash is the bcrypt hash of the credential secret.
	PasswordHash string `json:"-"`

	Role     Role      `json:"role"`
	Plan     Plan      `json:"plan"`
	Approved bool      `json:"approved"`
	Created  time.Time `json:"created_at"`
}

// IsAdmin reports whether the account holds the administrator role.
func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// IsPremium reports whether the account is on the premium tier. A nil account
// is treated as free.
func (a *Account) IsPremium() bool {
	return a != nil && a.Plan == PlanPremium
}

// NormalizeName lowercases name and strips every whitespace rune.
func NormalizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, name)
}

// Principal is the minimal identity carried by a session. Plan and approval
// state are never cached here and must be re-fetched from the directory.
type Principal struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}
