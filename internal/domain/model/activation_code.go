package model

import (
	"strings"
	"time"
)

// CodeStatus is derived from the code's timestamps; it is never stored.
type CodeStatus string

const (
	StatusUnused  CodeStatus = "unused"
	StatusActive  CodeStatus = "active"
	StatusExpired CodeStatus = "expired"
)

// ActivationCode is a unique token string representing a redeemable license
// unit. The timestamps are authoritative: status is recomputed from them on
// every read, reconciling the two historical schema variants (boolean
// isUsed/expiry vs. explicit status enum).
type ActivationCode struct {
	ID          string
	Code        string
	CreatedAt   time.Time
	ActivatedAt *time.Time // nil until redeemed
	ExpiresAt   *time.Time // nil means never expires
	UserID      *string    // who redeemed it, when known
}

// Status derives the lifecycle state at the given instant.
func (c *ActivationCode) Status(now time.Time) CodeStatus {
	if c.ActivatedAt == nil {
		return StatusUnused
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
		return StatusExpired
	}
	return StatusActive
}

// IsUsed is the boolean-schema view of the lifecycle.
func (c *ActivationCode) IsUsed() bool {
	return c.ActivatedAt != nil
}

// Matches reports whether the code matches a case-insensitive substring
// query against the code string, the redeeming user id and the derived
// status. Used for client-side filtering of already loaded codes.
func (c *ActivationCode) Matches(query string, now time.Time) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(c.Code), q) {
		return true
	}
	if c.UserID != nil && strings.Contains(strings.ToLower(*c.UserID), q) {
		return true
	}
	return strings.Contains(string(c.Status(now)), q)
}

// CodeStats holds aggregate counters over the full remote code set.
type CodeStats struct {
	TotalCodes  int `json:"totalCodes"`
	UnusedCodes int `json:"unusedCodes"`
	UsedCodes   int `json:"usedCodes"`
	ActiveCodes int `json:"activeCodes"`
}

// CodePage is one page of a skip-token paginated listing.
type CodePage struct {
	Codes         []*ActivationCode
	TotalCount    int
	PageSize      int
	NextSkipToken *int // nil signals the last page
	HasMore       bool
}
