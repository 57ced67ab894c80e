package entities

import "time"

// TokenStatus is the stored lifecycle state. Expiry is never stored; it is
// derived from the clock at read time via DerivedStatus.
type TokenStatus string

const (
	TokenStatusActive  TokenStatus = "active"
	TokenStatusRevoked TokenStatus = "revoked"
	// TokenStatusExpired only appears as a derived value.
	TokenStatusExpired TokenStatus = "expired"
)

const TokenTypeReviewer = "reviewer"

type ReviewerToken struct {
	ID              string
	TokenSecret     string
	Type            string
	ClassIDs        []int
	Status          TokenStatus
	ExpiredAt       time.Time
	CreatedAt       time.Time
	CreatedBy       string
	ActivatedAt     *time.Time
	ActivatedUserID string
}

// Consumed reports whether the single activation slot has been taken.
func (t ReviewerToken) Consumed() bool {
	return t.ActivatedUserID != ""
}

func (t ReviewerToken) Expired(now time.Time) bool {
	return now.After(t.ExpiredAt)
}

func (t ReviewerToken) HasClass(classID int) bool {
	for _, id := range t.ClassIDs {
		if id == classID {
			return true
		}
	}
	return false
}

// DerivedStatus projects the stored state plus the clock into the status
// reported to callers. Revocation wins over expiry.
func DerivedStatus(t ReviewerToken, now time.Time) TokenStatus {
	if t.Status == TokenStatusRevoked {
		return TokenStatusRevoked
	}
	if t.Expired(now) {
		return TokenStatusExpired
	}
	return TokenStatusActive
}
