package core

import "time"

// CeremonyType distinguishes which ceremony a challenge was issued for.
// A challenge issued for one ceremony is never valid for the other.
type CeremonyType string

const (
	CeremonyRegistration   CeremonyType = "registration"
	CeremonyAuthentication CeremonyType = "authentication"
)

// Challenge is a single-use random value binding one ceremony to one relying
// party. It is created at option-generation time and consumed exactly once by
// the matching verify call; reuse and expiry are verification failures.
type Challenge struct {
	Value     []byte       `json:"value"`
	Ceremony  CeremonyType `json:"ceremony"`
	RPID      string       `json:"rp_id"`
	IssuedAt  time.Time    `json:"issued_at"`
	ExpiresAt time.Time    `json:"expires_at"`
	Consumed  bool         `json:"consumed"`
}

// Expired reports whether the challenge is past its expiry at the given time.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
