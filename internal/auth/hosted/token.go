package hosted

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expirySkew treats a token as expired slightly early so it does not lapse
// in flight.
const expirySkew = 30 * time.Second

// tokenExpiry reads the exp claim of a JWT without verifying its signature.
// The client has no key to verify with; the provider verifies on use.
func tokenExpiry(accessToken string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// expired prefers the token's own exp claim and falls back to the expiry
// reported with the session. Unknown expiry counts as not expired.
func (s *ProviderSession) expired(now time.Time) bool {
	exp, ok := tokenExpiry(s.AccessToken)
	if !ok {
		exp = s.ExpiresAt
	}
	if exp.IsZero() {
		return false
	}
	return !now.Add(expirySkew).Before(exp)
}
