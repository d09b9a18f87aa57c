package credential

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoUserClaim is returned when a token carries no usable user id.
var ErrNoUserClaim = errors.New("token has no user id claim")

// userClaims are checked in order.
var userClaims = []string{"id_usuario", "user_id", "id", "sub"}

// parseClaims decodes the claims of token without verifying its
// signature. The backend verifies every request; the client only reads
// hints from the payload.
func parseClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parsing session token: %w", err)
	}
	return claims, nil
}

// UserIDFromToken extracts the user id from a session token.
func UserIDFromToken(token string) (int64, error) {
	claims, err := parseClaims(token)
	if err != nil {
		return 0, err
	}

	for _, name := range userClaims {
		raw, ok := claims[name]
		if !ok {
			continue
		}
		if id, ok := claimInt(raw); ok && id > 0 {
			return id, nil
		}
	}

	return 0, ErrNoUserClaim
}

// TokenExpired reports whether token has an exp claim before now. Tokens
// without exp never expire.
func TokenExpired(token string, now time.Time) (bool, error) {
	claims, err := parseClaims(token)
	if err != nil {
		return false, err
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return false, fmt.Errorf("reading exp claim: %w", err)
	}
	if exp == nil {
		return false, nil
	}
	return now.After(exp.Time), nil
}

func claimInt(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}
