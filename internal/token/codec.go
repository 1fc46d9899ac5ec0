// Package token issues and verifies the signed tokens used by the account
// flows.  Every token is an HS256 JWT signed with the server secret.  The
// audience claim tells the kinds apart so a token minted for one purpose is
// never accepted for another.
package token

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	audienceConfirm = "confirm"
	audienceAuth    = "auth"
	audienceReset   = "reset"

	// DefaultAuthTTL applies when GenerateAuth is called with a
	// non-positive lifetime.
	DefaultAuthTTL = 3600 * time.Second
	// DefaultResetTTL applies when GenerateReset is called with a
	// non-positive lifetime.
	DefaultResetTTL = 3600 * time.Second
)

// ErrInvalidToken is returned for every verification failure: bad
// signature, malformed input, wrong kind, missing subject or expiry.
var ErrInvalidToken = errors.New("invalid token")

// Confirmation is the decoded payload of a confirmation or change-email
// token.  NewEmail is empty for plain account confirmation.
type Confirmation struct {
	UserID   uint64
	NewEmail string
}

// AuthToken is a signed authentication token along with its expiry.
type AuthToken struct {
	Token string
	Exp   time.Time
}

type confirmClaims struct {
	Confirm  uint64 `json:"confirm"`
	NewEmail string `json:"new_email,omitempty"`
	jwt.RegisteredClaims
}

type authClaims struct {
	ID uint64 `json:"id"`
	jwt.RegisteredClaims
}

type resetClaims struct {
	Reset uint64 `json:"reset"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens.  Now is the clock used for issuing and
// for expiry checks; tests replace it to simulate elapsed time.
type Codec struct {
	secret []byte
	Now    func() time.Time
}

// NewCodec returns a Codec keyed with secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), Now: time.Now}
}

// GenerateConfirmation returns a token proving control of the account's
// email address.  It carries no expiry.
func (c *Codec) GenerateConfirmation(userID uint64) (string, error) {
	return c.sign(confirmClaims{
		Confirm:          userID,
		RegisteredClaims: jwt.RegisteredClaims{Audience: jwt.ClaimStrings{audienceConfirm}},
	})
}

// GenerateChangeEmail returns a confirmation token that also carries the
// address the user wants to switch to.
func (c *Codec) GenerateChangeEmail(userID uint64, newEmail string) (string, error) {
	return c.sign(confirmClaims{
		Confirm:          userID,
		NewEmail:         strings.ToLower(strings.TrimSpace(newEmail)),
		RegisteredClaims: jwt.RegisteredClaims{Audience: jwt.ClaimStrings{audienceConfirm}},
	})
}

// DecodeConfirmation verifies a confirmation or change-email token.
func (c *Codec) DecodeConfirmation(raw string) (Confirmation, error) {
	var claims confirmClaims
	if err := c.parse(raw, &claims, audienceConfirm); err != nil {
		return Confirmation{}, err
	}
	if claims.Confirm == 0 {
		return Confirmation{}, ErrInvalidToken
	}
	return Confirmation{UserID: claims.Confirm, NewEmail: claims.NewEmail}, nil
}

// GenerateAuth issues an authentication token for userID valid for ttl.
func (c *Codec) GenerateAuth(userID uint64, ttl time.Duration) (AuthToken, error) {
	if ttl <= 0 {
		ttl = DefaultAuthTTL
	}
	now := c.Now().UTC()
	exp := now.Add(ttl)
	signed, err := c.sign(authClaims{
		ID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			Audience:  jwt.ClaimStrings{audienceAuth},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	if err != nil {
		return AuthToken{}, err
	}
	return AuthToken{Token: signed, Exp: exp}, nil
}

// VerifyAuth checks signature and expiry and returns the subject id.
func (c *Codec) VerifyAuth(raw string) (uint64, error) {
	var claims authClaims
	if err := c.parse(raw, &claims, audienceAuth, jwt.WithExpirationRequired()); err != nil {
		return 0, err
	}
	if claims.ID == 0 {
		return 0, ErrInvalidToken
	}
	return claims.ID, nil
}

// GenerateReset issues a password reset token bound to userID.
func (c *Codec) GenerateReset(userID uint64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	now := c.Now().UTC()
	return c.sign(resetClaims{
		Reset: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{audienceReset},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
}

// VerifyReset returns the user a reset token was issued for.
func (c *Codec) VerifyReset(raw string) (uint64, error) {
	var claims resetClaims
	if err := c.parse(raw, &claims, audienceReset, jwt.WithExpirationRequired()); err != nil {
		return 0, err
	}
	if claims.Reset == 0 {
		return 0, ErrInvalidToken
	}
	return claims.Reset, nil
}

func (c *Codec) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// parse verifies raw into claims.  Any failure collapses to ErrInvalidToken
// so callers never see library errors.
func (c *Codec) parse(raw string, claims jwt.Claims, audience string, extra ...jwt.ParserOption) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrInvalidToken
	}
	opts := append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(c.Now),
	}, extra...)
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, opts...)
	if err != nil || !tok.Valid {
		return ErrInvalidToken
	}
	return nil
}
