// Package token issues and verifies the signed acceptance-link tokens.
// Possession of a valid, unexpired token is the only authorization needed to
// accept an outreach; there is no identity check on the holder.
package token

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrExpired is returned when a token's signature is valid but its expiry
// has passed
var ErrExpired = errors.New("token expired")

// ErrInvalid is returned for malformed tokens or bad signatures
var ErrInvalid = errors.New("token invalid")

// Payload is the correlating data an acceptance token carries
type Payload struct {
	InvestorEmail string
	FounderEmail  string
	InvestorName  string
	FounderName   string
	StartupName   string
}

type acceptClaims struct {
	jwt.RegisteredClaims
	InvestorEmail string `json:"investor_email"`
	FounderEmail  string `json:"founder_email"`
	InvestorName  string `json:"investor_name"`
	FounderName   string `json:"founder_name"`
	StartupName   string `json:"startup_name"`
}

// Signer mints and verifies acceptance tokens with a shared HS256 secret
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a Signer. A nil now falls back to time.Now.
func NewSigner(secret []byte, ttl time.Duration, now func() time.Time) *Signer {
	if now == nil {
		now = time.Now
	}
	return &Signer{secret: secret, ttl: ttl, now: now}
}

// Issue mints a signed token for the payload, expiring after the configured
// TTL
func (s *Signer) Issue(p Payload) (string, error) {
	now := s.now()
	claims := acceptClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		InvestorEmail: p.InvestorEmail,
		FounderEmail:  p.FounderEmail,
		InvestorName:  p.InvestorName,
		FounderName:   p.FounderName,
		StartupName:   p.StartupName,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the payload. Expired tokens
// return ErrExpired; anything else that fails validation returns ErrInvalid.
func (s *Signer) Verify(raw string) (*Payload, error) {
	var claims acceptClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	return &Payload{
		InvestorEmail: claims.InvestorEmail,
		FounderEmail:  claims.FounderEmail,
		InvestorName:  claims.InvestorName,
		FounderName:   claims.FounderName,
		StartupName:   claims.StartupName,
	}, nil
}

// AcceptURL builds the clickable acceptance link embedded in outreach emails
func AcceptURL(baseURL, signedToken string) string {
	return fmt.Sprintf("%s/accept_investor?token=%s", baseURL, url.QueryEscape(signedToken))
}
