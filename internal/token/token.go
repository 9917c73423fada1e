// Package token issues and verifies the signed, self-contained bearer
// credentials used for magic-link login and sessions. Verification is
// stateless: there is no revocation list, a token stays valid until its
// natural expiry.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Lifetimes of the two credential classes. A magic link is exchanged at
// the login endpoint for a session token.
const (
	MagicLinkTTL = 15 * time.Minute
	SessionTTL   = 30 * 24 * time.Hour
)

// ErrInvalid covers every verification failure: wrong segment count, bad
// signature, unparsable payload, missing or passed expiry. Callers never
// learn which one it was.
var ErrInvalid = errors.New("invalid token")

// Claims is the verified payload of a token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Service signs and verifies tokens with a shared HMAC secret.
type Service struct {
	secret []byte
	now    func() time.Time
}

// New creates a Service around the configured secret.
func New(secret string) *Service {
	return &Service{secret: []byte(secret), now: time.Now}
}

// NewAt is New with an injectable clock, for tests.
func NewAt(secret string, now func() time.Time) *Service {
	return &Service{secret: []byte(secret), now: now}
}

// Issue signs a token for subject expiring after ttl. Pure computation,
// no side effects.
func (s *Service) Issue(subject string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the signature and expiry of a token and returns its
// claims. Any failure comes back as ErrInvalid.
func (s *Service) Verify(tok string) (Claims, error) {
	var rc jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tok, &rc, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || rc.Subject == "" || rc.ExpiresAt == nil {
		return Claims{}, ErrInvalid
	}
	c := Claims{Subject: rc.Subject, ExpiresAt: rc.ExpiresAt.Time}
	if rc.IssuedAt != nil {
		c.IssuedAt = rc.IssuedAt.Time
	}
	return c, nil
}
