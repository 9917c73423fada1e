package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := New("test-secret")
	for _, ttl := range []time.Duration{time.Second, time.Minute, SessionTTL} {
		tok, err := svc.Issue("42", ttl)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		claims, err := svc.Verify(tok)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if claims.Subject != "42" {
			t.Fatalf("subject: want 42, got %q", claims.Subject)
		}
		if !claims.ExpiresAt.After(claims.IssuedAt) {
			t.Fatalf("expiry %v not after issuance %v", claims.ExpiresAt, claims.IssuedAt)
		}
	}
}

func TestVerify_NegativeTTL(t *testing.T) {
	svc := New("test-secret")
	tok, err := svc.Issue("42", -1*time.Second)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Verify(tok); !errors.Is(err, ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
}

func TestVerify_ExpiryWithSimulatedTime(t *testing.T) {
	start := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	svc := NewAt("test-secret", fixedClock(start))

	tok, err := svc.Issue("7", MagicLinkTTL)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// still valid just before expiry
	svc.now = fixedClock(start.Add(MagicLinkTTL - time.Second))
	if _, err := svc.Verify(tok); err != nil {
		t.Fatalf("should still be valid: %v", err)
	}

	// invalid after expiry
	svc.now = fixedClock(start.Add(MagicLinkTTL + time.Minute))
	if _, err := svc.Verify(tok); !errors.Is(err, ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
}

func TestVerify_TamperedSignature(t *testing.T) {
	svc := New("test-secret")
	tok, err := svc.Issue("42", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(parts))
	}

	// flip one character of the signature segment
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := svc.Verify(tampered); !errors.Is(err, ErrInvalid) {
		t.Fatalf("tampered token accepted: %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	svc := New("test-secret")
	for _, tok := range []string{
		"",
		"onlyonesegment",
		"two.segments",
		"four.whole.token.segments",
		"....",
	} {
		if _, err := svc.Verify(tok); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%q: want ErrInvalid, got %v", tok, err)
		}
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	tok, err := New("secret-a").Issue("42", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := New("secret-b").Verify(tok); !errors.Is(err, ErrInvalid) {
		t.Fatalf("cross-secret token accepted: %v", err)
	}
}
