package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signHS256(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func validClaims(sub string) Claims {
	now := time.Now()
	return Claims{
		Email: sub + "@example.com",
		Name:  "User " + sub,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "https://issuer.example",
			Audience:  jwt.ClaimStrings{"notegen"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func newHSVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(VerifierConfig{
		Secret:   testSecret,
		Issuer:   "https://issuer.example",
		Audience: "notegen",
	})
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return v
}

func TestVerifier_ValidHS256(t *testing.T) {
	v := newHSVerifier(t)

	ac, err := v.Verify(signHS256(t, testSecret, validClaims("alice")))
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if ac.UserID != "alice" {
		t.Errorf("UserID = %q, want alice", ac.UserID)
	}
	if ac.Email != "alice@example.com" || ac.DisplayName != "User alice" {
		t.Errorf("unexpected profile claims: %+v", ac)
	}
}

func TestVerifier_Rejects(t *testing.T) {
	v := newHSVerifier(t)

	expired := validClaims("alice")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongIssuer := validClaims("alice")
	wrongIssuer.Issuer = "https://other.example"

	wrongAudience := validClaims("alice")
	wrongAudience.Audience = jwt.ClaimStrings{"other"}

	noSubject := validClaims("")

	noExpiry := validClaims("alice")
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not-a-jwt", ErrInvalidToken},
		{"wrong secret", signHS256(t, "other-secret", validClaims("alice")), ErrInvalidToken},
		{"expired", signHS256(t, testSecret, expired), ErrInvalidToken},
		{"wrong issuer", signHS256(t, testSecret, wrongIssuer), ErrInvalidToken},
		{"wrong audience", signHS256(t, testSecret, wrongAudience), ErrInvalidToken},
		{"no subject", signHS256(t, testSecret, noSubject), ErrInvalidToken},
		{"no expiry", signHS256(t, testSecret, noExpiry), ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			if !errors.Is(err, tt.want) {
				t.Errorf("Verify() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestVerifier_RS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pemText := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	v, err := NewVerifier(VerifierConfig{PublicKeyPEM: pemText})
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims("bob")).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	ac, err := v.Verify(token)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if ac.UserID != "bob" {
		t.Errorf("UserID = %q, want bob", ac.UserID)
	}

	// HS256 tokens must not be accepted by an RS256 verifier.
	if _, err := v.Verify(signHS256(t, testSecret, validClaims("bob"))); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for HS256 token, got %v", err)
	}
}

func TestNewVerifier_NoKey(t *testing.T) {
	if _, err := NewVerifier(VerifierConfig{}); err == nil {
		t.Fatal("expected error without key")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc.def", "abc.def", false},
		{"bearer abc", "abc", false},
		{"Bearer ", "", true},
		{"Bearer    ", "", true},
		{"Basic abc", "", true},
		{"", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
