package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/notegen/notegen/internal/model"
)

var (
	// ErrMissingToken is returned when no bearer credential was supplied.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned when the credential fails validation.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the identity token payload.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// VerifierConfig configures token verification.
// Exactly one of Secret (HS256) or PublicKeyPEM (RS256) is used;
// the public key wins when both are set.
type VerifierConfig struct {
	Secret       string
	PublicKeyPEM string
	Issuer       string
	Audience     string
}

// Verifier validates bearer tokens issued by the identity provider.
type Verifier struct {
	parser *jwt.Parser
	key    any
	method jwt.SigningMethod
}

// NewVerifier builds a Verifier from cfg.
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	v := &Verifier{}

	switch {
	case cfg.PublicKeyPEM != "":
		key, err := parseRSAPublicKey(cfg.PublicKeyPEM)
		if err != nil {
			return nil, err
		}
		v.key = key
		v.method = jwt.SigningMethodRS256
	case cfg.Secret != "":
		v.key = []byte(cfg.Secret)
		v.method = jwt.SigningMethodHS256
	default:
		return nil, errors.New("auth: no verification key configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.method.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	v.parser = jwt.NewParser(opts...)

	return v, nil
}

func parseRSAPublicKey(pemText string) (*rsa.PublicKey, error) {
	// Env vars often carry the PEM with literal \n sequences.
	pemText = strings.ReplaceAll(pemText, `\n`, "\n")
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemText))
	if err != nil {
		return nil, fmt.Errorf("auth: parse public key: %w", err)
	}
	return key, nil
}

// Verify validates a raw token string and returns the caller identity.
func (v *Verifier) Verify(tokenString string) (*model.AuthContext, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &model.AuthContext{
		UserID:      claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
	}, nil
}

// BearerToken extracts the credential from an Authorization header value.
// Returns ErrMissingToken when the header is absent or not a Bearer header.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
