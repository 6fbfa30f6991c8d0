package jwt

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretBytes is the smallest accepted HMAC key length (256 bits).
const MinSecretBytes = 32

var (
	// ErrSubjectEmpty is returned by Sign when the claim set has no subject.
	ErrSubjectEmpty = errors.New("claim subject is empty")
	// ErrClaimsInvalid is returned by Sign when the claim set violates its invariants.
	ErrClaimsInvalid = errors.New("claim set invalid")
	// ErrMalformed is returned by Verify when the token cannot be decoded.
	ErrMalformed = errors.New("token malformed")
	// ErrSignatureInvalid is returned by Verify when the signature does not match.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrUnsupported is returned by Verify when the token uses an unrecognized algorithm.
	ErrUnsupported = errors.New("token algorithm unsupported")
	// ErrExpired is returned by Verify when the token is past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrSecretInvalid is returned when a signing secret cannot be decoded or is too short.
	ErrSecretInvalid = errors.New("signing secret invalid")
)

// ClaimSet is the structured payload embedded in a token. Instances are
// immutable once signed; a refreshed token is a new ClaimSet and a new
// signed string.
type ClaimSet struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	TenantID  int64 // zero means the token is bound to the global namespace
	TokenID   string
	Extra     map[string]any
}

// Config defines a public type used by tokengate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// Leeway is the clock-skew allowance applied to expiry comparisons.
	Leeway time.Duration
	// TimeFunc overrides the clock used during verification. Nil means time.Now.
	TimeFunc func() time.Time
}

// Codec signs and verifies claim sets with HMAC-SHA256. It holds no keys and
// no mutable state; a single Codec is safe for concurrent use.
type Codec struct {
	leeway time.Duration
	now    func() time.Time
}

// wireClaims is the compact JSON shape of a token payload. The tenant id
// travels under "applicationId", the name the rest of the platform expects.
type wireClaims struct {
	TenantID int64 `json:"applicationId,omitempty"`
	jwt.RegisteredClaims
}

// NewCodec describes the newcodec operation and its observable behavior.
//
// NewCodec may return an error when input validation, dependency calls, or security checks fail.
// NewCodec does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	now := cfg.TimeFunc
	if now == nil {
		now = time.Now
	}
	return &Codec{leeway: cfg.Leeway, now: now}, nil
}

// DecodeSecret decodes a base64-encoded signing secret and enforces the
// 256-bit minimum key length.
func DecodeSecret(encoded string) ([]byte, error) {
	trimmed := strings.TrimSpace(encoded)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty secret", ErrSecretInvalid)
	}

	key, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		key, err = base64.RawStdEncoding.DecodeString(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSecretInvalid, err)
		}
	}

	if len(key) < MinSecretBytes {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", ErrSecretInvalid, MinSecretBytes, len(key))
	}

	return key, nil
}

// Sign produces a compact signed token from claims using key. The claim set
// must carry a non-empty subject and an expiry strictly after issuance.
//
// Sign may return an error when input validation, dependency calls, or security checks fail.
// Sign does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Codec) Sign(claims ClaimSet, key []byte) (string, error) {
	if strings.TrimSpace(claims.Subject) == "" {
		return "", ErrSubjectEmpty
	}
	if !claims.ExpiresAt.After(claims.IssuedAt) {
		return "", fmt.Errorf("%w: expiry must follow issuance", ErrClaimsInvalid)
	}
	if len(key) < MinSecretBytes {
		return "", fmt.Errorf("%w: need at least %d bytes, got %d", ErrSecretInvalid, MinSecretBytes, len(key))
	}

	payload := jwt.MapClaims{}
	for name, value := range claims.Extra {
		payload[name] = value
	}
	payload["sub"] = claims.Subject
	payload["iat"] = jwt.NewNumericDate(claims.IssuedAt)
	payload["exp"] = jwt.NewNumericDate(claims.ExpiresAt)
	if claims.TenantID != 0 {
		payload["applicationId"] = claims.TenantID
	}
	if claims.TokenID != "" {
		payload["jti"] = claims.TokenID
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(key)
}

// Verify recomputes the signature of token with key and returns the decoded
// claim set. Expiry is checked against the codec clock with the configured
// leeway; signature failure is reported before expiry.
//
// Verify may return an error when input validation, dependency calls, or security checks fail.
// Verify does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Codec) Verify(token string, key []byte) (*ClaimSet, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.leeway > 0 {
		options = append(options, jwt.WithLeeway(c.leeway))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(token, &wireClaims{}, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		return nil, c.mapParseError(token, err)
	}

	claims, ok := parsed.Claims.(*wireClaims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}

	return claimSetFromWire(claims), nil
}

func (c *Codec) mapParseError(token string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		// The parser reports a disallowed algorithm as a signature failure.
		// Inspect the header so "unsupported" stays distinguishable.
		if alg := peekAlg(token); alg != "" && alg != jwt.SigningMethodHS256.Alg() {
			return fmt.Errorf("%w: alg %q", ErrUnsupported, alg)
		}
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

func peekAlg(token string) string {
	head, _, found := strings.Cut(token, ".")
	if !found {
		return ""
	}

	data, err := base64.RawURLEncoding.DecodeString(head)
	if err != nil {
		return ""
	}

	var header struct {
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return ""
	}

	return header.Alg
}

func claimSetFromWire(claims *wireClaims) *ClaimSet {
	out := &ClaimSet{
		Subject:  claims.Subject,
		TenantID: claims.TenantID,
		TokenID:  claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out
}
