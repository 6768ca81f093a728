package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrSigningDisabled is returned by GenerateToken on a validation-only service.
var ErrSigningDisabled = errors.New("token signing disabled: no private key or secret configured")

// JWTConfig holds JWT configuration. Exactly one kind of key material is
// used, checked in the order PrivateKeyPEM, PublicKeyPEM, Secret.
type JWTConfig struct {
	// Secret is the HMAC-SHA256 key shared with internal callers.
	Secret string

	// PrivateKeyPEM signs RS256 tokens; the public half validates them.
	PrivateKeyPEM string

	// PublicKeyPEM validates RS256 tokens issued elsewhere.
	PublicKeyPEM string

	Issuer     string
	Expiration time.Duration

	// Leeway tolerates clock skew between the issuer and the services.
	Leeway time.Duration
}

// JWTService signs and validates the bearer tokens presented to the
// integrity services.
type JWTService struct {
	issuer     string
	expiration time.Duration
	method     jwt.SigningMethod
	signKey    any
	verifyKey  any
	parser     *jwt.Parser
}

// NewJWTService creates a JWTService from cfg.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	svc := &JWTService{issuer: cfg.Issuer, expiration: cfg.Expiration}

	switch {
	case cfg.PrivateKeyPEM != "":
		key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse RSA private key: %w", err)
		}
		svc.method, svc.signKey, svc.verifyKey = jwt.SigningMethodRS256, key, &key.PublicKey
	case cfg.PublicKeyPEM != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse RSA public key: %w", err)
		}
		svc.method, svc.verifyKey = jwt.SigningMethodRS256, key
	case cfg.Secret != "":
		secret := []byte(cfg.Secret)
		svc.method, svc.signKey, svc.verifyKey = jwt.SigningMethodHS256, secret, secret
	default:
		return nil, errors.New("jwt configuration requires PrivateKeyPEM, PublicKeyPEM, or Secret")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{svc.method.Alg()}),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	svc.parser = jwt.NewParser(opts...)

	return svc, nil
}

// GenerateToken issues a token for subject carrying roles. Used by tests
// and by operators minting service tokens.
func (s *JWTService) GenerateToken(subject uuid.UUID, roles []string) (string, error) {
	if s.signKey == nil {
		return "", ErrSigningDisabled
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		UserID: subject,
		Roles:  roles,
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.signKey)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", s.method.Alg(), err)
	}
	return signed, nil
}

// ValidateToken parses tokenString and checks signature, algorithm,
// time claims and issuer.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.verifyKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("validate token: %w", err)
	}
	return claims, nil
}

// LoadKeyFromFile reads a PEM-encoded key from path.
func LoadKeyFromFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file %q: %w", path, err)
	}
	return data, nil
}

// GenerateKeyPair returns a fresh 2048-bit RSA pair as PKCS#1 private and
// PKIX public PEM blocks.
func GenerateKeyPair() (privateKeyPEM, publicKeyPEM []byte, err error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("generate RSA key: %w", err)
	}

	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal public key: %w", err)
	}

	privateKeyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	publicKeyPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub})
	return privateKeyPEM, publicKeyPEM, nil
}
