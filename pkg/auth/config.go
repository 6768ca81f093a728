package auth

import (
	"fmt"
	"time"
)

// ValidatorSettings are the raw settings a service reads from its environment.
type ValidatorSettings struct {
	Secret        string
	PublicKeyPEM  string
	PublicKeyFile string
	Issuer        string
	Leeway        time.Duration
}

// NewValidator builds a validation-only JWTService. It returns (nil, nil)
// when no key material is configured, which callers treat as auth disabled.
func NewValidator(s ValidatorSettings) (*JWTService, error) {
	cfg := JWTConfig{Issuer: s.Issuer, Leeway: s.Leeway}

	switch {
	case s.PublicKeyPEM != "":
		cfg.PublicKeyPEM = s.PublicKeyPEM
	case s.PublicKeyFile != "":
		data, err := LoadKeyFromFile(s.PublicKeyFile)
		if err != nil {
			return nil, err
		}
		cfg.PublicKeyPEM = string(data)
	case s.Secret != "":
		cfg.Secret = s.Secret
	default:
		return nil, nil
	}

	svc, err := NewJWTService(cfg)
	if err != nil {
		return nil, fmt.Errorf("jwt validator: %w", err)
	}
	return svc, nil
}
