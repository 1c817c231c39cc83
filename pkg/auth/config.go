// Package auth provides token issuance/verification and password hashing
// helpers.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// PasswordAlgorithm selects the password hashing scheme.
type PasswordAlgorithm string

const (
	PasswordBcrypt       PasswordAlgorithm = "bcrypt"
	PasswordArgon2id     PasswordAlgorithm = "argon2id"
	PasswordPBKDF2SHA256 PasswordAlgorithm = "pbkdf2-sha256"
	PasswordPBKDF2SHA512 PasswordAlgorithm = "pbkdf2-sha512"
	PasswordScrypt       PasswordAlgorithm = "scrypt"
)

var passwordAlgorithms = map[PasswordAlgorithm]struct{}{
	PasswordBcrypt:       {},
	PasswordArgon2id:     {},
	PasswordPBKDF2SHA256: {},
	PasswordPBKDF2SHA512: {},
	PasswordScrypt:       {},
}

// Signing algorithms accepted for tokens.
const (
	AlgHS256 = "HS256"
	AlgHS384 = "HS384"
	AlgHS512 = "HS512"
)

// Config holds the authentication settings.
type Config struct {
	SecretKey         string            `json:"secret_key" yaml:"secret_key"`
	Algorithm         string            `json:"algorithm" yaml:"algorithm"`
	AccessTokenTTL    time.Duration     `json:"access_token_ttl" yaml:"access_token_ttl"`
	PasswordAlgorithm PasswordAlgorithm `json:"password_algorithm" yaml:"password_algorithm"`
}

// Validate checks the auth configuration.
func (c Config) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("secret_key is required")
	}
	switch c.Algorithm {
	case AlgHS256, AlgHS384, AlgHS512:
	default:
		return fmt.Errorf("unsupported signing algorithm %q", c.Algorithm)
	}
	if _, ok := passwordAlgorithms[c.PasswordAlgorithm]; !ok {
		return fmt.Errorf("unsupported password algorithm %q", c.PasswordAlgorithm)
	}
	if c.AccessTokenTTL < 0 {
		return fmt.Errorf("access_token_ttl cannot be negative")
	}
	return nil
}

// ConfigFromJSON loads a Config from a JSON file.
func ConfigFromJSON(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read auth config %q: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse auth config %q: %w", path, err)
	}
	return cfg, cfg.Validate()
}
