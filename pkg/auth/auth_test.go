package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		SecretKey:         "test-secret-key",
		Algorithm:         AlgHS256,
		AccessTokenTTL:    time.Hour,
		PasswordAlgorithm: PasswordArgon2id,
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("Should accept a complete config", func(t *testing.T) {
		assert.NoError(t, testConfig().Validate())
	})

	t.Run("Should require a secret key", func(t *testing.T) {
		cfg := testConfig()
		cfg.SecretKey = ""
		assert.ErrorContains(t, cfg.Validate(), "secret_key is required")
	})

	t.Run("Should reject unsupported signing algorithms", func(t *testing.T) {
		cfg := testConfig()
		cfg.Algorithm = "RS256"
		assert.ErrorContains(t, cfg.Validate(), "unsupported signing algorithm")
	})

	t.Run("Should reject unsupported password algorithms", func(t *testing.T) {
		cfg := testConfig()
		cfg.PasswordAlgorithm = "md5"
		assert.ErrorContains(t, cfg.Validate(), "unsupported password algorithm")
	})
}

func TestConfigFromJSON(t *testing.T) {
	t.Run("Should load a config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "auth.json")
		content := `{"secret_key": "s3cret", "algorithm": "HS512", "password_algorithm": "bcrypt"}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := ConfigFromJSON(path)
		require.NoError(t, err)
		assert.Equal(t, "s3cret", cfg.SecretKey)
		assert.Equal(t, AlgHS512, cfg.Algorithm)
		assert.Equal(t, PasswordBcrypt, cfg.PasswordAlgorithm)
	})

	t.Run("Should reject an invalid config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "auth.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"secret_key": ""}`), 0o600))
		_, err := ConfigFromJSON(path)
		assert.ErrorContains(t, err, "secret_key is required")
	})
}

func TestHasher(t *testing.T) {
	algorithms := []struct {
		algorithm PasswordAlgorithm
		prefix    string
	}{
		{PasswordBcrypt, "$2"},
		{PasswordArgon2id, "$argon2id$"},
		{PasswordPBKDF2SHA256, "$pbkdf2-sha256$"},
		{PasswordPBKDF2SHA512, "$pbkdf2-sha512$"},
		{PasswordScrypt, "$scrypt$"},
	}

	for _, tc := range algorithms {
		t.Run("Should round trip with "+string(tc.algorithm), func(t *testing.T) {
			hasher, err := NewHasher(tc.algorithm)
			require.NoError(t, err)

			encoded, err := hasher.Hash("correct horse battery staple")
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(encoded, tc.prefix), encoded)

			ok, err := hasher.Verify("correct horse battery staple", encoded)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = hasher.Verify("wrong password", encoded)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}

	t.Run("Should produce distinct hashes for the same password", func(t *testing.T) {
		hasher, err := NewHasher(PasswordArgon2id)
		require.NoError(t, err)
		first, err := hasher.Hash("password")
		require.NoError(t, err)
		second, err := hasher.Hash("password")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("Should verify hashes from other algorithms", func(t *testing.T) {
		bcryptHasher, err := NewHasher(PasswordBcrypt)
		require.NoError(t, err)
		encoded, err := bcryptHasher.Hash("password")
		require.NoError(t, err)

		argonHasher, err := NewHasher(PasswordArgon2id)
		require.NoError(t, err)
		ok, err := argonHasher.Verify("password", encoded)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Should reject unrecognized hash formats", func(t *testing.T) {
		hasher, err := NewHasher(PasswordArgon2id)
		require.NoError(t, err)
		_, err = hasher.Verify("password", "plaintext")
		assert.ErrorContains(t, err, "unrecognized password hash format")
	})

	t.Run("Should reject malformed encoded hashes", func(t *testing.T) {
		hasher, err := NewHasher(PasswordArgon2id)
		require.NoError(t, err)
		_, err = hasher.Verify("password", "$argon2id$garbage")
		assert.ErrorContains(t, err, "malformed password hash")
	})

	t.Run("Should reject unknown algorithms", func(t *testing.T) {
		_, err := NewHasher("md5")
		assert.ErrorContains(t, err, "unsupported password algorithm")
	})
}

func TestTokens(t *testing.T) {
	t.Run("Should round trip claims", func(t *testing.T) {
		a, err := New(testConfig())
		require.NoError(t, err)

		token, err := a.CreateAccessToken("user-42", []string{"read", "write"}, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, "bearer", token.TokenType)
		assert.NotEmpty(t, token.AccessToken)

		claims, err := a.DecodeToken(token.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "user-42", claims.Subject)
		assert.Equal(t, []string{"read", "write"}, claims.Scopes)
		require.NotNil(t, claims.ExpiresAt)
		assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
	})

	t.Run("Should reject an expired token", func(t *testing.T) {
		a, err := New(testConfig())
		require.NoError(t, err)

		claims := Claims{}
		claims.Subject = "user-42"
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		signed, err := a.EncodeToken(claims)
		require.NoError(t, err)

		_, err = a.DecodeToken(signed)
		assert.ErrorContains(t, err, "invalid token")
	})

	t.Run("Should reject a tampered token", func(t *testing.T) {
		a, err := New(testConfig())
		require.NoError(t, err)
		token, err := a.CreateAccessToken("user-42", nil, time.Hour)
		require.NoError(t, err)

		_, err = a.DecodeToken(token.AccessToken + "x")
		assert.ErrorContains(t, err, "invalid token")
	})

	t.Run("Should reject a token signed with another key", func(t *testing.T) {
		issuer, err := New(testConfig())
		require.NoError(t, err)
		token, err := issuer.CreateAccessToken("user-42", nil, time.Hour)
		require.NoError(t, err)

		otherConfig := testConfig()
		otherConfig.SecretKey = "a-different-secret"
		verifier, err := New(otherConfig)
		require.NoError(t, err)

		_, err = verifier.DecodeToken(token.AccessToken)
		assert.ErrorContains(t, err, "invalid token")
	})

	t.Run("Should reject a token signed with another algorithm", func(t *testing.T) {
		hs512Config := testConfig()
		hs512Config.Algorithm = AlgHS512
		issuer, err := New(hs512Config)
		require.NoError(t, err)
		token, err := issuer.CreateAccessToken("user-42", nil, time.Hour)
		require.NoError(t, err)

		verifier, err := New(testConfig())
		require.NoError(t, err)
		_, err = verifier.DecodeToken(token.AccessToken)
		assert.ErrorContains(t, err, "invalid token")
	})

	t.Run("Should fall back to the configured ttl", func(t *testing.T) {
		a, err := New(testConfig())
		require.NoError(t, err)
		token, err := a.CreateAccessToken("user-42", nil, 0)
		require.NoError(t, err)

		claims, err := a.DecodeToken(token.AccessToken)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
	})

	t.Run("Should fall back to the default ttl when none is configured", func(t *testing.T) {
		cfg := testConfig()
		cfg.AccessTokenTTL = 0
		a, err := New(cfg)
		require.NoError(t, err)
		token, err := a.CreateAccessToken("user-42", nil, 0)
		require.NoError(t, err)

		claims, err := a.DecodeToken(token.AccessToken)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(defaultTokenTTL), claims.ExpiresAt.Time, time.Minute)
	})
}

func TestHasRequiredScopes(t *testing.T) {
	t.Run("Should accept a superset of the required scopes", func(t *testing.T) {
		assert.True(t, HasRequiredScopes([]string{"read", "write", "admin"}, []string{"read", "write"}))
	})

	t.Run("Should accept empty requirements", func(t *testing.T) {
		assert.True(t, HasRequiredScopes(nil, nil))
		assert.True(t, HasRequiredScopes([]string{"read"}, nil))
	})

	t.Run("Should reject missing scopes", func(t *testing.T) {
		assert.False(t, HasRequiredScopes([]string{"read"}, []string{"read", "write"}))
		assert.False(t, HasRequiredScopes(nil, []string{"read"}))
	})
}
