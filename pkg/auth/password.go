package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// Hashing parameters. Hashes carry their own parameters, so these only
// affect newly created hashes.
const (
	saltLength = 16
	keyLength  = 32

	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 2

	pbkdf2SHA256Iterations = 600_000
	pbkdf2SHA512Iterations = 210_000

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var b64 = base64.RawStdEncoding

// Hasher hashes and verifies passwords. The algorithm only determines how
// new hashes are created; verification dispatches on the hash itself, so
// existing hashes survive an algorithm change.
type Hasher struct {
	algorithm PasswordAlgorithm
}

// NewHasher creates a hasher for the given algorithm.
func NewHasher(algorithm PasswordAlgorithm) (*Hasher, error) {
	if _, ok := passwordAlgorithms[algorithm]; !ok {
		return nil, fmt.Errorf("unsupported password algorithm %q", algorithm)
	}
	return &Hasher{algorithm: algorithm}, nil
}

// Hash returns an encoded hash of the password.
func (h *Hasher) Hash(password string) (string, error) {
	switch h.algorithm {
	case PasswordBcrypt:
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt hashing failed: %w", err)
		}
		return string(hashed), nil
	case PasswordArgon2id:
		salt, err := newSalt()
		if err != nil {
			return "", err
		}
		key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, keyLength)
		return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
			argon2.Version, argon2Memory, argon2Time, argon2Threads,
			b64.EncodeToString(salt), b64.EncodeToString(key)), nil
	case PasswordPBKDF2SHA256:
		return hashPBKDF2(password, "pbkdf2-sha256", pbkdf2SHA256Iterations, sha256.New)
	case PasswordPBKDF2SHA512:
		return hashPBKDF2(password, "pbkdf2-sha512", pbkdf2SHA512Iterations, sha512.New)
	case PasswordScrypt:
		salt, err := newSalt()
		if err != nil {
			return "", err
		}
		key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keyLength)
		if err != nil {
			return "", fmt.Errorf("scrypt hashing failed: %w", err)
		}
		return fmt.Sprintf("$scrypt$n=%d,r=%d,p=%d$%s$%s",
			scryptN, scryptR, scryptP,
			b64.EncodeToString(salt), b64.EncodeToString(key)), nil
	default:
		return "", fmt.Errorf("unsupported password algorithm %q", h.algorithm)
	}
}

// Verify reports whether password matches the encoded hash. The scheme is
// read from the hash prefix.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, "$2"):
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		if err != nil {
			if err == bcrypt.ErrMismatchedHashAndPassword {
				return false, nil
			}
			return false, fmt.Errorf("bcrypt verification failed: %w", err)
		}
		return true, nil
	case strings.HasPrefix(encoded, "$argon2id$"):
		return verifyArgon2id(password, encoded)
	case strings.HasPrefix(encoded, "$pbkdf2-sha256$"):
		return verifyPBKDF2(password, encoded, sha256.New)
	case strings.HasPrefix(encoded, "$pbkdf2-sha512$"):
		return verifyPBKDF2(password, encoded, sha512.New)
	case strings.HasPrefix(encoded, "$scrypt$"):
		return verifyScrypt(password, encoded)
	default:
		return false, fmt.Errorf("unrecognized password hash format")
	}
}

func newSalt() ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

func hashPBKDF2(password, scheme string, iterations int, fn func() hash.Hash) (string, error) {
	salt, err := newSalt()
	if err != nil {
		return "", err
	}
	key := pbkdf2.Key([]byte(password), salt, iterations, keyLength, fn)
	return fmt.Sprintf("$%s$i=%d$%s$%s",
		scheme, iterations, b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// splitFields breaks a $-separated encoded hash into its fields, dropping
// the empty leading field.
func splitFields(encoded string, want int) ([]string, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != want+1 || fields[0] != "" {
		return nil, fmt.Errorf("malformed password hash")
	}
	return fields[1:], nil
}

func verifyArgon2id(password, encoded string) (bool, error) {
	fields, err := splitFields(encoded, 5)
	if err != nil {
		return false, err
	}
	var version int
	if _, err := fmt.Sscanf(fields[1], "v=%d", &version); err != nil {
		return false, fmt.Errorf("malformed argon2id hash: %w", err)
	}
	var memory uint32
	var iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(fields[2], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, fmt.Errorf("malformed argon2id hash: %w", err)
	}
	salt, err := b64.DecodeString(fields[3])
	if err != nil {
		return false, fmt.Errorf("malformed argon2id hash: %w", err)
	}
	expected, err := b64.DecodeString(fields[4])
	if err != nil {
		return false, fmt.Errorf("malformed argon2id hash: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

func verifyPBKDF2(password, encoded string, fn func() hash.Hash) (bool, error) {
	fields, err := splitFields(encoded, 4)
	if err != nil {
		return false, err
	}
	var iterations int
	if _, err := fmt.Sscanf(fields[1], "i=%d", &iterations); err != nil {
		return false, fmt.Errorf("malformed pbkdf2 hash: %w", err)
	}
	salt, err := b64.DecodeString(fields[2])
	if err != nil {
		return false, fmt.Errorf("malformed pbkdf2 hash: %w", err)
	}
	expected, err := b64.DecodeString(fields[3])
	if err != nil {
		return false, fmt.Errorf("malformed pbkdf2 hash: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, iterations, len(expected), fn)
	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

func verifyScrypt(password, encoded string) (bool, error) {
	fields, err := splitFields(encoded, 4)
	if err != nil {
		return false, err
	}
	var n, r, p int
	if _, err := fmt.Sscanf(fields[1], "n=%d,r=%d,p=%d", &n, &r, &p); err != nil {
		return false, fmt.Errorf("malformed scrypt hash: %w", err)
	}
	salt, err := b64.DecodeString(fields[2])
	if err != nil {
		return false, fmt.Errorf("malformed scrypt hash: %w", err)
	}
	expected, err := b64.DecodeString(fields[3])
	if err != nil {
		return false, fmt.Errorf("malformed scrypt hash: %w", err)
	}
	key, err := scrypt.Key([]byte(password), salt, n, r, p, len(expected))
	if err != nil {
		return false, fmt.Errorf("scrypt verification failed: %w", err)
	}
	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}
