// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

// passwordParams is the cost new password hashes are written with. Stored
// hashes carry their own parameters, so raising these only affects accounts
// as they next sign in.
var passwordParams = argonParams{
	memory:  64 * 1024,
	time:    1,
	threads: 4,
	keyLen:  32,
	saltLen: 16,
}

var errMalformedHash = errors.New("malformed password hash")

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
	saltLen int
}

func (p argonParams) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
}

// encode renders the PHC string form:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func (p argonParams) encode(salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func (p argonParams) matches(other argonParams) bool {
	return p.memory == other.memory &&
		p.time == other.time &&
		p.threads == other.threads &&
		p.keyLen == other.keyLen
}

type storedHash struct {
	params argonParams
	salt   []byte
	key    []byte
}

func parseHash(encoded string) (*storedHash, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" {
		return nil, errMalformedHash
	}
	if fields[1] != "argon2id" {
		return nil, fmt.Errorf("%w: algorithm %q", errMalformedHash, fields[1])
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return nil, fmt.Errorf("%w: version: %w", errMalformedHash, err)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("%w: argon2 version %d", errMalformedHash, version)
	}

	h := &storedHash{}
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d",
		&h.params.memory, &h.params.time, &h.params.threads); err != nil {
		return nil, fmt.Errorf("%w: params: %w", errMalformedHash, err)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(fields[4]); err != nil {
		return nil, fmt.Errorf("%w: salt: %w", errMalformedHash, err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(fields[5]); err != nil {
		return nil, fmt.Errorf("%w: key: %w", errMalformedHash, err)
	}

	//nolint:gosec // G115: argon2 keys are a few dozen bytes
	h.params.keyLen = uint32(len(h.key))
	h.params.saltLen = len(h.salt)
	return h, nil
}

func (h *storedHash) verify(password string) bool {
	return subtle.ConstantTimeCompare(h.key, h.params.derive(password, h.salt)) == 1
}

// HashPassword derives a salted argon2id hash. The plaintext never appears
// in the result.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("hash password: empty password: %w", ErrValidation)
	}

	salt := make([]byte, passwordParams.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return passwordParams.encode(salt, passwordParams.derive(password, salt)), nil
}

func VerifyPassword(password, encodedHash string) (bool, error) {
	h, err := parseHash(encodedHash)
	if err != nil {
		return false, err
	}
	return h.verify(password), nil
}

// VerifyPasswordWithRehash also returns a fresh hash when the stored one was
// written with outdated parameters. The new hash is empty otherwise.
func VerifyPasswordWithRehash(password, encodedHash string) (bool, string, error) {
	h, err := parseHash(encodedHash)
	if err != nil {
		return false, "", err
	}
	if !h.verify(password) {
		return false, "", nil
	}
	if h.params.matches(passwordParams) {
		return true, "", nil
	}

	upgraded, err := HashPassword(password)
	if err != nil {
		//nolint:nilerr // the password was correct; the upgrade can wait
		return true, "", nil
	}
	return true, upgraded, nil
}

var (
	decoyOnce sync.Once
	decoyHash string
)

func decoy() string {
	decoyOnce.Do(func() {
		hash, err := HashPassword("decoy password for unknown accounts")
		if err != nil {
			panic(fmt.Sprintf("security: build decoy hash: %v", err))
		}
		decoyHash = hash
	})
	return decoyHash
}

// VerifyPasswordTimingSafe verifies against a decoy hash when encodedHash is
// nil or empty, so a sign-in for an unknown account costs the same as one
// for a real account. It never reports success in that case.
func VerifyPasswordTimingSafe(password string, encodedHash *string) (bool, string, error) {
	if encodedHash == nil || *encodedHash == "" {
		//nolint:errcheck // the decoy result is discarded
		_, _, _ = VerifyPasswordWithRehash(password, decoy())
		return false, "", nil
	}
	return VerifyPasswordWithRehash(password, *encodedHash)
}

// GenerateSecureToken returns length random bytes encoded as unpadded
// URL-safe base64, suitable for cookie values.
func GenerateSecureToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
