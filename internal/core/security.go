// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

var ErrMalformedHash = errors.New("malformed password hash")

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

// passwordParams are the parameters new hashes are written with. Stored
// hashes with other parameters still verify and are upgraded on login.
var passwordParams = argon2Params{
	memory:  64 * 1024,
	time:    1,
	threads: 4,
	keyLen:  32,
}

const passwordSaltLen = 16

var b64 = base64.RawStdEncoding

func (p argon2Params) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
}

func (p argon2Params) encode(salt, key []byte) string {
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.memory,
		p.time,
		p.threads,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	)
}

type passwordHash struct {
	params argon2Params
	salt   []byte
	key    []byte
}

// parsePasswordHash reads the PHC form written by HashPassword:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
func parsePasswordHash(encoded string) (passwordHash, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return passwordHash{}, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil ||
		version != argon2.Version {
		return passwordHash{}, fmt.Errorf("%w: version %q", ErrMalformedHash, fields[2])
	}

	var h passwordHash
	_, err := fmt.Sscanf(
		fields[3],
		"m=%d,t=%d,p=%d",
		&h.params.memory,
		&h.params.time,
		&h.params.threads,
	)
	if err != nil {
		return passwordHash{}, fmt.Errorf("%w: params: %w", ErrMalformedHash, err)
	}

	if h.salt, err = b64.DecodeString(fields[4]); err != nil {
		return passwordHash{}, fmt.Errorf("%w: salt: %w", ErrMalformedHash, err)
	}
	if h.key, err = b64.DecodeString(fields[5]); err != nil || len(h.key) == 0 {
		return passwordHash{}, fmt.Errorf("%w: key", ErrMalformedHash)
	}

	//nolint:gosec // G115: argon2 keys are tens of bytes
	h.params.keyLen = uint32(len(h.key))

	return h, nil
}

func (h passwordHash) matches(password string) bool {
	return subtle.ConstantTimeCompare(h.key, h.params.derive(password, h.salt)) == 1
}

func HashPassword(password string) (string, error) {
	salt := make([]byte, passwordSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	return passwordParams.encode(salt, passwordParams.derive(password, salt)), nil
}

func VerifyPassword(password, encodedHash string) (bool, error) {
	h, err := parsePasswordHash(encodedHash)
	if err != nil {
		return false, err
	}
	return h.matches(password), nil
}

// unknownAccount stands in for the stored hash when a login names no
// account, so both outcomes cost one derivation.
var unknownAccount = func() passwordHash {
	salt := make([]byte, passwordSaltLen)
	return passwordHash{
		params: passwordParams,
		salt:   salt,
		key:    passwordParams.derive("unknown-account", salt),
	}
}()

// VerifyPasswordTimingSafe checks password against encodedHash, or against
// a placeholder when encodedHash is absent. On success the second result
// is a fresh hash when the stored one uses outdated parameters.
func VerifyPasswordTimingSafe(
	password string,
	encodedHash *string,
) (bool, string, error) {
	if encodedHash == nil || *encodedHash == "" {
		unknownAccount.matches(password)
		return false, "", nil
	}

	h, err := parsePasswordHash(*encodedHash)
	if err != nil {
		return false, "", err
	}

	if !h.matches(password) {
		return false, "", nil
	}

	if h.params == passwordParams {
		return true, "", nil
	}

	upgraded, err := HashPassword(password)
	if err != nil {
		//nolint:nilerr // the password verified; the old hash stays in place
		return true, "", nil
	}
	return true, upgraded, nil
}

const (
	resetCodeFloor = 100000
	resetCodeRange = 900000
)

// GenerateResetCode returns a uniformly random six digit code in
// [100000, 999999] drawn from crypto/rand.
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(resetCodeRange))
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	return strconv.FormatInt(n.Int64()+resetCodeFloor, 10), nil
}

// HashResetCode returns the form a reset code is stored and compared in.
func HashResetCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func ResetCodeMatches(code, storedHash string) bool {
	return subtle.ConstantTimeCompare(
		[]byte(HashResetCode(code)),
		[]byte(storedHash),
	) == 1
}
