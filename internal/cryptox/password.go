// Package cryptox implements the one-way password digest used for account
// credentials. Digests are argon2id with parameters encoded into the stored
// string, so parameterization can be tightened later and old digests upgraded
// transparently on the next successful login.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/passtree/passtree/internal/common"
	"golang.org/x/crypto/argon2"
)

// Current argon2id parameterization. Changing these values causes stored
// digests with older parameters to be upgraded by VerifyAndUpgrade.
const (
	currentTime    uint32 = 3
	currentMemory  uint32 = 64 * 1024
	currentThreads uint8  = 4
	keyLength      uint32 = 32
	saltLength            = 16
)

// ErrMalformedDigest is returned when a stored digest cannot be parsed.
var ErrMalformedDigest = errors.New("malformed password digest")

type params struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
}

func (p params) current() bool {
	return p.time == currentTime && p.memory == currentMemory &&
		p.threads == currentThreads && p.keyLen == keyLength
}

// Hash computes an argon2id digest of password with the current parameters
// and a fresh random salt. The result is self-describing:
//
//	$argon2id$v=19$m=65536,t=3,p=4$<salt b64>$<key b64>
func Hash(password string) string {
	salt := common.GenerateRandByteArray(saltLength)
	return encode(password, salt, params{
		time: currentTime, memory: currentMemory, threads: currentThreads, keyLen: keyLength,
	})
}

// VerifyAndUpgrade checks password against the stored digest.
//
// On a match it additionally reports whether the digest was produced with an
// outdated parameterization; if so, upgraded contains a fresh digest computed
// with the current parameters that the caller should persist. On a mismatch
// both return values are zero.
func VerifyAndUpgrade(password, digest string) (valid bool, upgraded string, err error) {
	p, salt, key, err := decode(digest)
	if err != nil {
		return false, "", err
	}

	candidate := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
	if subtle.ConstantTimeCompare(candidate, key) != 1 {
		return false, "", nil
	}

	if !p.current() {
		return true, Hash(password), nil
	}
	return true, "", nil
}

func encode(password string, salt []byte, p params) string {
	key := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

func decode(digest string) (params, []byte, []byte, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return params{}, nil, nil, ErrMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params{}, nil, nil, ErrMalformedDigest
	}
	if version != argon2.Version {
		return params{}, nil, nil, ErrMalformedDigest
	}

	var p params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return params{}, nil, nil, ErrMalformedDigest
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params{}, nil, nil, ErrMalformedDigest
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params{}, nil, nil, ErrMalformedDigest
	}
	p.keyLen = uint32(len(key))

	return p, salt, key, nil
}
