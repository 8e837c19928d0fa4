// Package cryptox implements the password proof used by login: the client
// derives a master key from the password and a per-user salt with argon2id
// and sends only a sha256 verifier of that key.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of a freshly generated salt, in bytes.
const SaltSize = 16

func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// PasswordVerifier derives the verifier for password and salt and wipes the
// intermediate master key.
func PasswordVerifier(password string, salt []byte) []byte {
	key := DeriveMasterKey([]byte(password), salt)
	defer common.WipeByteArray(key)
	return MakeVerifier(key)
}

// VerifierEqual compares two verifiers in constant time.
func VerifierEqual(a, b []byte) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare(a, b) == 1
}

// DecodeHex is hex.DecodeString with a readable error.
func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return b, nil
}
