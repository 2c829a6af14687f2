package security

import (
	"github.com/matthewhartstonge/argon2"
)

// argonConfig is argon2id with the library defaults: 16 byte random salt,
// 32 byte key, 64 MiB memory, 3 passes.
var argonConfig = argon2.DefaultConfig()

// HashPassword returns a PHC-encoded argon2id hash of the password.
// The salt is generated per call and embedded in the returned string.
func HashPassword(password string) (string, error) {
	encoded, err := argonConfig.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword reports whether password matches the encoded hash.
// A malformed or empty hash never matches.
func VerifyPassword(password, encodedHash string) bool {
	if encodedHash == "" {
		return false
	}

	ok, err := argon2.VerifyEncoded([]byte(password), []byte(encodedHash))
	if err != nil {
		return false
	}

	return ok
}
