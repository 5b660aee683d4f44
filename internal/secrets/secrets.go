// Package secrets is the versioned encryption primitive for stored config
// values. Decryption is keyed by the version recorded when the value was
// written, so a later migration can raise the encryption version without
// first recovering every plaintext.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Version 1 obfuscates with a key shared by every install; version 2 uses a
// per-install key. Version 0 stores plaintext.
const (
	VersionPlain   = 0
	VersionShared  = 1
	VersionPrivate = 2
)

// sharedKey is the fixed version-1 key. It is obfuscation, not secrecy:
// anyone with the config file and this source can decode it, which is why
// version 2 exists.
const sharedKey = "ZSYsbu9u"

// installKey holds the per-install version-2 key. Set once at startup from
// the loaded settings.
var installKey string

// SetInstallKey installs the version-2 key.
func SetInstallKey(key string) { installKey = key }

// InstallKey returns the version-2 key currently in effect.
func InstallKey() string { return installKey }

// NewInstallKey generates a fresh per-install key for first run.
func NewInstallKey() string {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		// crypto/rand failing means the platform is broken; fall back to
		// the shared key rather than refuse to start.
		return sharedKey
	}
	return hex.EncodeToString(raw)
}

// Encrypt encodes value under the given encryption version.
func Encrypt(value string, version int) (string, error) {
	switch version {
	case VersionPlain:
		return value, nil
	case VersionShared:
		return base64.StdEncoding.EncodeToString(xor([]byte(value), sharedKey)), nil
	case VersionPrivate:
		if installKey == "" {
			return "", fmt.Errorf("encrypt: no install key set")
		}
		return base64.StdEncoding.EncodeToString(xor([]byte(value), installKey)), nil
	default:
		return "", fmt.Errorf("encrypt: unknown encryption version %d", version)
	}
}

// Decrypt decodes value that was written under the given encryption version.
func Decrypt(value string, version int) (string, error) {
	switch version {
	case VersionPlain:
		return value, nil
	case VersionShared, VersionPrivate:
		key := sharedKey
		if version == VersionPrivate {
			if installKey == "" {
				return "", fmt.Errorf("decrypt: no install key set")
			}
			key = installKey
		}
		raw, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return "", fmt.Errorf("decrypt: %w", err)
		}
		return string(xor(raw, key)), nil
	default:
		return "", fmt.Errorf("decrypt: unknown encryption version %d", version)
	}
}

func xor(data []byte, key string) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key[i%len(key)]
	}
	return out
}
