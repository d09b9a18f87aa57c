package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "citas-notify"

// SessionTokenKey is the keyring entry holding the backend session token.
const SessionTokenKey = "session-token"

// ErrNotFound is returned when a credential has not been stored.
var ErrNotFound = keyring.ErrKeyNotFound

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/citas-notify/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("citas-notify-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Vault reads and writes credentials in a keyring.
type Vault struct {
	ring keyring.Keyring
}

// NewVault wraps ring.
func NewVault(ring keyring.Keyring) *Vault {
	return &Vault{ring: ring}
}

// OpenVault opens the system keyring.
func OpenVault() (*Vault, error) {
	ring, err := openKeyring()
	if err != nil {
		return nil, err
	}
	return NewVault(ring), nil
}

// Get retrieves a credential value by key.
func (v *Vault) Get(key string) (string, error) {
	item, err := v.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key.
func (v *Vault) Set(key string, value string) error {
	err := v.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: serviceName + " " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key. Removing a missing key is not an
// error.
func (v *Vault) Delete(key string) error {
	err := v.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// SessionToken returns the stored session token, or "" when none is
// stored.
func (v *Vault) SessionToken() (string, error) {
	token, err := v.Get(SessionTokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	return token, err
}

// SetSessionToken stores the session token.
func (v *Vault) SetSessionToken(token string) error {
	return v.Set(SessionTokenKey, token)
}

// ForgetSession removes the stored session token.
func (v *Vault) ForgetSession() error {
	return v.Delete(SessionTokenKey)
}
