// Package secrets keeps the AI provider key in the OS keyring so it does not
// have to live in the environment.
package secrets

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "mailmind"

var ErrKeyNotFound = errors.New("no key stored")

// KeyringStore persists AI keys in the OS keyring
// (macOS Keychain, Windows Credential Manager, or Linux Secret Service),
// one entry per provider.
type KeyringStore struct{}

func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func account(provider string) string {
	return "ai_api_key:" + provider
}

func (k *KeyringStore) SaveAIKey(provider, key string) error {
	if key == "" {
		return fmt.Errorf("refusing to store an empty key for %s", provider)
	}
	if err := keyring.Set(serviceName, account(provider), key); err != nil {
		return fmt.Errorf("failed to save key to keyring: %w", err)
	}
	return nil
}

// LoadAIKey returns ErrKeyNotFound when nothing is stored for provider.
func (k *KeyringStore) LoadAIKey(provider string) (string, error) {
	key, err := keyring.Get(serviceName, account(provider))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load key from keyring: %w", err)
	}
	return key, nil
}

func (k *KeyringStore) DeleteAIKey(provider string) error {
	err := keyring.Delete(serviceName, account(provider))
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete key from keyring: %w", err)
	}
	return nil
}
