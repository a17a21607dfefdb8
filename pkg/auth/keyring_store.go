package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	keyringService  = "imgbundle"
	keyringPrefix   = "cookie_"
	keyringIndexKey = "hosts"
)

// KeyringStore implements CredentialStore using the system keychain.
// The keychain cannot enumerate entries, so a host index is kept alongside.
type KeyringStore struct {
	mu sync.Mutex
}

// NewKeyringStore creates a keyring-based store, failing if no keychain is reachable
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Store saves credentials to the system keychain
func (k *KeyringStore) Store(cred *Credential) error {
	if cred == nil || cred.Host == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if err := keyring.Set(keyringService, keyringPrefix+cred.Host, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	hosts := k.index()
	if !contains(hosts, cred.Host) {
		hosts = append(hosts, cred.Host)
		k.writeIndex(hosts)
	}
	return nil
}

// Retrieve gets credentials from the system keychain
func (k *KeyringStore) Retrieve(host string) (*Credential, error) {
	if host == "" {
		return nil, ErrInvalidCredentials
	}

	data, err := keyring.Get(keyringService, keyringPrefix+host)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(data), &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return &cred, nil
}

// List returns every indexed credential still present in the keychain
func (k *KeyringStore) List() ([]*Credential, error) {
	k.mu.Lock()
	hosts := k.index()
	k.mu.Unlock()

	var creds []*Credential
	for _, host := range hosts {
		if cred, err := k.Retrieve(host); err == nil {
			creds = append(creds, cred)
		}
	}
	return creds, nil
}

// Delete removes credentials from the system keychain
func (k *KeyringStore) Delete(host string) error {
	if host == "" {
		return ErrInvalidCredentials
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if err := keyring.Delete(keyringService, keyringPrefix+host); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	hosts := k.index()
	kept := hosts[:0]
	for _, h := range hosts {
		if h != host {
			kept = append(kept, h)
		}
	}
	k.writeIndex(kept)
	return nil
}

// Exists checks if credentials exist in the keychain
func (k *KeyringStore) Exists(host string) bool {
	if host == "" {
		return false
	}
	_, err := keyring.Get(keyringService, keyringPrefix+host)
	return err == nil
}

func (k *KeyringStore) index() []string {
	raw, err := keyring.Get(keyringService, keyringIndexKey)
	if err != nil {
		return nil
	}
	var hosts []string
	if err := json.Unmarshal([]byte(raw), &hosts); err != nil {
		return nil
	}
	return hosts
}

func (k *KeyringStore) writeIndex(hosts []string) {
	sort.Strings(hosts)
	data, err := json.Marshal(hosts)
	if err != nil {
		return
	}
	_ = keyring.Set(keyringService, keyringIndexKey, string(data))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
