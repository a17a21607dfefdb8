package auth

import (
	"os"
	"strings"
	"time"
)

// CookieEnvVar holds a Cookie header sent to every host
const CookieEnvVar = "IMGBUNDLE_COOKIE"

// EnvironmentStore is a read-only CredentialStore backed by IMGBUNDLE_COOKIE
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment cookie for any host
func (e *EnvironmentStore) Retrieve(host string) (*Credential, error) {
	cookie := strings.TrimSpace(os.Getenv(CookieEnvVar))
	if cookie == "" {
		return nil, ErrCredentialsNotFound
	}
	if host == "" {
		host = "*"
	}
	return &Credential{
		Host:         host,
		Cookie:       cookie,
		LastModified: time.Now(),
	}, nil
}

// List returns a single wildcard entry if the variable is set
func (e *EnvironmentStore) List() ([]*Credential, error) {
	cred, err := e.Retrieve("")
	if err != nil {
		return []*Credential{}, nil
	}
	return []*Credential{cred}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(host string) error {
	return ErrStoreUnavailable
}

// Exists reports whether the environment cookie is set
func (e *EnvironmentStore) Exists(host string) bool {
	return strings.TrimSpace(os.Getenv(CookieEnvVar)) != ""
}
