package auth

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// Credential is the Cookie header imgbundle sends to one host, mirroring
// what a browser would attach to a same-site request
type Credential struct {
	Host         string    `json:"host"`
	Cookie       string    `json:"cookie"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	Store(cred *Credential) error
	Retrieve(host string) (*Credential, error)
	List() ([]*Credential, error)
	Delete(host string) error
	Exists(host string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager over the system keychain, an
// encrypted file and the environment, in that order
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "cookies.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager over the given stores
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(cred *Credential) error {
	if cred == nil {
		return ErrInvalidCredentials
	}
	host, err := NormalizeHost(cred.Host)
	if err != nil {
		return err
	}
	if strings.TrimSpace(cred.Cookie) == "" {
		return errors.New("cookie value is required")
	}

	cred.Host = host
	cred.Cookie = strings.TrimSpace(strings.TrimPrefix(cred.Cookie, "Cookie:"))
	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(cred)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets credentials for host from the first store that has them
func (m *Manager) Retrieve(host string) (*Credential, error) {
	host, err := NormalizeHost(host)
	if err != nil {
		return nil, err
	}
	for _, store := range m.stores {
		if cred, err := store.Retrieve(host); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, host)
}

// CookieFor returns the Cookie header value for a request to host. A
// credential stored for a parent domain applies to its subdomains.
// An empty string means no cookie is known.
func (m *Manager) CookieFor(host string) string {
	host, err := NormalizeHost(host)
	if err != nil {
		return ""
	}
	for _, candidate := range hostCandidates(host) {
		if cred, err := m.Retrieve(candidate); err == nil {
			return cred.Cookie
		}
	}
	return ""
}

// List returns the credentials of every store, newest per host, sorted by host
func (m *Manager) List() ([]*Credential, error) {
	byHost := make(map[string]*Credential)

	for _, store := range m.stores {
		creds, err := store.List()
		if err != nil {
			continue
		}
		for _, cred := range creds {
			if existing, ok := byHost[cred.Host]; !ok || cred.LastModified.After(existing.LastModified) {
				byHost[cred.Host] = cred
			}
		}
	}

	result := make([]*Credential, 0, len(byHost))
	for _, cred := range byHost {
		result = append(result, cred)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Host < result[j].Host })

	return result, nil
}

// Delete removes credentials for host from all stores
func (m *Manager) Delete(host string) error {
	host, err := NormalizeHost(host)
	if err != nil {
		return err
	}

	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		if err := store.Delete(host); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrCredentialsNotFound) && !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	return fmt.Errorf("%w: %s", ErrCredentialsNotFound, host)
}

// NormalizeHost lowercases a host name and strips any scheme, port or path
func NormalizeHost(raw string) (string, error) {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return "", fmt.Errorf("%w: host is required", ErrInvalidCredentials)
	}
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		s = u.Host
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 && !strings.HasSuffix(s, "]") {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return "", fmt.Errorf("%w: host is required", ErrInvalidCredentials)
	}
	return s, nil
}

// hostCandidates returns host followed by its parent domains down to two labels
func hostCandidates(host string) []string {
	candidates := []string{host}
	labels := strings.Split(host, ".")
	for i := 1; i < len(labels)-1; i++ {
		candidates = append(candidates, strings.Join(labels[i:], "."))
	}
	return candidates
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "imgbundle")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "imgbundle")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "imgbundle")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "imgbundle")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Sanitize returns a copy of cred with the cookie value masked
func Sanitize(cred *Credential) *Credential {
	if cred == nil {
		return nil
	}
	return &Credential{
		Host:         cred.Host,
		Cookie:       maskString(cred.Cookie),
		LastModified: cred.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
