package auth

import "sync"

// MemoryStore is an in-process CredentialStore used in tests
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[string]Credential

	// StoreError is returned by Store when set
	StoreError error
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[string]Credential)}
}

func (m *MemoryStore) Store(cred *Credential) error {
	if m.StoreError != nil {
		return m.StoreError
	}
	if cred == nil || cred.Host == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[cred.Host] = *cred
	return nil
}

func (m *MemoryStore) Retrieve(host string) (*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cred, ok := m.creds[host]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &cred, nil
}

func (m *MemoryStore) List() ([]*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Credential, 0, len(m.creds))
	for _, cred := range m.creds {
		c := cred
		out = append(out, &c)
	}
	return out, nil
}

func (m *MemoryStore) Delete(host string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.creds[host]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.creds, host)
	return nil
}

func (m *MemoryStore) Exists(host string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.creds[host]
	return ok
}

// Count returns the number of stored credentials
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.creds)
}
