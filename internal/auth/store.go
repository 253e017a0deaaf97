package auth

import (
	"context"
	"strings"
	"sync"
)

// InMemoryCredentialStore is a map-backed CredentialStore for tests and
// development seeding.
type InMemoryCredentialStore struct {
	mu       sync.RWMutex
	admins   map[string]*Credential
	doctors  map[string]*Credential
	partners map[string]*Credential
}

// NewInMemoryCredentialStore creates an empty in-memory store.
func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{
		admins:   make(map[string]*Credential),
		doctors:  make(map[string]*Credential),
		partners: make(map[string]*Credential),
	}
}

// PutAdmin registers an admin credential keyed by lowercased email.
func (s *InMemoryCredentialStore) PutAdmin(c Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[strings.ToLower(c.Email)] = &c
}

// PutDoctor registers a doctor credential.
func (s *InMemoryCredentialStore) PutDoctor(c Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors[strings.ToLower(c.Email)] = &c
}

// PutPartner registers a partner (hospital account) credential.
func (s *InMemoryCredentialStore) PutPartner(c Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partners[strings.ToLower(c.Email)] = &c
}

func (s *InMemoryCredentialStore) find(m map[string]*Credential, email string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := m[strings.ToLower(email)]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	c := *cred
	return &c, nil
}

// FindAdminByEmail implements CredentialStore.
func (s *InMemoryCredentialStore) FindAdminByEmail(ctx context.Context, email string) (*Credential, error) {
	return s.find(s.admins, email)
}

// FindDoctorByEmail implements CredentialStore.
func (s *InMemoryCredentialStore) FindDoctorByEmail(ctx context.Context, email string) (*Credential, error) {
	return s.find(s.doctors, email)
}

// FindPartnerByEmail implements CredentialStore.
func (s *InMemoryCredentialStore) FindPartnerByEmail(ctx context.Context, email string) (*Credential, error) {
	return s.find(s.partners, email)
}

var _ CredentialStore = (*InMemoryCredentialStore)(nil)
