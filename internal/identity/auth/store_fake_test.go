// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/stayvia/stayvia/internal/identity/auth"
	"github.com/stayvia/stayvia/internal/platform/apperr"
)

// # In-Memory Account Repository

// fakeAccountRepo is an in-memory AccountRepository that mirrors the
// database uniqueness rules (one account per email, one link per
// (provider, subject) pair, one link per provider per account) and counts
// write operations so tests can assert the at-most-one-write invariant.
type fakeAccountRepo struct {
	mu          sync.Mutex
	byID        map[string]*auth.Account
	createCalls int
	linkCalls   int
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{byID: make(map[string]*auth.Account)}
}

// seed inserts an account bypassing the write counters.
func (f *fakeAccountRepo) seed(account *auth.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *account
	f.byID[account.ID] = &stored
}

func (f *fakeAccountRepo) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls + f.linkCalls
}

func (f *fakeAccountRepo) FindByID(_ context.Context, id string) (*auth.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("Account")
	}
	clone := *account
	return &clone, nil
}

func (f *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, account := range f.byID {
		if auth.NormalizeEmail(account.Email) == email {
			clone := *account
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (f *fakeAccountRepo) FindLocalByEmail(_ context.Context, email string) (*auth.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, account := range f.byID {
		if account.AuthProvider == auth.ProviderLocal && auth.NormalizeEmail(account.Email) == email {
			clone := *account
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (f *fakeAccountRepo) FindByProviderLink(_ context.Context, provider, subjectID string) (*auth.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, account := range f.byID {
		for _, link := range account.Links {
			if link.Provider == provider && link.SubjectID == subjectID {
				clone := *account
				return &clone, nil
			}
		}
	}
	return nil, apperr.NotFound("Account")
}

func (f *fakeAccountRepo) Create(_ context.Context, account *auth.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.byID {
		if auth.NormalizeEmail(existing.Email) == auth.NormalizeEmail(account.Email) {
			return apperr.Conflict("An account with this email already exists")
		}
		for _, existingLink := range existing.Links {
			for _, newLink := range account.Links {
				if existingLink.Provider == newLink.Provider && existingLink.SubjectID == newLink.SubjectID {
					return apperr.Conflict("This identity is already linked to an account")
				}
			}
		}
	}

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	for i := range account.Links {
		account.Links[i].AccountID = account.ID
		account.Links[i].CreatedAt = now
	}

	stored := *account
	f.byID[account.ID] = &stored
	f.createCalls++
	return nil
}

func (f *fakeAccountRepo) AddProviderLink(_ context.Context, link *auth.ProviderLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	target, ok := f.byID[link.AccountID]
	if !ok {
		return apperr.NotFound("Account")
	}

	for _, account := range f.byID {
		for _, existing := range account.Links {
			if existing.Provider == link.Provider && existing.SubjectID == link.SubjectID {
				return apperr.Conflict("This identity is already linked to an account")
			}
		}
	}
	for _, existing := range target.Links {
		if existing.Provider == link.Provider {
			return apperr.Conflict("This identity is already linked to an account")
		}
	}

	link.CreatedAt = time.Now()
	target.Links = append(target.Links, *link)
	f.linkCalls++
	return nil
}

func (f *fakeAccountRepo) RecordLogin(_ context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.byID[accountID]
	if !ok {
		return apperr.NotFound("Account")
	}
	now := time.Now()
	account.LastLoginAt = &now
	account.LastActiveAt = &now
	return nil
}

func (f *fakeAccountRepo) TouchActivity(_ context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.byID[accountID]
	if !ok {
		return apperr.NotFound("Account")
	}
	now := time.Now()
	account.LastActiveAt = &now
	return nil
}

func (f *fakeAccountRepo) UpdatePassword(_ context.Context, accountID, newHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.byID[accountID]
	if !ok {
		return apperr.NotFound("Account")
	}
	account.PasswordHash = newHash
	return nil
}

func (f *fakeAccountRepo) MarkVerified(_ context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.byID[accountID]
	if !ok {
		return apperr.NotFound("Account")
	}
	account.IsVerified = true
	return nil
}

// # In-Memory Volatile Token Store

// fakeTokenStore satisfies both ResetTokenRepository and
// VerificationTokenRepository. TTLs are recorded but not enforced.
type fakeTokenStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{values: make(map[string]string)}
}

// single returns the only stored token, for tests that need to read back a
// token generated as a side effect.
func (f *fakeTokenStore) single() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token := range f.values {
		return token
	}
	return ""
}

func (f *fakeTokenStore) Set(_ context.Context, token, accountID string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[token] = accountID
	return nil
}

func (f *fakeTokenStore) Get(_ context.Context, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	accountID, ok := f.values[token]
	if !ok {
		return "", apperr.NotFound("Token")
	}
	return accountID, nil
}

func (f *fakeTokenStore) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, token)
	return nil
}
