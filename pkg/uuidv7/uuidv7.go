// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

// Package uuidv7 wraps google/uuid to generate time-ordered UUIDv7 values.
//
// # Why UUIDv7?
//
// Account ids are UUIDv7 and immutable for the lifetime of the account.
// Because the value is time-sortable it keeps the PostgreSQL primary-key
// index append-mostly, avoiding the fragmentation caused by random UUIDv4.
package uuidv7

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
//
// # Safety
//
// It panics only if the OS random source is unavailable (extremely rare).
// OS entropy failure is an unrecoverable system-level error.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuidv7: failed to generate UUID: " + err.Error())
	}

	return id.String()
}
