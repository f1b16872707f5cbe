// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the key/value store behind chatmon's login state.
//
// Only two keys are ever written: "token" and "user". Both are owned by the
// auth package.
//
// # Key Types
//
//   - KV: Get/Set/Delete interface
//   - SQLiteStore: file-backed store using the pure Go modernc.org/sqlite driver
//   - MemoryStore: map-backed store for tests and ephemeral sessions
//
// # Usage
//
//	store, err := storage.OpenSQLite(filepath.Join(dir, "state.db"))
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	err = store.Set(ctx, "token", token)
//
// # Storage Location
//
// The database lives at ~/.chatmon/state.db unless auth.state_path says
// otherwise.
package storage
