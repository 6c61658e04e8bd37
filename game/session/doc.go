// Package session provides session management for Unblock.
//
// The session package implements:
//   - Thread-safe, in-memory session storage and retrieval
//   - Unique session ID generation
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the session manager that handles all session operations.
// Each service.Session owns its own engine built from the level pack it
// was created with, so sessions never share board state.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference, generated with
// crypto/rand. Lookups are case-insensitive.
//
// Usage:
//
//	manager := session.NewManagerWithOptions(engine.Options{AutoAdvance: true})
//
//	sess, err := manager.Create("", "levels", levels)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//
// Progress is not persisted; sessions disappear when the process exits or
// when CleanupExpiredSessions removes them.
package session
