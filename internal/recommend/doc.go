// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

// Package recommend owns one user's recommendation state: the generated
// recommendations, favorites, viewing history, session feedback, custom
// lists and last-submitted preferences.
//
// # Projection and persistence
//
// A Service is built once per session from the user document read at
// session start. From then on its in-memory projection is authoritative:
// every mutation is applied locally first and then written as a shallow
// merge-patch of the affected top-level field. The document is never
// re-read before a write. A failed write is reported with ErrPersist but
// the local mutation is kept, so the projection may run ahead of the
// store until the next successful write.
//
// Feedback never leaves the session; it only enriches the next
// preference-based generation.
//
// # Identity
//
// Recommendations have no synthetic id. Title is the identity key for
// every membership and removal operation, and each collection holds at
// most one entry per title. Two different works with the same title
// collide.
//
// # Concurrency
//
// A Service is safe for concurrent use. Generator calls run outside the
// lock; writes happen under it so one session's patches reach the store
// in mutation order. Overlapping generations are not serialized and the
// last one to resolve wins.
package recommend
