// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Finsible

// Package client assembles the offline-first sync core into a single
// embeddable App: local sqlite storage, the remote HTTP adapter, the
// pending-operation queue, and the background jobs that keep both
// sides converged.
//
// The host application (a mobile shell or a CLI) records mutations
// through App, renders from the local store, and subscribes to the
// exposed observables for pending-count, sync-state, connectivity and
// conflict notices.
package client
