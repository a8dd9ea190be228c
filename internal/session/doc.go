// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the authenticated session and enforces the
// inactivity timeout.
//
// # Key Types
//
//   - Session: the identity and token held by the client
//   - Store: persists the current Session in a storage backend
//   - Scheduler: the LoggedOut/Active/Warning state machine
//
// # Usage
//
//	sched, err := session.NewScheduler(session.DefaultConfig(), session.Deps{
//	    Store:    session.NewStore(st, logger),
//	    Activity: monitor,
//	    Logger:   logger,
//	})
//	sched.Subscribe(func(ev lifecycle.Event) { ... })
//	sched.Start() // restores a persisted session
//	defer sched.Stop()
//
// # Timing
//
// After InactivityTimeout - WarningDuration without activity the scheduler
// publishes warningShown and counts down once per second. Activity or
// Extend during the countdown returns to Active; reaching zero publishes
// sessionExpired and clears the persisted session. Logout is silent.
package session
