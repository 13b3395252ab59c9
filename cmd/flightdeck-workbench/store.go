// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/flightdeck-foundation/flightdeck/lib/clock"
	"github.com/flightdeck-foundation/flightdeck/lib/session"
)

// Store holds the service's live sessions, keyed by session ID.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	clock    clock.Clock
	logger   *slog.Logger
}

// NewStore creates an empty session store.
func NewStore(clk clock.Clock, logger *slog.Logger) *Store {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*session.Session),
		clock:    clk,
		logger:   logger,
	}
}

// Add registers a session under its own ID.
func (s *Store) Add(sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID()] = sess
}

// Get looks up a session by ID.
func (s *Store) Get(id string) (*session.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Remove discards a session. Reports whether the ID was present.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// List returns all live sessions, oldest first.
func (s *Store) List() []*session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt().Before(sessions[j].CreatedAt())
	})
	return sessions
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Reap discards sessions idle longer than the timeout and returns
// how many were removed. Called periodically by the service's reaper
// goroutine.
func (s *Store) Reap(idleTimeout time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	reaped := 0
	for id, sess := range s.sessions {
		idle := now.Sub(sess.LastActivity())
		if idle <= idleTimeout {
			continue
		}
		delete(s.sessions, id)
		reaped++
		s.logger.Info("session reaped",
			"session", id,
			"idle", idle.Round(time.Second).String(),
		)
	}
	return reaped
}
