// Package domain contains core concepts of the chat system.
// This file defines identifiers and their invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"fmt"
	"space-chat/errors"
	"strings"

	"github.com/google/uuid"
)

const maxParticipantIDLength = 128

// ParticipantID is opaque, issued by the identity collaborator.
type ParticipantID string

type RoomID string

type SessionID string

func NewRoomID() RoomID { return RoomID(uuid.NewString()) }

func NewSessionID() SessionID { return SessionID(uuid.NewString()) }

// Validate rejects ids that would break the storage key layout.
func (p ParticipantID) Validate() error {
	switch {
	case strings.TrimSpace(string(p)) == "":
		return fmt.Errorf("empty participant: %w", errors.ErrInvalidParticipant)
	case len(p) > maxParticipantIDLength:
		return fmt.Errorf("participant %.16s...: %w", p, errors.ErrInvalidParticipant)
	case strings.ContainsAny(string(p), ": \t\n"):
		return fmt.Errorf("participant %q: %w", p, errors.ErrInvalidParticipant)
	}
	return nil
}

func (r RoomID) Validate() error {
	if _, err := uuid.Parse(string(r)); err != nil {
		return fmt.Errorf("room id %q: %w", r, errors.ErrRoomNotFound)
	}
	return nil
}

// Set is a small helper around map[T]struct{}.
type Set[T comparable] map[T]struct{}

func NewSet[T comparable](values ...T) Set[T] {
	s := make(Set[T], len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

func (s Set[T]) Clone() Set[T] {
	c := make(Set[T], len(s))
	for v := range s {
		c[v] = struct{}{}
	}
	return c
}
