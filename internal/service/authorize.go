// Package service implements StudyBud's room, message, topic, user and view operations.
package service

import (
	"strings"

	"studybud/internal/models"
	"studybud/internal/observability"
)

// Actor is the user on whose behalf an operation runs. The zero value is anonymous.
type Actor struct {
	UserID uint
}

// Authenticated reports whether the actor is logged in.
func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

// DeleteInput drives the two-step delete interaction for rooms, messages and accounts.
type DeleteInput struct {
	ID        uint
	Confirmed bool
	Cancelled bool
}

// requireLogin fails with Unauthorized for anonymous actors.
func requireLogin(actor Actor) error {
	if !actor.Authenticated() {
		return models.NewUnauthorizedError("Authentication required")
	}
	return nil
}

// authorizeOwner allows the actor only if they own the resource. Anonymous
// actors get Unauthorized; everyone else who is not ownerID gets Forbidden.
func authorizeOwner(actor Actor, ownerID *uint, msg string) error {
	if err := requireLogin(actor); err != nil {
		return err
	}
	if ownerID == nil || *ownerID != actor.UserID {
		return models.NewForbiddenError(msg)
	}
	return nil
}

// runDeletion applies the confirm/cancel decision and calls remove only when confirmed.
func runDeletion(resource string, in DeleteInput, remove func() error) (models.DeletionStage, error) {
	stage := models.NextDeletionStage(in.Confirmed, in.Cancelled)
	if stage.Removed() {
		if err := remove(); err != nil {
			return models.DeletionRequested, err
		}
	}
	observability.RecordDeletion(resource, string(stage))
	return stage, nil
}

// optionalText trims s and maps blank input to nil.
func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
