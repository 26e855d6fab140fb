// Package services defines the business logic of the invitation engine.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Join-request errors.
var (
	// ErrPostNotFound indicates that the targeted post does not exist.
	ErrPostNotFound = errors.New("post not found")

	// ErrRequestNotFound indicates that the requested join request does
	// not exist.
	ErrRequestNotFound = errors.New("join request not found")

	// ErrSelfJoin is returned when a post owner attempts to join their
	// own invite.
	ErrSelfJoin = errors.New("cannot join own post")

	// ErrDuplicateRequest is returned when a pending or accepted request
	// already exists for the same invite and requester.
	ErrDuplicateRequest = errors.New("active join request already exists")

	// ErrAlreadyResolved is returned when a resolution targets a request
	// that is no longer pending.
	ErrAlreadyResolved = errors.New("join request already resolved")

	// ErrCapacityExceeded is returned when accepting a request would push
	// the participant count past the invite capacity.
	ErrCapacityExceeded = errors.New("invite capacity exceeded")

	// ErrNotOwner is returned when someone other than the invite owner
	// attempts to resolve a request.
	ErrNotOwner = errors.New("only the invite owner can resolve requests")

	// ErrInvalidAction is returned when a resolution action is neither
	// "accept" nor "deny".
	ErrInvalidAction = errors.New("action must be accept or deny")
)

// Settings and notification errors.
var (
	// ErrInvalidMode is returned when an acceptance mode is neither
	// "manual" nor "auto".
	ErrInvalidMode = errors.New("acceptance mode must be manual or auto")

	// ErrNotificationNotFound indicates the notification does not exist
	// or belongs to another recipient.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrEmptyTitle is returned when a post is created without a title.
	ErrEmptyTitle = errors.New("title is empty")

	// ErrInvalidCapacity is returned when a post capacity is zero or
	// negative.
	ErrInvalidCapacity = errors.New("capacity must be positive")
)
