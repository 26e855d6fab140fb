// Package services – AcceptancePolicy
//
// This file implements the pure decision function applied when a join
// request arrives. The policy never touches storage itself: the caller
// hands it a reservation attempt, which keeps the capacity check and the
// counter increment a single atomic operation at the storage layer while
// the branching here stays trivially testable.
package services

import "github.com/dlampros/go-meet-backend/internal/domain"

// Decision is the outcome of applying the acceptance policy to a fresh
// join request.
type Decision struct {
	// Status is the initial request status: accepted or pending.
	Status string
	// Reserved reports whether a participant slot was taken. Only ever
	// true when Status is accepted.
	Reserved bool
}

// reserveFunc attempts to reserve one participant slot atomically. It
// returns false when capacity is exhausted.
type reserveFunc func() (bool, error)

// Decide resolves the initial status of a join request under the owner's
// acceptance mode.
//
// Semantics:
//   - The owner cannot request their own invite (ErrSelfJoin).
//   - Auto mode attempts a slot reservation: success means immediate
//     acceptance; exhausted capacity degrades to pending rather than a
//     hard rejection, preserving a path to later manual resolution.
//   - Manual mode always queues as pending; capacity is checked only when
//     the owner resolves (see JoinService.Resolve), because that manual
//     resolution is itself a race against other resolutions.
func Decide(mode, requesterID, ownerID string, reserve reserveFunc) (Decision, error) {
	if requesterID == ownerID {
		return Decision{}, ErrSelfJoin
	}

	if mode != domain.ModeAuto {
		return Decision{Status: domain.StatusPending}, nil
	}

	ok, err := reserve()
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return Decision{Status: domain.StatusPending}, nil
	}
	return Decision{Status: domain.StatusAccepted, Reserved: true}, nil
}
