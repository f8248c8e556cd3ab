package statemachine

import (
	"fmt"

	"water-delivery-api/apperrors"
	"water-delivery-api/models"
)

// Transition defines a valid state change and which role can perform it
type Transition struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor models.UserRole
}

// validTransitions is the authoritative state machine definition.
// rejected and delivered are terminal; no other edges exist.
var validTransitions = []Transition{
	// Admin approves the order and assigns a transporter
	{From: models.StatusPending, To: models.StatusApproved, Actor: models.RoleAdmin},
	// Admin rejects the order
	{From: models.StatusPending, To: models.StatusRejected, Actor: models.RoleAdmin},
	// Assigned transporter starts the delivery run
	{From: models.StatusApproved, To: models.StatusInTransit, Actor: models.RoleTransporter},
	// Assigned transporter completes the delivery
	{From: models.StatusInTransit, To: models.StatusDelivered, Actor: models.RoleTransporter},
}

// transitionKey is used to look up valid transitions quickly
type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor models.UserRole
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// IsTerminal reports whether no transition leaves the given state
func IsTerminal(status models.OrderStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}

// CanTransition checks if a given role can move an order from one state to
// another. The returned error carries apperrors.ErrInvalidTransition.
func CanTransition(from, to models.OrderStatus, actor models.UserRole) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s is not allowed for role %q (valid from %s: %s)",
		apperrors.ErrInvalidTransition, from, to, actor, from, describeValidFrom(from))
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
