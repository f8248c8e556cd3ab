package statemachine

import (
	"errors"
	"testing"

	"water-delivery-api/apperrors"
	"water-delivery-api/models"

	"github.com/stretchr/testify/assert"
)

func TestAllowedTransitions(t *testing.T) {
	cases := []struct {
		from  models.OrderStatus
		to    models.OrderStatus
		actor models.UserRole
	}{
		{models.StatusPending, models.StatusApproved, models.RoleAdmin},
		{models.StatusPending, models.StatusRejected, models.RoleAdmin},
		{models.StatusApproved, models.StatusInTransit, models.RoleTransporter},
		{models.StatusInTransit, models.StatusDelivered, models.RoleTransporter},
	}
	for _, tc := range cases {
		assert.NoError(t, CanTransition(tc.from, tc.to, tc.actor),
			"%s -> %s by %s should be allowed", tc.from, tc.to, tc.actor)
	}
}

func TestForbiddenTransitions(t *testing.T) {
	cases := []struct {
		name  string
		from  models.OrderStatus
		to    models.OrderStatus
		actor models.UserRole
	}{
		{"skip straight to delivered", models.StatusPending, models.StatusDelivered, models.RoleAdmin},
		{"skip approval", models.StatusPending, models.StatusInTransit, models.RoleTransporter},
		{"transporter cannot approve", models.StatusPending, models.StatusApproved, models.RoleTransporter},
		{"customer cannot approve", models.StatusPending, models.StatusApproved, models.RoleCustomer},
		{"admin cannot start transit", models.StatusApproved, models.StatusInTransit, models.RoleAdmin},
		{"admin cannot deliver", models.StatusInTransit, models.StatusDelivered, models.RoleAdmin},
		{"no backward move", models.StatusInTransit, models.StatusApproved, models.RoleTransporter},
		{"delivered is terminal", models.StatusDelivered, models.StatusInTransit, models.RoleTransporter},
		{"rejected is terminal", models.StatusRejected, models.StatusApproved, models.RoleAdmin},
		{"cannot reject after approval", models.StatusApproved, models.StatusRejected, models.RoleAdmin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CanTransition(tc.from, tc.to, tc.actor)
			assert.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
		})
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, IsTerminal(models.StatusRejected))
	assert.True(t, IsTerminal(models.StatusDelivered))
	assert.False(t, IsTerminal(models.StatusPending))
	assert.False(t, IsTerminal(models.StatusApproved))
	assert.False(t, IsTerminal(models.StatusInTransit))
}

func TestValidTransitionsFrom(t *testing.T) {
	assert.ElementsMatch(t,
		[]models.OrderStatus{models.StatusApproved, models.StatusRejected},
		ValidTransitionsFrom(models.StatusPending))
	assert.Equal(t,
		[]models.OrderStatus{models.StatusInTransit},
		ValidTransitionsFrom(models.StatusApproved))
	assert.Empty(t, ValidTransitionsFrom(models.StatusDelivered))
}
