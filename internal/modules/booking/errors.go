package booking

import (
	"fmt"

	"tractorbooking/internal/domain"
)

func InvalidTransition(event domain.TransitionEvent, from domain.BookingStatus) error {
	return fmt.Errorf("%w: %s from %s", domain.ErrInvalidTransition, event, from)
}

// Apply moves b.Status along event using the shared transition table.
func Apply(b *domain.Booking, event domain.TransitionEvent) error {
	next, ok := b.Status.Transition(event)
	if !ok {
		return InvalidTransition(event, b.Status)
	}
	b.Status = next
	return nil
}

// Authorize checks that actor holds one of roles and is a party to b.
// Admins and the system actor always pass.
func Authorize(b *domain.Booking, actor domain.Actor, roles ...domain.UserRole) error {
	if actor.IsAdmin() {
		return nil
	}
	allowed := false
	for _, r := range roles {
		if r == actor.Role {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: role %q", domain.ErrForbidden, actor.Role)
	}

	switch actor.Role {
	case domain.RoleCustomer:
		if b.CustomerID == actor.ID {
			return nil
		}
	case domain.RoleOwner:
		if b.OwnerID == actor.ID {
			return nil
		}
	}
	return fmt.Errorf("%w: not a party to booking %s", domain.ErrForbidden, b.ID)
}
