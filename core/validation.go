package core

import "fmt"

// ValidateSession checks the invariants every constructed Session holds.
func ValidateSession(s *Session) error {
	if s == nil {
		return fmt.Errorf("%w: session is nil", ErrInvalidSession)
	}

	if s.UUID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSession, ErrEmptyUUID)
	}

	if len(s.Messages) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSession, ErrNoMessages)
	}

	if s.UpdatedAt.IsZero() {
		return fmt.Errorf("%w: %w", ErrInvalidSession, ErrMissingUpdatedAt)
	}

	for i := range s.Messages {
		if err := ValidateRole(s.Messages[i].Role); err != nil {
			return fmt.Errorf("%w: message %d: %w", ErrInvalidSession, i, err)
		}
	}

	return nil
}

func ValidateRole(role Role) error {
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("%w: value %d", ErrInvalidRole, role)
	}
	return nil
}
