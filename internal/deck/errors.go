package deck

import (
	"errors"
	"fmt"
)

// ErrDeckNotFound reports a library lookup for an unknown deck id.
var ErrDeckNotFound = errors.New("deck not found")

// UnknownSetError reports a decklist line whose set name has no entry in the
// set-code table. Translation failure aborts the whole import.
type UnknownSetError struct {
	Set       string
	Reference string
}

func (e *UnknownSetError) Error() string {
	return fmt.Sprintf("unknown set %q in decklist entry %q", e.Set, e.Reference)
}

// UnknownEnergyError reports an energy line whose energy type has no entry
// in the energy-code table.
type UnknownEnergyError struct {
	Energy    string
	Reference string
}

func (e *UnknownEnergyError) Error() string {
	return fmt.Sprintf("unknown energy type %q in decklist entry %q", e.Energy, e.Reference)
}

// ValidationError reports the first deck-construction rule a resolved deck
// violates.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "deck validation failed: " + e.Reason
}
