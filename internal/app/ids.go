package app

import "github.com/google/uuid"

// newEventID tags every published event so stream consumers can dedupe.
func newEventID() string { return uuid.NewString() }
