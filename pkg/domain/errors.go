package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExists is returned when a new session would overwrite an existing one.
var ErrSessionExists = errors.New("session already exists")

// ErrUnknownGuide is returned when no guide is registered under the requested name.
var ErrUnknownGuide = errors.New("unknown guide")

// ErrIllegalTransition is returned when a step handler moves a session along an
// edge the guide never declared.
var ErrIllegalTransition = errors.New("illegal transition")

// ErrInvalidGuide is returned by Guide.Validate for inconsistent definitions.
var ErrInvalidGuide = errors.New("invalid guide definition")
