package domain

import "errors"

// ErrInvalidRequest indicates that a caller supplied a malformed analysis or
// forecast request. This is a programmer/usage error: it propagates to the
// caller instead of being folded into a failed result envelope.
var ErrInvalidRequest = errors.New("invalid request")

// ErrInvalidTransition indicates a forecast status transition that the
// lifecycle state machine does not permit.
var ErrInvalidTransition = errors.New("invalid forecast status transition")

// ErrUnknownUnit indicates an analysis unit name outside the five known variants.
var ErrUnknownUnit = errors.New("unknown analysis unit")

// ErrResultInvariant indicates an AnalysisResult that violates the envelope
// invariant: exactly one of (payload populated, error set) must hold.
var ErrResultInvariant = errors.New("analysis result must carry either a payload or an error, not both")
