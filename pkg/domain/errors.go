package domain

import "errors"

// ErrUnknownAction is returned by strict parsing when an identifier is outside the closed set.
var ErrUnknownAction = errors.New("unknown action")

// ErrTransformFailed marks a transform that panicked or could not produce output.
// Dispatch recovers from it; it only shows up in logs and hooks.
var ErrTransformFailed = errors.New("transform failed")
