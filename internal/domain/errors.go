package domain

import "errors"

// ErrModelNotFound indicates the requested model is not registered and
// fallback was disabled, or fallback exhausted every tier.
var ErrModelNotFound = errors.New("model not found")

// ErrModelConfig indicates a provider family failed to initialize beyond
// the per-family guard (e.g. a malformed credential).
var ErrModelConfig = errors.New("model configuration error")

// ErrCacheMiss indicates no cached entry was found.
var ErrCacheMiss = errors.New("cache miss")
