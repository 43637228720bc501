package presentation

import (
	"github.com/pkg/errors"
)

// ErrNeedsRetry is returned by BeginFrame when no presentation chain exists this frame. The caller
// skips drawing and tries again next frame. It is not a failure.
var ErrNeedsRetry = errors.New("presentation: chain unavailable, retry next frame")

// ErrDestroyed is returned when the coordinator is used after Shutdown.
var ErrDestroyed = errors.New("presentation: coordinator destroyed")

// ErrZeroExtent means the surface currently has no area, e.g. the window is minimized.
var ErrZeroExtent = errors.New("presentation: surface extent has a zero dimension")

// ErrQueuesUnresolved means the graphics or present queue family was never resolved.
var ErrQueuesUnresolved = errors.New("presentation: execution queue indices unresolved")

// ErrNoSurfaceFormats means the surface reported no formats at all.
var ErrNoSurfaceFormats = errors.New("presentation: surface reports no formats")

// CapabilityQueryError means the surface or device became unusable while querying its
// capabilities. Retryable.
type CapabilityQueryError struct {
	Op  string
	Err error
}

func (e *CapabilityQueryError) Error() string {
	return "capability query: " + e.Op + ": " + e.Err.Error()
}

func (e *CapabilityQueryError) Unwrap() error { return e.Err }

// ChainCreationError means the chain could not be built with the negotiated parameters, either
// because the extent is empty or because the platform rejected them. Retryable.
type ChainCreationError struct {
	Op  string
	Err error
}

func (e *ChainCreationError) Error() string {
	return "chain creation: " + e.Op + ": " + e.Err.Error()
}

func (e *ChainCreationError) Unwrap() error { return e.Err }

// ResourceCreationError means an image view, render pass or framebuffer could not be created for
// a chain that was built successfully. Fatal: no consistent render target can exist.
type ResourceCreationError struct {
	Op  string
	Err error
}

func (e *ResourceCreationError) Error() string {
	return "resource creation: " + e.Op + ": " + e.Err.Error()
}

func (e *ResourceCreationError) Unwrap() error { return e.Err }

// InitError is returned by Initialize when the first build cannot succeed.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return "presentation init: " + e.Err.Error()
}

func (e *InitError) Unwrap() error { return e.Err }

// IsRetryable reports whether err only defers the rebuild to a later frame.
func IsRetryable(err error) bool {
	var cq *CapabilityQueryError
	var cc *ChainCreationError
	return errors.As(err, &cq) || errors.As(err, &cc)
}
