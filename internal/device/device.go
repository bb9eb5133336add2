// internal/device/device.go
package device

import (
	"context"
	"errors"
)

// ErrDeviceUnavailable indicates the device did not respond to an actuation
// call. The scheduler treats a sustained run of these as terminal for a
// session.
var ErrDeviceUnavailable = errors.New("device unavailable")

// Actuator is the contract for device interactions, allowing for mocking
// during tests. This interface is the cornerstone of the engine's
// testability strategy: everything above it is agnostic of the transport.
type Actuator interface {
	// Tap injects a synthetic tap at device pixel coordinates.
	Tap(ctx context.Context, x, y int) error

	// CaptureFrame grabs the current screen contents as an encoded image.
	CaptureFrame(ctx context.Context) ([]byte, error)

	// ScreenDimensions reports the device resolution in pixels.
	ScreenDimensions(ctx context.Context) (width, height int, err error)
}

// FrameSource is the capture-only capability of an Actuator, consumed by the
// tracker.
type FrameSource interface {
	CaptureFrame(ctx context.Context) ([]byte, error)
}
