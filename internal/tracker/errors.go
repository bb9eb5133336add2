// internal/tracker/errors.go
package tracker

import "errors"

var (
	errNonPositiveInterval = errors.New("tracker: poll interval must be positive")
	errBadConfidence       = errors.New("tracker: confidence threshold must be in [0,1]")
)
