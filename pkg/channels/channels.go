// Package channels has small helpers for handing values between goroutines.
package channels

import (
	"errors"
)

var (
	ErrChannelClosed = errors.New("channel closed")
	ErrChannelFull   = errors.New("channel full")
)
