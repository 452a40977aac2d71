package domain

import (
	"errors"
	"time"
)

// Fix is one reported position sample.
type Fix struct {
	Position  Coordinate `json:"position"`
	Accuracy  *float64   `json:"accuracy,omitempty"` // metres
	Timestamp time.Time  `json:"timestamp"`
}

// WatchOptions configure a continuous position watch.
type WatchOptions struct {
	EnableHighAccuracy bool
	// Timeout is the longest gap tolerated between fixes before a timeout
	// error is reported. Zero disables the watchdog.
	Timeout time.Duration
	// MaximumAge is the oldest cached fix a source may deliver. Zero demands
	// a fresh fix every time.
	MaximumAge time.Duration
}

// DefaultWatchOptions returns the high-accuracy watch configuration.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		EnableHighAccuracy: true,
		Timeout:            5 * time.Second,
		MaximumAge:         0,
	}
}

var (
	ErrPermissionDenied    = errors.New("position permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrPositionTimeout     = errors.New("position request timed out")
)

// PositionErrorCode classifies position-source failures.
type PositionErrorCode string

const (
	CodePermissionDenied PositionErrorCode = "permission_denied"
	CodeUnavailable      PositionErrorCode = "unavailable"
	CodeTimeout          PositionErrorCode = "timeout"
)

// ClassifyPositionError maps err onto a PositionErrorCode. Errors that match
// no sentinel are treated as the position being unavailable.
func ClassifyPositionError(err error) PositionErrorCode {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return CodePermissionDenied
	case errors.Is(err, ErrPositionTimeout):
		return CodeTimeout
	default:
		return CodeUnavailable
	}
}

// ParsePositionErrorCode parses a wire code such as "timeout".
func ParsePositionErrorCode(s string) (PositionErrorCode, bool) {
	switch c := PositionErrorCode(s); c {
	case CodePermissionDenied, CodeUnavailable, CodeTimeout:
		return c, true
	default:
		return "", false
	}
}

// Err returns the sentinel error for the code.
func (c PositionErrorCode) Err() error {
	switch c {
	case CodePermissionDenied:
		return ErrPermissionDenied
	case CodeTimeout:
		return ErrPositionTimeout
	default:
		return ErrPositionUnavailable
	}
}

// Message returns the user-facing instruction text for the code.
func (c PositionErrorCode) Message() string {
	switch c {
	case CodePermissionDenied:
		return "위치 권한이 거부되었습니다. 설정에서 위치 권한을 허용해주세요."
	case CodeTimeout:
		return "위치 정보 요청 시간이 초과되었습니다."
	default:
		return "위치 정보를 가져올 수 없습니다. GPS가 활성화되어 있는지 확인해주세요."
	}
}
