package gps

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"go.bug.st/serial"

	"github.com/couchcryptid/hazard-navigator/internal/domain"
)

// OpenFunc opens the device at path.
type OpenFunc func(path string, mode *serial.Mode) (io.ReadCloser, error)

// OpenSerial opens a real serial port.
func OpenSerial(path string, mode *serial.Mode) (io.ReadCloser, error) {
	return serial.Open(path, mode)
}

// Receiver reads NMEA sentences from a GPS receiver on a serial port.
// It implements navigation.Source.
type Receiver struct {
	path   string
	baud   int
	open   OpenFunc
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewReceiver returns a Receiver for the device at path.
func NewReceiver(path string, baud int, open OpenFunc, clock clockwork.Clock, logger *slog.Logger) *Receiver {
	if open == nil {
		open = OpenSerial
	}
	return &Receiver{path: path, baud: baud, open: open, clock: clock, logger: logger}
}

// Watch opens the port and reports fixes until ctx is cancelled or the device
// stops producing data. Losing the fix is reported once as unavailable and
// reported again only after a fix has been regained.
func (r *Receiver) Watch(ctx context.Context, _ domain.WatchOptions, onFix func(domain.Fix), onError func(error)) error {
	port, err := r.open(r.path, &serial.Mode{
		BaudRate: r.baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return classifyOpenError(r.path, err)
	}
	r.logger.Info("gps receiver opened", "port", r.path, "baud", r.baud)

	stop := context.AfterFunc(ctx, func() { _ = port.Close() })
	defer func() {
		if stop() {
			_ = port.Close()
		}
	}()

	var (
		lastEmitted domain.Fix
		lostFix     bool
	)
	scan := bufio.NewScanner(port)
	for scan.Scan() {
		s, err := ParseSentence(scan.Text(), r.clock.Now())
		if err != nil {
			r.logger.Debug("skipping nmea line", "error", err)
			continue
		}
		if s.NoFix {
			if !lostFix {
				lostFix = true
				onError(fmt.Errorf("%w: receiver has no fix", domain.ErrPositionUnavailable))
			}
			continue
		}
		lostFix = false
		// GGA and RMC for the same epoch share a timestamp; report it once.
		if s.Fix.Timestamp.Equal(lastEmitted.Timestamp) {
			continue
		}
		lastEmitted = s.Fix
		onFix(s.Fix)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	cause := scan.Err()
	if cause == nil {
		cause = io.EOF
	}
	return fmt.Errorf("%w: gps read %s: %w", domain.ErrPositionUnavailable, r.path, cause)
}

func classifyOpenError(path string, err error) error {
	var portErr *serial.PortError
	if errors.As(err, &portErr) && portErr.Code() == serial.PermissionDenied {
		return fmt.Errorf("%w: open %s: %w", domain.ErrPermissionDenied, path, err)
	}
	return fmt.Errorf("%w: open %s: %w", domain.ErrPositionUnavailable, path, err)
}
