package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/hazard-navigator/internal/domain"
)

func TestRemaining(t *testing.T) {
	ptr := func(v float64) *float64 { return &v }

	withSteps := scenarioRoute()
	withSteps.Guide[0].Distance, withSteps.Guide[0].Duration = ptr(0), ptr(0)
	withSteps.Guide[1].Distance, withSteps.Guide[1].Duration = ptr(178), ptr(60000)

	tests := []struct {
		name         string
		route        *domain.Route
		next         int
		wantDistance float64
		wantDuration float64
	}{
		{"summary before first step", scenarioRoute(), 0, 178, 60000},
		{"summary kept after first step", scenarioRoute(), 1, 178, 60000},
		{"summary cleared on arrival", scenarioRoute(), 2, 0, 0},
		{"step values from start", withSteps, 0, 178, 60000},
		{"step values after first step", withSteps, 1, 178, 60000},
		{"step values on arrival", withSteps, 2, 0, 0},
		{"empty route", &domain.Route{}, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			distance, duration := remaining(tt.route, tt.next)
			assert.InDelta(t, tt.wantDistance, distance, 1e-9)
			assert.InDelta(t, tt.wantDuration, duration, 1e-9)
		})
	}
}
