package domain

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoutePayload(t *testing.T) {
	t.Run("first trafast option", func(t *testing.T) {
		data := []byte(`{
			"currentDateTime": "2025-05-20T09:50:00",
			"route": {"trafast": [
				{
					"path": [[127.0, 37.0], [127.001, 37.0], [127.002, 37.0]],
					"guide": [
						{"pointIndex": 1, "type": 2, "instructions": " 좌회전 ", "distance": 89, "duration": 12000},
						{"pointIndex": 2, "type": 88, "instructions": "목적지", "distance": 89}
					],
					"summary": {"distance": 178, "duration": 30000}
				},
				{"path": [[0, 0]]}
			]}
		}`)

		route, err := ParseRoutePayload(data)
		require.NoError(t, err)

		require.Len(t, route.Path, 3)
		assert.Equal(t, Coordinate{Lat: 37.0, Lng: 127.0}, route.Start())
		assert.Equal(t, Coordinate{Lat: 37.0, Lng: 127.002}, route.Goal())

		require.Len(t, route.Guide, 2)
		assert.Equal(t, "좌회전", route.Guide[0].Instruction)
		require.NotNil(t, route.Guide[0].Duration)
		assert.Equal(t, 12000.0, *route.Guide[0].Duration)
		assert.Nil(t, route.Guide[1].Duration)

		assert.Equal(t, RouteSummary{Distance: 178, Duration: 30000}, route.Summary)
		assert.Equal(t, time.Date(2025, 5, 20, 9, 50, 0, 0, time.UTC), route.DepartedAt)
	})

	t.Run("no options", func(t *testing.T) {
		route, err := ParseRoutePayload([]byte(`{"route": {"trafast": []}}`))
		require.NoError(t, err)
		assert.True(t, route.Empty())
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseRoutePayload([]byte(`{"route":`))
		assert.ErrorContains(t, err, "parse route payload")
	})

	t.Run("short path point", func(t *testing.T) {
		_, err := ParseRoutePayload([]byte(`{"route": {"trafast": [{"path": [[127.0]]}]}}`))
		assert.ErrorContains(t, err, "route path point 0")
	})

	t.Run("unknown departure", func(t *testing.T) {
		route, err := ParseRoutePayload([]byte(`{"currentDateTime": "yesterday", "route": {"trafast": [{"path": [[127.0, 37.0]]}]}}`))
		require.NoError(t, err)
		assert.True(t, route.DepartedAt.IsZero())
	})
}

func TestRouteOption_ToRoute(t *testing.T) {
	dist, dur := 500.0, 60000.0

	t.Run("guide outside path dropped", func(t *testing.T) {
		opt := RouteOption{
			Path:  [][]float64{{127.0, 37.0}, {127.1, 37.1}},
			Guide: []RawGuideStep{{PointIndex: 5, Instructions: "x"}, {PointIndex: -1}, {PointIndex: 1, Instructions: "y"}},
		}
		route, err := opt.ToRoute()
		require.NoError(t, err)
		require.Len(t, route.Guide, 1)
		assert.Equal(t, "y", route.Guide[0].Instruction)
	})

	t.Run("summary falls back to top-level totals", func(t *testing.T) {
		opt := RouteOption{Path: [][]float64{{127.0, 37.0}}, Distance: &dist, Duration: &dur}
		route, err := opt.ToRoute()
		require.NoError(t, err)
		assert.Equal(t, RouteSummary{Distance: 500, Duration: 60000}, route.Summary)

		opt.Summary = &RawSummary{Distance: nil, Duration: nil}
		route, err = opt.ToRoute()
		require.NoError(t, err)
		assert.Equal(t, RouteSummary{Distance: 500, Duration: 60000}, route.Summary)
	})
}

func TestRoute_Empty(t *testing.T) {
	var nilRoute *Route
	assert.True(t, nilRoute.Empty())
	assert.True(t, (&Route{}).Empty())
	assert.False(t, (&Route{Path: []Coordinate{{Lat: 1, Lng: 1}}}).Empty())
}

func TestParseRoutePayload_Fixture(t *testing.T) {
	data, err := os.ReadFile("../../data/mock/route.json")
	require.NoError(t, err)

	route, err := ParseRoutePayload(data)
	require.NoError(t, err)
	assert.False(t, route.Empty())
	assert.NotEmpty(t, route.Guide)
	for _, step := range route.Guide {
		_, ok := route.Anchor(step)
		assert.True(t, ok)
	}
}
