package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters_SamePoint(t *testing.T) {
	points := []Point{
		{0, 0},
		{-23.55052, -46.633308},
		{51.5074, -0.1278},
		{89.9, 179.9},
	}
	for _, p := range points {
		assert.Equal(t, 0.0, DistanceMeters(p.Latitude, p.Longitude, p.Latitude, p.Longitude))
	}
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	a := Point{-23.55052, -46.633308}
	b := Point{-23.561414, -46.655881}

	ab := Distance(a, b)
	ba := Distance(b, a)

	assert.InDelta(t, ab, ba, 1e-9)
	assert.Greater(t, ab, 0.0)
}

func TestDistanceMeters_OneDegreeLatitudeAtEquator(t *testing.T) {
	got := DistanceMeters(0, 0, 1, 0)
	assert.InEpsilon(t, 111195.0, got, 0.005)
}

func TestDistanceMeters_NaNPropagates(t *testing.T) {
	assert.True(t, math.IsNaN(DistanceMeters(math.NaN(), 0, 0, 0)))
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name      string
		deviceLon float64
		threshold float64
		wantFar   bool
	}{
		{"same spot", 0, 300, false},
		{"about 300m east", 0.0027, 300, true},
		{"about 150m east", 0.00135, 300, false},
		{"about 300m with wider fence", 0.0027, 400, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Evaluate(0, 0, 0, c.deviceLon, c.threshold)
			assert.Equal(t, c.wantFar, got.IsFar)
			assert.GreaterOrEqual(t, got.Meters, 0.0)
		})
	}
}

func TestEvaluate_BoundaryIsNotFar(t *testing.T) {
	meters := DistanceMeters(0, 0, 0, 0.0027)

	atBoundary := Evaluate(0, 0, 0, 0.0027, meters)
	assert.False(t, atBoundary.IsFar)

	justOutside := Evaluate(0, 0, 0, 0.0027, meters-0.001)
	assert.True(t, justOutside.IsFar)
}

func TestEvaluatePunch_SkipsWithoutCoordinates(t *testing.T) {
	device := &Point{0, 0.01}
	location := &Point{0, 0}

	_, ok := EvaluatePunch(nil, device, 300)
	assert.False(t, ok)

	_, ok = EvaluatePunch(location, nil, 300)
	assert.False(t, ok)

	eval, ok := EvaluatePunch(location, device, 300)
	assert.True(t, ok)
	assert.True(t, eval.IsFar)
}

func TestEvaluatePunch_DefaultThreshold(t *testing.T) {
	eval, ok := EvaluatePunch(&Point{0, 0}, &Point{0, 0.0018}, 0)
	assert.True(t, ok)
	assert.False(t, eval.IsFar)
	assert.InDelta(t, 200, eval.Meters, 1)
}
