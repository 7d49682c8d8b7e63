package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPunchType(t *testing.T) {
	assert.Equal(t, PunchEntry, NextPunchType(nil))
	assert.Equal(t, PunchExit, NextPunchType(&TimeRecord{Type: PunchEntry}))
	assert.Equal(t, PunchEntry, NextPunchType(&TimeRecord{Type: PunchExit}))
}

func TestNextPunchType_Alternates(t *testing.T) {
	var last *TimeRecord
	want := []PunchType{PunchEntry, PunchExit, PunchEntry, PunchExit}

	for i, expected := range want {
		next := NextPunchType(last)
		assert.Equal(t, expected, next, "punch %d", i)
		last = &TimeRecord{Type: next}
	}
}

func TestPerimeterLabel(t *testing.T) {
	meters := 411.6

	assert.Equal(t, "Sede", PerimeterLabel("Sede", false, &meters))
	assert.Equal(t, "Sede (Fora do perímetro: 412m)", PerimeterLabel("Sede", true, &meters))
	assert.Equal(t, "Sede (Fora do perímetro)", PerimeterLabel("Sede", true, nil))
}

func TestParseLegacyPerimeterLabel(t *testing.T) {
	name, flagged, meters := ParseLegacyPerimeterLabel("Loja Centro (Fora do perímetro: 412m)")
	assert.Equal(t, "Loja Centro", name)
	assert.True(t, flagged)
	require.NotNil(t, meters)
	assert.Equal(t, 412.0, *meters)

	name, flagged, meters = ParseLegacyPerimeterLabel("Loja Centro")
	assert.Equal(t, "Loja Centro", name)
	assert.False(t, flagged)
	assert.Nil(t, meters)

	name, flagged, meters = ParseLegacyPerimeterLabel("Loja Centro (Fora do perímetro)")
	assert.Equal(t, "Loja Centro", name)
	assert.True(t, flagged)
	assert.Nil(t, meters)
}

func TestNormalizeLegacy(t *testing.T) {
	legacy := TimeRecord{LocationName: "Sede (Fora do perímetro: 350m)"}
	legacy.NormalizeLegacy()

	assert.Equal(t, "Sede", legacy.LocationName)
	assert.True(t, legacy.IsOutOfPerimeter)
	require.NotNil(t, legacy.DistanceMeters)
	assert.Equal(t, 350.0, *legacy.DistanceMeters)
	assert.Equal(t, "Sede (Fora do perímetro: 350m)", legacy.DisplayLocation())

	meters := 500.0
	current := TimeRecord{LocationName: "Sede", IsOutOfPerimeter: true, DistanceMeters: &meters}
	current.NormalizeLegacy()
	assert.Equal(t, "Sede", current.LocationName)
	assert.Equal(t, 500.0, *current.DistanceMeters)
}

func TestPunchRequestValidate(t *testing.T) {
	lat, lon := -23.55, -46.63

	req := PunchRequest{}
	require.NoError(t, req.Validate())
	assert.Equal(t, ManualLocationCode, req.LocationCode)

	req = PunchRequest{LocationCode: "SEDE-01", Latitude: &lat}
	assert.Error(t, req.Validate())

	req = PunchRequest{LocationCode: "SEDE-01", Latitude: &lat, Longitude: &lon}
	require.NoError(t, req.Validate())
	assert.NotNil(t, req.Device())

	bad := 120.0
	req = PunchRequest{LocationCode: "sede 01", Latitude: &bad, Longitude: &lon}
	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "location_code")
	assert.Contains(t, err.Error(), "latitude")
}
