package geo

// DefaultThresholdMeters is the perimeter radius used when none is configured.
const DefaultThresholdMeters = 300.0

// Evaluation is the outcome of checking a device position against a registered location.
type Evaluation struct {
	Meters float64 `json:"meters"`
	IsFar  bool    `json:"is_far"`
}

// Evaluate measures the device's distance to the location. A distance equal to the
// threshold is still inside the perimeter.
func Evaluate(locationLat, locationLon, deviceLat, deviceLon, thresholdMeters float64) Evaluation {
	meters := DistanceMeters(locationLat, locationLon, deviceLat, deviceLon)
	return Evaluation{
		Meters: meters,
		IsFar:  meters > thresholdMeters,
	}
}

// EvaluatePunch runs Evaluate only when both positions are known. ok is false when the
// location has no registered coordinates or the device sent no fix; the punch must then
// proceed unflagged.
func EvaluatePunch(location, device *Point, thresholdMeters float64) (eval Evaluation, ok bool) {
	if location == nil || device == nil {
		return Evaluation{}, false
	}
	if thresholdMeters <= 0 {
		thresholdMeters = DefaultThresholdMeters
	}
	return Evaluate(location.Latitude, location.Longitude, device.Latitude, device.Longitude, thresholdMeters), true
}
