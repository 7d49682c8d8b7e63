package attendance

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NextPunchType alternates strictly between entry and exit, starting with entry.
// An employee whose last punch is an entry stays clocked in until the next punch.
func NextPunchType(last *TimeRecord) PunchType {
	if last == nil || last.Type != PunchEntry {
		return PunchEntry
	}
	return PunchExit
}

const perimeterMarker = " (Fora do perímetro"

// PerimeterLabel renders the unit name for display, e.g. "Sede (Fora do perímetro: 412m)".
func PerimeterLabel(name string, outOfPerimeter bool, distanceMeters *float64) string {
	if !outOfPerimeter {
		return name
	}
	if distanceMeters == nil {
		return name + perimeterMarker + ")"
	}
	return fmt.Sprintf("%s%s: %dm)", name, perimeterMarker, int64(math.Round(*distanceMeters)))
}

// ParseLegacyPerimeterLabel splits a location name written by older app versions, which appended
// the out-of-perimeter marker to the name instead of storing a flag. Names without the marker are
// returned unchanged with flagged=false.
func ParseLegacyPerimeterLabel(label string) (name string, flagged bool, distanceMeters *float64) {
	idx := strings.Index(label, perimeterMarker)
	if idx < 0 {
		return label, false, nil
	}

	name = label[:idx]
	rest := strings.TrimSuffix(label[idx+len(perimeterMarker):], ")")
	rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
	rest = strings.TrimSuffix(rest, "m")
	if meters, err := strconv.ParseFloat(rest, 64); err == nil {
		distanceMeters = &meters
	}
	return name, true, distanceMeters
}

// NormalizeLegacy re-derives the structured perimeter fields for rows stored with the old label
// encoding. Rows that already carry the flag are left as they are.
func (r *TimeRecord) NormalizeLegacy() {
	if r.IsOutOfPerimeter {
		return
	}
	name, flagged, meters := ParseLegacyPerimeterLabel(r.LocationName)
	if !flagged {
		return
	}
	r.LocationName = name
	r.IsOutOfPerimeter = true
	if r.DistanceMeters == nil {
		r.DistanceMeters = meters
	}
}
