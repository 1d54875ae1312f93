package meter

import "math"

// Zone is a color band of the display level.
type Zone int

const (
	ZoneLow Zone = iota
	ZoneModerate
	ZoneElevated
	ZoneHigh
	ZoneClip
)

func (z Zone) String() string {
	switch z {
	case ZoneLow:
		return "low"
	case ZoneModerate:
		return "moderate"
	case ZoneElevated:
		return "elevated"
	case ZoneHigh:
		return "high"
	default:
		return "clip"
	}
}

// ZoneFor returns the band a [0, 1] level falls into.
func ZoneFor(level float64) Zone {
	switch {
	case level <= 0.2:
		return ZoneLow
	case level <= 0.4:
		return ZoneModerate
	case level <= 0.7:
		return ZoneElevated
	case level <= 0.95:
		return ZoneHigh
	default:
		return ZoneClip
	}
}

// PeakRow returns the row, counted from the top of a bar of the given
// height, at which a peak marker sits. 0 is the top, height the bottom.
func PeakRow(peak float64, height int) int {
	row := height - int(math.Round(peak*float64(height)))
	if row < 0 {
		return 0
	}
	if row > height {
		return height
	}
	return row
}
