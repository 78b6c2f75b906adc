package builtins

import (
	"fmt"
	"time"
)

func durationFromUnit(n float64, unit string) (time.Duration, error) {
	switch unit {
	case "seconds":
		return time.Duration(n * float64(time.Second)), nil
	case "minutes":
		return time.Duration(n * float64(time.Minute)), nil
	case "hours":
		return time.Duration(n * float64(time.Hour)), nil
	case "days":
		return time.Duration(n * 24 * float64(time.Hour)), nil
	default:
		return 0, fmt.Errorf("unknown duration unit %q", unit)
	}
}

func scaleDurationToUnit(d time.Duration, unit string) (float64, error) {
	switch unit {
	case "seconds":
		return d.Seconds(), nil
	case "minutes":
		return d.Minutes(), nil
	case "hours":
		return d.Hours(), nil
	case "days":
		return d.Hours() / 24, nil
	default:
		return 0, fmt.Errorf("unknown calendarDiff unit %q", unit)
	}
}
