// Package units provides the speed units accepted in ring configuration
// and conversions to and from the metres-per-second the simulation runs in.
package units

import (
	"fmt"
	"strings"
)

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

const mpsPerMPH = 0.44704

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ConvertSpeed converts a speed from metres per second to the target units.
// Unknown units are treated as m/s.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS / mpsPerMPH
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// ToMPS converts a speed given in unit to metres per second.
func ToMPS(speed float64, unit string) (float64, error) {
	switch unit {
	case MPS, "":
		return speed, nil
	case MPH:
		return speed * mpsPerMPH, nil
	case KMPH, KPH:
		return speed / 3.6, nil
	default:
		return 0, fmt.Errorf("unknown speed unit %q (valid: %s)", unit, GetValidUnitsString())
	}
}
