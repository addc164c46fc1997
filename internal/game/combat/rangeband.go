package combat

import "github.com/cory-johannsen/omnissiah/internal/game/weapon"

// RangeBand classifies the distance to the target relative to weapon range.
type RangeBand int

const (
	// RangeNone means no band applies (melee or thrown weapons).
	RangeNone RangeBand = iota
	RangePointBlank
	RangeClose
	RangeNormal
	RangeLong
	RangeExtreme
)

// String returns the band's display name.
func (b RangeBand) String() string {
	switch b {
	case RangePointBlank:
		return "point blank"
	case RangeClose:
		return "close"
	case RangeNormal:
		return "normal"
	case RangeLong:
		return "long"
	case RangeExtreme:
		return "extreme"
	default:
		return "none"
	}
}

// Modifier returns the test modifier of the band.
func (b RangeBand) Modifier() int {
	switch b {
	case RangePointBlank:
		return 30
	case RangeClose:
		return 10
	case RangeLong:
		return -10
	case RangeExtreme:
		return -30
	default:
		return 0
	}
}

// ClassifyRange returns the band for a shot at targetRange metres with a
// weapon of the given range and class. Bands are checked in the order point
// blank, close, extreme, long; the first match wins.
func ClassifyRange(targetRange, weaponRange int, class weapon.Class) RangeBand {
	if class == weapon.ClassMelee || class == weapon.ClassThrown {
		return RangeNone
	}
	switch {
	case targetRange <= 2:
		return RangePointBlank
	case 2*targetRange <= weaponRange:
		return RangeClose
	case targetRange >= weaponRange*3:
		return RangeExtreme
	case targetRange >= weaponRange*2:
		return RangeLong
	default:
		return RangeNormal
	}
}
