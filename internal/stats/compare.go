package stats

import "math"

// Relation describes how an average compares to a reference average.
type Relation int

const (
	Equal Relation = iota
	Approx
	Above
	Below
)

// fltEpsilon matches the single-precision epsilon used for equality.
const fltEpsilon = 1.1920929e-07

// ApproxTolerance is the relative distance under which two averages are
// reported as approximately equal.
const ApproxTolerance = 0.05

// Compare places avg relative to reference.
func Compare(avg, reference float64) Relation {
	diff := avg - reference
	if math.Abs(diff) < fltEpsilon {
		return Equal
	}
	if reference != 0 && math.Abs(diff)/math.Abs(reference) < ApproxTolerance {
		return Approx
	}
	if diff > 0 {
		return Above
	}
	return Below
}

// Marker returns the short tag printed next to an average.
func (r Relation) Marker() string {
	switch r {
	case Equal:
		return "[=]"
	case Approx:
		return "[~]"
	case Above:
		return "[+]"
	default:
		return "[-]"
	}
}

func (r Relation) String() string {
	switch r {
	case Equal:
		return "equal"
	case Approx:
		return "approx"
	case Above:
		return "above"
	default:
		return "below"
	}
}
