package domain

// ThresholdFor returns the cumulative experience needed to leave level.
// Below level 10 it is seven times the triangular number; from level 10 on it
// is the sum of the first level squares. Both curves give 385 at level 10.
func ThresholdFor(level int) int64 {
	if level <= 0 {
		return 0
	}
	l := int64(level)
	if level < 10 {
		return 7 * ((l * (l + 1)) / 2)
	}
	return (l * (l + 1) * (2*l + 1)) / 6
}

// MaxLevel bounds the level-up loop so thresholds stay well inside int64.
const MaxLevel = 1_000_000

// MaxExperience is the largest experience total a record can settle at.
var MaxExperience = ThresholdFor(MaxLevel) - 1
