package domain

// levelOrder ranks certificate levels from lowest to highest:
// Student, Sport, Recreational, Private, Commercial, ATP.
var levelOrder = []string{"S", "T", "V", "P", "C", "A"}

// NoLevel is the effective rank of an airman without any recognized level.
const NoLevel = -1

// LevelRank returns the rank of a level code, or NoLevel if unrecognized.
func LevelRank(level string) int {
	for i, l := range levelOrder {
		if l == level {
			return i
		}
	}
	return NoLevel
}

// ValidLevel reports whether level is one of S, T, V, P, C, A.
func ValidLevel(level string) bool {
	return LevelRank(level) != NoLevel
}

// MaxLevelRank returns the highest rank among levels, or NoLevel.
func MaxLevelRank(levels []string) int {
	best := NoLevel
	for _, l := range levels {
		if r := LevelRank(l); r > best {
			best = r
		}
	}
	return best
}

// MeetsMinimumLevel reports whether the highest of levels ranks at or above
// minLevel. An unrecognized minLevel has rank NoLevel and admits everyone.
func MeetsMinimumLevel(levels []string, minLevel string) bool {
	return MaxLevelRank(levels) >= LevelRank(minLevel)
}
