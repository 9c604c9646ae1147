package model

// ReviewLevel is the minimum severity an automated review reports on.
type ReviewLevel string

const (
	ReviewLevelCritical ReviewLevel = "CRITICAL"
	ReviewLevelMedium   ReviewLevel = "MEDIUM"
	ReviewLevelLow      ReviewLevel = "LOW"
	ReviewLevelNitpick  ReviewLevel = "NITPICK"
)

// ReviewLevels lists every accepted ReviewLevel, most severe first.
var ReviewLevels = []ReviewLevel{
	ReviewLevelCritical,
	ReviewLevelMedium,
	ReviewLevelLow,
	ReviewLevelNitpick,
}

// IsValid reports whether l is one of the enumerated review levels.
func (l ReviewLevel) IsValid() bool {
	for _, level := range ReviewLevels {
		if l == level {
			return true
		}
	}
	return false
}
