package aggregate

// Severity bounds of the ordinal scale used by the monitoring API.
const (
	SeverityNotClassified = 0
	SeverityDisaster      = 5
)

// Class is the presentation class derived from a severity ordinal.
type Class string

const (
	ClassNotClassified Class = "not-classified"
	ClassInformation   Class = "information"
	ClassWarning       Class = "warning"
	ClassAverage       Class = "average"
	ClassHigh          Class = "high"
	ClassDisaster      Class = "disaster"
	// ClassUnknown is the fallback for ordinals outside 0..5.
	ClassUnknown Class = "unknown"
)

var severityClasses = [...]Class{
	ClassNotClassified,
	ClassInformation,
	ClassWarning,
	ClassAverage,
	ClassHigh,
	ClassDisaster,
}

// ClassFor maps a severity ordinal to its presentation class. The
// mapping is total: anything outside 0..5 yields ClassUnknown.
func ClassFor(severity int) Class {
	if severity < SeverityNotClassified || severity > SeverityDisaster {
		return ClassUnknown
	}
	return severityClasses[severity]
}

// Label returns the display name for a class.
func (c Class) Label() string {
	switch c {
	case ClassNotClassified:
		return "Not classified"
	case ClassInformation:
		return "Information"
	case ClassWarning:
		return "Warning"
	case ClassAverage:
		return "Average"
	case ClassHigh:
		return "High"
	case ClassDisaster:
		return "Disaster"
	default:
		return "Unknown"
	}
}
