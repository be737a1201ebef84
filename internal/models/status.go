package models

// PathStatus classifies the outcome of processing a single input path.
type PathStatus int

const (
	// StatusAdded means the path was added to the backup set
	StatusAdded PathStatus = iota
	// StatusExcluded means the path matched an exclusion pattern
	StatusExcluded
	// StatusInvalid means the path does not exist or is inaccessible
	StatusInvalid
)

// String returns the string representation of the PathStatus
func (s PathStatus) String() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusExcluded:
		return "excluded"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// PathEvent is one status report emitted while processing input paths.
// Reason explains excluded or invalid outcomes when available.
type PathEvent struct {
	Path   string
	Status PathStatus
	Reason string
}
