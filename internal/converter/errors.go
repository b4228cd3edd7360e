package converter

import "fmt"

// ErrorKind classifies a failed load.
type ErrorKind string

const (
	// KindMalformedArchive: not a ZIP, or the container descriptor is missing
	// or names no package document.
	KindMalformedArchive ErrorKind = "MalformedArchive"
	// KindMalformedPackage: the package document is missing or unreadable.
	KindMalformedPackage ErrorKind = "MalformedPackage"
)

// LoadError is returned when a book cannot be loaded at all.
type LoadError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
