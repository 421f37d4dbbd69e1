package snapshot

import "fmt"

// PersistError is a failed snapshot write.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to write snapshot %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// ParseError is a snapshot file that could not be read back as JSON.
// Re-running the crawl replaces it with a fresh snapshot.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Failed to read %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
