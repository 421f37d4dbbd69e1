package snapshot

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

const (
	filePrefix = "weather_"
	fileSuffix = ".json"
	// Filesystem-safe on every common platform (no ':' or spaces).
	timeLayout = "20060102_150405"
)

var logger = log.New(os.Stdout, "SNAPSHOT: ", log.LstdFlags|log.Lshortfile)

// Writer saves documents into Dir, naming them by the Now clock.
type Writer struct {
	Dir string
	Now func() time.Time
}

// Save writes doc into dir using the wall clock.
func Save(doc Document, dir string) (string, error) {
	return Writer{Dir: dir}.Save(doc)
}

// FileName returns the snapshot name for a capture time, in local time.
func FileName(t time.Time) string {
	return filePrefix + t.Local().Format(timeLayout) + fileSuffix
}

// Save creates Dir if needed and writes doc pretty-printed as UTF-8.
// Two saves within the same second share a name; the second one wins.
func (w Writer) Save(doc Document) (string, error) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	path := filepath.Join(w.Dir, FileName(now()))

	body, err := doc.Pretty()
	if err != nil {
		return "", &PersistError{Path: path, Err: fmt.Errorf("document is not valid JSON: %w", err)}
	}

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", &PersistError{Path: path, Err: err}
	}
	if _, err := os.Stat(path); err == nil {
		logger.Printf("WARNING: %s already exists and will be overwritten", path)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", &PersistError{Path: path, Err: err}
	}
	return path, nil
}
