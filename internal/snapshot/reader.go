package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Snapshot is one persisted forecast pull.
type Snapshot struct {
	Name string
	Path string
	Doc  Document
	// Err is set when the file did not parse; Doc then holds the error marker.
	Err *ParseError
}

// IsErrorMarker reports whether Doc is a stand-in for an unreadable file.
func (s *Snapshot) IsErrorMarker() bool {
	return s != nil && s.Err != nil
}

type errorMarker struct {
	Error string `json:"_error"`
	File  string `json:"file"`
}

// List returns snapshot file names in dir, oldest first.
// A missing dir yields an empty list.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, filePrefix) && strings.HasSuffix(strings.ToLower(name), fileSuffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// LoadLatest loads the lexicographically greatest snapshot in dir.
// It returns nil, nil when there is nothing to load yet. An unparsable file
// is not an error: the returned Snapshot carries an error marker instead.
func LoadLatest(dir string) (*Snapshot, error) {
	names, err := List(dir)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}

	name := names[len(names)-1]
	snap := &Snapshot{Name: name, Path: filepath.Join(dir, name)}

	data, err := os.ReadFile(snap.Path)
	if err == nil && !Document(data).Valid() {
		err = errors.New("invalid JSON")
	}
	if err != nil {
		snap.Err = &ParseError{File: name, Err: err}
		snap.Doc, _ = json.Marshal(errorMarker{Error: snap.Err.Error(), File: name})
		return snap, nil
	}

	snap.Doc = data
	return snap, nil
}
