// Package credentials resolves the CWA open-data API key.
package credentials

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissing means no API key could be found in any source.
var ErrMissing = errors.New("missing API key: set CWA_API_KEY in the secrets file or environment")

var logger = log.New(os.Stdout, "CREDENTIALS: ", log.LstdFlags|log.Lshortfile)

// SecretStore is a named-secret lookup. An empty value means "not set".
type SecretStore interface {
	Lookup(name string) (string, error)
}

// DotenvStore reads secrets from a dotenv-format file without touching the
// process environment.
type DotenvStore struct {
	Path string
}

// Lookup re-reads the file on every call so edits are picked up by a running server.
func (s DotenvStore) Lookup(name string) (string, error) {
	values, err := godotenv.Read(s.Path)
	if err != nil {
		return "", err
	}
	return values[name], nil
}

// Resolver checks the secrets store first, then the environment.
type Resolver struct {
	Name    string
	Secrets SecretStore
	Getenv  func(string) string
}

// NewResolver wires the dotenv store at secretsPath and os.Getenv.
func NewResolver(name, secretsPath string) *Resolver {
	return &Resolver{
		Name:    name,
		Secrets: DotenvStore{Path: secretsPath},
		Getenv:  os.Getenv,
	}
}

// Resolve returns the first non-empty, trimmed key. Secrets store failures
// count as "not found".
func (r *Resolver) Resolve() (string, error) {
	if r.Secrets != nil {
		v, err := r.Secrets.Lookup(r.Name)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.Printf("secrets store lookup for %s failed (ignoring): %v", r.Name, err)
			}
		} else if v = strings.TrimSpace(v); v != "" {
			return v, nil
		}
	}

	if r.Getenv != nil {
		if v := strings.TrimSpace(r.Getenv(r.Name)); v != "" {
			return v, nil
		}
	}

	return "", ErrMissing
}
