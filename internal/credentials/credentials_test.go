package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeStore struct {
	value string
	err   error
}

func (f fakeStore) Lookup(string) (string, error) { return f.value, f.err }

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestResolvePrecedence(t *testing.T) {
	testCases := []struct {
		name    string
		store   SecretStore
		env     map[string]string
		want    string
		wantErr error
	}{
		{"secret wins", fakeStore{value: "from-secrets"}, map[string]string{"CWA_API_KEY": "from-env"}, "from-secrets", nil},
		{"secret trimmed", fakeStore{value: "  abc \n"}, nil, "abc", nil},
		{"blank secret falls through", fakeStore{value: "   "}, map[string]string{"CWA_API_KEY": " env-key "}, "env-key", nil},
		{"store failure swallowed", fakeStore{err: errors.New("boom")}, map[string]string{"CWA_API_KEY": "env-key"}, "env-key", nil},
		{"nil store", nil, map[string]string{"CWA_API_KEY": "env-key"}, "env-key", nil},
		{"nothing anywhere", fakeStore{err: errors.New("boom")}, map[string]string{"CWA_API_KEY": "  "}, "", ErrMissing},
	}

	for _, tc := range testCases {
		r := &Resolver{Name: "CWA_API_KEY", Secrets: tc.store, Getenv: envOf(tc.env)}
		got, err := r.Resolve()
		if !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: expected error %v, got %v", tc.name, tc.wantErr, err)
		}
		if got != tc.want {
			t.Errorf("%s: expected '%s', got '%s'", tc.name, tc.want, got)
		}
	}
}

func TestDotenvStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".secrets.env")
	if err := os.WriteFile(path, []byte("CWA_API_KEY=\"CWA-1234\"\nOTHER=x\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	r := &Resolver{Name: "CWA_API_KEY", Secrets: DotenvStore{Path: path}, Getenv: envOf(nil)}
	got, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "CWA-1234" {
		t.Errorf("expected 'CWA-1234', got '%s'", got)
	}

	// A missing secrets file is "not found", not an error.
	r.Secrets = DotenvStore{Path: filepath.Join(dir, "absent.env")}
	r.Getenv = envOf(map[string]string{"CWA_API_KEY": "env-key"})
	got, err = r.Resolve()
	if err != nil || got != "env-key" {
		t.Errorf("expected env fallback, got '%s' (%v)", got, err)
	}
}
