package tokenstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"
)

// storeFactories builds every writable backend against isolated state.
func storeFactories(t *testing.T) map[string]func(t *testing.T) TokenStore {
	t.Helper()
	return map[string]func(t *testing.T) TokenStore{
		"memory": func(t *testing.T) TokenStore {
			return NewMemoryStore("")
		},
		"file": func(t *testing.T) TokenStore {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "nested", DefaultKey))
			if err != nil {
				t.Fatalf("NewFileStore: %v", err)
			}
			return s
		},
		"sqlite": func(t *testing.T) TokenStore {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
		"keyring": func(t *testing.T) TokenStore {
			keyring.MockInit()
			s, err := NewKeyringStore("storefront-test", t.Name())
			if err != nil {
				t.Fatalf("NewKeyringStore: %v", err)
			}
			return s
		},
	}
}

func TestStoresReadAbsentAsEmpty(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			got, err := s.Read(context.Background())
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if got != "" {
				t.Errorf("Read() = %q, want empty", got)
			}
		})
	}
}

func TestStoresLastWriteWins(t *testing.T) {
	ctx := context.Background()
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			if err := s.Write(ctx, "tok_1"); err != nil {
				t.Fatalf("Write(tok_1) error = %v", err)
			}
			if err := s.Write(ctx, "tok_2"); err != nil {
				t.Fatalf("Write(tok_2) error = %v", err)
			}

			got, err := s.Read(ctx)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if got != "tok_2" {
				t.Errorf("Read() = %q, want %q", got, "tok_2")
			}
		})
	}
}

func TestStoresDelete(t *testing.T) {
	ctx := context.Background()
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			if err := s.Write(ctx, "tok_1"); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if err := s.Delete(ctx); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			// Deleting twice must not fail
			if err := s.Delete(ctx); err != nil {
				t.Fatalf("second Delete() error = %v", err)
			}

			got, err := s.Read(ctx)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if got != "" {
				t.Errorf("Read() after Delete = %q, want empty", got)
			}
		})
	}
}

func TestFileStorePermissions(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), DefaultKey)

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s.Write(ctx, "  tok_1\n"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %04o, want 0600", info.Mode().Perm())
	}

	got, err := s.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != "tok_1" {
		t.Errorf("Read() = %q, want trimmed %q", got, "tok_1")
	}

	if err := os.Chmod(path, 0644); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	if _, err := s.Read(ctx); err == nil {
		t.Error("Read() with 0644 permissions should fail")
	}
}

func TestEnvStoreReadOnly(t *testing.T) {
	ctx := context.Background()
	t.Setenv("STOREFRONT_TEST_TOKEN", "tok_env")

	s, err := NewEnvStore("STOREFRONT_TEST_TOKEN")
	if err != nil {
		t.Fatalf("NewEnvStore: %v", err)
	}

	got, err := s.Read(ctx)
	if err != nil || got != "tok_env" {
		t.Fatalf("Read() = %q, %v; want tok_env", got, err)
	}
	if err := s.Write(ctx, "other"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Write() error = %v, want ErrReadOnly", err)
	}
	if err := s.Delete(ctx); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Delete() error = %v, want ErrReadOnly", err)
	}

	if _, err := NewEnvStore(""); err == nil {
		t.Error("NewEnvStore(\"\") should fail")
	}
}

func TestReadHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewMemoryStore("tok").Read(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Read() error = %v, want context.Canceled", err)
	}
}
