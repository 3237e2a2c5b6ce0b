package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	fs, err := NewFileStore(filepath.Join(dir, "store.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	sq, err := OpenSQLite(ctx, filepath.Join(dir, "forger.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sq.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
		"sqlite": sq,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("Get(missing) = ok:%v err:%v, want miss", ok, err)
			}

			if err := s.Set(ctx, "app-settings", `{"theme":"dark"}`); err != nil {
				t.Fatalf("Set: %v", err)
			}
			v, ok, err := s.Get(ctx, "app-settings")
			if err != nil || !ok || v != `{"theme":"dark"}` {
				t.Fatalf("Get = %q, %v, %v", v, ok, err)
			}

			if err := s.Set(ctx, "app-settings", `{}`); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			if v, _, _ := s.Get(ctx, "app-settings"); v != `{}` {
				t.Errorf("after overwrite Get = %q, want {}", v)
			}

			if err := s.Delete(ctx, "app-settings"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, ok, _ := s.Get(ctx, "app-settings"); ok {
				t.Error("key still present after Delete")
			}
			if err := s.Delete(ctx, "app-settings"); err != nil {
				t.Errorf("Delete of absent key: %v", err)
			}
		})
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "store.json")

	a, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Set(ctx, "iconify-favorites", "[]"); err != nil {
		t.Fatal(err)
	}

	b, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	v, ok, err := b.Get(ctx, "iconify-favorites")
	if err != nil || !ok || v != "[]" {
		t.Errorf("Get = %q, %v, %v", v, ok, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}
}

func TestFileStoreCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Get(context.Background(), "k"); err == nil {
		t.Error("expected error for corrupt store document")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		kind    Kind
		wantErr bool
	}{
		{kind: "", wantErr: false},
		{kind: KindFile, wantErr: false},
		{kind: KindSQLite, wantErr: false},
		{kind: KindMemory, wantErr: false},
		{kind: KindRedis, wantErr: true}, // no address
		{kind: KindMongo, wantErr: true}, // no uri
		{kind: "etcd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			s, err := Open(ctx, Config{Kind: tt.kind, Dir: dir})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open(%q) error = %v, wantErr %v", tt.kind, err, tt.wantErr)
			}
			if tt.wantErr {
				if s != nil {
					t.Errorf("Open(%q) returned a non-nil store %#v with error %v", tt.kind, s, err)
				}
				return
			}
			s.Close()
		})
	}
}
