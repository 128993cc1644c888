package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aescanero/dagflow/pkg/domain"
)

func sampleSnapshot() *domain.Snapshot {
	d := domain.NewDAG()
	a := domain.NewTask("a", nil, 0)
	b := domain.NewTask("b", nil, 1)
	b.AddDependency(a)
	d.Register(a)
	d.Register(b)
	a.Run(context.Background())
	return domain.TakeSnapshot(d)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	s := NewStore(path, nil)

	snap := sampleSnapshot()
	if err := s.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Tasks) != 2 {
		t.Fatalf("loaded %d tasks, want 2", len(loaded.Tasks))
	}
	if loaded.Tasks["a"].State != domain.StateSuccess {
		t.Fatalf("a state = %s, want %s", loaded.Tasks["a"].State, domain.StateSuccess)
	}
	if loaded.Metadata.SavedAt.IsZero() {
		t.Fatal("saved_at lost in round trip")
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nope.json"), nil)

	_, err := s.Load(context.Background())
	if !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("err = %v, want ErrSnapshotNotFound", err)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s := NewStore(path, nil)
	if _, err := s.Load(context.Background()); err == nil {
		t.Fatal("Load returned nil error for corrupt snapshot")
	}
}

func TestSaveCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "checkpoint.json")
	s := NewStore(path, nil)

	if err := s.Save(context.Background(), sampleSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	s := NewStore(path, nil)

	if err := s.Save(context.Background(), sampleSnapshot()); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	d := domain.NewDAG()
	d.Register(domain.NewTask("only", nil, 0))
	if err := s.Save(context.Background(), domain.TakeSnapshot(d)); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	loaded, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Tasks) != 1 {
		t.Fatalf("loaded %d tasks, want 1 (latest snapshot)", len(loaded.Tasks))
	}
	if _, ok := loaded.Tasks["only"]; !ok {
		t.Fatalf("loaded tasks = %v, want [only]", loaded.Tasks)
	}

	// No temp files linger after a successful save.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Fatalf("directory holds %v, want only the snapshot", names)
	}
}
