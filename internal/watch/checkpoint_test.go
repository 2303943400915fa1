package watch

import (
	"path/filepath"
	"testing"
)

const testPoolAddr = "0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640"

func TestCheckpointSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := NewCheckpointStore(path, testPoolAddr, true)

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("fresh store: got ok=%v err=%v, want no checkpoint", ok, err)
	}

	if err := store.Save(12345); err != nil {
		t.Fatalf("save: %v", err)
	}

	cp, ok, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok || cp.LastProcessedBlock != 12345 {
		t.Fatalf("load mismatch: ok=%v block=%d", ok, cp.LastProcessedBlock)
	}
	if cp.Pool != testPoolAddr {
		t.Fatalf("checkpoint pool: got %s, want %s", cp.Pool, testPoolAddr)
	}

	// Saving again overwrites.
	if err := store.Save(12400); err != nil {
		t.Fatalf("second save: %v", err)
	}
	cp, _, err = store.Load()
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if cp.LastProcessedBlock != 12400 {
		t.Fatalf("second load: got %d, want 12400", cp.LastProcessedBlock)
	}
}

func TestCheckpointIgnoresOtherPool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	if err := NewCheckpointStore(path, testPoolAddr, true).Save(500); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A watcher pointed at a different pool must not resume from this file.
	other := NewCheckpointStore(path, "0x11b815efB8f581194ae79006d24E0d814B7697F6", true)
	if _, ok, err := other.Load(); err != nil || ok {
		t.Fatalf("other pool load: got ok=%v err=%v, want no checkpoint", ok, err)
	}

	// Case differences in the recorded address do not break resumption.
	same := NewCheckpointStore(path, "0x88E6A0C2DDD26FEEB64F039A2C41296FCB3F5640", true)
	cp, ok, err := same.Load()
	if err != nil || !ok {
		t.Fatalf("same pool load: got ok=%v err=%v", ok, err)
	}
	if cp.LastProcessedBlock != 500 {
		t.Fatalf("same pool load: got %d, want 500", cp.LastProcessedBlock)
	}
}

func TestCheckpointDisabled(t *testing.T) {
	store := NewCheckpointStore("", testPoolAddr, false)

	if err := store.Save(1); err != nil {
		t.Fatalf("disabled save: %v", err)
	}
	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("disabled load: got ok=%v err=%v", ok, err)
	}
}
