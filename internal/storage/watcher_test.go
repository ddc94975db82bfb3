package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pfrederiksen/datebook/internal/event"
)

func TestWatcher_FiresOnSave(t *testing.T) {
	s := newTestStorage(t)

	changed := make(chan struct{}, 4)
	w, err := NewWatcher(s.Path(), func() {
		changed <- struct{}{}
	})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	if err := s.Save(event.Buckets{event.NewDate(2024, time.June, 1): {{Name: "x"}}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the save")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	s := newTestStorage(t)

	changed := make(chan struct{}, 4)
	w, err := NewWatcher(s.Path(), func() {
		changed <- struct{}{}
	})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	other := filepath.Join(filepath.Dir(s.Path()), "notes.txt")
	if err := os.WriteFile(other, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
		t.Fatal("watcher fired for an unrelated file")
	case <-time.After(3 * DebounceInterval):
	}
}

func TestWatcher_CloseTwice(t *testing.T) {
	s := newTestStorage(t)
	w, err := NewWatcher(s.Path(), nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
