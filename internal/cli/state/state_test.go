package state

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	st, err := Load(path)
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if !st.Empty() {
		t.Fatalf("missing file should load an empty state")
	}

	want := SessionState{
		BaseURL:  "http://127.0.0.1:8080",
		Contest:  "finals",
		Token:    "tok",
		OpenedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.BaseURL != want.BaseURL || got.Contest != want.Contest || got.Token != want.Token || !got.OpenedAt.Equal(want.OpenedAt) {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	if err := Clear(path); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := Clear(path); err != nil {
		t.Fatalf("clear twice: %v", err)
	}
	if st, _ := Load(path); !st.Empty() {
		t.Fatalf("cleared state should be empty")
	}
}
