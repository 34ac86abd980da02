package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fpang/tubescript-ai/internal/chat"
	"github.com/fpang/tubescript-ai/internal/source"
	"github.com/fpang/tubescript-ai/internal/storyboard"
	"github.com/fpang/tubescript-ai/internal/workflow"
)

func sampleSnapshot(id string) *Snapshot {
	s := workflow.NewState()
	s.Stage = workflow.StageStoryboardView
	s.RawInput = "[2 files analyzed]"
	s.StructureSummary = "hook, list, twist"
	s.Topics = []chat.SuggestedTopic{{Title: "A", Rationale: "because"}}
	s.SelectedTopic = &s.Topics[0]
	s.GeneratedScript = "## Script"
	settings := storyboard.DefaultSettings()
	s.StoryboardSettings = &settings
	s.StoryboardScenes = []storyboard.Scene{{SceneNumber: 1, Description: "d", VisualPrompt: "p", ImageURL: "https://x/1.png"}}
	s.Batch = 3
	return &Snapshot{
		ID:        id,
		State:     s,
		Files:     []source.File{{Name: "a.txt", Text: "first"}, {Name: "b.txt", Text: "second"}},
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func checkSnapshot(t *testing.T, got, want *Snapshot) {
	t.Helper()
	if got == nil {
		t.Fatal("expected snapshot, got nil")
	}
	if got.ID != want.ID || got.State.Stage != want.State.Stage || got.State.Batch != want.State.Batch {
		t.Errorf("got %+v", got)
	}
	if got.State.SelectedTopic == nil || got.State.SelectedTopic.Title != "A" {
		t.Errorf("selected topic lost: %+v", got.State.SelectedTopic)
	}
	if got.State.StoryboardSettings == nil || *got.State.StoryboardSettings != *want.State.StoryboardSettings {
		t.Errorf("settings lost: %+v", got.State.StoryboardSettings)
	}
	if len(got.State.StoryboardScenes) != 1 || got.State.StoryboardScenes[0].ImageURL != "https://x/1.png" {
		t.Errorf("scenes lost: %+v", got.State.StoryboardScenes)
	}
	if len(got.Files) != 2 || got.Files[1].Text != "second" {
		t.Errorf("files lost: %+v", got.Files)
	}
	if !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("updatedAt = %v", got.UpdatedAt)
	}
}

func TestValidateID(t *testing.T) {
	for _, id := range []string{"abc", "A-1_b", "0f8fad5b-d9cb-469f-a165-70867728950e"} {
		if err := ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q) = %v", id, err)
		}
	}
	for _, id := range []string{"", "../etc", "a/b", "has space", string(make([]byte, 65))} {
		if err := ValidateID(id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("ValidateID(%q) should fail", id)
		}
	}
}

func TestCodecCompresses(t *testing.T) {
	snap := sampleSnapshot("s1")
	snap.State.GeneratedScript = string(make([]byte, 10000))
	data, err := encode(snap)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) > 2000 {
		t.Errorf("expected compressed payload, got %d bytes", len(data))
	}
	got, err := decode(data)
	if err != nil {
		t.Fatal(err)
	}
	checkSnapshot(t, got, snap)

	if _, err := decode([]byte("not zstd")); err == nil {
		t.Error("expected error for garbage payload")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	got, err := s.Get(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("missing: %v, %v", got, err)
	}
	want := sampleSnapshot("s1")
	if err := s.Put(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, err = s.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	checkSnapshot(t, got, want)

	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Get(ctx, "s1"); got != nil {
		t.Error("expected nil after delete")
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "sessions")
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	want := sampleSnapshot("s1")
	if err := s.Put(ctx, want); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(filepath.Join(dir, "s1.json.zst"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0077 != 0 {
		t.Errorf("snapshot mode = %v, want owner-only", info.Mode().Perm())
	}

	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	checkSnapshot(t, got, want)

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}

	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "s1"); err != nil {
		t.Errorf("second delete: %v", err)
	}
	if got, err := s.Get(ctx, "s1"); got != nil || err != nil {
		t.Errorf("after delete: %v, %v", got, err)
	}
}

func TestFileStore_Expired(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, sampleSnapshot("old")); err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return time.Now().Add(SessionTTL + time.Hour) }

	got, err := s.Get(ctx, "old")
	if err != nil || got != nil {
		t.Fatalf("expired snapshot returned: %v, %v", got, err)
	}
	if _, err := os.Stat(s.path("old")); !os.IsNotExist(err) {
		t.Error("expired snapshot should be removed")
	}
}

func TestFileStore_RejectsTraversal(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(context.Background(), "../secrets"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
	if err := s.Put(context.Background(), sampleSnapshot("../x")); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}
