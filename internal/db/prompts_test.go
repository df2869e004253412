package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompts.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestReadPromptCSV(t *testing.T) {
	path := writeCSV(t, "prompt\nCat wearing a hat\n  Flying book  \n\nSad rain cloud\n")

	prompts, err := readPromptCSV(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []string{"Cat wearing a hat", "Flying book", "Sad rain cloud"}
	if len(prompts) != len(want) {
		t.Fatalf("read %d prompts, want %d", len(prompts), len(want))
	}
	for i, text := range want {
		if prompts[i] != text {
			t.Errorf("prompt %d = %q, want %q", i, prompts[i], text)
		}
	}
}

func TestReadPromptCSVMissingFile(t *testing.T) {
	if _, err := readPromptCSV(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNilConnectionIsSafe(t *testing.T) {
	if record, err := GetOrCreatePlayer(nil, "p1", "Player", 100); record != nil || err != nil {
		t.Fatalf("GetOrCreatePlayer(nil) = %v, %v", record, err)
	}
	if err := UpdatePlayerBalance(nil, "p1", 50); err != nil {
		t.Fatalf("UpdatePlayerBalance(nil) = %v", err)
	}
	if err := RecordGameCompletion(nil, GameOutcome{}); err != nil {
		t.Fatalf("RecordGameCompletion(nil) = %v", err)
	}
	if entries, err := Leaderboard(nil, 10); entries != nil || err != nil {
		t.Fatalf("Leaderboard(nil) = %v, %v", entries, err)
	}
	if record, err := GetPlayerStats(nil, "p1"); record != nil || err != nil {
		t.Fatalf("GetPlayerStats(nil) = %v, %v", record, err)
	}
	if prompts, err := AllPrompts(nil); prompts != nil || err != nil {
		t.Fatalf("AllPrompts(nil) = %v, %v", prompts, err)
	}
}
