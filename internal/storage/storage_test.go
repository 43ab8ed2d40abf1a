package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorage(t *testing.T) {
	t.Run("DefaultPreferences", func(t *testing.T) {
		prefs := DefaultPreferences()
		if prefs.Username != "Player" {
			t.Errorf("Expected username 'Player', got '%s'", prefs.Username)
		}
		if prefs.Difficulty != "Medium" {
			t.Errorf("Expected medium difficulty, got %q", prefs.Difficulty)
		}
	})

	t.Run("NewGameStats", func(t *testing.T) {
		stats := NewGameStats()
		if stats.GamesPlayed != 0 {
			t.Errorf("Expected 0 games played")
		}
		if stats.GetWinRate() != 0 {
			t.Errorf("Expected 0 win rate")
		}
	})

	t.Run("WinRate", func(t *testing.T) {
		stats := &GameStats{
			GamesPlayed: 10,
			Wins:        5,
			Losses:      3,
			Draws:       2,
		}
		rate := stats.GetWinRate()
		if rate != 50 {
			t.Errorf("Expected 50%% win rate, got %.2f%%", rate)
		}
	})
}

func TestPreferencesRoundTrip(t *testing.T) {
	s := openTest(t)

	prefs, err := s.LoadPreferences()
	if err != nil {
		t.Fatal(err)
	}
	if prefs.Username != "Player" {
		t.Errorf("missing preferences should load defaults, got %+v", prefs)
	}

	prefs.Username = "alice"
	prefs.Difficulty = "Expert"
	if err := s.SavePreferences(prefs); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadPreferences()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(prefs, got, cmpopts.IgnoreFields(UserPreferences{}, "LastPlayed")); diff != "" {
		t.Errorf("preferences (-want +got):\n%s", diff)
	}
}

func TestFirstLaunch(t *testing.T) {
	s := openTest(t)

	first, err := s.IsFirstLaunch()
	if err != nil || !first {
		t.Fatalf("IsFirstLaunch = %v, %v; want true", first, err)
	}
	if err := s.MarkFirstLaunchComplete(); err != nil {
		t.Fatal(err)
	}
	if first, _ := s.IsFirstLaunch(); first {
		t.Error("IsFirstLaunch still true after MarkFirstLaunchComplete")
	}
}

func TestRecordGame(t *testing.T) {
	s := openTest(t)

	results := []GameResult{
		{Won: true, Difficulty: "Easy"},
		{Won: true, Difficulty: "Hard"},
		{Draw: true, Difficulty: "Hard"},
		{Difficulty: "Expert"},
		{Won: true, Difficulty: "Hard"},
	}
	for _, r := range results {
		if err := s.RecordGame(r); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	want := &GameStats{
		GamesPlayed:    5,
		Wins:           3,
		Losses:         1,
		Draws:          1,
		WinsByDiff:     map[string]int{"easy": 1, "hard": 2},
		LongestWinStrk: 2,
		CurrentStreak:  1,
	}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats (-want +got):\n%s", diff)
	}
	if stats.GetWinRate() != 60 {
		t.Errorf("win rate = %.1f, want 60", stats.GetWinRate())
	}
}

func TestSavedGames(t *testing.T) {
	s := openTest(t)

	if _, err := s.LoadGame("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadGame(missing) error = %v, want ErrNotFound", err)
	}

	games := []SavedGame{
		{ID: "b", StartFEN: "8/8/8/4k3/8/8/8/3RK3 w - - 0 1", Moves: []string{"d1d2"}, Difficulty: "Easy"},
		{ID: "a", Moves: []string{"e2e4", "e7e5"}, Difficulty: "Medium"},
	}
	for _, g := range games {
		if err := s.SaveGame(g); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.LoadGame("b")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&games[0], got, cmpopts.IgnoreFields(SavedGame{}, "SavedAt")); diff != "" {
		t.Errorf("LoadGame(b) (-want +got):\n%s", diff)
	}

	ids, err := s.ListGames()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, ids); diff != "" {
		t.Errorf("ListGames (-want +got):\n%s", diff)
	}

	if err := s.DeleteGame("a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadGame("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted game still loads: %v", err)
	}

	if err := s.SaveGame(SavedGame{}); err == nil {
		t.Error("SaveGame without ID should fail")
	}
}

func TestOpenOnDisk(t *testing.T) {
	dir := t.TempDir()
	dbDir, err := GetDatabaseDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if dbDir != filepath.Join(dir, "db") {
		t.Errorf("GetDatabaseDir = %s", dbDir)
	}

	s, err := Open(dbDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveGame(SavedGame{ID: "persisted", Moves: []string{"g1f3"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(dbDir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.LoadGame("persisted"); err != nil {
		t.Errorf("game not persisted: %v", err)
	}
}

func TestDataPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Error("GetDataDir returned empty path")
	}

	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}

	t.Logf("Data directory: %s", dataDir)
}
