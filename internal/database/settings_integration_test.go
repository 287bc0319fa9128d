package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestGetSettingFallbackChain(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	// Stored value wins over everything
	if err := db.SetSetting(ctx, "watermark_text", "stored"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if got := db.GetSetting(ctx, "watermark_text", "caller"); got != "stored" {
		t.Errorf("Expected stored value, got %v", got)
	}

	// Absent row with a caller fallback returns the fallback
	if got := db.GetSetting(ctx, "no_such_key", "caller"); got != "caller" {
		t.Errorf("Expected caller fallback, got %v", got)
	}

	// Absent row, nil fallback, known key returns the compiled default
	if _, err := db.db.ExecContext(ctx, "DELETE FROM settings WHERE key = 'watermark_position'"); err != nil {
		t.Fatalf("Failed to delete row: %v", err)
	}
	if got := db.GetSetting(ctx, "watermark_position", nil); got != "top-right" {
		t.Errorf("Expected compiled default, got %v", got)
	}

	// Absent row, nil fallback, unknown key returns nil
	if got := db.GetSetting(ctx, "no_such_key", nil); got != nil {
		t.Errorf("Expected nil for unknown key without fallback, got %v", got)
	}
}

func TestSetAndGetSettingRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	// Numbers come back as float64, lists as []interface{}
	tests := []struct {
		key   string
		value interface{}
		want  interface{}
	}{
		{"watermark_text", "Hello Kiosk", "Hello Kiosk"},
		{"watermark_enabled", true, true},
		{"slideshow_duration_seconds", 25, float64(25)},
	}

	for _, tt := range tests {
		if err := db.SetSetting(ctx, tt.key, tt.value); err != nil {
			t.Fatalf("SetSetting(%s) failed: %v", tt.key, err)
		}
		if got := db.GetSetting(ctx, tt.key, nil); got != tt.want {
			t.Errorf("GetSetting(%s) = %v (%T), want %v (%T)", tt.key, got, got, tt.want, tt.want)
		}
	}

	if err := db.SetSetting(ctx, "burn_in_prevention_elements", []string{"watermark", "overlay"}); err != nil {
		t.Fatalf("SetSetting(list) failed: %v", err)
	}
	got, ok := db.GetSetting(ctx, "burn_in_prevention_elements", nil).([]interface{})
	if !ok {
		t.Fatal("Expected list value to decode as []interface{}")
	}
	if len(got) != 2 || got[0] != "watermark" || got[1] != "overlay" {
		t.Errorf("List round trip mismatch: %v", got)
	}
}

func TestGetSettingCorruptJSON(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	// Corrupt the stored value behind the store's back
	_, err := db.db.ExecContext(ctx,
		"UPDATE settings SET value = '{not json' WHERE key = 'watermark_text'")
	if err != nil {
		t.Fatalf("Failed to corrupt row: %v", err)
	}

	// Readers degrade to the fallback chain
	if got := db.GetSetting(ctx, "watermark_text", "fb"); got != "fb" {
		t.Errorf("Expected fallback for corrupt row, got %v", got)
	}
	if got := db.GetSetting(ctx, "watermark_text", nil); got != "ShowGo Slideshow" {
		t.Errorf("Expected compiled default for corrupt row, got %v", got)
	}

	// The row must stay in place for inspection
	var count int
	err = db.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM settings WHERE key = 'watermark_text'").Scan(&count)
	if err != nil {
		t.Fatalf("Count query failed: %v", err)
	}
	if count != 1 {
		t.Error("Corrupt row was removed by a read")
	}
}

func TestGetSettingUnreadableStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)

	ctx := context.Background()

	// A closed handle must degrade, never panic or error
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if got := db.GetSetting(ctx, "watermark_text", "fb"); got != "fb" {
		t.Errorf("Expected fallback from unreadable store, got %v", got)
	}
	if got := db.GetSetting(ctx, "slideshow_image_order", nil); got != "random" {
		t.Errorf("Expected compiled default from unreadable store, got %v", got)
	}
}

func TestLoadSettings(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	if err := db.SetSetting(ctx, "overlay_text", "Lobby"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}

	settings := db.LoadSettings(ctx)
	if settings == nil {
		t.Fatal("LoadSettings returned nil")
	}

	// Stored rows overlay defaults
	if settings["overlay_text"] != "Lobby" {
		t.Errorf("Expected stored overlay_text, got %v", settings["overlay_text"])
	}

	// Every compiled default key must be present
	for key := range defaultSettings {
		if _, ok := settings[key]; !ok {
			t.Errorf("Missing key %q in loaded settings", key)
		}
	}
}

func TestLoadSettingsSkipsCorruptRows(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	_, err := db.db.ExecContext(ctx,
		"UPDATE settings SET value = 'nonsense' WHERE key = 'overlay_padding'")
	if err != nil {
		t.Fatalf("Failed to corrupt row: %v", err)
	}

	settings := db.LoadSettings(ctx)

	// The corrupt row is skipped, so the compiled default shows through
	if settings["overlay_padding"] != "10px" {
		t.Errorf("Expected compiled default for corrupt row, got %v", settings["overlay_padding"])
	}
}

func TestLoadSettingsUnreadableStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)

	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	settings := db.LoadSettings(context.Background())
	if settings == nil {
		t.Fatal("LoadSettings returned nil for unreadable store")
	}
	if len(settings) != len(defaultSettings) {
		t.Errorf("Expected pure defaults (%d keys), got %d keys", len(defaultSettings), len(settings))
	}
}

func TestListSettings(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	// A fresh store holds exactly the seeded defaults, ordered by key
	rows, err := db.ListSettings(ctx)
	if err != nil {
		t.Fatalf("ListSettings failed: %v", err)
	}
	if len(rows) != len(defaultSettings) {
		t.Errorf("Expected %d seeded rows, got %d", len(defaultSettings), len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].Key >= rows[i].Key {
			t.Errorf("Rows out of order: %q before %q", rows[i-1].Key, rows[i].Key)
		}
	}

	// Values arrive still JSON-encoded
	if err := db.SetSetting(ctx, "watermark_text", "Lobby"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	rows, err = db.ListSettings(ctx)
	if err != nil {
		t.Fatalf("ListSettings failed: %v", err)
	}
	found := false
	for _, row := range rows {
		if row.Key != "watermark_text" {
			continue
		}
		found = true
		if row.Value != `"Lobby"` {
			t.Errorf("Expected raw JSON value %q, got %q", `"Lobby"`, row.Value)
		}
		if row.LastUpdated.IsZero() {
			t.Error("LastUpdated not populated")
		}
	}
	if !found {
		t.Error("watermark_text row missing from listing")
	}
}

func TestListSettingsUnreadableStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)

	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := db.ListSettings(context.Background()); !errors.Is(err, ErrPersistence) {
		t.Errorf("Expected ErrPersistence from unreadable store, got %v", err)
	}
}

func TestSettingLastUpdated(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	if _, err := db.SettingLastUpdated(ctx, "no_such_key"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for absent key, got %v", err)
	}

	if err := db.SetSetting(ctx, "watermark_text", "first"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	first, err := db.SettingLastUpdated(ctx, "watermark_text")
	if err != nil {
		t.Fatalf("SettingLastUpdated failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if err := db.SetSetting(ctx, "watermark_text", "second"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	second, err := db.SettingLastUpdated(ctx, "watermark_text")
	if err != nil {
		t.Fatalf("SettingLastUpdated failed: %v", err)
	}

	if !second.After(first) {
		t.Errorf("Expected last_updated to advance: first=%v second=%v", first, second)
	}
}

func TestSettingsConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	// Hammer reads and writes from several goroutines
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			value := fmt.Sprintf("writer-%d", id)
			_ = db.SetSetting(ctx, "watermark_text", value)
			_ = db.GetSetting(ctx, "watermark_text", nil)
			_ = db.LoadSettings(ctx)
		}(i)
	}
	wg.Wait()

	// One of the writers must have won
	got, ok := db.GetSetting(ctx, "watermark_text", nil).(string)
	if !ok || len(got) < len("writer-0") {
		t.Errorf("Expected a writer value, got %v", got)
	}
}
