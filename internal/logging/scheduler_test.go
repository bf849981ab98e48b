package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestCleanupScheduler_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	scheduler := NewCleanupScheduler(NewCleaner(t.TempDir(), 30), time.Hour, zaptest.NewLogger(t))
	scheduler.Start()
	scheduler.Stop()

	// Stop is idempotent.
	scheduler.Stop()
}

func TestCleanupScheduler_InitialRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	baseDir := t.TempDir()
	oldFile := filepath.Join(baseDir, "github", "owner", "repo", "old.json")
	writeAged(t, oldFile, 60*day)

	scheduler := NewCleanupScheduler(NewCleaner(baseDir, 30), time.Hour, zaptest.NewLogger(t))
	scheduler.Start()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(oldFile); os.IsNotExist(err) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("old report was not removed by the initial cleanup")
		}
		time.Sleep(5 * time.Millisecond)
	}

	scheduler.Stop()
}

func TestCleanupScheduler_Ticks(t *testing.T) {
	defer goleak.VerifyNone(t)

	baseDir := t.TempDir()
	scheduler := NewCleanupScheduler(NewCleaner(baseDir, 30), 10*time.Millisecond, nil)
	scheduler.Start()
	defer scheduler.Stop()

	// Created after the initial run; only a tick can remove it.
	time.Sleep(20 * time.Millisecond)
	oldFile := filepath.Join(baseDir, "github", "o", "r", "late.json")
	writeAged(t, oldFile, 60*day)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(oldFile); os.IsNotExist(err) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("old report was not removed on a later tick")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
