package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.ImportBatchSize != 5 {
		t.Errorf("ImportBatchSize = %d, want 5", cfg.ImportBatchSize)
	}
	if cfg.ImportBatchDelay != time.Minute {
		t.Errorf("ImportBatchDelay = %v, want 1m", cfg.ImportBatchDelay)
	}
	if cfg.ImportMaxAttempts != 5 {
		t.Errorf("ImportMaxAttempts = %d, want 5", cfg.ImportMaxAttempts)
	}
	if cfg.ImportBaseDelay != time.Second {
		t.Errorf("ImportBaseDelay = %v, want 1s", cfg.ImportBaseDelay)
	}
	if cfg.ImportAutoArchive {
		t.Error("ImportAutoArchive should default to false")
	}
	if cfg.MinutesSavedPerMail != 2 {
		t.Errorf("MinutesSavedPerMail = %d, want 2", cfg.MinutesSavedPerMail)
	}
}

func TestLoadOverrides(t *testing.T) {
	os.Clearenv()
	os.Setenv("IMPORT_BATCH_SIZE", "10")
	os.Setenv("IMPORT_BATCH_DELAY", "30s")
	os.Setenv("IMPORT_AUTO_ARCHIVE", "true")
	defer os.Clearenv()

	cfg := Load()
	if cfg.ImportBatchSize != 10 {
		t.Errorf("ImportBatchSize = %d, want 10", cfg.ImportBatchSize)
	}
	if cfg.ImportBatchDelay != 30*time.Second {
		t.Errorf("ImportBatchDelay = %v, want 30s", cfg.ImportBatchDelay)
	}
	if !cfg.ImportAutoArchive {
		t.Error("ImportAutoArchive should be true")
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	os.Clearenv()
	os.Setenv("IMPORT_BATCH_SIZE", "lots")
	os.Setenv("IMPORT_BATCH_DELAY", "soon")
	defer os.Clearenv()

	cfg := Load()
	if cfg.ImportBatchSize != 5 {
		t.Errorf("ImportBatchSize = %d, want default 5 on malformed value", cfg.ImportBatchSize)
	}
	if cfg.ImportBatchDelay != time.Minute {
		t.Errorf("ImportBatchDelay = %v, want default 1m on malformed value", cfg.ImportBatchDelay)
	}
}
