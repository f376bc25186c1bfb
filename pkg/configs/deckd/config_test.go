package deckd_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opst/pipedeck/pkg/configs/deckd"
	"github.com/opst/pipedeck/pkg/utils/try"
)

func TestUnmarshal(t *testing.T) {
	t.Run("it reads all fields", func(t *testing.T) {
		conf := try.To(deckd.Unmarshal([]byte(`
port: 9090
orchestratorApiRoot: https://orchestrator.example.com/api
orchestratorCa: Q0EK
dbUri: postgres://deck@db/deck
logLevel: debug
pollInterval: 500ms
taskTimeout: 1h
`))).OrFatal(t)

		expected := deckd.Config{
			Port:                9090,
			OrchestratorApiRoot: "https://orchestrator.example.com/api",
			OrchestratorCA:      "Q0EK",
			DbUri:               "postgres://deck@db/deck",
			LogLevel:            "debug",
			PollInterval:        500 * time.Millisecond,
			TaskTimeout:         time.Hour,
		}
		if *conf != expected {
			t.Errorf("unexpected config: (actual, expected) = (%+v, %+v)", *conf, expected)
		}
	})

	t.Run("it fills defaults", func(t *testing.T) {
		conf := try.To(deckd.Unmarshal([]byte(`orchestratorApiRoot: http://orchestrator`))).OrFatal(t)
		if conf.Port != deckd.DefaultPort || conf.LogLevel != deckd.DefaultLogLevel ||
			conf.PollInterval != deckd.DefaultPollInterval || conf.TaskTimeout != deckd.DefaultTaskTimeout {
			t.Errorf("defaults are not filled: %+v", conf)
		}
	})

	t.Run("broken yaml is invalid", func(t *testing.T) {
		if _, err := deckd.Unmarshal([]byte(`port: [`)); !errors.Is(err, deckd.ErrInvalidConfig) {
			t.Errorf("unexpected error: %+v", err)
		}
	})
}

func TestLoad(t *testing.T) {
	writeConfig := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "deckd.yaml")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("environment variables override the file", func(t *testing.T) {
		path := writeConfig(t, `
port: 9090
orchestratorApiRoot: https://orchestrator.example.com/api
logLevel: info
`)
		t.Setenv("DECKD_PORT", "7070")
		t.Setenv("DECKD_DB_URI", "postgres://deck@db/deck")
		t.Setenv("DECKD_LOG_LEVEL", "error")

		conf := try.To(deckd.Load(path)).OrFatal(t)
		if conf.Port != 7070 || conf.DbUri != "postgres://deck@db/deck" || conf.LogLevel != "error" {
			t.Errorf("not overridden: %+v", conf)
		}
		if conf.OrchestratorApiRoot != "https://orchestrator.example.com/api" {
			t.Errorf("not kept: %+v", conf)
		}
	})

	t.Run("config without orchestrator is invalid", func(t *testing.T) {
		path := writeConfig(t, `port: 9090`)
		t.Setenv("DECKD_ORCHESTRATOR_API_ROOT", "")
		if _, err := deckd.Load(path); !errors.Is(err, deckd.ErrInvalidConfig) {
			t.Errorf("unexpected error: %+v", err)
		}
	})

	t.Run("environment variable can fill orchestrator", func(t *testing.T) {
		path := writeConfig(t, `port: 9090`)
		t.Setenv("DECKD_ORCHESTRATOR_API_ROOT", "http://orchestrator:8084")
		conf := try.To(deckd.Load(path)).OrFatal(t)
		if conf.OrchestratorApiRoot != "http://orchestrator:8084" {
			t.Errorf("unexpected config: %+v", conf)
		}
	})
}
