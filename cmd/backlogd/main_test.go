package main

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/backlog/internal/config"
)

func TestNewLogger(t *testing.T) {
	log, err := newLogger(&config.Config{LogLevel: "warn", LogFormat: "json"})
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}

	if log.GetLevel() != logrus.WarnLevel {
		t.Errorf("level = %s, want warn", log.GetLevel())
	}

	if _, ok := log.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("formatter = %T, want JSON", log.Formatter)
	}
}

func TestNewLogger_BadLevel(t *testing.T) {
	if _, err := newLogger(&config.Config{LogLevel: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
