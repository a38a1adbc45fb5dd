package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"bogus", logrus.InfoLevel},
	}
	for _, tt := range tests {
		log := NewLogger(tt.level, "development")
		if log.GetLevel() != tt.want {
			t.Errorf("NewLogger(%q) level = %v, want %v", tt.level, log.GetLevel(), tt.want)
		}
	}
}

func TestNewLoggerProductionFormatter(t *testing.T) {
	log := NewLogger("info", "production")
	if _, ok := log.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("production formatter = %T, want JSONFormatter", log.Formatter)
	}

	log = NewLogger("info", "development")
	if _, ok := log.Formatter.(*logrus.TextFormatter); !ok {
		t.Errorf("development formatter = %T, want TextFormatter", log.Formatter)
	}
}
