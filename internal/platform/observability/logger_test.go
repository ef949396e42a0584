package observability

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestEncoderRendersReadableFields(t *testing.T) {
	enc := zapcore.NewJSONEncoder(encoderConfig())
	entry := zapcore.Entry{
		Level:   zapcore.InfoLevel,
		Time:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Message: "request handled",
	}
	buf, err := enc.EncodeEntry(entry, []zapcore.Field{
		zap.Duration("duration", 1500*time.Millisecond),
	})
	if err != nil {
		t.Fatalf("encode entry: %v", err)
	}
	line := buf.String()

	if !strings.Contains(line, `"duration":"1.5s"`) {
		t.Fatalf("expected human-readable duration, got %s", line)
	}
	if !strings.Contains(line, `"severity":"INFO"`) {
		t.Fatalf("expected upper-cased severity, got %s", line)
	}
	if !strings.Contains(line, `"message":"request handled"`) {
		t.Fatalf("expected message key, got %s", line)
	}
}
