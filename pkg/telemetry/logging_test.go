package telemetry

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	qerrors "github.com/pcanals/quorum/pkg/errors"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"Warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLogLevel(input); got != want {
			t.Fatalf("%q: expected %v, got %v", input, want, got)
		}
	}
}

func TestConfigureSlogJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "info", "json")
	logger.InfoContext(context.Background(), "hello", slog.String("key", "value"))

	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) || !strings.Contains(out, `"key":"value"`) {
		t.Fatalf("unexpected json log output: %s", out)
	}
}

func TestErrAttrExposesErrorCode(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "info", "json")

	logger.Warn("typed", Err(qerrors.New(qerrors.CodeTaskNotFound, "gone", nil)))
	logger.Warn("plain", Err(fmt.Errorf("boom")))

	out := buf.String()
	if !strings.Contains(out, `"code":"TASK_NOT_FOUND"`) {
		t.Fatalf("typed error code missing: %s", out)
	}
	if !strings.Contains(out, `"error":"boom"`) {
		t.Fatalf("plain error missing: %s", out)
	}
}

func TestTraceHandlerWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "debug", "text")
	logger.DebugContext(context.Background(), "no span here")

	out := buf.String()
	if strings.Contains(out, "trace_id") {
		t.Fatalf("trace attributes should be absent without a span: %s", out)
	}
}
