package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/harrier/pkg/utils/logging"
)

func TestNew(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("info", logging.FormatConsole, buf)
	gt.V(t, logger).NotNil()

	logger.Info("test message")
	gt.S(t, buf.String()).Contains("test message")
}

func TestLevels(t *testing.T) {
	testCases := []struct {
		level       string
		expectDebug bool
		expectInfo  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
		{"error", false, false},
		{"DEBUG", true, true},
		{"invalid", false, true},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := logging.New(tc.level, logging.FormatConsole, buf)

			logger.Debug("debug message")
			logger.Info("info message")
			logger.Error("error message")

			output := buf.String()
			gt.V(t, tc.expectDebug).Equal(bytes.Contains(buf.Bytes(), []byte("debug message")))
			gt.V(t, tc.expectInfo).Equal(bytes.Contains(buf.Bytes(), []byte("info message")))
			gt.S(t, output).Contains("error message")
		})
	}
}

func TestJSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("info", logging.FormatJSON, buf)

	logger.Info("structured entry", "ticket_id", "TICKET-0001")

	var record map[string]any
	gt.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	gt.V(t, record["msg"]).Equal("structured entry")
	gt.V(t, record["ticket_id"]).Equal("TICKET-0001")
}

func TestWithAndFrom(t *testing.T) {
	ctx := context.Background()
	buf := &bytes.Buffer{}
	logger := logging.New("debug", logging.FormatConsole, buf)

	ctx = logging.With(ctx, logger)

	retrieved := logging.From(ctx)
	gt.Equal(t, retrieved, logger)

	retrieved.Info("context message")
	gt.S(t, buf.String()).Contains("context message")
}

func TestFromWithoutLogger(t *testing.T) {
	logger := logging.From(context.Background())
	gt.V(t, logger).NotNil()
}

func TestSetDefault(t *testing.T) {
	original := logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	custom := logging.New("warn", logging.FormatConsole, buf)
	logging.SetDefault(custom)

	// From falls back to the new default when the context has no logger.
	retrieved := logging.From(context.Background())
	gt.Equal(t, retrieved, custom)

	retrieved.Warn("warning from default")
	gt.S(t, buf.String()).Contains("warning from default")
}
