package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

func newTestManager() (*SlogManager, *bytes.Buffer) {
	var stdout bytes.Buffer
	m := NewSlogManager()
	m.stdout = &stdout
	return m, &stdout
}

func TestSetup_FileOnly_NoStdout(t *testing.T) {
	m, stdout := newTestManager()

	var fileBuf bytes.Buffer
	m.Setup(Options{File: &fileBuf, Level: "info"})
	m.Logger().Info("hello file")

	assert.Contains(t, fileBuf.String(), "hello file")
	assert.Empty(t, stdout.String(), "nothing should be written to stdout when a file is provided")
}

func TestSetup_NoFile_WritesToStdout(t *testing.T) {
	m, stdout := newTestManager()

	m.Setup(Options{Level: "info"})
	m.Logger().Info("hello console")

	assert.Contains(t, stdout.String(), "hello console")
}

func TestSetup_FileAndConsole(t *testing.T) {
	m, stdout := newTestManager()

	var fileBuf bytes.Buffer
	m.Setup(Options{File: &fileBuf, Console: true, Level: "info"})
	m.Logger().Info("both")

	assert.Contains(t, fileBuf.String(), "both")
	assert.Contains(t, stdout.String(), "both")
}

func TestSetup_Levels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			m, _ := newTestManager()
			var buf bytes.Buffer
			m.Setup(Options{File: &buf, Level: tt.level})
			m.Logger().Debug("debug msg")
			m.Logger().Info("info msg")

			assert.Equal(t, tt.wantDebug, strings.Contains(buf.String(), "debug msg"))
			assert.Equal(t, tt.wantInfo, strings.Contains(buf.String(), "info msg"))
		})
	}
}

func TestSetup_RFC3339Time(t *testing.T) {
	m, _ := newTestManager()
	var buf bytes.Buffer
	m.Setup(Options{File: &buf, Level: "info"})

	// time=2024-01-01T00:00:00Z
	line := strings.SplitN(buf.String(), "\n", 2)[0]
	require.True(t, strings.HasPrefix(line, "time="))
	assert.True(t, strings.HasSuffix(strings.Fields(line)[0], "Z"))
}

func TestSetup_ContextProvider(t *testing.T) {
	m, _ := newTestManager()
	live := 0

	var buf bytes.Buffer
	m.Setup(Options{File: &buf, Level: "info", Context: CountContext("markers", func() int { return live })})

	live = 3
	m.Logger().Info("spawned")
	assert.Contains(t, buf.String(), "markers=3")
}

func TestSetup_Graylog(t *testing.T) {
	m, _ := newTestManager()
	var file, gelf bytes.Buffer
	m.Setup(Options{File: &file, Graylog: &gelf, Level: "info"})

	m.Logger().Info("to graylog", "marker", "marker0")
	assert.Contains(t, gelf.String(), `"msg":"to graylog"`)
	assert.Contains(t, gelf.String(), `"marker":"marker0"`)
}

func TestSetup_ReplacesLogger(t *testing.T) {
	m, _ := newTestManager()
	var first, second bytes.Buffer

	m.Setup(Options{File: &first, Level: "info"})
	m.Setup(Options{File: &second, Level: "info"})
	m.Logger().Info("after replace")

	assert.NotContains(t, first.String(), "after replace")
	assert.Contains(t, second.String(), "after replace")
}

func TestLogger_DefaultBeforeSetup(t *testing.T) {
	m := NewSlogManager()
	assert.Equal(t, slog.Default(), m.Logger())
}

func TestFlush_NilProvider(t *testing.T) {
	m := NewSlogManager()
	assert.NoError(t, m.Flush(context.Background()))
}

func TestFlush_WithProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	m, _ := newTestManager()

	var buf bytes.Buffer
	m.Setup(Options{File: &buf, Level: "info", Provider: provider})

	m.Logger().Info("otel integrated")
	assert.Contains(t, buf.String(), "otel integrated")
	assert.NoError(t, m.Flush(context.Background()))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"trace", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestContextHandler_JoinSkipsNil(t *testing.T) {
	var buf bytes.Buffer
	p := JoinContext(nil, CountContext("a", func() int { return 1 }), CountContext("b", func() int { return 2 }))
	logger := slog.New(NewContextHandler(slog.NewTextHandler(&buf, nil), p))

	logger.Info("joined")
	assert.Contains(t, buf.String(), "a=1 b=2")
}

func TestContextHandler_WithAttrsKeepsProvider(t *testing.T) {
	var buf bytes.Buffer
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), CountContext("markers", func() int { return 5 }))
	logger := slog.New(h).With("component", "manager").WithGroup("")

	logger.Info("hello")
	assert.Contains(t, buf.String(), "component=manager")
	assert.Contains(t, buf.String(), "markers=5")
}

func TestMultiHandler_FansOut(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h1 := slog.NewTextHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelInfo})
	h2 := slog.NewTextHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelInfo})

	multi := NewMultiHandler(h1, h2)
	logger := slog.New(multi)
	logger.Info("fanned out")

	assert.Contains(t, buf1.String(), "fanned out")
	assert.Contains(t, buf2.String(), "fanned out")
}

func TestMultiHandler_FiltersNilHandlers(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, nil)

	multi := NewMultiHandler(nil, h, nil)
	require.Len(t, multi.handlers, 1)

	logger := slog.New(multi)
	logger.Info("works")
	assert.Contains(t, buf.String(), "works")
}

func TestMultiHandler_Enabled(t *testing.T) {
	infoHandler := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugHandler := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug})

	// Multi with only info handler: debug should be disabled
	infoOnly := NewMultiHandler(infoHandler)
	assert.False(t, infoOnly.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, infoOnly.Enabled(context.Background(), slog.LevelInfo))

	// Multi with both: debug should be enabled (any handler enables it)
	both := NewMultiHandler(infoHandler, debugHandler)
	assert.True(t, both.Enabled(context.Background(), slog.LevelDebug))
}

func TestMultiHandler_Empty(t *testing.T) {
	multi := NewMultiHandler()
	assert.False(t, multi.Enabled(context.Background(), slog.LevelInfo))
}

func TestMultiHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	multi := NewMultiHandler(h)

	withAttrs := multi.WithAttrs([]slog.Attr{slog.String("component", "test")})
	logger := slog.New(withAttrs)
	logger.Info("with attrs")

	assert.Contains(t, buf.String(), "component=test")
}

func TestMultiHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	multi := NewMultiHandler(h)

	withGroup := multi.WithGroup("grp")
	logger := slog.New(withGroup)
	logger.Info("grouped", "key", "val")

	assert.Contains(t, buf.String(), "grp.key=val")
}

func TestMultiHandler_WithGroupEmpty(t *testing.T) {
	h := slog.NewTextHandler(&bytes.Buffer{}, nil)
	multi := NewMultiHandler(h)

	same := multi.WithGroup("")
	assert.Equal(t, multi, same, "empty group name should return same handler")
}

// errorHandler is a slog.Handler that always returns an error from Handle.
type errorHandler struct {
	slog.Handler
}

func (h *errorHandler) Handle(_ context.Context, _ slog.Record) error {
	return errors.New("handler error")
}

func (h *errorHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func TestMultiHandler_HandleError(t *testing.T) {
	var buf bytes.Buffer
	spy := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	// First handler errors, second (spy) should still receive the record.
	multi := NewMultiHandler(&errorHandler{}, spy)
	logger := slog.New(multi)
	logger.Info("should reach spy")

	assert.Contains(t, buf.String(), "should reach spy")
}

func TestMultiHandler_HandleJoinsErrors(t *testing.T) {
	multi := NewMultiHandler(&errorHandler{}, &errorHandler{})
	r := slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0)

	err := multi.Handle(context.Background(), r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler error")
}
