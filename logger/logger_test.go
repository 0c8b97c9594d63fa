package logger

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansi.ReplaceAllString(s, "")
}

func TestInitialize(t *testing.T) {
	for _, jsonOutput := range []bool{true, false} {
		Logger = nil
		require.NoError(t, Initialize(jsonOutput))
		assert.NotNil(t, Logger)
		assert.Equal(t, jsonOutput, JSONOutput)
	}
	Logger = zap.NewNop().Sugar()
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(0))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(1))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(2))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(9))
}

func TestShouldOutput(t *testing.T) {
	assert.True(t, ShouldOutput(VerbosityUser, OutputResults))
	assert.False(t, ShouldOutput(VerbosityUser, OutputTiming))
	assert.True(t, ShouldOutput(VerbosityDebug, OutputTiming))
	assert.False(t, ShouldOutput(VerbosityTrace, OutputFrameDump))
	assert.True(t, ShouldOutput(VerbosityAll, OutputFrameDump))
	assert.Equal(t, "websocket", CategoryName(OutputWebsocket))
}

func TestMinimalEncoderKeepsEveryField(t *testing.T) {
	enc := newMinimalEncoder()
	ent := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Date(2024, 1, 1, 13, 4, 35, 0, time.UTC),
		LoggerName: "viz.control",
		Message:    "Graph loaded",
	}
	fields := []zapcore.Field{
		zap.String(FieldGraphID, "g-42"),
		zap.Int(FieldNodes, 19),
		zap.Int(FieldEdges, 31),
		zap.String(FieldMode, "force"),
		zap.Float64("zoom", 1.5),
		zap.String("random_field_xyz", "important"),
	}

	buf, err := enc.EncodeEntry(ent, fields)
	require.NoError(t, err)
	out := stripANSI(buf.String())

	assert.Contains(t, out, "13:04:35")
	assert.Contains(t, out, "v.control")
	assert.Contains(t, out, "Graph loaded")
	assert.Contains(t, out, "g-42")
	assert.Contains(t, out, "(19 nodes, 31 edges)")
	assert.Contains(t, out, "mode=force")
	assert.Contains(t, out, "zoom=1.5")
	assert.Contains(t, out, "random_field_xyz=important")
}

func TestMinimalEncoderCarriesWithFields(t *testing.T) {
	enc := newMinimalEncoder()
	enc.AddString(FieldClientID, "c-1")
	clone := enc.Clone()

	buf, err := clone.EncodeEntry(zapcore.Entry{Level: zapcore.WarnLevel, Time: time.Now(), Message: "slow"}, nil)
	require.NoError(t, err)
	out := stripANSI(buf.String())
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "c-1")
}

func TestAbbreviateName(t *testing.T) {
	assert.Equal(t, "server", abbreviateName("server"))
	assert.Equal(t, "v.control", abbreviateName("viz.control"))
	assert.Equal(t, "s.remote.breaker", abbreviateName("source.remote.breaker"))
}

func TestFieldsFromContext(t *testing.T) {
	assert.Empty(t, FieldsFromContext(context.Background()))

	ctx := WithClientID(WithRequestID(context.Background(), "req-1"), "client-7")
	assert.Equal(t, []interface{}{FieldRequestID, "req-1", FieldClientID, "client-7"}, FieldsFromContext(ctx))

	// Empty ids are left out
	assert.Empty(t, FieldsFromContext(WithRequestID(context.Background(), "")))
}
