package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannel_Emit(t *testing.T) {
	var buf bytes.Buffer
	telemetry := NewTelemetry(slog.New(slog.NewJSONHandler(&buf, nil)))

	ch := telemetry.Channel("planner")
	ch.Emit(context.Background(), slog.LevelInfo, RenderSkip, slog.Int("slot", 2))

	line := decodeLine(t, &buf)
	assert.Equal(t, "RENDER_SKIP", line["msg"])
	assert.Equal(t, "RENDER_SKIP", line["code"])
	assert.Equal(t, "planner", line["origin"])
	assert.Equal(t, float64(2), line["slot"])
	assert.Equal(t, "planner", ch.Origin())
}

func TestChannel_NilIsNoop(t *testing.T) {
	var ch *Channel
	assert.NotPanics(t, func() {
		ch.Emit(context.Background(), slog.LevelInfo, PopSuccess)
	})

	var telemetry *Telemetry
	assert.Nil(t, telemetry.Channel("x"))
}
