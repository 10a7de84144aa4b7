package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReadRoundTrip(t *testing.T) {
	b := New()

	payload := map[string]any{"x": 0.25}
	b.Publish("sim.state", "robot_state", payload, 7)

	msg, ok := b.Read("sim.state")
	require.True(t, ok)
	assert.Equal(t, "sim.state", msg.Channel)
	assert.Equal(t, "robot_state", msg.Type)
	assert.Equal(t, 7, msg.Tick)
	assert.Equal(t, payload, msg.Payload)
}

func TestReadIsRepeatable(t *testing.T) {
	b := New()
	b.Publish("ctrl.command", "cartesian_cmd", map[string]any{"dx": 0.01}, 3)

	first, ok := b.Read("ctrl.command")
	require.True(t, ok)
	second, ok := b.Read("ctrl.command")
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestLastWriterWins(t *testing.T) {
	b := New()
	b.Publish("sim.state", "robot_state", map[string]any{"x": 0.1}, 1)
	b.Publish("sim.state", "robot_state", map[string]any{"x": 0.2}, 2)

	msg, ok := b.Read("sim.state")
	require.True(t, ok)
	assert.Equal(t, 2, msg.Tick)
	assert.Equal(t, map[string]any{"x": 0.2}, msg.Payload)
}

func TestReadMissingChannel(t *testing.T) {
	b := New()
	_, ok := b.Read("nobody.home")
	assert.False(t, ok)
}

func TestPublishEmptyChannelIsNoop(t *testing.T) {
	b := New()
	b.Publish("", "robot_state", map[string]any{"x": 1.0}, 0)
	assert.Equal(t, 0, b.Channels())
}

func TestCanonicalizeDecodesJSONStrings(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    any
	}{
		{
			name:    "json object string",
			payload: `{"x": 0.5}`,
			want:    map[string]any{"x": 0.5},
		},
		{
			name:    "json array string",
			payload: ` [1, 2] `,
			want:    []any{float64(1), float64(2)},
		},
		{
			name:    "opaque string passes through",
			payload: "hello world",
			want:    "hello world",
		},
		{
			name:    "malformed json-looking string passes through",
			payload: "{not json}",
			want:    "{not json}",
		},
		{
			name:    "structured payload untouched",
			payload: map[string]any{"dx": 0.01},
			want:    map[string]any{"dx": 0.01},
		},
		{
			name:    "scalar untouched",
			payload: 42.0,
			want:    42.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New()
			b.Publish("c", "ty", tt.payload, 0)
			msg, ok := b.Read("c")
			require.True(t, ok)
			assert.Equal(t, tt.want, msg.Payload)
		})
	}
}
