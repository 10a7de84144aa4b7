package bus

import (
	"encoding/json"
	"strings"
)

// Message is one time-stamped value on a channel. The payload is owned by the
// channel slot it sits in; a reader must not assume it survives the next
// publish to the same channel.
type Message struct {
	Channel string `json:"channel"`
	Type    string `json:"type"`
	Payload any    `json:"payload"`
	Tick    int    `json:"t"`
}

// Bus is the latest-value store. The zero value is not usable; call New.
type Bus struct {
	slots map[string]Message
}

// New returns an empty bus. One bus instance serves exactly one run.
func New() *Bus {
	return &Bus{slots: make(map[string]Message)}
}

// Publish overwrites the channel's stored message unconditionally; the last
// writer always wins. Publishing to an empty channel name is a no-op.
func (b *Bus) Publish(channel, msgType string, payload any, tick int) {
	if channel == "" {
		return
	}
	b.slots[channel] = Message{
		Channel: channel,
		Type:    msgType,
		Payload: canonicalize(payload),
		Tick:    tick,
	}
}

// Read returns the current message for a channel, or ok=false if nothing has
// been published to it yet. Reading is idempotent.
func (b *Bus) Read(channel string) (Message, bool) {
	msg, ok := b.slots[channel]
	return msg, ok
}

// Channels returns the number of channels that currently hold a message.
func (b *Bus) Channels() int {
	return len(b.slots)
}

// canonicalize decodes payloads that arrive as serialized JSON structures so
// the bus holds exactly one representation per value. A string that merely
// looks like JSON but fails to parse is kept as-is.
func canonicalize(payload any) any {
	s, ok := payload.(string)
	if !ok {
		return payload
	}
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 2 {
		return payload
	}
	structured := (trimmed[0] == '{' && trimmed[len(trimmed)-1] == '}') ||
		(trimmed[0] == '[' && trimmed[len(trimmed)-1] == ']')
	if !structured {
		return payload
	}
	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return payload
	}
	return decoded
}
