package runs

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/tickrig/internal/bus"
)

// ChannelLogger writes one JSONL file per observed channel under the run's
// logs directory. Files are opened lazily on the first record for a channel
// and kept open until Close.
type ChannelLogger struct {
	dir   string
	files map[string]*logFile
}

type logFile struct {
	f *os.File
	w *bufio.Writer
}

type logRecord struct {
	Tick    int    `json:"t"`
	Channel string `json:"channel"`
	Type    string `json:"type,omitempty"`
	Payload any    `json:"payload"`
}

// NewChannelLogger creates a logger rooted at the run directory's logs/
// subdirectory.
func NewChannelLogger(d Dir) (*ChannelLogger, error) {
	dir := d.LogsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating logs dir: %w", err)
	}
	return &ChannelLogger{dir: dir, files: map[string]*logFile{}}, nil
}

// Log appends one record for the message's channel.
func (l *ChannelLogger) Log(msg bus.Message) error {
	lf, err := l.file(msg.Channel)
	if err != nil {
		return err
	}
	row, err := json.Marshal(logRecord{
		Tick:    msg.Tick,
		Channel: msg.Channel,
		Type:    msg.Type,
		Payload: msg.Payload,
	})
	if err != nil {
		return fmt.Errorf("encoding log record for %q: %w", msg.Channel, err)
	}
	if _, err := lf.w.Write(append(row, '\n')); err != nil {
		return fmt.Errorf("writing log record for %q: %w", msg.Channel, err)
	}
	return nil
}

// Close flushes and closes every open channel file.
func (l *ChannelLogger) Close() error {
	var errs []error
	for ch, lf := range l.files {
		if err := lf.w.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flushing log for %q: %w", ch, err))
		}
		if err := lf.f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing log for %q: %w", ch, err))
		}
	}
	l.files = map[string]*logFile{}
	return errors.Join(errs...)
}

func (l *ChannelLogger) file(channel string) (*logFile, error) {
	if lf, ok := l.files[channel]; ok {
		return lf, nil
	}
	path := filepath.Join(l.dir, LogFileName(channel))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log for %q: %w", channel, err)
	}
	lf := &logFile{f: f, w: bufio.NewWriter(f)}
	l.files[channel] = lf
	return lf, nil
}

// LogFileName maps a channel name to its JSONL file name. Dots in channel
// names become underscores so the file name stays flat.
func LogFileName(channel string) string {
	return strings.ReplaceAll(channel, ".", "_") + ".jsonl"
}
