package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/campuschain/transcript-ledger-backend/interfaces"
)

// FileLog is a JSONL file-backed event log: one JSON-encoded event per line,
// appended and fsynced on every write. Opening an existing file replays it
// into memory so reads never touch the disk afterwards.
type FileLog struct {
	log  *slog.Logger
	path string

	mu     sync.RWMutex
	file   *os.File
	events []interfaces.Event
	closed bool
}

// OpenFileLog opens or creates the log file at path and replays any existing
// events. It fails if the existing content is corrupt or out of sequence;
// a partial trailing line (torn write on crash) is truncated away with a
// warning so the file stays appendable.
func OpenFileLog(path string, log *slog.Logger) (*FileLog, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}

	fl := &FileLog{log: log, path: path, file: file}
	if err := fl.replay(); err != nil {
		file.Close()
		return nil, err
	}

	log.Info("Event log opened", "path", path, "events", len(fl.events))
	return fl, nil
}

func (f *FileLog) replay() error {
	reader := bufio.NewReaderSize(f.file, 64*1024)

	var offset int64 // file offset just past the last accepted line
	line := 0
	for {
		raw, readErr := reader.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			return fmt.Errorf("failed to read event log: %w", readErr)
		}
		if len(raw) == 0 {
			return nil
		}
		line++

		trimmed := bytes.TrimSuffix(raw, []byte("\n"))
		if len(trimmed) > 0 {
			var ev interfaces.Event
			if err := json.Unmarshal(trimmed, &ev); err != nil {
				// Only the final line may be torn; anything earlier is
				// corruption. The partial bytes must also be truncated
				// away, otherwise the next append would share the line
				// and be unreadable after a reopen.
				if atEOF(reader, readErr) {
					f.log.Warn("Dropping truncated trailing event log line", "line", line)
					if err := f.file.Truncate(offset); err != nil {
						return fmt.Errorf("failed to truncate torn event log line: %w", err)
					}
					return nil
				}
				return fmt.Errorf("corrupt event log at line %d: %w", line, err)
			}
			if want := uint64(len(f.events)) + 1; ev.Seq != want {
				return fmt.Errorf("event log sequence gap at line %d: got %d, want %d", line, ev.Seq, want)
			}
			f.events = append(f.events, ev)

			// A crash can tear off just the newline of a complete event.
			// The event is kept, so restore the line terminator.
			if raw[len(raw)-1] != '\n' {
				if _, err := f.file.Write([]byte("\n")); err != nil {
					return fmt.Errorf("failed to repair event log: %w", err)
				}
			}
		}

		offset += int64(len(raw))
		if readErr == io.EOF {
			return nil
		}
	}
}

// atEOF reports whether the reader has no bytes left after the line the
// caller just consumed.
func atEOF(reader *bufio.Reader, readErr error) bool {
	if readErr == io.EOF {
		return true
	}
	_, err := reader.Peek(1)
	return err == io.EOF
}

// Append encodes the event as one JSON line, writes and syncs it, and
// returns the assigned sequence number.
func (f *FileLog) Append(ev interfaces.Event) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, ErrClosed
	}

	ev.Seq = uint64(len(f.events)) + 1
	raw, err := json.Marshal(ev)
	if err != nil {
		return 0, fmt.Errorf("failed to encode event: %w", err)
	}

	if _, err := f.file.Write(append(raw, '\n')); err != nil {
		return 0, fmt.Errorf("failed to append event: %w", err)
	}
	if err := f.file.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync event log: %w", err)
	}

	f.events = append(f.events, ev)
	return ev.Seq, nil
}

// EventsSince returns all events with Seq >= from, in sequence order.
func (f *FileLog) EventsSince(from uint64) ([]interfaces.Event, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if from <= 1 {
		out := make([]interfaces.Event, len(f.events))
		copy(out, f.events)
		return out, nil
	}
	if from > uint64(len(f.events)) {
		return nil, nil
	}

	tail := f.events[from-1:]
	out := make([]interfaces.Event, len(tail))
	copy(out, tail)
	return out, nil
}

// LastSeq returns the highest assigned sequence number.
func (f *FileLog) LastSeq() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return uint64(len(f.events))
}

// Close syncs and closes the underlying file.
func (f *FileLog) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	return f.file.Close()
}

var _ interfaces.EventLog = (*FileLog)(nil)
