package event

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Repository persists the whole store. Save always receives the full, ordered
// contents; Load returns them in the same order.
type Repository interface {
	Load(ctx context.Context) ([]Event, error)
	Save(ctx context.Context, events []Event) error
}

// storedTimeLayout is the start time representation kept next to the key.
const storedTimeLayout = "2006-01-02 15:04:05"

// FileRepository keeps events in a JSON document of the form
//
//	{"2024-09-04 12:00": ["Meeting", "Work", "2024-09-04 12:00:00", 30]}
type FileRepository struct {
	path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) Path() string {
	return r.path
}

// Load never fails on a missing or unreadable document: the store starts empty.
func (r *FileRepository) Load(_ context.Context) ([]Event, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Infof("Events file %s not found, starting with an empty schedule", r.path)
		} else {
			log.Warnf("Could not read events file %s, starting with an empty schedule: %v", r.path, err)
		}
		return nil, nil
	}

	events, err := decodeEvents(data)
	if err != nil {
		log.Warnf("Events file %s is malformed, starting with an empty schedule: %v", r.path, err)
		return nil, nil
	}
	return events, nil
}

func (r *FileRepository) Save(_ context.Context, events []Event) error {
	data, err := encodeEvents(events)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("could not write events file %s: %w", r.path, err)
	}
	log.Debugf("Saved %d events to %s", len(events), r.path)
	return nil
}

func encodeEvents(events []Event) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range events {
		if i > 0 {
			buf.WriteString(", ")
		}
		key, err := json.Marshal(e.Key())
		if err != nil {
			return nil, err
		}
		record, err := json.Marshal([]any{e.Name, e.Category, e.StartTime.Format(storedTimeLayout), e.Duration})
		if err != nil {
			return nil, fmt.Errorf("could not encode event %s: %w", e.Key(), err)
		}
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(record)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeEvents walks the document token by token so the file order survives.
func decodeEvents(data []byte) ([]Event, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected an object, got %v", tok)
	}

	var events []Event
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected a key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("could not decode record %s: %w", key, err)
		}
		var record []json.RawMessage
		if err := json.Unmarshal(raw, &record); err != nil {
			log.Warnf("Skipping event %s: record is not an array: %v", key, err)
			continue
		}
		e, err := decodeRecord(key, record)
		if err != nil {
			log.Warnf("Skipping event %s: %v", key, err)
			continue
		}
		events = append(events, e)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after the events object")
	}
	return events, nil
}

// decodeRecord rebuilds an event from [name, category, start, duration]. The
// start time is taken from the key, not from the stored string.
func decodeRecord(key string, record []json.RawMessage) (Event, error) {
	if len(record) != 4 {
		return Event{}, fmt.Errorf("expected 4 fields, got %d", len(record))
	}
	var (
		name, category string
		duration       int
	)
	if err := json.Unmarshal(record[0], &name); err != nil {
		return Event{}, fmt.Errorf("invalid name: %w", err)
	}
	if err := json.Unmarshal(record[1], &category); err != nil {
		return Event{}, fmt.Errorf("invalid category: %w", err)
	}
	if err := json.Unmarshal(record[3], &duration); err != nil {
		return Event{}, fmt.Errorf("invalid duration: %w", err)
	}
	startTime, err := ParseKey(key)
	if err != nil {
		return Event{}, err
	}
	return NewEvent(name, category, startTime, duration)
}
