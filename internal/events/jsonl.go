package events

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"walienPool/internal/model"
)

// JsonlSink appends event records to a JSONL file.
type JsonlSink struct {
	path   string
	now    func() time.Time
	mu     sync.Mutex
	seq    uint64
	loaded bool
}

func NewJsonlSink(path string) *JsonlSink {
	return &JsonlSink{path: path, now: time.Now}
}

// Emit appends ev as one JSON line. Sequence numbers continue from the last
// record already in the file.
func (s *JsonlSink) Emit(_ context.Context, ev model.Event) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		last, err := lastSeq(s.path)
		if err != nil {
			return err
		}
		s.seq = last
		s.loaded = true
	}

	record, err := NewRecord(ev, s.seq+1, s.now())
	if err != nil {
		return err
	}
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal event record: %w", err)
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write event record: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	s.seq = record.Seq
	return nil
}

// ReadRecords streams the records of a JSONL event log to fn in file order.
func ReadRecords(path string, fn func(model.EventRecord) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var record model.EventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := fn(record); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan event log: %w", err)
	}
	return nil
}

func lastSeq(path string) (uint64, error) {
	var last uint64
	err := ReadRecords(path, func(r model.EventRecord) error {
		if r.Seq > last {
			last = r.Seq
		}
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	return last, err
}
