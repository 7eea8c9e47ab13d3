package webhook

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/jcttech/specstack/pkg/domain/events"
)

// DeadLetterStore appends failed webhook deliveries to a JSONL file.
type DeadLetterStore struct {
	path string
	mu   sync.Mutex
}

// NewDeadLetterStore creates a dead letter store at the given path.
func NewDeadLetterStore(path string) *DeadLetterStore {
	return &DeadLetterStore{path: path}
}

// Append writes a dead letter entry to the JSONL file.
func (s *DeadLetterStore) Append(dl events.DeadLetter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(dl)
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open dead letter file: %w", err)
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// ReadAll returns all dead letter entries from the file. Torn lines
// from an interrupted write are skipped, not fatal.
func (s *DeadLetterStore) ReadAll() ([]events.DeadLetter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []events.DeadLetter
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var dl events.DeadLetter
		if err := json.Unmarshal(line, &dl); err != nil {
			continue
		}
		entries = append(entries, dl)
	}
	return entries, scanner.Err()
}
