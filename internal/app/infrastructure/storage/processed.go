package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
)

// ProcessedLog is the append-only "already done" list of Reddit IDs: a single
// line of comma-terminated IDs ("abc,def,").
type ProcessedLog struct {
	mu   sync.Mutex
	path string
	seen map[string]struct{}
}

func OpenProcessedLog(path string) (*ProcessedLog, error) {
	p := &ProcessedLog{path: path, seen: make(map[string]struct{})}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("create processed log: %w", err)
		}
		return p, f.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("read processed log: %w", err)
	}

	for _, id := range strings.Split(string(raw), ",") {
		if id = strings.TrimSpace(id); id != "" {
			p.seen[id] = struct{}{}
		}
	}
	return p, nil
}

func (p *ProcessedLog) Has(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.seen[id]
	return ok
}

// Add records id in memory and appends it to the file. Adding a known id is a no-op.
func (p *ProcessedLog) Add(id string) error {
	id = strings.TrimSpace(id)
	if id == "" || strings.Contains(id, ",") {
		return fmt.Errorf("invalid processed id %q", id)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.seen[id]; ok {
		return nil
	}

	f, err := os.OpenFile(p.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open processed log: %w", err)
	}
	if _, err := f.WriteString(id + ","); err != nil {
		_ = f.Close()
		return fmt.Errorf("append processed log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close processed log: %w", err)
	}

	p.seen[id] = struct{}{}
	return nil
}

func (p *ProcessedLog) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.seen)
}
