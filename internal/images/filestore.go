package images

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileStore persists the ledger as a JSON file next to the content tree.
type FileStore struct {
	filePath string
	mu       sync.Mutex
}

func NewFileStore(filePath string) *FileStore {
	return &FileStore{filePath: filePath}
}

func (fs *FileStore) Load() (*Ledger, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := os.Stat(fs.filePath); os.IsNotExist(err) {
		// No ledger yet, start empty
		return NewLedger(), nil
	}

	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger file: %w", err)
	}

	if len(data) == 0 {
		return NewLedger(), nil
	}

	ledger := NewLedger()
	if err := json.Unmarshal(data, ledger); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger: %w", err)
	}
	if ledger.Images == nil {
		ledger.Images = make(map[string]*ImageRecord)
	}
	if ledger.SlugToImage == nil {
		ledger.SlugToImage = make(map[string]string)
	}

	return ledger, nil
}

func (fs *FileStore) Save(l *Ledger) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	// Write to a temp file first so a crash never leaves a corrupt ledger.
	tmp := fs.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write ledger file: %w", err)
	}
	if err := os.Rename(tmp, fs.filePath); err != nil {
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}

	return nil
}
