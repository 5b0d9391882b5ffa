package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultDir is where per-wallet swap records live.
const DefaultDir = "swap_history"

// SwapRecord is one confirmed swap as written to a wallet's history file.
// Amounts are human-readable strings, already adjusted for decimals.
type SwapRecord struct {
	ID                 string    `json:"id"`
	Timestamp          time.Time `json:"timestamp"`
	TxHash             string    `json:"tx_hash"`
	TokenInput         string    `json:"token_input"`
	TokenInputAmount   string    `json:"token_input_amount"`
	TokenInputAddress  string    `json:"token_input_address"`
	TokenOutput        string    `json:"token_output"`
	TokenOutputAmount  string    `json:"token_output_amount"`
	TokenOutputAddress string    `json:"token_output_address"`
}

// Store persists per-wallet swap histories as JSON files under one
// directory. Writes go to a temp file first and are renamed into place,
// so readers never observe a partial file.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore ensures dir exists and returns a store over it. An empty dir
// selects DefaultDir.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Append stamps the record with an id and timestamp and adds it to the
// wallet's history file. A corrupt file restarts the history rather than
// failing the append.
func (s *Store) Append(wallet string, record SwapRecord) (*SwapRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = uuid.New().String()
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	records := append(s.read(wallet), record)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history: %w", err)
	}

	path := s.walletPath(wallet)
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		return nil, fmt.Errorf("failed to rename temp file: %w", err)
	}

	return &record, nil
}

// List returns the wallet's recorded swaps, oldest first.
func (s *Store) List(wallet string) []SwapRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(wallet)
}

// Count returns how many swaps are recorded for wallet.
func (s *Store) Count(wallet string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.read(wallet))
}

// Dir returns the directory histories are stored under.
func (s *Store) Dir() string {
	return s.dir
}

// read loads a wallet file, treating missing or corrupt files as empty.
func (s *Store) read(wallet string) []SwapRecord {
	data, err := os.ReadFile(s.walletPath(wallet))
	if err != nil {
		return []SwapRecord{}
	}
	var records []SwapRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return []SwapRecord{}
	}
	return records
}

// walletPath lowercases the wallet so mixed-case forms of one address
// share a file.
func (s *Store) walletPath(wallet string) string {
	return filepath.Join(s.dir, strings.ToLower(wallet)+".json")
}
