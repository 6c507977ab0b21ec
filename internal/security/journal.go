// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxJournalSize is the size at which the journal rotates.
const DefaultMaxJournalSize int64 = 10 * 1024 * 1024

// =============================================================================
// JOURNAL ENTRY
// =============================================================================

// Entry is one line of the operation journal.
type Entry struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	Success   bool              `json:"success"`
	Address   string            `json:"address,omitempty"`
	TxID      string            `json:"txid,omitempty"`
	AppID     uint64            `json:"app_id,omitempty"`
	AssetID   uint64            `json:"asset_id,omitempty"`
	Round     uint64            `json:"round,omitempty"`
	Error     string            `json:"error,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// =============================================================================
// REDACTION
// =============================================================================

// Redactor masks sensitive data in journal text.
type Redactor interface {
	Redact(input string) string
	Name() string
}

// PatternRedactor replaces regex matches.
type PatternRedactor struct {
	name    string
	pattern *regexp.Regexp
	replace string
}

// NewPatternRedactor creates a pattern-based redactor.
func NewPatternRedactor(name string, pattern *regexp.Regexp, replace string) *PatternRedactor {
	return &PatternRedactor{name: name, pattern: pattern, replace: replace}
}

// Redact replaces matches with the replacement string.
func (r *PatternRedactor) Redact(input string) string {
	return r.pattern.ReplaceAllString(input, r.replace)
}

// Name returns the redactor name.
func (r *PatternRedactor) Name() string {
	return r.name
}

// Addresses (58 chars) and txids (52 chars) stay readable; the patterns
// target sealed keys, 64-byte base64 private keys and 64-char API tokens.
var secretPatterns = []struct {
	name    string
	pattern *regexp.Regexp
	replace string
}{
	{"Sealed", regexp.MustCompile(`ENC:[A-Za-z0-9+/=]+`), "[SEALED_KEY_REDACTED]"},
	{"PrivateKey", regexp.MustCompile(`[A-Za-z0-9+/]{86}==`), "[PRIVATE_KEY_REDACTED]"},
	{"APIToken", regexp.MustCompile(`\b[A-Za-z0-9]{64}\b`), "[TOKEN_REDACTED]"},
	{"Password", regexp.MustCompile(`(?i)(password|passphrase|passwd)\s*[=:]\s*\S+`), "[PASSWORD_REDACTED]"},
}

func defaultRedactors() []Redactor {
	redactors := make([]Redactor, 0, len(secretPatterns))
	for _, sp := range secretPatterns {
		redactors = append(redactors, NewPatternRedactor(sp.name, sp.pattern, sp.replace))
	}
	return redactors
}

// =============================================================================
// JOURNAL
// =============================================================================

// Journal is an append-only JSON-lines log of every state-changing action.
type Journal struct {
	path      string
	file      *os.File
	mu        sync.Mutex
	maxSize   int64
	redactors []Redactor
	now       func() time.Time
}

// OpenJournal opens or creates the journal at path.
func OpenJournal(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return &Journal{
		path:      path,
		file:      file,
		maxSize:   DefaultMaxJournalSize,
		redactors: defaultRedactors(),
		now:       time.Now,
	}, nil
}

// Record appends e, filling ID and Timestamp when empty, and returns the ID.
func (j *Journal) Record(e Entry) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return "", fmt.Errorf("journal is closed")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = j.now().UTC()
	}
	e.Error = j.redactLocked(e.Error)
	if len(e.Details) > 0 {
		clean := make(map[string]string, len(e.Details))
		for k, v := range e.Details {
			clean[k] = j.redactLocked(v)
		}
		e.Details = clean
	}

	line, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("failed to encode journal entry: %w", err)
	}
	if _, err := j.file.Write(append(line, '\n')); err != nil {
		return "", fmt.Errorf("failed to write journal entry: %w", err)
	}
	if err := j.checkRotationLocked(); err != nil {
		return e.ID, err
	}
	return e.ID, nil
}

func (j *Journal) redactLocked(input string) string {
	for _, r := range j.redactors {
		input = r.Redact(input)
	}
	return input
}

// SetMaxSize sets the rotation threshold; zero disables rotation.
func (j *Journal) SetMaxSize(size int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.maxSize = size
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

func (j *Journal) rotateLocked() error {
	if j.file == nil {
		return nil
	}
	if err := j.file.Close(); err != nil {
		return fmt.Errorf("failed to close journal for rotation: %w", err)
	}

	ext := filepath.Ext(j.path)
	base := strings.TrimSuffix(j.path, ext)
	rotated := fmt.Sprintf("%s_%s%s", base, j.now().Format("20060102_150405.000000000"), ext)
	if err := os.Rename(j.path, rotated); err != nil {
		j.file, _ = os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		return fmt.Errorf("failed to rotate journal: %w", err)
	}

	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		j.file = nil
		return fmt.Errorf("failed to create journal after rotation: %w", err)
	}
	j.file = file
	return nil
}

func (j *Journal) checkRotationLocked() error {
	if j.maxSize <= 0 {
		return nil
	}
	info, err := j.file.Stat()
	if err != nil {
		return nil
	}
	if info.Size() >= j.maxSize {
		return j.rotateLocked()
	}
	return nil
}

// Close flushes and closes the journal.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}

// ReadJournal returns the last limit entries of the journal at path, oldest
// first. A limit of zero returns everything.
func ReadJournal(path string, limit int) ([]Entry, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
		if limit > 0 && len(entries) > limit {
			entries = entries[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return entries, nil
}
