package users

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
)

// FileStore keeps one JSON file per user number plus a single index file.
// The index is loaded once at construction and rewritten after every
// mutation. All operations are whole-file read-modify-write guarded by a
// process-local mutex; nothing protects against a second process.
type FileStore struct {
	dir       string
	indexPath string
	mu        sync.Mutex
	index     map[string]IndexEntry
}

func NewFileStore(dir, indexPath string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	s := &FileStore{
		dir:       dir,
		indexPath: indexPath,
		index:     make(map[string]IndexEntry),
	}
	if err := s.loadIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) loadIndex() error {
	f, err := os.Open(s.indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index: %w", err)
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
		}
	}(f)
	dec := json.NewDecoder(f)
	if err := dec.Decode(&s.index); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode index: %w", err)
	}
	return nil
}

func (s *FileStore) saveIndexUnlocked() error {
	f, err := os.OpenFile(s.indexPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open index for write: %w", err)
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
		}
	}(f)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(s.index)
}

func (s *FileStore) recordPath(userNumber string) string {
	return filepath.Join(s.dir, fmt.Sprintf("user_%s.json", userNumber))
}

func (s *FileStore) loadRecordUnlocked(userNumber string) (Record, error) {
	f, err := os.Open(s.recordPath(userNumber))
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("open record: %w", err)
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
		}
	}(f)
	var rec Record
	if err := json.NewDecoder(f).Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decode record %s: %w", userNumber, err)
	}
	return rec, nil
}

func (s *FileStore) saveRecordUnlocked(userNumber string, rec Record) error {
	f, err := os.OpenFile(s.recordPath(userNumber), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open record for write: %w", err)
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
		}
	}(f)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

func (s *FileStore) Lookup(externalID string) (string, Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.index[externalID]
	if !ok {
		return "", Record{}, ErrNotFound
	}
	rec, err := s.loadRecordUnlocked(entry.UserNumber)
	if err != nil {
		return "", Record{}, err
	}
	return entry.UserNumber, rec, nil
}

func (s *FileStore) Get(userNumber string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadRecordUnlocked(userNumber)
}

func (s *FileStore) Create(externalID, name, phone string) (string, Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Uniqueness is checked against every stored record, not just the index.
	for _, entry := range s.index {
		rec, err := s.loadRecordUnlocked(entry.UserNumber)
		if err != nil {
			continue
		}
		if rec.PhoneNumber == phone {
			return "", Record{}, ErrDuplicatePhone
		}
	}

	userNumber := strconv.Itoa(s.nextNumberUnlocked())
	rec := Record{
		Name:        name,
		PhoneNumber: phone,
		ChatHistory: []ChatMessage{{Role: RoleSystem, Content: SystemPrompt}},
	}
	if err := s.saveRecordUnlocked(userNumber, rec); err != nil {
		return "", Record{}, err
	}
	s.index[externalID] = IndexEntry{UserNumber: userNumber}
	if err := s.saveIndexUnlocked(); err != nil {
		return "", Record{}, err
	}
	return userNumber, rec, nil
}

// nextNumberUnlocked returns max(assigned)+1 so numbers stay unique and
// monotonic even after deletions.
func (s *FileStore) nextNumberUnlocked() int {
	max := 0
	for _, entry := range s.index {
		if n, err := strconv.Atoi(entry.UserNumber); err == nil && n > max {
			max = n
		}
	}
	return max + 1
}

func (s *FileStore) AppendMessage(userNumber, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.loadRecordUnlocked(userNumber)
	if err != nil {
		return err
	}
	rec.ChatHistory = append(rec.ChatHistory, ChatMessage{Role: role, Content: content})
	rec.ChatHistory = truncateHistory(rec.ChatHistory)
	return s.saveRecordUnlocked(userNumber, rec)
}

// truncateHistory enforces the length cap while keeping the system prompt
// at index 0. The most recent entries are retained in arrival order.
func truncateHistory(history []ChatMessage) []ChatMessage {
	if len(history) <= MaxHistory {
		return history
	}
	if history[0].Role == RoleSystem {
		tail := history[len(history)-(MaxHistory-1):]
		out := make([]ChatMessage, 0, MaxHistory)
		out = append(out, history[0])
		return append(out, tail...)
	}
	return history[len(history)-MaxHistory:]
}

func (s *FileStore) ClearHistory(userNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.loadRecordUnlocked(userNumber)
	if err != nil {
		return err
	}
	rec.ChatHistory = []ChatMessage{{Role: RoleSystem, Content: SystemPrompt}}
	return s.saveRecordUnlocked(userNumber, rec)
}

func (s *FileStore) Delete(userNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.recordPath(userNumber)); os.IsNotExist(err) {
		return ErrNotFound
	}

	for externalID, entry := range s.index {
		if entry.UserNumber == userNumber {
			delete(s.index, externalID)
			break
		}
	}
	if err := s.saveIndexUnlocked(); err != nil {
		return err
	}
	if err := os.Remove(s.recordPath(userNumber)); err != nil {
		return fmt.Errorf("remove record: %w", err)
	}
	return nil
}

func (s *FileStore) ListAll() ([]ListedUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ListedUser, 0, len(s.index))
	for externalID, entry := range s.index {
		rec, err := s.loadRecordUnlocked(entry.UserNumber)
		if err != nil {
			continue
		}
		out = append(out, ListedUser{
			UserNumber: entry.UserNumber,
			ExternalID: externalID,
			Name:       rec.Name,
			Phone:      rec.PhoneNumber,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i].UserNumber)
		b, _ := strconv.Atoi(out[j].UserNumber)
		return a < b
	})
	return out, nil
}
