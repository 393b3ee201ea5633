package changelog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Store provides thread-safe storage of issue histories, partitioned by source.
type Store struct {
	mu      sync.RWMutex
	sources map[string]map[string]History // source -> issue key -> history
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{
		sources: make(map[string]map[string]History),
	}
}

// Append merges histories into a source. A history for a key already present
// replaces the snapshot fields and unions the change entries.
func (s *Store) Append(sourceID string, histories []History) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byKey, ok := s.sources[sourceID]
	if !ok {
		byKey = make(map[string]History)
		s.sources[sourceID] = byKey
	}

	for _, h := range histories {
		if prev, ok := byKey[h.Key]; ok {
			merged := append(prev.Entries[:len(prev.Entries):len(prev.Entries)], h.Entries...)
			h.Entries = merged
		}
		h.Entries = h.Entries.Dedup().Sorted()
		byKey[h.Key] = h
	}
}

// Get returns the history for a single issue.
func (s *Store) Get(sourceID, key string) (History, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.sources[sourceID][key]
	return h, ok
}

// All returns every history of a source ordered by issue key.
func (s *Store) All(sourceID string) []History {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byKey := s.sources[sourceID]
	out := make([]History, 0, len(byKey))
	for _, h := range byKey {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Count returns the number of issues stored for a source.
func (s *Store) Count(sourceID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources[sourceID])
}

// Load reads histories from a JSONL cache file for the given source.
func (s *Store) Load(cacheDir, sourceID string) error {
	path := cachePath(cacheDir, sourceID)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No cache yet, not an error
		}
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer file.Close()

	var histories []History
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var h History
		if err := json.Unmarshal(scanner.Bytes(), &h); err != nil {
			log.Warn().Err(err).Str("source", sourceID).Msg("Skipping invalid JSON line in cache")
			continue
		}
		histories = append(histories, h)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading cache: %w", err)
	}

	log.Info().Str("source", sourceID).Int("count", len(histories)).Msg("Loaded histories from cache")
	s.Append(sourceID, histories)
	return nil
}

// Save persists the histories of a source to a JSONL cache file.
func (s *Store) Save(cacheDir, sourceID string) error {
	histories := s.All(sourceID)
	if len(histories) == 0 {
		return nil
	}

	path := cachePath(cacheDir, sourceID)
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)

	for _, h := range histories {
		if err := encoder.Encode(h); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode history %s: %w", h.Key, err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	log.Info().Str("source", sourceID).Int("count", len(histories)).Msg("Histories saved to cache")
	return nil
}

func cachePath(cacheDir, sourceID string) string {
	return filepath.Join(cacheDir, fmt.Sprintf("%s.jsonl", sourceID))
}
