// Package profile persists a single-user taste profile and order history as a
// JSON snapshot on disk. Every update rewrites the whole file atomically so a
// crash mid-write can never leave a torn document behind.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Path string `envconfig:"PROFILE_PATH" default:"data/profile.json"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("profile config: %w", err)
	}
	return cfg, nil
}

// OrderEntry is one completed order in the history.
type OrderEntry struct {
	Store    string `json:"store"`
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

type document struct {
	Profile map[string]any `json:"profile"`
	History []OrderEntry   `json:"history"`
}

// Store owns the on-disk snapshot. All methods are safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	path string
	doc  document
}

// Keys whose values are string lists and are union-merged on update.
var listKeys = map[string]bool{
	"prefers":   true,
	"dislikes":  true,
	"allergies": true,
	"diseases":  true,
}

// Open reads the snapshot at path, creating an empty one in memory when the
// file does not exist yet. A corrupt file is replaced rather than fatal: the
// old content is logged and discarded.
func Open(path string) (*Store, error) {
	s := &Store{path: path, doc: document{Profile: map[string]any{}}}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("profile snapshot corrupt, starting fresh")
		return s, nil
	}
	if doc.Profile == nil {
		doc.Profile = map[string]any{}
	}
	s.doc = doc
	return s, nil
}

// Profile returns a copy of the stored profile map.
func (s *Store) Profile() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.doc.Profile))
	for k, v := range s.doc.Profile {
		out[k] = v
	}
	return out
}

// History returns a copy of the order history, oldest first.
func (s *Store) History() []OrderEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]OrderEntry(nil), s.doc.History...)
}

// MergeProfile applies a patch to the stored profile. List-valued keys are
// union-merged, everything else overwrites. The snapshot is rewritten once.
func (s *Store) MergeProfile(patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range patch {
		if listKeys[k] {
			s.doc.Profile[k] = unionStrings(s.doc.Profile[k], v)
			continue
		}
		s.doc.Profile[k] = v
	}
	return s.flushLocked()
}

// RecordOrder appends a completed order to the history and rewrites the
// snapshot. Implements the orchestrator's order recorder.
func (s *Store) RecordOrder(store, item string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.History = append(s.doc.History, OrderEntry{Store: store, Item: item, Quantity: quantity})
	return s.flushLocked()
}

// flushLocked writes the document to a sibling temp file and renames it over
// the target. Caller must hold s.mu.
func (s *Store) flushLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("profile dir: %w", err)
	}
	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".profile-*.json")
	if err != nil {
		return fmt.Errorf("profile temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close profile temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace profile: %w", err)
	}
	return nil
}

func unionStrings(existing, incoming any) []string {
	merged := toStrings(existing)
	seen := make(map[string]bool, len(merged))
	for _, v := range merged {
		seen[v] = true
	}
	for _, v := range toStrings(incoming) {
		if !seen[v] {
			seen[v] = true
			merged = append(merged, v)
		}
	}
	return merged
}

func toStrings(v any) []string {
	switch vv := v.(type) {
	case []string:
		return append([]string(nil), vv...)
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if vv == "" {
			return nil
		}
		return []string{vv}
	default:
		return nil
	}
}
