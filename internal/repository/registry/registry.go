package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/mamadbah2/flockage/internal/agecalc"
	"github.com/mamadbah2/flockage/internal/domain/models"
)

// DefaultFile is the registry file used when none is configured.
const DefaultFile = "flocks.json"

// ErrValidation indicates a flock record was rejected before reaching the registry.
var ErrValidation = errors.New("validation error")

// Registry keeps flock hatch dates in memory and mirrors them to a JSON file.
//
// The file is read once by Load and rewritten in full after every mutation. Write
// failures are not returned from mutations: the in-memory map stays authoritative and
// the caller receives a persisted flag instead. There is no cross-process locking; the
// last writer wins.
type Registry struct {
	mu     sync.RWMutex
	path   string
	flocks map[string]time.Time
	logger *zap.Logger
}

// New creates an empty registry backed by path. Call Load to read existing data.
func New(path string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		path = DefaultFile
	}
	return &Registry{
		path:   path,
		flocks: make(map[string]time.Time),
		logger: logger,
	}
}

// Path returns the backing file location.
func (r *Registry) Path() string {
	return r.path
}

// Load replaces the in-memory map with the file contents. A missing or malformed file
// yields an empty registry and is never an error.
func (r *Registry) Load() map[string]time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.flocks = r.readFile()
	return r.snapshotLocked()
}

func (r *Registry) readFile() map[string]time.Time {
	out := make(map[string]time.Time)

	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("registry file unreadable, starting empty", zap.String("path", r.path), zap.Error(err))
		}
		return out
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		r.logger.Warn("registry file malformed, starting empty", zap.String("path", r.path), zap.Error(err))
		return out
	}

	for name, value := range raw {
		key, err := NormalizeName(name)
		if err != nil {
			r.logger.Debug("skip registry entry with empty name")
			continue
		}
		hatch, err := agecalc.ParseDate(value)
		if err != nil {
			r.logger.Debug("skip registry entry with invalid date", zap.String("flock", name), zap.String("value", value))
			continue
		}
		out[key] = hatch
	}
	return out
}

// Upsert inserts or overwrites a flock and persists the registry. The returned flag
// reports whether the write reached disk; err is only set for rejected input.
func (r *Registry) Upsert(name string, hatch time.Time) (bool, error) {
	key, err := NormalizeName(name)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.flocks[key] = time.Date(hatch.Year(), hatch.Month(), hatch.Day(), 0, 0, 0, 0, time.UTC)
	return r.persistLocked() == nil, nil
}

// Remove deletes a flock if present and persists the registry. Removing an unknown
// name is a no-op that does not touch the file.
func (r *Registry) Remove(name string) (removed bool, persisted bool) {
	key, err := NormalizeName(name)
	if err != nil {
		return false, true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.flocks[key]; !ok {
		return false, true
	}
	delete(r.flocks, key)
	return true, r.persistLocked() == nil
}

// Get returns the hatch date of a flock.
func (r *Registry) Get(name string) (time.Time, bool) {
	key, err := NormalizeName(name)
	if err != nil {
		return time.Time{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	hatch, ok := r.flocks[key]
	return hatch, ok
}

// List returns all flocks ordered by name.
func (r *Registry) List() []models.FlockRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.FlockRecord, 0, len(r.flocks))
	for name, hatch := range r.flocks {
		out = append(out, models.FlockRecord{Name: name, HatchDate: hatch})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered flocks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.flocks)
}

// Persist writes the whole mapping to the backing file, replacing previous contents.
func (r *Registry) Persist() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.persistLocked()
}

func (r *Registry) snapshotLocked() map[string]time.Time {
	out := make(map[string]time.Time, len(r.flocks))
	for k, v := range r.flocks {
		out[k] = v
	}
	return out
}

func (r *Registry) persistLocked() error {
	data, err := Encode(r.flocks)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			r.logger.Debug("create registry dir failed", zap.String("dir", dir), zap.Error(err))
			return fmt.Errorf("create registry dir: %w", err)
		}
	}

	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		r.logger.Debug("write registry file failed", zap.String("path", r.path), zap.Error(err))
		return fmt.Errorf("write registry file %s: %w", r.path, err)
	}
	return nil
}

// Encode renders a mapping in the registry file format: an indented JSON object of
// name to YYYY-MM-DD, UTF-8 without escaping non-ASCII names.
func Encode(flocks map[string]time.Time) ([]byte, error) {
	raw := make(map[string]string, len(flocks))
	for name, hatch := range flocks {
		raw[name] = hatch.Format(agecalc.DateLayout)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raw); err != nil {
		return nil, fmt.Errorf("encode registry: %w", err)
	}
	return buf.Bytes(), nil
}

// NormalizeName trims a flock name and converts it to NFC so visually identical
// names map to one key.
func NormalizeName(name string) (string, error) {
	key := norm.NFC.String(strings.TrimSpace(name))
	if key == "" {
		return "", fmt.Errorf("%w: flock name must not be empty", ErrValidation)
	}
	return key, nil
}
