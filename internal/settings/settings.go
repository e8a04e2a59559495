// Package settings holds the device settings edited on the configuration page.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Settings are the user-editable device parameters.
type Settings struct {
	DeviceName     string  `yaml:"device_name"`
	SampleInterval int     `yaml:"sample_interval"` // seconds between samples
	TargetDepth    float64 `yaml:"target_depth"`    // meters
	Notes          string  `yaml:"notes,omitempty"`
}

const (
	maxNameLen        = 32
	maxNotesLen       = 256
	maxSampleInterval = 24 * 60 * 60
	maxTargetDepth    = 2000
)

// Defaults returns the factory settings.
func Defaults() Settings {
	return Settings{
		DeviceName:     "ASTRA",
		SampleInterval: 60,
		TargetDepth:    10,
	}
}

// Validate checks ranges and lengths.
func (s Settings) Validate() error {
	var errs []error
	if s.DeviceName == "" {
		errs = append(errs, errors.New("device name is required"))
	}
	if utf8.RuneCountInString(s.DeviceName) > maxNameLen {
		errs = append(errs, fmt.Errorf("device name must be at most %d characters", maxNameLen))
	}
	if s.SampleInterval < 1 || s.SampleInterval > maxSampleInterval {
		errs = append(errs, fmt.Errorf("sample interval must be between 1 and %d seconds", maxSampleInterval))
	}
	// Written so NaN fails the check.
	if !(s.TargetDepth >= 0 && s.TargetDepth <= maxTargetDepth) {
		errs = append(errs, fmt.Errorf("target depth must be between 0 and %d meters", maxTargetDepth))
	}
	if utf8.RuneCountInString(s.Notes) > maxNotesLen {
		errs = append(errs, fmt.Errorf("notes must be at most %d characters", maxNotesLen))
	}
	return errors.Join(errs...)
}

// Store keeps the current settings and persists them as YAML.
type Store struct {
	mu       sync.RWMutex
	filePath string
	current  Settings
}

// Open loads settings from path. A missing file yields the defaults.
func Open(path string) (*Store, error) {
	s := &Store{filePath: path, current: Defaults()}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	loaded := Defaults()
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}
	if err := loaded.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings file: %w", err)
	}
	s.current = loaded
	return s, nil
}

// Get returns the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update validates and persists next, then makes it current.
func (s *Store) Update(next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(next); err != nil {
		return err
	}
	s.current = next
	return nil
}

// persist writes settings atomically (must be called with lock held).
func (s *Store) persist(next Settings) error {
	if s.filePath == "" {
		return nil
	}

	data, err := yaml.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tmpFile, s.filePath); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}
