package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errors for config management
var (
	ErrKeywordNotFound = errors.New("keyword not found")
	ErrDuplicateKey    = errors.New("key already exists")
	ErrEmptyKeyword    = errors.New("keyword is required")
)

// ConfigManager provides CRUD operations for config entries
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new config manager
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
	}
}

// normalizeKeyword lowercases and trims a keyword. Keyword matching is
// case-insensitive so keywords are stored folded.
func normalizeKeyword(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}

// --- Keyword CRUD ---

// AddKeyword adds a default highlight keyword
func (m *ConfigManager) AddKeyword(keyword string) error {
	keyword = normalizeKeyword(keyword)
	if keyword == "" {
		return ErrEmptyKeyword
	}

	for _, existing := range m.config.Keywords {
		if normalizeKeyword(existing) == keyword {
			return fmt.Errorf("%w: keyword %q", ErrDuplicateKey, keyword)
		}
	}

	m.config.Keywords = append(m.config.Keywords, keyword)
	return Save(m.config, m.configPath)
}

// ListKeywords returns the default keywords sorted alphabetically
func (m *ConfigManager) ListKeywords() []string {
	result := make([]string, 0, len(m.config.Keywords))
	for _, k := range m.config.Keywords {
		if k = normalizeKeyword(k); k != "" {
			result = append(result, k)
		}
	}
	sort.Strings(result)
	return result
}

// HasKeyword reports whether keyword is configured (case-insensitive)
func (m *ConfigManager) HasKeyword(keyword string) bool {
	_, err := m.indexOf(keyword)
	return err == nil
}

// RemoveKeyword removes a keyword
func (m *ConfigManager) RemoveKeyword(keyword string) error {
	idx, err := m.indexOf(keyword)
	if err != nil {
		return err
	}

	m.config.Keywords = append(m.config.Keywords[:idx], m.config.Keywords[idx+1:]...)
	return Save(m.config, m.configPath)
}

// RenameKeyword replaces an existing keyword
func (m *ConfigManager) RenameKeyword(from, to string) error {
	idx, err := m.indexOf(from)
	if err != nil {
		return err
	}
	to = normalizeKeyword(to)
	if to == "" {
		return ErrEmptyKeyword
	}
	if other, err := m.indexOf(to); err == nil && other != idx {
		return fmt.Errorf("%w: keyword %q", ErrDuplicateKey, to)
	}

	m.config.Keywords[idx] = to
	return Save(m.config, m.configPath)
}

func (m *ConfigManager) indexOf(keyword string) (int, error) {
	keyword = normalizeKeyword(keyword)
	for i, k := range m.config.Keywords {
		if normalizeKeyword(k) == keyword {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrKeywordNotFound, keyword)
}

// SuggestAddKeywordCommand returns the command to add a missing keyword
func SuggestAddKeywordCommand(keyword string) string {
	return fmt.Sprintf(`montage-media config keywords add %q`, keyword)
}
