// Package store persists per-chat settings and access tokens as a
// single flat JSON file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

const (
	DefaultMainCharacter   = "Blue Slime King"
	DefaultTicker          = "$SUIMEME"
	DefaultContractAddress = "0xeded589fe72aef12b3b22a826723854820c8480023f3a0ef49460f8429b8d080::suimeme::SUIMEME"
	DefaultTelegram        = "https://t.me/suimeme"
	DefaultTwitter         = "https://x.com/sui_meme_sui/"
	DefaultWebsite         = "https://sui-meme.com/"
)

type ChatSettings struct {
	MainCharacter   string   `json:"main_character"`
	Characters      []string `json:"characters,omitempty"`
	Ticker          string   `json:"ticker"`
	ContractAddress string   `json:"contract_address"`
	Telegram        string   `json:"telegram"`
	Twitter         string   `json:"twitter"`
	Website         string   `json:"website"`
	CharacterImage  string   `json:"character_image,omitempty"`
	Activated       bool     `json:"activated,omitempty"`
}

func defaultSettings() ChatSettings {
	return ChatSettings{
		MainCharacter:   DefaultMainCharacter,
		Characters:      []string{DefaultMainCharacter},
		Ticker:          DefaultTicker,
		ContractAddress: DefaultContractAddress,
		Telegram:        DefaultTelegram,
		Twitter:         DefaultTwitter,
		Website:         DefaultWebsite,
	}
}

type fileFormat struct {
	AccessTokens []string                `json:"access_tokens,omitempty"`
	Chats        map[string]ChatSettings `json:"chats"`
}

type Options struct {
	Path   string
	Logger *slog.Logger
}

// Store keeps every chat's settings in memory and mirrors each change
// to the backing file with an atomic replace.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger

	tokens []string
	chats  map[int64]ChatSettings
}

func New(opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Store{
		path:   opts.Path,
		logger: logger,
		chats:  make(map[int64]ChatSettings),
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	if s.path == "" {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("settings file not found, starting empty", "path", s.path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	var file fileFormat
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}

	s.tokens = file.AccessTokens
	for key, settings := range file.Chats {
		chatID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			s.logger.Warn("skipping invalid chat key", "key", key)
			continue
		}
		s.chats[chatID] = settings
	}
	return nil
}

func (s *Store) saveLocked() {
	if s.path == "" {
		return
	}

	file := fileFormat{
		AccessTokens: s.tokens,
		Chats:        make(map[string]ChatSettings, len(s.chats)),
	}
	for chatID, settings := range s.chats {
		file.Chats[strconv.FormatInt(chatID, 10)] = settings
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		s.logger.Error("encode settings failed", "err", err)
		return
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.logger.Error("write settings failed", "path", tmp, "err", err)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.logger.Error("replace settings failed", "path", s.path, "err", err)
	}
}

// Get returns the chat's settings with defaults filled in for any field
// that was never customized.
func (s *Store) Get(chatID int64) ChatSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return withDefaults(s.chats[chatID])
}

// Update applies fn to the chat's settings and persists the result.
func (s *Store) Update(chatID int64, fn func(*ChatSettings)) ChatSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := withDefaults(s.chats[chatID])
	if fn != nil {
		fn(&settings)
	}
	s.chats[chatID] = settings
	s.saveLocked()
	return settings
}

// TokenGatingEnabled reports whether any access tokens are configured.
// With no tokens every chat is allowed.
func (s *Store) TokenGatingEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens) > 0
}

// Activated reports whether chatID may use the meme command.
func (s *Store) Activated(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tokens) == 0 {
		return true
	}
	return s.chats[chatID].Activated
}

// Activate marks the chat as allowed if token matches a configured
// access token.
func (s *Store) Activate(chatID int64, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok := false
	for _, t := range s.tokens {
		if t != "" && t == token {
			ok = true
			break
		}
	}
	if !ok {
		return false
	}

	settings := withDefaults(s.chats[chatID])
	settings.Activated = true
	s.chats[chatID] = settings
	s.saveLocked()
	return true
}

func withDefaults(settings ChatSettings) ChatSettings {
	defaults := defaultSettings()
	if settings.MainCharacter == "" {
		settings.MainCharacter = defaults.MainCharacter
	}
	if len(settings.Characters) == 0 {
		settings.Characters = []string{settings.MainCharacter}
	}
	if settings.Ticker == "" {
		settings.Ticker = defaults.Ticker
	}
	if settings.ContractAddress == "" {
		settings.ContractAddress = defaults.ContractAddress
	}
	if settings.Telegram == "" {
		settings.Telegram = defaults.Telegram
	}
	if settings.Twitter == "" {
		settings.Twitter = defaults.Twitter
	}
	if settings.Website == "" {
		settings.Website = defaults.Website
	}
	return settings
}

// EnsureDir creates the parent directory of path when it is missing.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
