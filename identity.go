package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// IdentityKey is the one key persisted between runs.
const IdentityKey = "userId"

// Identity is the opaque, stable user identity handed to the core.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
}

var rename = os.Rename

// IdentityStore keeps the user id in a small JSON file.
type IdentityStore struct {
	Path string
}

// Load reads the stored id, generating and writing a new one only when none
// exists yet.
func (s IdentityStore) Load() (string, error) {
	values, err := s.read()
	if err != nil {
		return "", err
	}
	if id := values[IdentityKey]; id != "" {
		return id, nil
	}

	id := uuid.New().String()
	values[IdentityKey] = id
	if err := s.write(values); err != nil {
		return "", err
	}
	log.Printf("🆔 Generated user id %s\n", id)
	return id, nil
}

func (s IdentityStore) read() (map[string]string, error) {
	values := map[string]string{}
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read identity: %w", err)
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse identity %s: %w", s.Path, err)
	}
	return values, nil
}

func (s IdentityStore) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create identity dir: %w", err)
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write identity: %w", err)
	}
	if err := rename(tmp, s.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}
