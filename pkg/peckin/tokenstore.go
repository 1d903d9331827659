package peckin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// TokenStore persists the refresh token between process runs.
type TokenStore interface {
	Load() (string, error)
	Save(refresh string) error
	Clear() error
}

// FileTokenStore keeps the refresh token in a 0600 JSON file.
type FileTokenStore struct {
	Path string
}

type storedSession struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *FileTokenStore) Load() (string, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var st storedSession
	if err := json.Unmarshal(b, &st); err != nil {
		return "", err
	}
	return st.RefreshToken, nil
}

func (s *FileTokenStore) Save(refresh string) error {
	b, err := json.Marshal(storedSession{RefreshToken: refresh})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}

func (s *FileTokenStore) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
