package localfs

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/phenrril/storefront/internal/domain"
)

// Storage guarda los uploads en disco; se usa cuando no hay bucket configurado.
// PublicURL asume que baseURL sirve dir bajo /uploads/.
type Storage struct {
	dir     string
	baseURL string
}

func New(dir, baseURL string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Storage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *Storage) Dir() string { return s.dir }

func (s *Storage) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", domain.Invalid("clave vacía")
	}
	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}

func (s *Storage) Put(_ context.Context, key, _ string, r io.Reader) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (s *Storage) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NotFound("archivo")
		}
		return err
	}
	return nil
}

func (s *Storage) PublicURL(key string) string {
	return s.baseURL + "/uploads/" + strings.TrimLeft(key, "/")
}
