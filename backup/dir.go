package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DirStore keeps documents under root/<account>/<name> on the local disk.
type DirStore struct {
	root string
}

func NewDirStore(root string) (*DirStore, error) {
	if root == "" {
		return nil, fmt.Errorf("backup directory is empty")
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create backup directory %s: %w", root, err)
	}
	return &DirStore{root: root}, nil
}

func (s *DirStore) path(account, name string) string {
	return filepath.Join(s.root, accountDir(account), filepath.Base(name))
}

func (s *DirStore) Save(ctx context.Context, account string, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := s.path(account, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), name+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p)
}

func (s *DirStore) Load(ctx context.Context, account string, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(account, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	return data, err
}

// accountDir maps an account identity to a single safe path element.
func accountDir(account string) string {
	dir := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '@' || r == '.' || r == '-' || r == '_':
			return r
		}
		return '_'
	}, account)
	if strings.Trim(dir, ".") == "" {
		return strings.Repeat("_", len(dir)+1)
	}
	return dir
}
