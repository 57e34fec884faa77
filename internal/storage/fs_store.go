package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// FSStore keeps objects as files on an afero filesystem. It backs local runs
// (OS directory) and tests (in-memory).
type FSStore struct {
	fs afero.Fs
}

// NewFSStore wraps an afero filesystem whose root is the store root.
func NewFSStore(fs afero.Fs) *FSStore {
	return &FSStore{fs: fs}
}

// NewDirStore returns a store rooted at dir on the local disk.
func NewDirStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store root %s: %w", dir, err)
	}
	return NewFSStore(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

func fsPath(key string) string {
	return "/" + strings.TrimPrefix(path.Clean("/"+key), "/")
}

// List returns all object keys starting with prefix, sorted. Only the
// directory named by prefix is walked.
func (s *FSStore) List(ctx context.Context, prefix string) ([]string, error) {
	root := "/"
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		root = fsPath(prefix[:i])
	}
	ok, err := afero.DirExists(s.fs, root)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}
	if !ok {
		return nil, nil
	}

	var keys []string
	err = afero.Walk(s.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir() {
			return nil
		}
		key := strings.TrimPrefix(toSlash(p), "/")
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Exists reports whether key is present. For a prefix key ("dir/") it reports
// whether at least one object lives underneath.
func (s *FSStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if isPrefixKey(key) {
		dir := fsPath(key)
		ok, err := afero.DirExists(s.fs, dir)
		if err != nil || !ok {
			return false, err
		}
		empty, err := afero.IsEmpty(s.fs, dir)
		if err != nil {
			return false, fmt.Errorf("inspect %q: %w", key, err)
		}
		return !empty, nil
	}
	ok, err := afero.Exists(s.fs, fsPath(key))
	if err != nil {
		return false, fmt.Errorf("stat %q: %w", key, err)
	}
	return ok, nil
}

// Download opens key for streaming reads.
func (s *FSStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := s.fs.Open(fsPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("download %q: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("download %q: %w", key, err)
	}
	return f, nil
}

// Upload writes body to key, replacing any previous object. The write goes to
// a temporary sibling first so readers never observe a partial file.
func (s *FSStore) Upload(ctx context.Context, key string, body []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := fsPath(key)
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return fmt.Errorf("upload %q: mkdir: %w", key, err)
	}
	tmp := p + ".part"
	if err := afero.WriteFile(s.fs, tmp, body, 0o644); err != nil {
		return fmt.Errorf("upload %q: write: %w", key, err)
	}
	if err := s.fs.Rename(tmp, p); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("upload %q: rename: %w", key, err)
	}
	return nil
}

// Ping checks that the store root is reachable.
func (s *FSStore) Ping(_ context.Context) error {
	if _, err := s.fs.Stat("/"); err != nil {
		return fmt.Errorf("stat store root: %w", err)
	}
	return nil
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
