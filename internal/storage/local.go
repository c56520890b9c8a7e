package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const metaSuffix = ".meta"

// Local is a Store on the local filesystem. Each object has a JSON sidecar
// holding its content type and cache headers.
type Local struct {
	root   string
	signer *URLSigner
}

var _ Store = (*Local)(nil)

// NewLocal creates the bucket directory under dir if necessary.
func NewLocal(dir, bucket string, signer *URLSigner) (*Local, error) {
	root, err := filepath.Abs(filepath.Join(dir, bucket))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage path %q: %w", dir, err)
	}

	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage path %q: %w", root, err)
	}

	return &Local{root: root, signer: signer}, nil
}

func (s *Local) fullPath(p string) (string, error) {
	cleaned, err := CleanPath(p)
	if err != nil {
		return "", err
	}

	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

func (s *Local) Put(_ context.Context, p string, r io.Reader, size int64, opts PutOptions) (err error) {
	full, err := s.fullPath(p)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o700); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if opts.Overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	f, err := os.OpenFile(full, flags, 0o600)
	if errors.Is(err, os.ErrExist) {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("failed to create object: %w", err)
	}

	defer func() {
		if err != nil {
			_ = os.Remove(full)
			_ = os.Remove(full + metaSuffix)
		}
	}()
	defer f.Close()

	written, err := io.Copy(f, io.LimitReader(r, size+1))
	if err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	if written != size {
		return fmt.Errorf("object size mismatch: declared %d, got %d", size, written)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync object: %w", err)
	}

	info := ObjectInfo{ContentType: opts.ContentType, CacheControl: opts.CacheControl, Size: size}
	meta, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to encode object metadata: %w", err)
	}

	if err := os.WriteFile(full+metaSuffix, meta, 0o600); err != nil {
		return fmt.Errorf("failed to write object metadata: %w", err)
	}

	return nil
}

func (s *Local) Open(_ context.Context, p string) (io.ReadCloser, ObjectInfo, error) {
	full, err := s.fullPath(p)
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	meta, err := os.ReadFile(full + metaSuffix)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ObjectInfo{}, ErrNoObject
	}
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("failed to read object metadata: %w", err)
	}

	var info ObjectInfo
	if err := json.Unmarshal(meta, &info); err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("failed to decode object metadata: %w", err)
	}

	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ObjectInfo{}, ErrNoObject
	}
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("failed to open object: %w", err)
	}

	return f, info, nil
}

// PublicURL signs a /media URL for the object. Missing objects resolve to
// an empty URL.
func (s *Local) PublicURL(_ context.Context, p string) (string, error) {
	full, err := s.fullPath(p)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(full); err != nil {
		return "", nil
	}

	if s.signer == nil {
		return "", nil
	}

	cleaned, _ := CleanPath(p)
	return s.signer.Sign(cleaned), nil
}

func (s *Local) Delete(_ context.Context, p string) error {
	full, err := s.fullPath(p)
	if err != nil {
		return err
	}

	_ = os.Remove(full + metaSuffix)
	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNoObject
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}
