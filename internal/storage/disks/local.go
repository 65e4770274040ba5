package disks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const (
	publicFilePerm  fs.FileMode = 0o644
	privateFilePerm fs.FileMode = 0o600
	publicDirPerm   fs.FileMode = 0o755
	privateDirPerm  fs.FileMode = 0o700
)

// LocalDisk stores files under a directory on the host filesystem. Visibility is
// carried by file permissions; temporary URLs carry a signed token that the
// storage route verifies.
type LocalDisk struct {
	name       string
	root       string
	baseURL    string
	visibility Visibility
	signer     *URLSigner
}

type LocalConfig struct {
	Name       string
	Root       string
	BaseURL    string
	Visibility Visibility
	Signer     *URLSigner
}

func NewLocalDisk(cfg LocalConfig) (*LocalDisk, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve disk root: %w", err)
	}
	if err := os.MkdirAll(root, publicDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create disk root: %w", err)
	}
	if cfg.Visibility == "" {
		cfg.Visibility = Private
	}
	if cfg.Signer == nil {
		return nil, errors.New("local disk requires a url signer")
	}
	log.Printf("[Disk] %s mounted at %s", cfg.Name, root)
	return &LocalDisk{
		name:       cfg.Name,
		root:       root,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		visibility: cfg.Visibility,
		signer:     cfg.Signer,
	}, nil
}

func (d *LocalDisk) Name() string                  { return d.name }
func (d *LocalDisk) DefaultVisibility() Visibility { return d.visibility }

func (d *LocalDisk) AbsolutePath(p string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(p))
	if clean == "/" {
		return "", fmt.Errorf("invalid path %q", p)
	}
	return filepath.Join(d.root, filepath.FromSlash(clean)), nil
}

func (d *LocalDisk) MakeDirectory(_ context.Context, dir string) error {
	abs, err := d.AbsolutePath(dir)
	if err != nil {
		return err
	}
	return os.MkdirAll(abs, publicDirPerm)
}

func (d *LocalDisk) Put(ctx context.Context, dir, filename string, r io.Reader, _ int64, _ string) (int64, error) {
	if err := d.MakeDirectory(ctx, dir); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}
	abs, err := d.AbsolutePath(path.Join(dir, filename))
	if err != nil {
		return 0, err
	}
	f, err := os.OpenFile(abs, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, d.filePerm(d.visibility))
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return n, nil
}

func (d *LocalDisk) Exists(_ context.Context, p string) (bool, error) {
	abs, err := d.AbsolutePath(p)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d *LocalDisk) DeleteDirectory(_ context.Context, dir string) error {
	abs, err := d.AbsolutePath(dir)
	if err != nil {
		return err
	}
	return os.RemoveAll(abs)
}

func (d *LocalDisk) Visibility(_ context.Context, p string) (Visibility, error) {
	abs, err := d.AbsolutePath(p)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if info.Mode().Perm()&0o044 != 0 {
		return Public, nil
	}
	return Private, nil
}

func (d *LocalDisk) SetVisibility(_ context.Context, p string, v Visibility) error {
	abs, err := d.AbsolutePath(p)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	perm := d.filePerm(v)
	if info.IsDir() {
		perm = privateDirPerm
		if v == Public {
			perm = publicDirPerm
		}
	}
	return os.Chmod(abs, perm)
}

func (d *LocalDisk) URL(p string) string {
	return d.baseURL + "/" + d.name + "/" + strings.TrimLeft(p, "/")
}

func (d *LocalDisk) TemporaryURL(_ context.Context, p string, expiresAt time.Time) (string, error) {
	token, err := d.signer.Sign(d.name, p, expiresAt)
	if err != nil {
		return "", fmt.Errorf("failed to sign url: %w", err)
	}
	return d.URL(p) + "?" + url.Values{"token": {token}}.Encode(), nil
}

// VerifyToken checks a token taken from a TemporaryURL.
func (d *LocalDisk) VerifyToken(p, token string) error {
	return d.signer.Verify(d.name, p, token)
}

func (d *LocalDisk) Download(_ context.Context, p, localPath string) error {
	abs, err := d.AbsolutePath(p)
	if err != nil {
		return err
	}
	return copyFile(abs, localPath, publicFilePerm)
}

func (d *LocalDisk) Upload(ctx context.Context, localPath, p, _ string) error {
	if err := d.MakeDirectory(ctx, path.Dir(p)); err != nil {
		return err
	}
	abs, err := d.AbsolutePath(p)
	if err != nil {
		return err
	}
	return copyFile(localPath, abs, d.filePerm(d.visibility))
}

func (d *LocalDisk) filePerm(v Visibility) fs.FileMode {
	if v == Public {
		return publicFilePerm
	}
	return privateFilePerm
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
