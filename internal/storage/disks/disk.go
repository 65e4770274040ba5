package disks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

// ParseVisibility falls back to Private for anything that is not "public".
func ParseVisibility(s string) Visibility {
	if Visibility(s) == Public {
		return Public
	}
	return Private
}

var (
	ErrNotLocal     = errors.New("disk has no local filesystem path")
	ErrUnknownDisk  = errors.New("unknown disk")
	ErrObjectAbsent = errors.New("object does not exist")
)

// Disk is a named blob store. Paths are slash-separated and relative to the disk root.
type Disk interface {
	Name() string
	DefaultVisibility() Visibility

	MakeDirectory(ctx context.Context, dir string) error
	// Put writes r to dir/filename and returns the number of bytes stored.
	Put(ctx context.Context, dir, filename string, r io.Reader, size int64, contentType string) (int64, error)
	Exists(ctx context.Context, path string) (bool, error)
	DeleteDirectory(ctx context.Context, dir string) error

	Visibility(ctx context.Context, path string) (Visibility, error)
	SetVisibility(ctx context.Context, path string, v Visibility) error

	URL(path string) string
	TemporaryURL(ctx context.Context, path string, expiresAt time.Time) (string, error)

	// AbsolutePath returns ErrNotLocal for remote disks.
	AbsolutePath(path string) (string, error)
	// Download copies path into a local file.
	Download(ctx context.Context, path, localPath string) error
	// Upload stores a local file at path.
	Upload(ctx context.Context, localPath, path, contentType string) error
}

// Manager resolves disks by name.
type Manager struct {
	mu          sync.RWMutex
	disks       map[string]Disk
	defaultDisk string
}

func NewManager(defaultDisk string, disks ...Disk) *Manager {
	m := &Manager{disks: make(map[string]Disk), defaultDisk: defaultDisk}
	for _, d := range disks {
		m.Add(d)
	}
	return m
}

func (m *Manager) Add(d Disk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disks[d.Name()] = d
}

func (m *Manager) DefaultName() string {
	return m.defaultDisk
}

// Disk returns the named disk; an empty name selects the default disk.
func (m *Manager) Disk(name string) (Disk, error) {
	if name == "" {
		name = m.defaultDisk
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.disks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDisk, name)
	}
	return d, nil
}

func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.disks))
	for n := range m.disks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
