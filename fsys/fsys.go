// Package fsys is the loader's filesystem collaborator, backed by afero.
//
// Production code uses the OS filesystem; tests hand in afero.NewMemMapFs()
// so resolution and loading run without touching disk.
package fsys

import (
	"github.com/spf13/afero"

	"github.com/wippyai/module-loader/eventloop"
)

// FS answers existence checks and reads module content.
type FS struct {
	fs afero.Fs
}

// New wraps an afero filesystem.
func New(fs afero.Fs) *FS {
	return &FS{fs: fs}
}

// OS returns an FS over the host filesystem.
func OS() *FS {
	return New(afero.NewOsFs())
}

// Afero exposes the underlying filesystem.
func (f *FS) Afero() afero.Fs { return f.fs }

// Exists reports whether path names something that is not a directory.
func (f *FS) Exists(path string) bool {
	info, err := f.fs.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ReadFile returns the content at path.
func (f *FS) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(f.fs, path)
}

// Blocking is the synchronous surface Deferred adapts.
type Blocking interface {
	Exists(path string) bool
	ReadFile(path string) ([]byte, error)
}

// Deferred runs blocking calls on loop workers and delivers results on the
// loop.
type Deferred struct {
	fs   Blocking
	loop *eventloop.Loop
}

// NewDeferred pairs fs with loop.
func NewDeferred(fs Blocking, loop *eventloop.Loop) *Deferred {
	return &Deferred{fs: fs, loop: loop}
}

// Exists delivers the existence of path to k.
func (d *Deferred) Exists(path string, k func(bool)) {
	eventloop.Submit(d.loop, func() bool {
		return d.fs.Exists(path)
	}, k)
}

type readResult struct {
	err  error
	data []byte
}

// ReadFile delivers the content at path to k.
func (d *Deferred) ReadFile(path string, k func([]byte, error)) {
	eventloop.Submit(d.loop, func() readResult {
		data, err := d.fs.ReadFile(path)
		return readResult{data: data, err: err}
	}, func(r readResult) {
		k(r.data, r.err)
	})
}
