package loader

import (
	"github.com/wippyai/module-loader/eventloop"
	"github.com/wippyai/module-loader/fetch"
)

// strategy is how the shared load path suspends: blocking calls its
// continuation before returning, deferred calls it later on the loop.
type strategy interface {
	deferred() bool
	exists(path string, k func(bool))
	read(location string, k func([]byte, error))
}

type blocking struct{ l *Loader }

func (blocking) deferred() bool { return false }

func (b blocking) exists(path string, k func(bool)) {
	k(b.l.fs.Exists(path))
}

func (b blocking) read(location string, k func([]byte, error)) {
	k(b.l.fs.ReadFile(location))
}

type deferred struct{ l *Loader }

func (deferred) deferred() bool { return true }

func (d deferred) exists(path string, k func(bool)) {
	d.l.dfs.Exists(path, k)
}

type fetched struct {
	data []byte
	err  error
}

func (d deferred) read(location string, k func([]byte, error)) {
	if !fetch.IsURL(location) {
		d.l.dfs.ReadFile(location, k)
		return
	}
	if d.l.fetcher == nil {
		k(nil, errNoFetcher)
		return
	}
	eventloop.Submit(d.l.loop, func() fetched {
		data, err := d.l.fetcher.Fetch(d.l.ctx, location)
		return fetched{data: data, err: err}
	}, func(r fetched) {
		k(r.data, r.err)
	})
}
