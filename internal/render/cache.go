package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// rendererPool hands out glamour renderers keyed by options. A TermRenderer
// must not be used by two goroutines at once, so each caller borrows one.
type rendererPool struct {
	mu    sync.Mutex
	pools map[Options]*sync.Pool
}

var globalPool = &rendererPool{pools: make(map[Options]*sync.Pool)}

// cacheKey normalizes opts so equivalent settings share a pool.
func cacheKey(opts Options) Options {
	if opts.Style == "" {
		opts.Style = DefaultOptions().Style
	}
	return opts
}

func (p *rendererPool) poolFor(opts Options) *sync.Pool {
	key := cacheKey(opts)

	p.mu.Lock()
	defer p.mu.Unlock()

	pool, ok := p.pools[key]
	if !ok {
		pool = &sync.Pool{New: func() any {
			r, err := createRenderer(key)
			if err != nil {
				return nil
			}
			return r
		}}
		p.pools[key] = pool
	}
	return pool
}

func (p *rendererPool) get(opts Options) (*glamour.TermRenderer, error) {
	if r, ok := p.poolFor(opts).Get().(*glamour.TermRenderer); ok {
		return r, nil
	}
	// New failed; surface the error from a direct attempt
	return createRenderer(cacheKey(opts))
}

func (p *rendererPool) put(opts Options, r *glamour.TermRenderer) {
	if r != nil {
		p.poolFor(opts).Put(r)
	}
}

func createRenderer(opts Options) (*glamour.TermRenderer, error) {
	ropts := []glamour.TermRendererOption{
		glamour.WithStylePath(cacheKey(opts).Style),
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if opts.EnableEmoji {
		ropts = append(ropts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		ropts = append(ropts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(ropts...)
}

// ClearCache drops every pool.
func ClearCache() {
	globalPool.mu.Lock()
	globalPool.pools = make(map[Options]*sync.Pool)
	globalPool.mu.Unlock()
}

// CacheSize reports how many distinct option sets have a pool.
func CacheSize() int {
	globalPool.mu.Lock()
	defer globalPool.mu.Unlock()
	return len(globalPool.pools)
}
