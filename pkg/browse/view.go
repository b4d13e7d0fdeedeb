package browse

import (
	"context"
	"errors"
	"sync"

	"github.com/Sternrassler/beauty-storefront/pkg/catalog"
	"github.com/Sternrassler/beauty-storefront/pkg/logging"
	"github.com/Sternrassler/beauty-storefront/pkg/pagination"
	"github.com/rs/zerolog"
)

var (
	// ErrSuperseded is returned by a load whose result was discarded because
	// the view moved on.
	ErrSuperseded = errors.New("load superseded")

	// ErrNoCategory is returned by Retry before any Open.
	ErrNoCategory = errors.New("no category opened")

	// ErrViewClosed is returned after Close.
	ErrViewClosed = errors.New("view closed")
)

// State of a category view.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is the renderable state of a View.
type Snapshot struct {
	Category string                `json:"category"`
	State    State                 `json:"state"`
	Source   Source                `json:"source,omitempty"`
	Filter   string                `json:"filter"`
	Sort     catalog.SortOrder     `json:"sort,omitempty"`
	Groups   []catalog.FilterGroup `json:"groups"`
	Products []catalog.Product     `json:"products"`
	Total    int                   `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
	HasMore  bool                  `json:"has_more"`
	Err      error                 `json:"-"`
	Error    string                `json:"error,omitempty"`
}

// View is the state machine behind one category listing.
//
// Open moves Idle/Loaded/Failed to Loading and then to Loaded or Failed.
// Filter, sort and page changes work on the already loaded products.
type View struct {
	loader   *Loader
	pageSize int
	logger   zerolog.Logger

	mu       sync.Mutex
	category string
	state    State
	source   Source
	products []catalog.Product
	groups   []catalog.FilterGroup
	filter   string
	sort     catalog.SortOrder
	pager    *pagination.Pager
	err      error

	gen    uint64
	cancel context.CancelFunc
	swept  bool
	closed bool

	skipSweep bool

	onChange func()
}

// ViewOption configures a View.
type ViewOption func(*View)

// WithoutSweep disables the cache sweep on the first Open. Use it for
// short-lived views when stale entries are already swept periodically.
func WithoutSweep() ViewOption {
	return func(v *View) {
		v.skipSweep = true
	}
}

// NewView creates an idle view. Non-positive page sizes use
// pagination.DefaultPageSize.
func NewView(loader *Loader, pageSize int, logger zerolog.Logger, opts ...ViewOption) *View {
	if loader == nil {
		panic("loader cannot be nil")
	}
	pager := pagination.New(pageSize)
	v := &View{
		loader:   loader,
		pageSize: pager.Size(),
		pager:    pager,
		filter:   catalog.FilterAll,
		logger:   logger.With().Str("component", logging.ComponentView).Logger(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// OnChange registers a callback run after every state change.
func (v *View) OnChange(fn func()) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

// Open switches the view to category, resetting page, filter and sort, and
// loads its products. The first Open of a view also sweeps stale cache
// entries unless WithoutSweep was given. Open blocks until the load finishes, fails or is superseded.
func (v *View) Open(ctx context.Context, category string) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}

	v.category = catalog.NormalizeCategory(category)
	v.products = nil
	v.groups = nil
	v.source = ""
	v.filter = catalog.FilterAll
	v.sort = catalog.SortDefault
	v.pager.Reset()

	needSweep := !v.swept && !v.skipSweep
	v.swept = true

	gen, loadCtx, cancel := v.beginLoadLocked(ctx)
	v.mu.Unlock()
	v.changed()

	if needSweep {
		if n, err := v.loader.Sweep(loadCtx); err != nil {
			v.logger.Warn().Err(err).Msg("Cache sweep failed")
		} else if n > 0 {
			v.logger.Debug().Int("removed", n).Msg("Swept stale categories")
		}
	}

	return v.load(loadCtx, cancel, gen)
}

// Retry reloads the current category, keeping filter, sort and page.
func (v *View) Retry(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}
	if v.category == "" {
		v.mu.Unlock()
		return ErrNoCategory
	}
	gen, loadCtx, cancel := v.beginLoadLocked(ctx)
	v.mu.Unlock()
	v.changed()

	return v.load(loadCtx, cancel, gen)
}

// beginLoadLocked cancels any running load and enters Loading.
func (v *View) beginLoadLocked(ctx context.Context) (uint64, context.Context, context.CancelFunc) {
	if v.cancel != nil {
		v.cancel()
	}
	v.gen++
	v.state = StateLoading
	v.err = nil

	loadCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	return v.gen, loadCtx, cancel
}

func (v *View) load(ctx context.Context, cancel context.CancelFunc, gen uint64) error {
	defer cancel()

	v.mu.Lock()
	category := v.category
	v.mu.Unlock()

	products, source, err := v.loader.Load(ctx, category)

	v.mu.Lock()
	if v.closed || gen != v.gen {
		v.mu.Unlock()
		v.logger.Debug().Str("category", category).Msg("Discarding superseded load")
		return ErrSuperseded
	}
	v.cancel = nil

	if err != nil {
		v.state = StateFailed
		v.err = err
		v.products = nil
		v.groups = nil
	} else {
		v.state = StateLoaded
		v.source = source
		v.products = products
		v.groups = catalog.GroupTypes(category, catalog.DistinctTypes(products))
	}
	v.mu.Unlock()
	v.changed()

	return err
}

// SelectFilter activates a filter group. The page counter is kept.
func (v *View) SelectFilter(name string) {
	v.mu.Lock()
	if catalog.IsAll(name) {
		name = catalog.FilterAll
	}
	v.filter = name
	v.mu.Unlock()
	v.changed()
}

// SetSort changes the product order. The page counter is kept.
func (v *View) SetSort(order catalog.SortOrder) {
	v.mu.Lock()
	v.sort = order
	v.mu.Unlock()
	v.changed()
}

// SetPages reveals exactly n pages, clamped to at least one.
func (v *View) SetPages(n int) {
	v.mu.Lock()
	v.pager.SetPage(n)
	v.mu.Unlock()
	v.changed()
}

// LoadMore reveals the next page and reports whether there was one.
func (v *View) LoadMore() bool {
	v.mu.Lock()
	advanced := v.pager.Next(len(v.filteredLocked()))
	v.mu.Unlock()
	if advanced {
		v.changed()
	}
	return advanced
}

// Snapshot returns the current renderable state.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	filtered := catalog.SortProducts(v.filteredLocked(), v.sort)
	visible := pagination.Window(filtered, v.pager)

	snap := Snapshot{
		Category: v.category,
		State:    v.state,
		Source:   v.source,
		Filter:   v.filter,
		Sort:     v.sort,
		Groups:   append([]catalog.FilterGroup{}, v.groups...),
		Products: append([]catalog.Product{}, visible...),
		Total:    len(filtered),
		Page:     v.pager.Page(),
		PageSize: v.pageSize,
		HasMore:  v.pager.HasMore(len(filtered)),
		Err:      v.err,
	}
	if v.err != nil {
		snap.Error = v.err.Error()
	}
	return snap
}

// Close cancels any running load. Later calls to Open and Retry fail.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

func (v *View) filteredLocked() []catalog.Product {
	return catalog.FilterProducts(v.products, v.category, v.filter)
}

func (v *View) changed() {
	v.mu.Lock()
	fn := v.onChange
	v.mu.Unlock()
	if fn != nil {
		fn()
	}
}
