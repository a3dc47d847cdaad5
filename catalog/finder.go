package catalog

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/viant/hotelsearch/geo"
	"github.com/viant/hotelsearch/index"
	"github.com/viant/hotelsearch/index/bruteforce"
	"github.com/viant/hotelsearch/index/cover"
	"github.com/viant/hotelsearch/metrics"
)

// FindResult is the answer to a place-name search.
type FindResult struct {
	Location string    `json:"query_location"`
	Coords   geo.Point `json:"coords"`
	Hotels   []Match   `json:"results"`
}

// Finder answers nearest-hotel queries from an in-memory index that is
// rebuilt only when the catalogue SCN moves.
type Finder struct {
	store     *SQLiteStore
	locate    LocateFunc
	kind      index.Kind
	coverOpts []cover.Option
	persist   bool

	group   singleflight.Group
	mu      sync.RWMutex
	current *snapshot
}

// FinderOption customises a Finder.
type FinderOption func(*Finder)

// WithLocator replaces HashLocator.
func WithLocator(fn LocateFunc) FinderOption {
	return func(f *Finder) {
		if fn != nil {
			f.locate = fn
		}
	}
}

// WithIndexKind selects the index implementation; the default is
// index.KindAuto.
func WithIndexKind(kind index.Kind) FinderOption {
	return func(f *Finder) { f.kind = kind }
}

// WithCoverOptions configures cover tree indexes.
func WithCoverOptions(opts ...cover.Option) FinderOption {
	return func(f *Finder) { f.coverOpts = opts }
}

// WithSnapshots toggles persisting built indexes in index_storage
// (enabled by default).
func WithSnapshots(enabled bool) FinderOption {
	return func(f *Finder) { f.persist = enabled }
}

// NewFinder creates a Finder over store.
func NewFinder(store *SQLiteStore, opts ...FinderOption) (*Finder, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog: store is nil")
	}
	f := &Finder{store: store, locate: HashLocator, kind: index.KindAuto, persist: true}
	for _, opt := range opts {
		opt(f)
	}
	if _, ok := index.ParseKind(string(f.kind)); !ok {
		return nil, fmt.Errorf("catalog: unknown index kind %q", f.kind)
	}
	return f, nil
}

// Find resolves location to coordinates and returns the k nearest bookable
// hotels. An empty location searches DefaultLocation; k <= 0 returns every
// bookable hotel.
func (f *Finder) Find(ctx context.Context, location string, k int) (*FindResult, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		location = DefaultLocation
	}
	p, err := f.locate(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("catalog: locate %q: %w", location, err)
	}
	hotels, err := f.FindNear(ctx, p, k)
	if err != nil {
		return nil, err
	}
	return &FindResult{Location: location, Coords: p, Hotels: hotels}, nil
}

// FindNear returns the k hotels nearest to p, nearest first, skipping sold
// out hotels. Ties keep id order.
func (f *Finder) FindNear(ctx context.Context, p geo.Point, k int) ([]Match, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("catalog: query %v is not finite", p)
	}
	idx, err := f.Index(ctx)
	if err != nil {
		return nil, err
	}
	soldOut, err := f.store.SoldOut(ctx)
	if err != nil {
		return nil, err
	}
	fetch := k
	if k > 0 {
		fetch = k + int(soldOut.GetCardinality())
	}
	neighbors, err := idx.Query(p, fetch)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(neighbors))
	kept := neighbors[:0:0]
	for _, n := range neighbors {
		if soldOut.Contains(uint64(n.ID)) {
			continue
		}
		ids = append(ids, n.ID)
		kept = append(kept, n)
		if k > 0 && len(kept) == k {
			break
		}
	}
	hotels, err := f.store.HotelsByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Match, 0, len(kept))
	for _, n := range kept {
		h, ok := hotels[n.ID]
		if !ok {
			continue
		}
		out = append(out, Match{Hotel: h, Distance: round2(math.Sqrt(n.Distance))})
	}
	return out, nil
}

// Index returns an index current with the catalogue SCN, loading a persisted
// snapshot or building a new one when needed. Concurrent callers share one
// build, which outlives the cancellation of the caller that started it.
func (f *Finder) Index(ctx context.Context) (index.Index, error) {
	scn, err := f.store.SCN(ctx)
	if err != nil {
		return nil, err
	}
	f.mu.RLock()
	cur := f.current
	f.mu.RUnlock()
	if cur != nil && cur.scn == scn {
		return cur.idx, nil
	}
	return f.ensure(ctx, scn)
}

// ensure loads or builds the index for scn once across concurrent callers.
func (f *Finder) ensure(ctx context.Context, scn int64) (index.Index, error) {
	shared := context.WithoutCancel(ctx)
	v, err, _ := f.group.Do(strconv.FormatInt(scn, 10), func() (any, error) {
		snap, err := f.refresh(shared, scn)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		if f.current == nil || f.current.scn <= snap.scn {
			f.current = snap
		}
		f.mu.Unlock()
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*snapshot).idx, nil
}

func (f *Finder) refresh(ctx context.Context, scn int64) (*snapshot, error) {
	started := time.Now()
	if f.persist {
		snap, err := f.store.loadSnapshot(ctx, scn, f.coverOpts)
		if err != nil {
			logrus.Warnf("catalog: ignoring index snapshot at scn %d: %v", scn, err)
		} else if snap != nil && f.kind.Resolve(snap.idx.Len()) == snap.kind {
			metrics.ObserveIndexBuild(string(snap.kind), metrics.SourceSnapshot, snap.idx.Len(), time.Since(started))
			logrus.Debugf("catalog: loaded %s index snapshot (%d hotels) at scn %d", snap.kind, snap.idx.Len(), scn)
			return snap, nil
		}
	}

	builtSCN, ids, pts, err := f.store.points(ctx)
	if err != nil {
		return nil, err
	}
	kind := f.kind.Resolve(len(pts))
	var idx index.Index
	switch kind {
	case index.KindCover:
		idx = cover.New(f.coverOpts...)
	default:
		idx = &bruteforce.Index{}
	}
	if err := idx.Build(ids, pts); err != nil {
		return nil, fmt.Errorf("catalog: build %s index: %w", kind, err)
	}
	snap := &snapshot{scn: builtSCN, kind: kind, idx: idx}
	metrics.ObserveIndexBuild(string(kind), metrics.SourceBuild, len(pts), time.Since(started))
	logrus.Infof("catalog: built %s index over %d hotels at scn %d in %s", kind, len(pts), builtSCN, time.Since(started))

	if f.persist {
		if err := f.store.saveSnapshot(ctx, snap); err != nil {
			logrus.Warnf("%v", err)
		}
	}
	return snap, nil
}
