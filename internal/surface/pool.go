package surface

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/hashicorp/go-hclog"

	"github.com/ironsheep/image-fit/internal/errs"
)

var (
	// ErrDoubleRelease is returned when a surface is released twice.
	ErrDoubleRelease = errors.New("surface already released")

	// ErrForeignSurface is returned when a surface is released to a pool
	// that did not hand it out.
	ErrForeignSurface = errors.New("surface belongs to another pool")

	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("surface pool closed")
)

// Default configuration values.
const (
	DefaultMaxPoolSize       = 8
	DefaultMemoryCeiling     = 256 << 20
	DefaultBucketSize        = 100
	DefaultMaxSurfacePixels  = 64 << 20
	DefaultPressureThreshold = 0.85
)

const bytesPerPixel = 4

// Config configures a Pool. Zero values fall back to the defaults above.
type Config struct {
	// MaxPoolSize caps the number of idle surfaces kept for reuse. A
	// negative value keeps none.
	MaxPoolSize int

	// MemoryCeiling is the byte budget used by Complexity and the memory
	// pressure check.
	MemoryCeiling int64

	// BucketSize is the size-class granularity in pixels.
	BucketSize int

	// MaxSurfacePixels is the hard per-surface ceiling. Larger requests fail
	// with an AllocationError.
	MaxSurfacePixels int64

	// PressureThreshold is the Complexity value at which Optimize starts
	// evicting idle surfaces.
	PressureThreshold float64

	// SystemPressurePercent makes Optimize drop every idle surface when the
	// Probe reports system memory usage above it. Zero disables the check.
	SystemPressurePercent float64

	// Probe reports system memory usage. Nil disables the system check.
	Probe MemoryProbe

	Logger hclog.Logger

	// Now is the clock used for lastUsedAt stamps.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.MaxPoolSize < 0 {
		c.MaxPoolSize = 0
	} else if c.MaxPoolSize == 0 {
		c.MaxPoolSize = DefaultMaxPoolSize
	}
	if c.MemoryCeiling <= 0 {
		c.MemoryCeiling = DefaultMemoryCeiling
	}
	if c.BucketSize <= 0 {
		c.BucketSize = DefaultBucketSize
	}
	if c.MaxSurfacePixels <= 0 {
		c.MaxSurfacePixels = DefaultMaxSurfacePixels
	}
	if c.PressureThreshold <= 0 || c.PressureThreshold > 1 {
		c.PressureThreshold = DefaultPressureThreshold
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

type state int

const (
	stateIdle state = iota
	stateInUse
	stateEvicted
)

type sizeClass struct {
	w, h int
}

type entry struct {
	id         uint64
	class      sizeClass
	img        *image.NRGBA
	lastUsedAt time.Time
	state      state
}

func (e *entry) bytes() int64 {
	return int64(e.class.w) * int64(e.class.h) * bytesPerPixel
}

// idleLess orders idle entries oldest first.
func idleLess(a, b *entry) bool {
	if !a.lastUsedAt.Equal(b.lastUsedAt) {
		return a.lastUsedAt.Before(b.lastUsedAt)
	}
	return a.id < b.id
}

// Pool hands out reusable drawing surfaces.
//
// Surfaces are bucketed by size class. An idle surface of the right class is
// reused; otherwise a new one is allocated. Idle surfaces are evicted oldest
// first when the pool is over its cap or under memory pressure. A surface
// that is in use is never evicted.
//
// Pool is safe for concurrent use.
type Pool struct {
	mu  sync.Mutex
	cfg Config
	log hclog.Logger

	entries     map[uint64]*entry
	idle        *btree.BTreeG[*entry]
	idleByClass map[sizeClass]map[uint64]*entry
	nextID      uint64
	memory      int64
	closed      bool

	created  uint64
	acquired uint64
	released uint64
	evicted  uint64
	hits     uint64
}

// New creates an empty pool.
func New(cfg Config) *Pool {
	cfg = cfg.withDefaults()
	return &Pool{
		cfg:         cfg,
		log:         cfg.Logger,
		entries:     make(map[uint64]*entry),
		idle:        btree.NewG[*entry](8, idleLess),
		idleByClass: make(map[sizeClass]map[uint64]*entry),
	}
}

func (p *Pool) classFor(w, h int) sizeClass {
	b := p.cfg.BucketSize
	return sizeClass{w: (w + b - 1) / b * b, h: (h + b - 1) / b * b}
}

// Acquire returns a cleared w x h surface. The caller must release it exactly
// once.
func (p *Pool) Acquire(w, h int) (*Surface, error) {
	if w <= 0 || h <= 0 {
		return nil, errs.Invalidf("surface size %dx%d must be positive", w, h)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, errs.Wrap(ErrPoolClosed)
	}

	if !fits(w, h, p.cfg.MaxSurfacePixels) {
		return nil, p.ceilingError(w, h, fmt.Sprintf("%dx%d exceeds the %d pixel ceiling", w, h, p.cfg.MaxSurfacePixels))
	}
	class := p.classFor(w, h)
	if !fits(class.w, class.h, math.MaxInt64/bytesPerPixel) {
		return nil, p.ceilingError(w, h, fmt.Sprintf("size class %dx%d exceeds the addressable pixel ceiling", class.w, class.h))
	}
	if e := p.takeIdle(class); e != nil {
		clear(e.img.Pix)
		e.state = stateInUse
		p.acquired++
		p.hits++
		return newSurface(p, e, w, h), nil
	}

	// Idle entries above the cap are reclaimed before growing the pool.
	p.evictOverCap(p.cfg.MaxPoolSize)

	e := &entry{id: p.nextID, class: class, state: stateInUse}
	p.nextID++
	for p.memory+e.bytes() > p.cfg.MemoryCeiling && p.evictOldest("memory ceiling") {
	}

	img, err := allocate(class)
	if err != nil {
		p.log.Warn("surface allocation failed", "width", w, "height", h, "error", err)
		return nil, errs.Wrap(&AllocationError{
			Width:  w,
			Height: h,
			Reason: err.Error(),
			Stats:  p.statsLocked(),
		})
	}
	e.img = img
	p.entries[e.id] = e
	p.memory += e.bytes()
	p.created++
	p.acquired++

	if p.memory > p.cfg.MemoryCeiling {
		p.log.Warn("pool over memory ceiling with no idle surfaces left",
			"memory_bytes", p.memory, "ceiling_bytes", p.cfg.MemoryCeiling)
	}
	p.log.Debug("surface created", "id", e.id, "class_w", class.w, "class_h", class.h)

	return newSurface(p, e, w, h), nil
}

// fits reports whether w*h <= limit without overflowing.
func fits(w, h int, limit int64) bool {
	return int64(w) <= limit/int64(h)
}

func (p *Pool) ceilingError(w, h int, reason string) error {
	p.log.Warn("surface exceeds pixel ceiling", "width", w, "height", h, "max_pixels", p.cfg.MaxSurfacePixels)
	return errs.Wrap(&AllocationError{
		Width:  w,
		Height: h,
		Reason: reason,
		Stats:  p.statsLocked(),
	})
}

func allocate(class sizeClass) (img *image.NRGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("allocating %dx%d: %v", class.w, class.h, r)
		}
	}()
	return image.NewNRGBA(image.Rect(0, 0, class.w, class.h)), nil
}

// takeIdle removes and returns the most recently used idle entry of the
// class, or nil.
func (p *Pool) takeIdle(class sizeClass) *entry {
	var best *entry
	for _, e := range p.idleByClass[class] {
		if best == nil || idleLess(best, e) {
			best = e
		}
	}
	if best != nil {
		p.unlinkIdle(best)
	}
	return best
}

func (p *Pool) unlinkIdle(e *entry) {
	p.idle.Delete(e)
	if m := p.idleByClass[e.class]; m != nil {
		delete(m, e.id)
		if len(m) == 0 {
			delete(p.idleByClass, e.class)
		}
	}
}

func (p *Pool) linkIdle(e *entry) {
	p.idle.ReplaceOrInsert(e)
	m := p.idleByClass[e.class]
	if m == nil {
		m = make(map[uint64]*entry)
		p.idleByClass[e.class] = m
	}
	m[e.id] = e
}

// Release returns s to the pool.
func (p *Pool) Release(s *Surface) error {
	if s == nil || s.entry == nil {
		return errs.Invalidf("release of nil surface")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if s.pool != p {
		return errs.Wrap(ErrForeignSurface)
	}
	if s.released {
		return errs.Wrap(ErrDoubleRelease)
	}
	s.released = true

	e := s.entry
	e.state = stateIdle
	e.lastUsedAt = p.cfg.Now()
	p.linkIdle(e)
	p.released++

	if p.closed {
		p.evict(e, "pool closed")
		return nil
	}
	for p.memory > p.cfg.MemoryCeiling && p.evictOldest("memory ceiling") {
	}
	return nil
}

func (p *Pool) evict(e *entry, reason string) {
	p.unlinkIdle(e)
	delete(p.entries, e.id)
	p.memory -= e.bytes()
	e.state = stateEvicted
	e.img = nil
	p.evicted++
	p.log.Debug("surface evicted", "id", e.id, "class_w", e.class.w, "class_h", e.class.h, "reason", reason)
}

// evictOldest evicts the oldest idle entry and reports whether there was one.
func (p *Pool) evictOldest(reason string) bool {
	e, ok := p.idle.Min()
	if !ok {
		return false
	}
	p.evict(e, reason)
	return true
}

func (p *Pool) evictOverCap(limit int) int {
	n := 0
	for p.idle.Len() > limit && p.evictOldest("pool size cap") {
		n++
	}
	return n
}

// SetMaxPoolSize changes the idle cap and evicts down to it immediately.
func (p *Pool) SetMaxPoolSize(n int) error {
	if n < 0 {
		return errs.Invalidf("max pool size %d must not be negative", n)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.MaxPoolSize = n
	p.evictOverCap(n)
	return nil
}

// Complexity is a load metric in [0,1]:
//
//	max(entries/MaxPoolSize, memoryBytes/MemoryCeiling)
//
// clamped to 1. In-use surfaces count towards both terms.
func (p *Pool) Complexity() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.complexityLocked()
}

func (p *Pool) complexityLocked() float64 {
	var occupancy float64
	switch {
	case p.cfg.MaxPoolSize > 0:
		occupancy = float64(len(p.entries)) / float64(p.cfg.MaxPoolSize)
	case len(p.entries) > 0:
		occupancy = 1
	}
	memory := float64(p.memory) / float64(p.cfg.MemoryCeiling)
	return math.Min(1, math.Max(occupancy, memory))
}

// Optimize evicts idle surfaces oldest first while the pool is over its cap,
// while Complexity is at or above the pressure threshold, and, when the
// system memory probe trips, until no idle surface is left. It returns the
// number of evicted surfaces.
func (p *Pool) Optimize() int {
	systemPressure := p.systemPressure()

	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.evictOverCap(p.cfg.MaxPoolSize)
	for p.idle.Len() > 0 {
		if !systemPressure && p.complexityLocked() < p.cfg.PressureThreshold {
			break
		}
		reason := "complexity"
		if systemPressure {
			reason = "system memory pressure"
		}
		p.evictOldest(reason)
		n++
	}
	return n
}

func (p *Pool) systemPressure() bool {
	if p.cfg.Probe == nil || p.cfg.SystemPressurePercent <= 0 {
		return false
	}
	used, err := p.cfg.Probe.UsedPercent()
	if err != nil {
		p.log.Debug("memory probe failed", "error", err)
		return false
	}
	return used >= p.cfg.SystemPressurePercent
}

// Clear evicts every idle surface. Surfaces in use are left alone.
func (p *Pool) Clear() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.evictOverCap(0)
}

// Close clears the pool and makes further Acquire calls fail. Surfaces still
// in use are evicted as they are released.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.evictOverCap(0)
}

// Stats is a snapshot of pool counters.
type Stats struct {
	TotalCreated  uint64  `json:"total_created"`
	TotalAcquired uint64  `json:"total_acquired"`
	TotalReleased uint64  `json:"total_released"`
	TotalEvicted  uint64  `json:"total_evicted"`
	PoolHits      uint64  `json:"pool_hits"`
	HitRatio      float64 `json:"hit_ratio"`
	PoolSize      int     `json:"pool_size"`
	InUse         int     `json:"in_use"`
	Idle          int     `json:"idle"`
	MaxPoolSize   int     `json:"max_pool_size"`
	MemoryBytes   int64   `json:"memory_bytes"`
	Complexity    float64 `json:"complexity"`
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statsLocked()
}

func (p *Pool) statsLocked() Stats {
	s := Stats{
		TotalCreated:  p.created,
		TotalAcquired: p.acquired,
		TotalReleased: p.released,
		TotalEvicted:  p.evicted,
		PoolHits:      p.hits,
		PoolSize:      len(p.entries),
		Idle:          p.idle.Len(),
		MaxPoolSize:   p.cfg.MaxPoolSize,
		MemoryBytes:   p.memory,
		Complexity:    p.complexityLocked(),
	}
	s.InUse = s.PoolSize - s.Idle
	if p.acquired > 0 {
		s.HitRatio = float64(p.hits) / float64(p.acquired)
	}
	return s
}
