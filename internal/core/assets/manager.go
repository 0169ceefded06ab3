package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/glint3d/glint/internal/core/observability/log"
	"github.com/glint3d/glint/pkg/sequence"
)

// DefaultConcurrency is the loader goroutine cap when none is configured.
const DefaultConcurrency = 4

// ErrDisposed rejects loads queued on, or still queued in, a disposed
// manager.
var ErrDisposed = errors.New("assets: manager disposed")

// Manager owns the five asset caches and the loader pipeline. Hits resolve
// synchronously; misses queue a task and block the calling goroutine until
// the task completes or ctx is done. Concurrent misses for the same source
// are not coalesced: each runs its own fetch, and the first completion to
// land owns the cache entry while later ones only add their reference.
type Manager struct {
	log     *log.Logger
	fetcher Fetcher
	clock   Clock

	textures  *cache[*Texture]
	cubes     *cache[*CubeTexture]
	models    *cache[*Model]
	audio     *cache[*AudioClip]
	documents *cache[Document]

	mu            sync.Mutex
	queue         *sequence.ClassQueue[*loadTask]
	inFlight      int
	maxConcurrent int
	disposed      bool
	fingerprints  map[assetKey]uint64
	hits          uint64
	misses        uint64
	failures      uint64

	observersMu   sync.RWMutex
	onProgress    []func(ProgressEvent)
	onInvalidated []func(src string, kind Kind)
}

type assetKey struct {
	kind Kind
	src  string
}

type loadTask struct {
	id       string
	kind     Kind
	src      string
	priority Priority
	done     chan loadResult
}

type loadResult struct {
	payload     any
	fingerprint uint64
	err         error
}

// Option configures a Manager at construction.
type Option func(*Manager)

// WithFetcher replaces the source-to-bytes layer.
func WithFetcher(f Fetcher) Option {
	return func(m *Manager) { m.fetcher = f }
}

// WithClock replaces the staleness clock.
func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithConcurrency caps simultaneous load tasks.
func WithConcurrency(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxConcurrent = n
		}
	}
}

func NewManager(logger *log.Logger, opts ...Option) *Manager {
	m := &Manager{
		log: logger,
		fetcher: NewRouterFetcher(
			NewHTTPFetcher(DefaultFetchTimeout),
			NewFSFetcher(os.DirFS(".")),
		),
		clock:         SystemClock(),
		textures:      newCache[*Texture](),
		cubes:         newCache[*CubeTexture](),
		models:        newCache[*Model](),
		audio:         newCache[*AudioClip](),
		documents:     newCache[Document](),
		queue:         sequence.NewClassQueue[*loadTask](3),
		maxConcurrent: DefaultConcurrency,
		fingerprints:  make(map[assetKey]uint64),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadOption adjusts a single load request.
type LoadOption func(*loadSettings)

type loadSettings struct {
	priority Priority
}

// WithPriority selects the scheduler class for this load.
func WithPriority(p Priority) LoadOption {
	return func(s *loadSettings) { s.priority = p }
}

func applyLoadOptions(opts []LoadOption) loadSettings {
	settings := loadSettings{priority: PriorityNormal}
	for _, opt := range opts {
		opt(&settings)
	}
	return settings
}

func (m *Manager) LoadTexture(ctx context.Context, src string, opts ...LoadOption) (*Texture, error) {
	return loadAsset(ctx, m, m.textures, KindTexture, src, opts)
}

func (m *Manager) LoadCubeTexture(ctx context.Context, src string, opts ...LoadOption) (*CubeTexture, error) {
	return loadAsset(ctx, m, m.cubes, KindCubeTexture, src, opts)
}

func (m *Manager) LoadModel(ctx context.Context, src string, opts ...LoadOption) (*Model, error) {
	return loadAsset(ctx, m, m.models, KindModel, src, opts)
}

func (m *Manager) LoadAudio(ctx context.Context, src string, opts ...LoadOption) (*AudioClip, error) {
	return loadAsset(ctx, m, m.audio, KindAudio, src, opts)
}

func (m *Manager) LoadJSON(ctx context.Context, src string, opts ...LoadOption) (Document, error) {
	return loadAsset(ctx, m, m.documents, KindJSON, src, opts)
}

// loadAsset is the shared hit/miss path. On a miss it queues a task and
// blocks until the task resolves; the winning payload is whatever the cache
// holds by the time this request stores its result.
func loadAsset[T any](ctx context.Context, m *Manager, c *cache[T], kind Kind, src string, opts []LoadOption) (T, error) {
	var zero T
	if src == "" {
		return zero, fmt.Errorf("load %s: empty source", kind)
	}

	if payload, ok := c.acquire(src, m.clock.Now()); ok {
		m.countHit()
		return payload, nil
	}
	m.countMiss()

	settings := applyLoadOptions(opts)
	task := &loadTask{
		id:       uuid.NewString(),
		kind:     kind,
		src:      src,
		priority: settings.priority,
		done:     make(chan loadResult, 1),
	}
	if err := m.enqueue(task); err != nil {
		return zero, err
	}

	select {
	case res := <-task.done:
		if res.err != nil {
			return zero, res.err
		}
		payload := res.payload.(T)
		if m.isDisposed() {
			// delivered but deliberately not cached
			return payload, nil
		}
		cached, redundant := c.store(src, payload, m.clock.Now())
		if redundant {
			disposeLoaded(payload)
		}
		m.rememberFingerprint(kind, src, res.fingerprint)
		return cached, nil
	case <-ctx.Done():
		return zero, fmt.Errorf("load %s %s: %w", kind, src, ctx.Err())
	}
}

func (m *Manager) enqueue(task *loadTask) error {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return ErrDisposed
	}
	m.queue.Enqueue(int(task.priority), task)
	queued := m.queue.Len()
	m.pumpLocked()
	m.mu.Unlock()

	m.log.Debug("asset queued",
		log.String("task", task.id),
		log.String("src", task.src),
		log.String("kind", task.kind.String()),
		log.String("priority", task.priority.String()),
		log.Int("queued", queued),
	)
	return nil
}

// pumpLocked starts queued tasks while capacity remains. Each completion
// pumps again, so the pipe stays full without a standing worker pool.
func (m *Manager) pumpLocked() {
	for m.inFlight < m.maxConcurrent {
		task, ok := m.queue.Dequeue()
		if !ok {
			return
		}
		m.inFlight++
		go m.execute(task)
	}
}

func (m *Manager) execute(task *loadTask) {
	payload, fingerprint, err := m.runTask(task)
	if err != nil {
		m.countFailure()
		m.log.Error("asset load failed",
			log.String("task", task.id),
			log.String("src", task.src),
			log.String("kind", task.kind.String()),
			log.Error(err),
		)
	} else {
		m.log.Debug("asset loaded",
			log.String("task", task.id),
			log.String("src", task.src),
			log.String("kind", task.kind.String()),
		)
	}
	task.done <- loadResult{payload: payload, fingerprint: fingerprint, err: err}

	m.mu.Lock()
	m.inFlight--
	m.pumpLocked()
	m.mu.Unlock()
}

// runTask fetches and decodes on the loader goroutine. The fetch is bound to
// the manager, not the requesting caller: an abandoned request's task still
// runs to completion.
func (m *Manager) runTask(task *loadTask) (any, uint64, error) {
	ctx := context.Background()
	progress := m.progressFunc(task)

	if task.kind == KindCubeTexture {
		cube, err := m.loadCubeFaces(ctx, task)
		if err != nil {
			return nil, 0, err
		}
		return cube, cube.Fingerprint, nil
	}

	data, err := m.fetcher.Fetch(ctx, task.src, progress)
	if err != nil {
		return nil, 0, err
	}

	switch task.kind {
	case KindTexture:
		tex, err := decodeTexture(task.src, data)
		if err != nil {
			return nil, 0, err
		}
		return tex, tex.Fingerprint, nil
	case KindModel:
		model, err := decodeModel(task.src, data)
		if err != nil {
			return nil, 0, err
		}
		return model, model.Fingerprint, nil
	case KindAudio:
		clip, err := decodeAudio(task.src, data)
		if err != nil {
			return nil, 0, err
		}
		return clip, clip.Fingerprint, nil
	case KindJSON:
		doc, err := decodeJSON(task.src, data)
		if err != nil {
			return nil, 0, err
		}
		return doc, xxhash.Sum64(data), nil
	default:
		return nil, 0, fmt.Errorf("load %s: unknown kind", task.src)
	}
}

// loadCubeFaces fetches the six faces concurrently inside the task's single
// concurrency slot, then decodes them in face order.
func (m *Manager) loadCubeFaces(ctx context.Context, task *loadTask) (*CubeTexture, error) {
	srcs, err := cubeFaceSources(task.src)
	if err != nil {
		return nil, err
	}

	var datas [6][]byte
	g, gctx := errgroup.WithContext(ctx)
	for i := range srcs {
		g.Go(func() error {
			data, err := m.fetcher.Fetch(gctx, srcs[i], nil)
			if err != nil {
				return err
			}
			datas[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var faces [6]*image.NRGBA
	digest := xxhash.New()
	for i, data := range datas {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode cube face %s: %w", srcs[i], err)
		}
		faces[i] = toNRGBA(img)
		_, _ = digest.Write(data)
	}

	return &CubeTexture{
		Source:      task.src,
		Faces:       faces,
		Fingerprint: digest.Sum64(),
	}, nil
}

// Release drops one reference. It never frees; CleanupUnused does.
func (m *Manager) Release(src string, kind Kind) {
	var ok bool
	switch kind {
	case KindTexture:
		ok = m.textures.release(src)
	case KindCubeTexture:
		ok = m.cubes.release(src)
	case KindModel:
		ok = m.models.release(src)
	case KindAudio:
		ok = m.audio.release(src)
	case KindJSON:
		ok = m.documents.release(src)
	}
	if !ok {
		m.log.Warn("release of unknown asset",
			log.String("src", src),
			log.String("kind", kind.String()),
		)
	}
}

// CleanupUnused frees every entry that is both unreferenced and untouched
// for longer than maxAge, and reports how many were freed.
func (m *Manager) CleanupUnused(maxAge time.Duration) int {
	now := m.clock.Now()
	freed := m.textures.cleanup(maxAge, now, (*Texture).Dispose)
	freed += m.cubes.cleanup(maxAge, now, (*CubeTexture).Dispose)
	freed += m.models.cleanup(maxAge, now, (*Model).Dispose)
	freed += m.audio.cleanup(maxAge, now, nil)
	freed += m.documents.cleanup(maxAge, now, nil)
	if freed > 0 {
		m.log.Info("unused assets freed", log.Int("count", freed))
	}
	return freed
}

// CloneModel hands out an independent node hierarchy over the cached model's
// shared payloads and counts a reference against the source model.
func (m *Manager) CloneModel(src string) (*Model, bool) {
	model, ok := m.models.acquire(src, m.clock.Now())
	if !ok {
		m.log.Warn("clone of unknown model", log.String("src", src))
		return nil, false
	}
	return model.Clone(), true
}

// RefCount reports the live reference count for a cached asset.
func (m *Manager) RefCount(src string, kind Kind) (int, bool) {
	switch kind {
	case KindTexture:
		return m.textures.refCount(src)
	case KindCubeTexture:
		return m.cubes.refCount(src)
	case KindModel:
		return m.models.refCount(src)
	case KindAudio:
		return m.audio.refCount(src)
	case KindJSON:
		return m.documents.refCount(src)
	default:
		return 0, false
	}
}

// OnProgress registers a fetch progress observer. Callbacks run on loader
// goroutines.
func (m *Manager) OnProgress(fn func(ProgressEvent)) {
	m.observersMu.Lock()
	defer m.observersMu.Unlock()
	m.onProgress = append(m.onProgress, fn)
}

// OnInvalidated registers a hot-reload observer. Callbacks run on the
// watcher goroutine.
func (m *Manager) OnInvalidated(fn func(src string, kind Kind)) {
	m.observersMu.Lock()
	defer m.observersMu.Unlock()
	m.onInvalidated = append(m.onInvalidated, fn)
}

func (m *Manager) progressFunc(task *loadTask) ProgressFunc {
	return func(loaded, total int64) {
		m.observersMu.RLock()
		observers := m.onProgress
		m.observersMu.RUnlock()
		if len(observers) == 0 {
			return
		}
		event := ProgressEvent{
			TaskID: task.id,
			Source: task.src,
			Kind:   task.kind,
			Loaded: loaded,
			Total:  total,
		}
		for _, fn := range observers {
			fn(event)
		}
	}
}

// Invalidate drops a cache entry regardless of references and notifies
// observers. Holders keep their stale payloads until they reload.
func (m *Manager) Invalidate(src string, kind Kind) bool {
	var dropped bool
	switch kind {
	case KindTexture:
		dropped = m.textures.drop(src, (*Texture).Dispose)
	case KindCubeTexture:
		dropped = m.cubes.drop(src, (*CubeTexture).Dispose)
	case KindModel:
		dropped = m.models.drop(src, (*Model).Dispose)
	case KindAudio:
		dropped = m.audio.drop(src, nil)
	case KindJSON:
		dropped = m.documents.drop(src, nil)
	}
	if !dropped {
		return false
	}

	m.mu.Lock()
	delete(m.fingerprints, assetKey{kind: kind, src: src})
	m.mu.Unlock()

	m.log.Info("asset invalidated",
		log.String("src", src),
		log.String("kind", kind.String()),
	)
	m.observersMu.RLock()
	observers := m.onInvalidated
	m.observersMu.RUnlock()
	for _, fn := range observers {
		fn(src, kind)
	}
	return true
}

// HandleFileChange refetches a changed source and invalidates its cache
// entry when the content fingerprint differs. Non-cached sources are
// ignored.
func (m *Manager) HandleFileChange(src string) {
	kind, ok := m.cachedKind(src)
	if !ok {
		return
	}
	data, err := m.fetcher.Fetch(context.Background(), src, nil)
	if err != nil {
		m.log.Warn("reload fetch failed", log.String("src", src), log.Error(err))
		return
	}
	if known, ok := m.fingerprint(kind, src); ok && known == xxhash.Sum64(data) {
		m.log.Debug("asset content unchanged", log.String("src", src))
		return
	}
	m.Invalidate(src, kind)
}

func (m *Manager) cachedKind(src string) (Kind, bool) {
	switch {
	case m.textures.has(src):
		return KindTexture, true
	case m.models.has(src):
		return KindModel, true
	case m.audio.has(src):
		return KindAudio, true
	case m.documents.has(src):
		return KindJSON, true
	default:
		return 0, false
	}
}

func (m *Manager) rememberFingerprint(kind Kind, src string, fingerprint uint64) {
	if fingerprint == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fingerprints[assetKey{kind: kind, src: src}] = fingerprint
}

func (m *Manager) fingerprint(kind Kind, src string) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fp, ok := m.fingerprints[assetKey{kind: kind, src: src}]
	return fp, ok
}

// Metrics is a point-in-time snapshot of pipeline and cache state.
type Metrics struct {
	Hits      uint64
	Misses    uint64
	Failures  uint64
	Queued    int
	InFlight  int
	Textures  int
	Cubes     int
	Models    int
	Audio     int
	Documents int
}

func (m *Manager) Metrics() Metrics {
	m.mu.Lock()
	snapshot := Metrics{
		Hits:     m.hits,
		Misses:   m.misses,
		Failures: m.failures,
		Queued:   m.queue.Len(),
		InFlight: m.inFlight,
	}
	m.mu.Unlock()

	snapshot.Textures = m.textures.len()
	snapshot.Cubes = m.cubes.len()
	snapshot.Models = m.models.len()
	snapshot.Audio = m.audio.len()
	snapshot.Documents = m.documents.len()
	return snapshot
}

func (m *Manager) countHit() {
	m.mu.Lock()
	m.hits++
	m.mu.Unlock()
}

func (m *Manager) countMiss() {
	m.mu.Lock()
	m.misses++
	m.mu.Unlock()
}

func (m *Manager) countFailure() {
	m.mu.Lock()
	m.failures++
	m.mu.Unlock()
}

func (m *Manager) isDisposed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disposed
}

// Dispose rejects everything still queued, clears the caches and observers,
// and leaves in-flight tasks to finish into oblivion: their results are
// delivered to waiters but no longer cached.
func (m *Manager) Dispose() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	dropped := m.queue.Drain()
	m.fingerprints = make(map[assetKey]uint64)
	m.mu.Unlock()

	for _, task := range dropped {
		task.done <- loadResult{err: ErrDisposed}
	}

	m.textures.clear((*Texture).Dispose)
	m.cubes.clear((*CubeTexture).Dispose)
	m.models.clear((*Model).Dispose)
	m.audio.clear(nil)
	m.documents.clear(nil)

	m.observersMu.Lock()
	m.onProgress = nil
	m.onInvalidated = nil
	m.observersMu.Unlock()

	m.log.Debug("asset manager disposed", log.Int("rejected", len(dropped)))
}

func disposeLoaded(payload any) {
	switch p := payload.(type) {
	case *Texture:
		p.Dispose()
	case *CubeTexture:
		p.Dispose()
	case *Model:
		p.Dispose()
	case *AudioClip:
		p.Dispose()
	}
}
