package app

import (
	"context"
	"sync"
	"time"

	"github.com/tendermint/tendermint/libs/log"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/store"
)

// Executor processes transactions one at a time on top of a committed
// store. Every transaction is executed on a cache wrap of the committed
// state. The cache is written and committed only if the handler succeeded,
// so a failed transaction never leaves partial changes behind.
type Executor struct {
	mu      sync.Mutex
	store   tokenvault.CommitKVStore
	handler tokenvault.Handler
	logger  log.Logger
	debug   bool

	chainID string
	height  int64
	// lastTime is the block time of the last committed block. Block time
	// never goes backwards.
	lastTime tokenvault.UnixTime
}

// NewExecutor loads the latest committed state of the store and returns an
// executor processing transactions with given handler.
func NewExecutor(db tokenvault.CommitKVStore, h tokenvault.Handler, logger log.Logger) (*Executor, error) {
	if err := db.LoadLatestVersion(); err != nil {
		return nil, errors.Wrap(err, "load state")
	}
	id, err := db.LatestVersion()
	if err != nil {
		return nil, errors.Wrap(err, "latest version")
	}
	cache := db.CacheWrap()
	defer cache.Discard()
	chainID, err := loadChainID(cache)
	if err != nil {
		return nil, err
	}
	lastTime, err := loadBlockTime(cache)
	if err != nil {
		return nil, err
	}
	return &Executor{
		store:    db,
		handler:  h,
		logger:   logger,
		chainID:  chainID,
		height:   id.Version,
		lastTime: lastTime,
	}, nil
}

// WithDebug controls whether internal error details are returned to the
// caller. Errors are always logged in full.
func (e *Executor) WithDebug(debug bool) *Executor {
	e.debug = debug
	return e
}

// ChainID returns the chain id the state was initialized with, or an empty
// string if the state was never initialized.
func (e *Executor) ChainID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chainID
}

// Height returns the height of the last committed state.
func (e *Executor) Height() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.height
}

// LastBlockTime returns the block time of the last committed state.
func (e *Executor) LastBlockTime() tokenvault.UnixTime {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastTime
}

// InitChain stores the chain id and initializes all extensions from the
// genesis options. It can be called only once for a state.
func (e *Executor) InitChain(now time.Time, gen *Genesis, init tokenvault.Initializer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.chainID != "" {
		return errors.Wrapf(errors.ErrDuplicate, "state already initialized for chain %q", e.chainID)
	}

	cache := e.store.CacheWrap()
	if err := saveChainID(cache, gen.ChainID); err != nil {
		cache.Discard()
		return err
	}
	ctx := e.context(now, gen.ChainID)
	if err := init.FromGenesis(ctx, gen.AppOptions, cache); err != nil {
		cache.Discard()
		return errors.Wrap(err, "genesis")
	}
	if err := e.commit(cache, now); err != nil {
		return err
	}
	e.chainID = gen.ChainID
	e.logger.Info("chain initialized", "chain_id", gen.ChainID, "height", e.height)
	return nil
}

// Check verifies the transaction against the current state. Nothing is
// written.
func (e *Executor) Check(now time.Time, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireChain(); err != nil {
		return nil, err
	}
	if err := e.requireTime(now); err != nil {
		return nil, err
	}
	cache := e.store.CacheWrap()
	defer cache.Discard()

	ctx := e.txContext(now, tx)
	res, err := e.handler.Check(ctx, cache, tx)
	if err != nil {
		tokenvault.GetLogger(ctx).Debug("check failed", "err", err)
		return nil, errors.Redact(err, e.debug)
	}
	return res, nil
}

// Deliver executes the transaction and commits the resulting state.
func (e *Executor) Deliver(now time.Time, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireChain(); err != nil {
		return nil, err
	}
	if err := e.requireTime(now); err != nil {
		return nil, err
	}
	cache := e.store.CacheWrap()
	ctx := e.txContext(now, tx)
	recorder := store.NewRecordingStore(cache)
	res, err := e.handler.Deliver(ctx, recorder, tx)
	if err != nil {
		cache.Discard()
		tokenvault.GetLogger(ctx).Info("deliver failed", "err", err)
		return nil, errors.Redact(err, e.debug)
	}
	if err := e.commit(cache, now); err != nil {
		return nil, err
	}
	tokenvault.GetLogger(ctx).Debug("delivered",
		"changed_keys", len(recorder.(store.Recorder).KVPairs()))
	return res, nil
}

// Query runs fn on the committed state. Any write done by fn is discarded.
// The query time cannot be before the last committed block.
func (e *Executor) Query(now time.Time, fn func(ctx tokenvault.Context, db tokenvault.ReadOnlyKVStore) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireTime(now); err != nil {
		return err
	}

	cache := e.store.CacheWrap()
	defer cache.Discard()
	return fn(e.context(now, e.chainID), cache)
}

func (e *Executor) requireChain() error {
	if e.chainID == "" {
		return errors.Wrap(errors.ErrState, "chain not initialized")
	}
	return nil
}

func (e *Executor) requireTime(now time.Time) error {
	if t := tokenvault.AsUnixTime(now); t < e.lastTime {
		return errors.Wrapf(errors.ErrInput, "block time %s is before the last block time %s", t, e.lastTime)
	}
	return nil
}

// context returns the context of the next block.
func (e *Executor) context(now time.Time, chainID string) tokenvault.Context {
	ctx := tokenvault.WithHeight(context.Background(), e.height+1)
	ctx = tokenvault.WithBlockTime(ctx, now)
	if chainID != "" {
		ctx = tokenvault.WithChainID(ctx, chainID)
	}
	return tokenvault.WithLogger(ctx, e.logger.With("height", e.height+1))
}

func (e *Executor) txContext(now time.Time, tx tokenvault.Tx) tokenvault.Context {
	ctx := e.context(now, e.chainID)
	return tokenvault.WithLogInfo(ctx, "path", tokenvault.GetPath(tx))
}

// commit writes the cache into the store and commits a new version
// created at given block time.
func (e *Executor) commit(cache tokenvault.KVCacheWrap, now time.Time) error {
	blockTime := tokenvault.AsUnixTime(now)
	if err := saveBlockTime(cache, blockTime); err != nil {
		cache.Discard()
		return errors.Wrap(err, "save block time")
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "write cache")
	}
	id, err := e.store.Commit()
	if err != nil {
		return errors.Wrap(err, "commit")
	}
	e.height = id.Version
	e.lastTime = blockTime
	return nil
}
