// Package ingest feeds confirmed chain logs to the module registry in block
// order, enriched with block timestamps and transaction senders.
package ingest

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/mimic-fi/v3-subgraph/internal/metrics"
	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
)

// Chain is the node API the poller needs. *ethclient.Client implements it.
type Chain interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	TransactionSender(ctx context.Context, tx *types.Transaction, block common.Hash, index uint) (common.Address, error)
}

// Sink receives events in (block, log index) order.
type Sink interface {
	Topics() []common.Hash
	// Handles reports whether a log of address at block would be applied.
	// Routes created by earlier events of a batch must be visible to later
	// calls.
	Handles(address common.Address, block uint64) bool
	ProcessEvent(ctx context.Context, event *core.RawEvent) error
}

// Cursor stores the last fully processed block.
type Cursor interface {
	LastBlock(ctx context.Context) (uint64, bool, error)
	SetLastBlock(ctx context.Context, block uint64, hash string) error
}

type Options struct {
	StartBlock    uint64
	BatchSize     uint64
	Confirmations uint64
	Workers       int
	PollInterval  time.Duration
}

type Poller struct {
	chain   Chain
	sink    Sink
	cursor  Cursor
	opts    Options
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewPoller(chain Chain, sink Sink, cursor Cursor, opts Options, m *metrics.Metrics, logger zerolog.Logger) *Poller {
	if opts.BatchSize == 0 {
		opts.BatchSize = 500
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 12 * time.Second
	}
	return &Poller{
		chain:   chain,
		sink:    sink,
		cursor:  cursor,
		opts:    opts,
		metrics: m,
		logger:  logger.With().Str("component", "poller").Logger(),
	}
}

// Run polls until ctx is cancelled. Failed steps are retried after the poll
// interval; giving up is left to the caller.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info().
		Uint64("start_block", p.opts.StartBlock).
		Uint64("batch_size", p.opts.BatchSize).
		Msg("Starting poller")

	consecutiveErrors := 0
	for {
		caughtUp, err := p.Step(ctx)
		if ctx.Err() != nil {
			p.logger.Info().Msg("Poller stopped")
			return nil
		}
		if err != nil {
			consecutiveErrors++
			p.logger.Error().Err(err).Int("consecutive_errors", consecutiveErrors).Msg("Poll failed")
		} else {
			consecutiveErrors = 0
		}

		if err == nil && !caughtUp {
			continue
		}
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Poller stopped")
			return nil
		case <-time.After(p.opts.PollInterval):
		}
	}
}

// Step processes the next batch of confirmed blocks and reports whether the
// poller has caught up with the confirmed head.
func (p *Poller) Step(ctx context.Context) (bool, error) {
	next, err := p.nextBlock(ctx)
	if err != nil {
		return false, err
	}

	head, err := p.chain.BlockNumber(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get latest block number: %w", err)
	}
	if head < p.opts.Confirmations {
		return true, nil
	}
	safe := head - p.opts.Confirmations
	if next > safe {
		p.logger.Debug().Uint64("next", next).Uint64("safe", safe).Msg("Caught up with chain")
		return true, nil
	}

	to := next + p.opts.BatchSize - 1
	if to > safe {
		to = safe
	}
	if err := p.processRange(ctx, next, to); err != nil {
		return false, fmt.Errorf("blocks %d-%d: %w", next, to, err)
	}
	return to == safe, nil
}

func (p *Poller) nextBlock(ctx context.Context) (uint64, error) {
	last, ok, err := p.cursor.LastBlock(ctx)
	if err != nil {
		return 0, err
	}
	if !ok || last+1 < p.opts.StartBlock {
		return p.opts.StartBlock, nil
	}
	return last + 1, nil
}

func (p *Poller) processRange(ctx context.Context, from, to uint64) error {
	start := time.Now()
	logs, err := p.chain.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Topics:    [][]common.Hash{p.sink.Topics()},
	})
	if err != nil {
		return fmt.Errorf("failed to filter logs: %w", err)
	}

	logs = orderLogs(logs)
	meta := newBatchMeta(p.chain)
	if err := meta.prefetch(ctx, p.handled(logs), to, p.opts.Workers); err != nil {
		return err
	}

	processed, skipped := 0, 0
	for _, l := range logs {
		if !p.sink.Handles(l.Address, l.BlockNumber) {
			skipped++
			continue
		}
		event, err := meta.event(ctx, l)
		if err != nil {
			return err
		}
		if err := p.sink.ProcessEvent(ctx, event); err != nil {
			return err
		}
		processed++
	}

	if err := p.cursor.SetLastBlock(ctx, to, meta.lastHash); err != nil {
		return err
	}
	p.metrics.SetLastBlock(to)
	p.logger.Info().
		Uint64("from", from).
		Uint64("to", to).
		Int("events", processed).
		Int("skipped", skipped).
		Dur("duration", time.Since(start)).
		Msg("Blocks processed")
	return nil
}

// handled returns the logs already routed when the batch starts. Logs of
// contracts created within the batch are fetched when they are reached.
func (p *Poller) handled(logs []types.Log) []types.Log {
	out := make([]types.Log, 0, len(logs))
	for _, l := range logs {
		if p.sink.Handles(l.Address, l.BlockNumber) {
			out = append(out, l)
		}
	}
	return out
}

// orderLogs drops logs removed by a reorg and sorts the rest by block and
// log index.
func orderLogs(logs []types.Log) []types.Log {
	out := logs[:0]
	for _, l := range logs {
		if !l.Removed {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].BlockNumber != out[j].BlockNumber {
			return out[i].BlockNumber < out[j].BlockNumber
		}
		return out[i].Index < out[j].Index
	})
	return out
}

type txMeta struct {
	from     common.Address
	gasPrice *big.Int
}

// batchMeta holds the block timestamps and transaction metadata of one
// batch.
type batchMeta struct {
	chain      Chain
	mu         sync.Mutex
	timestamps map[uint64]uint64
	txs        map[common.Hash]txMeta
	lastHash   string
}

func newBatchMeta(chain Chain) *batchMeta {
	return &batchMeta{
		chain:      chain,
		timestamps: make(map[uint64]uint64),
		txs:        make(map[common.Hash]txMeta),
	}
}

// prefetch fetches the timestamp of every block and the sender and gas price
// of every transaction the logs touch, bounded by workers. It also records
// the hash of block last.
func (b *batchMeta) prefetch(ctx context.Context, logs []types.Log, last uint64, workers int) error {
	sem := semaphore.NewWeighted(int64(workers))
	g, gctx := errgroup.WithContext(ctx)
	run := func(fn func() error) {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			return fn()
		})
	}

	blocks := map[uint64]bool{last: true}
	seen := make(map[common.Hash]bool)
	for _, l := range logs {
		blocks[l.BlockNumber] = true
		if seen[l.TxHash] {
			continue
		}
		seen[l.TxHash] = true
		l := l
		run(func() error { return b.fetchTransaction(gctx, l) })
	}
	for number := range blocks {
		number := number
		run(func() error { return b.fetchHeader(gctx, number, number == last) })
	}
	return g.Wait()
}

// event builds the raw event of l, fetching whatever prefetch skipped.
func (b *batchMeta) event(ctx context.Context, l types.Log) (*core.RawEvent, error) {
	b.mu.Lock()
	timestamp, haveBlock := b.timestamps[l.BlockNumber]
	meta, haveTx := b.txs[l.TxHash]
	b.mu.Unlock()

	if !haveBlock {
		if err := b.fetchHeader(ctx, l.BlockNumber, false); err != nil {
			return nil, err
		}
	}
	if !haveTx {
		if err := b.fetchTransaction(ctx, l); err != nil {
			return nil, err
		}
	}
	if !haveBlock || !haveTx {
		b.mu.Lock()
		timestamp, meta = b.timestamps[l.BlockNumber], b.txs[l.TxHash]
		b.mu.Unlock()
	}

	return &core.RawEvent{
		Log:       l,
		Timestamp: timestamp,
		From:      meta.from,
		GasPrice:  meta.gasPrice,
	}, nil
}

func (b *batchMeta) fetchHeader(ctx context.Context, number uint64, last bool) error {
	header, err := b.chain.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return fmt.Errorf("failed to get block %d: %w", number, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timestamps[number] = header.Time
	if last {
		b.lastHash = header.Hash().Hex()
	}
	return nil
}

// fetchTransaction resolves the sender and the effective gas price paid by
// the transaction emitting l.
func (b *batchMeta) fetchTransaction(ctx context.Context, l types.Log) error {
	tx, _, err := b.chain.TransactionByHash(ctx, l.TxHash)
	if err != nil {
		return fmt.Errorf("failed to get transaction %s: %w", l.TxHash.Hex(), err)
	}
	from, err := b.chain.TransactionSender(ctx, tx, l.BlockHash, l.TxIndex)
	if err != nil {
		return fmt.Errorf("failed to get sender of %s: %w", l.TxHash.Hex(), err)
	}

	gasPrice := tx.GasPrice()
	receipt, err := b.chain.TransactionReceipt(ctx, l.TxHash)
	if err != nil {
		return fmt.Errorf("failed to get receipt of %s: %w", l.TxHash.Hex(), err)
	}
	if receipt.EffectiveGasPrice != nil {
		gasPrice = receipt.EffectiveGasPrice
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.txs[l.TxHash] = txMeta{from: from, gasPrice: gasPrice}
	return nil
}

// MemoryCursor keeps the cursor in process, for the in-memory backend.
type MemoryCursor struct {
	mu    sync.Mutex
	block uint64
	hash  string
	set   bool
}

func (c *MemoryCursor) LastBlock(context.Context) (uint64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.block, c.set, nil
}

func (c *MemoryCursor) SetLastBlock(_ context.Context, block uint64, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.block, c.hash, c.set = block, hash, true
	return nil
}
