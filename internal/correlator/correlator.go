// Package correlator links the movements and vault calls of a transaction
// to the relayed executions that contain them.
//
// Records are numbered per transaction and kind in the order they are
// tracked. The numbering lives in an explicit CorrelationLedger so linking
// never probes storage for the next id.
package correlator

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/store"
)

// Kind selects one of the two record sequences of a transaction.
type Kind string

const (
	KindMovement Kind = "movement"
	KindCall     Kind = "call"
)

// RecordID addresses the ordinal-th record of a transaction.
func RecordID(txHash string, ordinal int) string {
	return txHash + "#" + strconv.Itoa(ordinal)
}

type Correlator struct {
	ledgers    *store.Repository[entity.CorrelationLedger, *entity.CorrelationLedger]
	movements  *store.Repository[entity.Movement, *entity.Movement]
	calls      *store.Repository[entity.SmartVaultCall, *entity.SmartVaultCall]
	executions *store.Repository[entity.RelayedExecution, *entity.RelayedExecution]
	logger     zerolog.Logger
}

func New(repos *entity.Repos, logger zerolog.Logger) *Correlator {
	return &Correlator{
		ledgers:    repos.CorrelationLedgers,
		movements:  repos.Movements,
		calls:      repos.SmartVaultCalls,
		executions: repos.RelayedExecutions,
		logger:     logger.With().Str("component", "correlator").Logger(),
	}
}

// Track reserves the next ordinal of kind in the transaction for the log at
// logIndex and returns the record id to store it under. Tracking the same
// log twice returns the same id.
func (c *Correlator) Track(ctx context.Context, txHash string, kind Kind, logIndex uint, block uint64) (string, error) {
	ledger, err := c.ledger(ctx, txHash, block)
	if err != nil {
		return "", err
	}
	slots := ledger.slots(kind)
	for _, s := range *slots {
		if s.Record != "" && s.LogIndex == logIndex {
			return s.Record, nil
		}
	}
	return c.place(ctx, ledger, kind, len(*slots), logIndex)
}

// reserveAt reserves an explicit ordinal. Ordinals left unplaced below it
// are gaps that stop linking.
func (c *Correlator) reserveAt(ctx context.Context, txHash string, kind Kind, ordinal int, logIndex uint, block uint64) (string, error) {
	if ordinal < 0 {
		return "", fmt.Errorf("negative ordinal %d", ordinal)
	}
	ledger, err := c.ledger(ctx, txHash, block)
	if err != nil {
		return "", err
	}
	slots := ledger.slots(kind)
	if ordinal < len(*slots) && (*slots)[ordinal].Record != "" {
		return (*slots)[ordinal].Record, nil
	}
	return c.place(ctx, ledger, kind, ordinal, logIndex)
}

func (c *Correlator) place(ctx context.Context, ledger *ledgerView, kind Kind, ordinal int, logIndex uint) (string, error) {
	slots := ledger.slots(kind)
	for len(*slots) <= ordinal {
		*slots = append(*slots, entity.CorrelationSlot{})
	}
	id := RecordID(ledger.ID, ordinal)
	(*slots)[ordinal] = entity.CorrelationSlot{Record: id, LogIndex: logIndex}
	if err := c.ledgers.Save(ctx, ledger.CorrelationLedger); err != nil {
		return "", err
	}
	return id, nil
}

// Link attaches to the envelope every record of the transaction not yet
// attached to one, walking each sequence from ordinal 0 and stopping at the
// first gap. It returns how many records were attached.
func (c *Correlator) Link(ctx context.Context, txHash, envelopeID string) (int, error) {
	ledger, err := c.load(ctx, txHash)
	if err != nil {
		return 0, err
	}
	envelope, err := c.executions.Load(ctx, envelopeID)
	if err != nil {
		return 0, err
	}
	if envelope == nil {
		return 0, fmt.Errorf("relayed execution %s not found", envelopeID)
	}
	if ledger == nil {
		ledger = &ledgerView{&entity.CorrelationLedger{ID: txHash}}
	}

	linked := 0
	for _, kind := range []Kind{KindMovement, KindCall} {
		slots := *ledger.slots(kind)
		for i := range slots {
			if slots[i].Record == "" {
				break
			}
			if slots[i].Envelope != "" {
				continue
			}
			if err := c.attach(ctx, kind, slots[i].Record, envelopeID); err != nil {
				return linked, err
			}
			slots[i].Envelope = envelopeID
			switch kind {
			case KindMovement:
				envelope.Movements = append(envelope.Movements, slots[i].Record)
			case KindCall:
				envelope.Calls = append(envelope.Calls, slots[i].Record)
			}
			linked++
		}
	}

	if !contains(ledger.Envelopes, envelopeID) {
		ledger.Envelopes = append(ledger.Envelopes, envelopeID)
	}
	if err := c.ledgers.Save(ctx, ledger.CorrelationLedger); err != nil {
		return linked, err
	}
	if err := c.executions.Save(ctx, envelope); err != nil {
		return linked, err
	}

	c.logger.Debug().
		Str("tx", txHash).
		Str("execution", envelopeID).
		Int("linked", linked).
		Msg("Linked records to execution")
	return linked, nil
}

// Unlinked returns the ids of the transaction's records of kind that belong
// to no envelope.
func (c *Correlator) Unlinked(ctx context.Context, txHash string, kind Kind) ([]string, error) {
	ledger, err := c.load(ctx, txHash)
	if err != nil || ledger == nil {
		return nil, err
	}
	return unlinked(*ledger.slots(kind)), nil
}

// Report counts unlinked records of the transactions in blocks
// [fromBlock, toBlock]. Only the ledgers of that window are read.
func (c *Correlator) Report(ctx context.Context, fromBlock, toBlock uint64) (map[Kind]int, error) {
	out := map[Kind]int{KindMovement: 0, KindCall: 0}
	if toBlock < fromBlock {
		return out, nil
	}
	for bucket := fromBlock / entity.CorrelationBucketSize; bucket <= toBlock/entity.CorrelationBucketSize; bucket++ {
		ledgers, err := c.ledgers.ChildrenOf(ctx, entity.CorrelationBucket(bucket*entity.CorrelationBucketSize))
		if err != nil {
			return nil, err
		}
		for _, l := range ledgers {
			if l.Block < fromBlock || l.Block > toBlock {
				continue
			}
			out[KindMovement] += len(unlinked(l.Movements))
			out[KindCall] += len(unlinked(l.Calls))
		}
	}
	return out, nil
}

func (c *Correlator) attach(ctx context.Context, kind Kind, recordID, envelopeID string) error {
	switch kind {
	case KindMovement:
		m, err := c.movements.Load(ctx, recordID)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("tracked movement %s not stored", recordID)
		}
		m.RelayedExecution = envelopeID
		return c.movements.Save(ctx, m)
	case KindCall:
		call, err := c.calls.Load(ctx, recordID)
		if err != nil {
			return err
		}
		if call == nil {
			return fmt.Errorf("tracked call %s not stored", recordID)
		}
		call.RelayedExecution = envelopeID
		return c.calls.Save(ctx, call)
	default:
		return fmt.Errorf("unknown record kind %q", kind)
	}
}

func (c *Correlator) ledger(ctx context.Context, txHash string, block uint64) (*ledgerView, error) {
	ledger, err := c.load(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		ledger = &ledgerView{&entity.CorrelationLedger{ID: txHash, Block: block}}
	}
	return ledger, nil
}

func (c *Correlator) load(ctx context.Context, txHash string) (*ledgerView, error) {
	ledger, err := c.ledgers.Load(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("failed to load correlation ledger: %w", err)
	}
	if ledger == nil {
		return nil, nil
	}
	return &ledgerView{ledger}, nil
}

type ledgerView struct {
	*entity.CorrelationLedger
}

func (l *ledgerView) slots(kind Kind) *[]entity.CorrelationSlot {
	if kind == KindCall {
		return &l.Calls
	}
	return &l.Movements
}

func unlinked(slots []entity.CorrelationSlot) []string {
	var out []string
	for _, s := range slots {
		if s.Record != "" && s.Envelope == "" {
			out = append(out, s.Record)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
