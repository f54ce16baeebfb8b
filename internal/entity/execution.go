package entity

import (
	"math/big"
	"strconv"
)

// RelayedTransaction aggregates every execution relayed in one transaction.
type RelayedTransaction struct {
	ID          string   `json:"id"`
	Hash        string   `json:"hash"`
	Environment string   `json:"environment"`
	SmartVault  string   `json:"smartVault"`
	Sender      string   `json:"sender"`
	ExecutedAt  uint64   `json:"executedAt"`
	GasUsed     *big.Int `json:"gasUsed"`
	GasPrice    *big.Int `json:"gasPrice"`
	CostNative  *big.Int `json:"costNative"`
	CostUSD     *big.Int `json:"costUSD"`
}

func (e *RelayedTransaction) Kind() string      { return "RelayedTransaction" }
func (e *RelayedTransaction) Key() string       { return e.ID }
func (e *RelayedTransaction) ParentKey() string { return e.SmartVault }

// RelayedExecution is the envelope of one task execution. Movements and
// Calls list the records linked to it, in transaction order.
type RelayedExecution struct {
	ID          string   `json:"id"`
	Transaction string   `json:"transaction"`
	Environment string   `json:"environment"`
	SmartVault  string   `json:"smartVault"`
	Task        string   `json:"task"`
	Index       *big.Int `json:"index"`
	ExecutedAt  uint64   `json:"executedAt"`
	Succeeded   bool     `json:"succeeded"`
	Result      string   `json:"result"`
	GasUsed     *big.Int `json:"gasUsed"`
	GasPrice    *big.Int `json:"gasPrice"`
	CostNative  *big.Int `json:"costNative"`
	CostUSD     *big.Int `json:"costUSD"`
	Movements   []string `json:"movements"`
	Calls       []string `json:"calls"`
}

func (e *RelayedExecution) Kind() string      { return "RelayedExecution" }
func (e *RelayedExecution) Key() string       { return e.ID }
func (e *RelayedExecution) ParentKey() string { return e.Transaction }

// Movement is a balance connector credit or debit.
type Movement struct {
	ID               string   `json:"id"`
	Hash             string   `json:"hash"`
	Sender           string   `json:"sender"`
	ExecutedAt       uint64   `json:"executedAt"`
	SmartVault       string   `json:"smartVault"`
	Connector        string   `json:"connector"`
	Token            string   `json:"token"`
	Amount           *big.Int `json:"amount"`
	AmountUSD        *big.Int `json:"amountUSD"`
	Added            bool     `json:"added"`
	RelayedExecution string   `json:"relayedExecution,omitempty"`
}

func (e *Movement) Kind() string      { return "Movement" }
func (e *Movement) Key() string       { return e.ID }
func (e *Movement) ParentKey() string { return e.Hash }

const (
	CallExecute  = "Execute"
	CallCall     = "Call"
	CallCollect  = "Collect"
	CallWithdraw = "Withdraw"
	CallWrap     = "Wrap"
	CallUnwrap   = "Unwrap"
)

// SmartVaultCall is a vault-level operation.
type SmartVaultCall struct {
	ID               string   `json:"id"`
	Hash             string   `json:"hash"`
	Sender           string   `json:"sender"`
	ExecutedAt       uint64   `json:"executedAt"`
	SmartVault       string   `json:"smartVault"`
	Type             string   `json:"type"`
	Fee              *big.Int `json:"fee"`
	RelayedExecution string   `json:"relayedExecution,omitempty"`
}

func (e *SmartVaultCall) Kind() string      { return "SmartVaultCall" }
func (e *SmartVaultCall) Key() string       { return e.ID }
func (e *SmartVaultCall) ParentKey() string { return e.Hash }

// CorrelationSlot is one Movement or SmartVaultCall in transaction order.
type CorrelationSlot struct {
	Record   string `json:"record"`
	LogIndex uint   `json:"logIndex"`
	Envelope string `json:"envelope,omitempty"`
}

// CorrelationLedger indexes the records and envelopes of one transaction.
type CorrelationLedger struct {
	ID        string            `json:"id"`
	Movements []CorrelationSlot `json:"movements"`
	Calls     []CorrelationSlot `json:"calls"`
	Envelopes []string          `json:"envelopes"`
	Block     uint64            `json:"block"`
}

func (e *CorrelationLedger) Kind() string      { return "CorrelationLedger" }
func (e *CorrelationLedger) Key() string       { return e.ID }
func (e *CorrelationLedger) ParentKey() string { return CorrelationBucket(e.Block) }

// CorrelationBucketSize is the number of blocks whose correlation ledgers
// share a parent key.
const CorrelationBucketSize = 1000

// CorrelationBucket groups correlation ledgers by block range so a block
// window can be read through the parent index.
func CorrelationBucket(block uint64) string {
	return "blocks/" + strconv.FormatUint(block/CorrelationBucketSize, 10)
}

type BalanceConnector struct {
	ID         string `json:"id"`
	SmartVault string `json:"smartVault"`
	Connector  string `json:"connector"`
}

func (e *BalanceConnector) Kind() string      { return "BalanceConnector" }
func (e *BalanceConnector) Key() string       { return e.ID }
func (e *BalanceConnector) ParentKey() string { return e.SmartVault }

// BalanceConnectorBalance caches the sum of its ledger deltas.
type BalanceConnectorBalance struct {
	ID        string   `json:"id"`
	Connector string   `json:"connector"`
	Token     string   `json:"token"`
	Amount    *big.Int `json:"amount"`
}

func (e *BalanceConnectorBalance) Kind() string      { return "BalanceConnectorBalance" }
func (e *BalanceConnectorBalance) Key() string       { return e.ID }
func (e *BalanceConnectorBalance) ParentKey() string { return e.Connector }

// Delta is one signed change to an account, keyed by the event producing it.
type Delta struct {
	ID      string   `json:"id"`
	Account string   `json:"account"`
	Event   string   `json:"event"`
	Amount  *big.Int `json:"amount"`
}

func (e *Delta) Kind() string      { return "Delta" }
func (e *Delta) Key() string       { return e.ID }
func (e *Delta) ParentKey() string { return e.Account }
