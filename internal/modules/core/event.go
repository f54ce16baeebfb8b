package core

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// RawEvent is a log delivered by the ingestion layer together with the
// block and transaction context handlers need.
type RawEvent struct {
	Log       types.Log
	Timestamp uint64
	From      common.Address
	GasPrice  *big.Int
}

// ParsedEvent represents a decoded event log
type ParsedEvent struct {
	Log *types.Log

	EventName string
	Address   common.Address
	Args      map[string]interface{}

	TransactionHash common.Hash
	BlockNumber     uint64
	LogIndex        uint

	Timestamp uint64
	From      common.Address
	GasPrice  *big.Int
}

// ID identifies the event across deliveries.
func (e *ParsedEvent) ID() string {
	return Hex(e.TransactionHash.Bytes()) + "#" + strconv.FormatUint(uint64(e.LogIndex), 10)
}

// TxHash is the lower-case transaction hash.
func (e *ParsedEvent) TxHash() string {
	return Hex(e.TransactionHash.Bytes())
}

// Emitter is the lower-case address of the emitting contract.
func (e *ParsedEvent) Emitter() string {
	return AddressID(e.Address)
}

func (e *ParsedEvent) arg(name string) (interface{}, error) {
	v, ok := e.Args[name]
	if !ok {
		return nil, ErrMissingArg{Event: e.EventName, Arg: name}
	}
	return v, nil
}

func (e *ParsedEvent) AddressArg(name string) (common.Address, error) {
	v, err := e.arg(name)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := v.(common.Address)
	if !ok {
		return common.Address{}, e.typeErr(name, "address", v)
	}
	return addr, nil
}

func (e *ParsedEvent) BigArg(name string) (*big.Int, error) {
	v, err := e.arg(name)
	if err != nil {
		return nil, err
	}
	n, ok := v.(*big.Int)
	if !ok || n == nil {
		return nil, e.typeErr(name, "uint256", v)
	}
	return n, nil
}

func (e *ParsedEvent) BoolArg(name string) (bool, error) {
	v, err := e.arg(name)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, e.typeErr(name, "bool", v)
	}
	return b, nil
}

func (e *ParsedEvent) Uint8Arg(name string) (uint8, error) {
	v, err := e.arg(name)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case uint8:
		return n, nil
	case *big.Int:
		if n.IsUint64() && n.Uint64() <= 255 {
			return uint8(n.Uint64()), nil
		}
	}
	return 0, e.typeErr(name, "uint8", v)
}

func (e *ParsedEvent) StringArg(name string) (string, error) {
	v, err := e.arg(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", e.typeErr(name, "string", v)
	}
	return s, nil
}

// BytesArg returns dynamic or fixed-size bytes.
func (e *ParsedEvent) BytesArg(name string) ([]byte, error) {
	v, err := e.arg(name)
	if err != nil {
		return nil, err
	}
	switch b := v.(type) {
	case []byte:
		return b, nil
	case [32]byte:
		return b[:], nil
	case [4]byte:
		return b[:], nil
	}
	return nil, e.typeErr(name, "bytes", v)
}

// Bytes4Arg returns a selector. Indexed selectors are left-aligned in their
// topic.
func (e *ParsedEvent) Bytes4Arg(name string) ([4]byte, error) {
	var sel [4]byte
	b, err := e.BytesArg(name)
	if err != nil {
		return sel, err
	}
	if len(b) < 4 {
		return sel, e.typeErr(name, "bytes4", b)
	}
	copy(sel[:], b[:4])
	return sel, nil
}

func (e *ParsedEvent) typeErr(name, want string, got interface{}) error {
	return ErrInvalidEvent{Reason: fmt.Sprintf("%s.%s: want %s, got %T", e.EventName, name, want, got)}
}

// AddressID is the lower-case hex form used as entity key.
func AddressID(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// Hex encodes b as lower-case 0x-prefixed hex.
func Hex(b []byte) string {
	return "0x" + common.Bytes2Hex(b)
}

// EventParser decodes logs for a fixed set of event ABIs.
type EventParser struct {
	events map[common.Hash]*abi.Event // topic0 -> event
}

func NewEventParser() *EventParser {
	return &EventParser{events: make(map[common.Hash]*abi.Event)}
}

// AddEvent registers an event ABI.
func (p *EventParser) AddEvent(event *abi.Event) {
	p.events[event.ID] = event
}

// ParseEvent parses a raw event into a ParsedEvent
func (p *EventParser) ParseEvent(raw *RawEvent) (*ParsedEvent, error) {
	log := &raw.Log
	if len(log.Topics) == 0 {
		return nil, ErrInvalidEvent{Reason: "no topics in log"}
	}

	eventABI, exists := p.events[log.Topics[0]]
	if !exists {
		return nil, ErrUnknownEvent{Topic: log.Topics[0].Hex()}
	}

	args := make(map[string]interface{})

	// Indexed parameters live in topics[1:]
	topicIndex := 1
	for _, input := range eventABI.Inputs {
		if !input.Indexed {
			continue
		}
		if topicIndex >= len(log.Topics) {
			return nil, ErrInvalidEvent{Reason: fmt.Sprintf("%s has %d topics, expected more", eventABI.Name, len(log.Topics))}
		}
		args[input.Name] = parseIndexedArg(log.Topics[topicIndex], input.Type)
		topicIndex++
	}

	nonIndexed := eventABI.Inputs.NonIndexed()
	if len(nonIndexed) > 0 {
		values, err := nonIndexed.Unpack(log.Data)
		if err != nil {
			return nil, ErrEventParsing{Event: eventABI.Name, Err: err}
		}
		for i, input := range nonIndexed {
			if i < len(values) {
				args[input.Name] = values[i]
			}
		}
	}

	gasPrice := raw.GasPrice
	if gasPrice == nil {
		gasPrice = new(big.Int)
	}

	return &ParsedEvent{
		Log:             log,
		EventName:       eventABI.Name,
		Address:         log.Address,
		Args:            args,
		TransactionHash: log.TxHash,
		BlockNumber:     log.BlockNumber,
		LogIndex:        log.Index,
		Timestamp:       raw.Timestamp,
		From:            raw.From,
		GasPrice:        gasPrice,
	}, nil
}

// parseIndexedArg converts a topic hash to the appropriate Go type
func parseIndexedArg(topic common.Hash, argType abi.Type) interface{} {
	switch argType.T {
	case abi.AddressTy:
		return common.BytesToAddress(topic.Bytes())
	case abi.IntTy, abi.UintTy:
		return new(big.Int).SetBytes(topic.Bytes())
	case abi.BoolTy:
		return topic.Big().Sign() != 0
	case abi.FixedBytesTy:
		return topic.Bytes()[:argType.Size]
	default:
		// Dynamic types are indexed by their hash
		return topic.Bytes()
	}
}

// Error types
type ErrInvalidEvent struct {
	Reason string
}

func (e ErrInvalidEvent) Error() string {
	return "invalid event: " + e.Reason
}

type ErrUnknownEvent struct {
	Topic string
}

func (e ErrUnknownEvent) Error() string {
	return "unknown event topic: " + e.Topic
}

type ErrEventParsing struct {
	Event string
	Err   error
}

func (e ErrEventParsing) Error() string {
	return "failed to parse event " + e.Event + ": " + e.Err.Error()
}

func (e ErrEventParsing) Unwrap() error { return e.Err }

type ErrMissingArg struct {
	Event string
	Arg   string
}

func (e ErrMissingArg) Error() string {
	return "event " + e.Event + " has no argument " + e.Arg
}
