package contracts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrReverted is returned by StaticReader for calls with no stubbed answer.
var ErrReverted = errors.New("execution reverted")

// StaticReader answers calls from a fixed table. It backs tests and offline
// replays where no node is available.
type StaticReader struct {
	mu      sync.Mutex
	answers map[string][]interface{}
	calls   map[string]int
}

func NewStaticReader() *StaticReader {
	return &StaticReader{
		answers: make(map[string][]interface{}),
		calls:   make(map[string]int),
	}
}

// Set stubs the outputs of a call. args must match the call arguments as
// formatted with %v.
func (r *StaticReader) Set(contract string, address common.Address, method string, out []interface{}, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers[callKey(contract, address, method, args)] = out
}

func (r *StaticReader) Call(_ context.Context, contract string, address common.Address, method string, args ...interface{}) ([]interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := callKey(contract, address, method, args)
	r.calls[contract+"."+method]++
	out, ok := r.answers[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrReverted)
	}
	return out, nil
}

// Calls returns how many times contract.method was called.
func (r *StaticReader) Calls(contract, method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[contract+"."+method]
}

// TotalCalls returns the number of calls issued.
func (r *StaticReader) TotalCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func callKey(contract string, address common.Address, method string, args []interface{}) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, fmt.Sprintf("%v", a))
	}
	return fmt.Sprintf("%s@%s.%s(%s)", contract, strings.ToLower(address.Hex()), method, strings.Join(parts, ","))
}
