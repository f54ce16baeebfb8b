package core

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/store"
)

func TestParseEventSignature_Named(t *testing.T) {
	event, err := ParseEventSignature("Deployed(indexed address implementation, address instance, string namespace, string name)")
	require.NoError(t, err)

	assert.Equal(t, "Deployed", event.Name)
	assert.Equal(t, crypto.Keccak256Hash([]byte("Deployed(address,address,string,string)")), event.ID)
	require.Len(t, event.Inputs, 4)
	assert.True(t, event.Inputs[0].Indexed)
	assert.Equal(t, "implementation", event.Inputs[0].Name)
	assert.False(t, event.Inputs[3].Indexed)
	assert.Equal(t, "name", event.Inputs[3].Name)
}

func TestParseEventSignature_IndexedAfterTypeAndUnnamed(t *testing.T) {
	event, err := ParseEventSignature("Transfer(address indexed from, address indexed, uint256)")
	require.NoError(t, err)

	assert.Equal(t, crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)")), event.ID)
	assert.True(t, event.Inputs[1].Indexed)
	assert.Equal(t, "arg1", event.Inputs[1].Name)
	assert.Equal(t, "arg2", event.Inputs[2].Name)

	paused, err := ParseEventSignature("Paused()")
	require.NoError(t, err)
	assert.Empty(t, paused.Inputs)
}

func TestParseEventSignature_Tuple(t *testing.T) {
	event, err := ParseEventSignature("Authorized(indexed address who, indexed address where, indexed bytes4 what, (uint8 op, uint248 value)[] params)")
	require.NoError(t, err)
	assert.Equal(t, "Authorized(address,address,bytes4,(uint8,uint248)[])", event.Sig)
}

func TestParseEventSignature_Invalid(t *testing.T) {
	for _, sig := range []string{"", "NoParens", "Broken(uint256", "Bad(notatype x)", "Tuple((uint8 op, uint256 v x)"} {
		_, err := ParseEventSignature(sig)
		assert.Error(t, err, sig)
	}
}

func TestEventParser_DecodesIndexedAndTupleArgs(t *testing.T) {
	event, err := ParseEventSignature("Authorized(indexed address who, indexed address where, indexed bytes4 what, (uint8 op, uint248 value)[] params)")
	require.NoError(t, err)

	params := []struct {
		Op    uint8
		Value *big.Int
	}{{Op: 1, Value: big.NewInt(7)}, {Op: 4, Value: big.NewInt(9)}}
	data, err := event.Inputs.NonIndexed().Pack(params)
	require.NoError(t, err)

	who := common.HexToAddress("0x01")
	where := common.HexToAddress("0x02")
	var what common.Hash
	copy(what[:], []byte{0xa9, 0x05, 0x9c, 0xbb})

	parser := NewEventParser()
	parser.AddEvent(event)
	parsed, err := parser.ParseEvent(&RawEvent{
		Log: types.Log{
			Address:     common.HexToAddress("0xaa"),
			Topics:      []common.Hash{event.ID, common.BytesToHash(who.Bytes()), common.BytesToHash(where.Bytes()), what},
			Data:        data,
			BlockNumber: 10,
			TxHash:      common.HexToHash("0xabc"),
			Index:       3,
		},
		Timestamp: 1000,
	})
	require.NoError(t, err)

	gotWho, err := parsed.AddressArg("who")
	require.NoError(t, err)
	assert.Equal(t, who, gotWho)

	sel, err := parsed.Bytes4Arg("what")
	require.NoError(t, err)
	assert.Equal(t, [4]byte{0xa9, 0x05, 0x9c, 0xbb}, sel)
	assert.Len(t, parsed.Args["params"], 2)

	assert.Equal(t, common.HexToHash("0xabc").Hex()+"#3", parsed.ID())
	assert.Equal(t, uint64(1000), parsed.Timestamp)
	assert.Equal(t, 0, parsed.GasPrice.Sign())

	_, err = parsed.BigArg("missing")
	var missing ErrMissingArg
	assert.True(t, errors.As(err, &missing))

	_, err = parsed.BigArg("who")
	var invalid ErrInvalidEvent
	assert.True(t, errors.As(err, &invalid))
}

func TestEventParser_Errors(t *testing.T) {
	parser := NewEventParser()

	_, err := parser.ParseEvent(&RawEvent{})
	assert.ErrorAs(t, err, new(ErrInvalidEvent))

	_, err = parser.ParseEvent(&RawEvent{Log: types.Log{Topics: []common.Hash{{1}}}})
	assert.ErrorAs(t, err, new(ErrUnknownEvent))

	event, err := ParseEventSignature("Pinged(uint256 value)")
	require.NoError(t, err)
	parser.AddEvent(event)
	_, err = parser.ParseEvent(&RawEvent{Log: types.Log{Topics: []common.Hash{event.ID}, Data: []byte{1}}})
	assert.ErrorAs(t, err, new(ErrEventParsing))
}

func TestManifest_Validate(t *testing.T) {
	addr := "0x01"
	m := testManifest()
	require.NoError(t, m.ValidateManifest())

	m.Templates[0].Source.Address = &addr
	assert.Error(t, m.ValidateManifest())

	assert.Error(t, (&Manifest{Name: "x", Version: "1"}).ValidateManifest())
	assert.Error(t, (&Manifest{Version: "1"}).ValidateManifest())
}

var (
	factory = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	child   = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	other   = common.HexToAddress("0x00000000000000000000000000000000000000c2")
)

type testModule struct {
	manifest   *Manifest
	dispatcher *Dispatcher[*testModule]
	repos      *entity.Repos
	templates  TemplateCreator
	pings      []int64
}

func testManifest() *Manifest {
	source := func(name, event, handler string) DataSource {
		return DataSource{
			Kind:   "ethereum/contract",
			Name:   name,
			Source: DataSourceSource{ABI: name},
			Mapping: DataSourceMapping{
				Kind:          "ethereum/events",
				EventHandlers: []EventHandler{{Event: event, Handler: handler}},
			},
		}
	}
	childSource := source("Child", "Pinged(uint256 value)", "handlePinged")
	childSource.Mapping.EventHandlers = append(childSource.Mapping.EventHandlers, EventHandler{Event: "Failed()", Handler: "handleFailed"})
	return &Manifest{
		Name:        "test",
		Version:     "1.0.0",
		DataSources: []DataSource{source("Factory", "Created(address instance)", "handleCreated")},
		Templates:   []DataSource{childSource},
	}
}

func newTestModule(t *testing.T, repos *entity.Repos) *testModule {
	m := &testModule{manifest: testManifest(), repos: repos}
	d, err := NewDispatcher(m.manifest, map[string]Handler[*testModule]{
		"handleCreated": func(ctx context.Context, m *testModule, e *ParsedEvent) error {
			instance, err := e.AddressArg("instance")
			if err != nil {
				return err
			}
			return m.templates.CreateTemplate(ctx, "Child", instance, e.BlockNumber)
		},
		"handlePinged": func(ctx context.Context, m *testModule, e *ParsedEvent) error {
			v, err := e.BigArg("value")
			if err != nil {
				return err
			}
			m.pings = append(m.pings, v.Int64())
			return m.repos.Implementations.Save(ctx, &entity.Implementation{ID: e.ID()})
		},
		"handleFailed": func(ctx context.Context, m *testModule, e *ParsedEvent) error {
			if err := m.repos.Implementations.Save(ctx, &entity.Implementation{ID: e.ID()}); err != nil {
				return err
			}
			if err := m.templates.CreateTemplate(ctx, "Child", other, e.BlockNumber); err != nil {
				return err
			}
			return errors.New("boom")
		},
	}, nil)
	require.NoError(t, err)
	m.dispatcher = d
	return m
}

func (m *testModule) Name() string          { return m.manifest.Name }
func (m *testModule) Version() string       { return m.manifest.Version }
func (m *testModule) Manifest() *Manifest   { return m.manifest }
func (m *testModule) Topics() []common.Hash { return m.dispatcher.Topics() }
func (m *testModule) HandleEvent(ctx context.Context, e *RawEvent) error {
	return m.dispatcher.Dispatch(ctx, m, e)
}

func rawEvent(t *testing.T, address common.Address, sig string, block uint64, index uint, args ...interface{}) *RawEvent {
	event, err := ParseEventSignature(sig)
	require.NoError(t, err)
	data, err := event.Inputs.NonIndexed().Pack(args...)
	require.NoError(t, err)
	return &RawEvent{Log: types.Log{
		Address:     address,
		Topics:      []common.Hash{event.ID},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.BigToHash(big.NewInt(int64(block))),
		Index:       index,
	}}
}

func TestNewDispatcher_MissingHandler(t *testing.T) {
	_, err := NewDispatcher(testManifest(), map[string]Handler[*testModule]{}, nil)
	assert.Error(t, err)
}

func TestModuleRegistry_RoutesStaticAndTemplateSources(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemory()
	repos := entity.NewRepos(backend)

	registry := NewModuleRegistry(repos, zerolog.Nop())
	module := newTestModule(t, repos)
	module.templates = registry
	require.NoError(t, registry.RegisterModule(module))
	require.Error(t, registry.RegisterModule(module))
	require.Error(t, registry.BindSource("nope", factory, 0))
	require.NoError(t, registry.BindSource("factory", factory, 5))
	assert.Len(t, registry.Topics(), 3)

	assert.False(t, registry.Handles(factory, 4))
	assert.True(t, registry.Handles(factory, 5))
	assert.False(t, registry.Handles(child, 6))

	// Below the start block and before the template exists nothing happens.
	require.NoError(t, registry.ProcessEvent(ctx, rawEvent(t, factory, "Created(address instance)", 4, 0, child)))
	require.NoError(t, registry.ProcessEvent(ctx, rawEvent(t, child, "Pinged(uint256 value)", 6, 0, big.NewInt(1))))
	assert.Equal(t, 1, registry.Routes())

	require.NoError(t, registry.ProcessEvent(ctx, rawEvent(t, factory, "Created(address instance)", 7, 0, child)))
	require.NoError(t, registry.ProcessEvent(ctx, rawEvent(t, child, "Pinged(uint256 value)", 8, 0, big.NewInt(2))))
	assert.Equal(t, []int64{2}, module.pings)
	assert.Equal(t, 1, backend.Count("DataSource"))
	assert.True(t, registry.Handles(child, 7))
	assert.False(t, registry.Handles(child, 6))

	// A failing handler rolls back its writes and its template routes.
	require.NoError(t, registry.ProcessEvent(ctx, rawEvent(t, child, "Failed()", 9, 0)))
	assert.Equal(t, 1, backend.Count("Implementation"))
	assert.Equal(t, 1, backend.Count("DataSource"))
	assert.Equal(t, 2, registry.Routes())

	restarted := NewModuleRegistry(repos, zerolog.Nop())
	again := newTestModule(t, repos)
	again.templates = restarted
	require.NoError(t, restarted.RegisterModule(again))
	require.NoError(t, restarted.LoadTemplates(ctx))
	require.NoError(t, restarted.ProcessEvent(ctx, rawEvent(t, child, "Pinged(uint256 value)", 10, 0, big.NewInt(3))))
	assert.Equal(t, []int64{3}, again.pings)
}

func TestModuleRegistry_CancelledContext(t *testing.T) {
	repos := entity.NewRepos(store.NewMemory())
	registry := NewModuleRegistry(repos, zerolog.Nop())
	module := newTestModule(t, repos)
	module.templates = registry
	require.NoError(t, registry.RegisterModule(module))
	require.NoError(t, registry.BindSource("Factory", factory, 0))

	require.NoError(t, registry.ProcessEvent(context.Background(), rawEvent(t, factory, "Created(address instance)", 1, 0, child)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := registry.ProcessEvent(ctx, rawEvent(t, child, "Failed()", 2, 0))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestModuleRegistry_UnknownTemplate(t *testing.T) {
	registry := NewModuleRegistry(entity.NewRepos(store.NewMemory()), zerolog.Nop())
	assert.Error(t, registry.CreateTemplate(context.Background(), "Missing", child, 1))
}
