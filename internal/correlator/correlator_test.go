package correlator

import (
	"context"
	"math/big"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/store"
)

const tx = "0xabc"

type fixture struct {
	ctx   context.Context
	repos *entity.Repos
	c     *Correlator
}

func newFixture() *fixture {
	repos := entity.NewRepos(store.NewMemory())
	return &fixture{ctx: context.Background(), repos: repos, c: New(repos, zerolog.Nop())}
}

func (f *fixture) movement(t *testing.T, logIndex uint) string {
	t.Helper()
	id, err := f.c.Track(f.ctx, tx, KindMovement, logIndex, 10)
	require.NoError(t, err)
	require.NoError(t, f.repos.Movements.Save(f.ctx, &entity.Movement{ID: id, Hash: tx, Amount: big.NewInt(1)}))
	return id
}

func (f *fixture) placedMovement(t *testing.T, ordinal int) string {
	t.Helper()
	id, err := f.c.reserveAt(f.ctx, tx, KindMovement, ordinal, uint(ordinal), 10)
	require.NoError(t, err)
	require.NoError(t, f.repos.Movements.Save(f.ctx, &entity.Movement{ID: id, Hash: tx, Amount: big.NewInt(1)}))
	return id
}

func (f *fixture) call(t *testing.T, logIndex uint) string {
	t.Helper()
	id, err := f.c.Track(f.ctx, tx, KindCall, logIndex, 10)
	require.NoError(t, err)
	require.NoError(t, f.repos.SmartVaultCalls.Save(f.ctx, &entity.SmartVaultCall{ID: id, Hash: tx, Type: entity.CallWithdraw}))
	return id
}

func (f *fixture) envelope(t *testing.T, index int64) string {
	t.Helper()
	id := tx + "#" + big.NewInt(index).String()
	require.NoError(t, f.repos.RelayedExecutions.Save(f.ctx, &entity.RelayedExecution{ID: id, Transaction: tx, Index: big.NewInt(index)}))
	return id
}

func TestTrack_OrdinalsPerKind(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "0xabc#0", f.movement(t, 3))
	assert.Equal(t, "0xabc#0", f.call(t, 4))
	assert.Equal(t, "0xabc#1", f.movement(t, 5))

	again, err := f.c.Track(f.ctx, tx, KindMovement, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, "0xabc#0", again, "replayed log keeps its ordinal")
}

func TestLink_AttachesAllPrecedingRecords(t *testing.T) {
	f := newFixture()
	m0, m1, m2 := f.movement(t, 0), f.movement(t, 1), f.movement(t, 2)
	c0 := f.call(t, 3)
	env := f.envelope(t, 0)

	n, err := f.c.Link(f.ctx, tx, env)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	for _, id := range []string{m0, m1, m2} {
		m, err := f.repos.Movements.Load(f.ctx, id)
		require.NoError(t, err)
		assert.Equal(t, env, m.RelayedExecution)
	}
	call, err := f.repos.SmartVaultCalls.Load(f.ctx, c0)
	require.NoError(t, err)
	assert.Equal(t, env, call.RelayedExecution)

	execution, err := f.repos.RelayedExecutions.Load(f.ctx, env)
	require.NoError(t, err)
	assert.Equal(t, []string{m0, m1, m2}, execution.Movements)
	assert.Equal(t, []string{c0}, execution.Calls)

	left, err := f.c.Unlinked(f.ctx, tx, KindMovement)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestLink_StopsAtGap(t *testing.T) {
	f := newFixture()
	m0 := f.placedMovement(t, 0)
	m2 := f.placedMovement(t, 2)
	env := f.envelope(t, 0)

	n, err := f.c.Link(f.ctx, tx, env)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	execution, err := f.repos.RelayedExecutions.Load(f.ctx, env)
	require.NoError(t, err)
	assert.Equal(t, []string{m0}, execution.Movements)

	left, err := f.c.Unlinked(f.ctx, tx, KindMovement)
	require.NoError(t, err)
	assert.Equal(t, []string{m2}, left)

	report, err := f.c.Report(f.ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, report[KindMovement])
	assert.Equal(t, 0, report[KindCall])

	report, err = f.c.Report(f.ctx, 11, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, report[KindMovement])
}

func TestLink_SecondEnvelopeTakesOnlyNewRecords(t *testing.T) {
	f := newFixture()
	m0 := f.movement(t, 0)
	first := f.envelope(t, 0)
	_, err := f.c.Link(f.ctx, tx, first)
	require.NoError(t, err)

	m1 := f.movement(t, 2)
	second := f.envelope(t, 1)
	n, err := f.c.Link(f.ctx, tx, second)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	a, err := f.repos.RelayedExecutions.Load(f.ctx, first)
	require.NoError(t, err)
	b, err := f.repos.RelayedExecutions.Load(f.ctx, second)
	require.NoError(t, err)
	assert.Equal(t, []string{m0}, a.Movements)
	assert.Equal(t, []string{m1}, b.Movements)

	// relinking is a no-op
	n, err = f.c.Link(f.ctx, tx, second)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLink_MissingEnvelope(t *testing.T) {
	f := newFixture()
	_, err := f.c.Link(f.ctx, tx, "0xabc#9")
	assert.Error(t, err)
}

// listCounter records which kinds were read with a full List.
type listCounter struct {
	store.Backend
	listed []string
}

func (b *listCounter) List(ctx context.Context, kind string) ([]*store.Record, error) {
	b.listed = append(b.listed, kind)
	return b.Backend.List(ctx, kind)
}

func TestReport_ReadsOnlyTheBlockWindow(t *testing.T) {
	backend := &listCounter{Backend: store.NewMemory()}
	repos := entity.NewRepos(backend)
	c := New(repos, zerolog.Nop())
	ctx := context.Background()

	for _, at := range []struct {
		hash  string
		block uint64
	}{{"0x01", 500}, {"0x02", 1999}, {"0x03", 2000}, {"0x04", 5200}} {
		_, err := c.Track(ctx, at.hash, KindMovement, 0, at.block)
		require.NoError(t, err)
		_, err = c.Track(ctx, at.hash, KindCall, 1, at.block)
		require.NoError(t, err)
	}

	report, err := c.Report(ctx, 1500, 2000)
	require.NoError(t, err)
	assert.Equal(t, 2, report[KindMovement])
	assert.Equal(t, 2, report[KindCall])

	report, err = c.Report(ctx, 0, 10000)
	require.NoError(t, err)
	assert.Equal(t, 4, report[KindMovement])

	report, err = c.Report(ctx, 3000, 2000)
	require.NoError(t, err)
	assert.Zero(t, report[KindMovement])

	assert.Empty(t, backend.listed)
}
