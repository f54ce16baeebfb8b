package authorizer

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimic-fi/v3-subgraph/internal/contracts"
	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
	"github.com/mimic-fi/v3-subgraph/internal/modules/modtest"
	"github.com/mimic-fi/v3-subgraph/internal/permissions"
)

const (
	sigAuthorized   = "Authorized(indexed address who, indexed address where, indexed bytes4 what, (uint8 op, uint248 value)[] params)"
	sigUnauthorized = "Unauthorized(indexed address who, indexed address where, indexed bytes4 what)"
)

var (
	authorizerAddr = modtest.Addr("0x00000000000000000000000000000000000000a0")
	task           = modtest.Addr("0x00000000000000000000000000000000000000a1")
	vault          = modtest.Addr("0x00000000000000000000000000000000000000a2")
	pause          = permissions.Selector("pause()")
)

type param = struct {
	Op    uint8    `json:"op"`
	Value *big.Int `json:"value"`
}

func setup(t *testing.T) (*modtest.Env, *Module) {
	env := modtest.New(t, "mainnet")
	m, err := New(env.Deps, env.Manifest(t, "authorizer"))
	require.NoError(t, err)
	require.NoError(t, env.Deps.Repos.Tasks.Save(context.Background(), &entity.Task{ID: core.AddressID(task), SmartVault: core.AddressID(vault)}))
	return env, m
}

func tx(block uint64, index uint) modtest.Tx {
	return modtest.Tx{Hash: common.BigToHash(big.NewInt(int64(block))), Block: block, Index: index}
}

func authorized(t *testing.T, at modtest.Tx, params ...param) *core.RawEvent {
	if params == nil {
		params = []param{}
	}
	return modtest.Event(t, at, authorizerAddr, sigAuthorized, task, vault, pause, params)
}

func permissionCount(t *testing.T, env *modtest.Env) int64 {
	tk, err := env.Deps.Repos.Tasks.Load(context.Background(), core.AddressID(task))
	require.NoError(t, err)
	return tk.Permissions
}

func TestPermissionLifecycle(t *testing.T) {
	env, m := setup(t)
	ctx := context.Background()
	id := PermissionID(authorizerAddr, task, vault, pause)

	env.Reader.Set(contracts.Authorizer, authorizerAddr, "getPermissionParams",
		[]interface{}{[]param{{Op: 1, Value: big.NewInt(255)}, {Op: 9, Value: big.NewInt(0)}}}, task, vault, pause)

	require.NoError(t, env.Apply(t, m, authorized(t, tx(1, 0))))

	permission, err := env.Deps.Repos.Permissions.Load(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, permission)
	assert.Equal(t, "pause", permission.Method)
	assert.Equal(t, permissions.Hex(pause), permission.What)
	assert.Equal(t, core.AddressID(authorizerAddr), permission.Authorizer)

	params, err := env.Deps.Repos.PermissionParams.ChildrenOf(ctx, id)
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, ParamID(id, 0), params[0].ID)
	assert.Equal(t, entity.OpEq, params[0].Op)
	assert.Equal(t, "0xff", params[0].Value)
	assert.Equal(t, entity.OpUnknown, params[1].Op)
	assert.Equal(t, "0x0", params[1].Value)
	assert.Equal(t, int64(1), permissionCount(t, env))

	// Replays and re-grants keep the count and rewrite the params.
	require.NoError(t, env.Apply(t, m, authorized(t, tx(1, 0))))
	env.Reader.Set(contracts.Authorizer, authorizerAddr, "getPermissionParams",
		[]interface{}{[]param{{Op: 3, Value: big.NewInt(7)}}}, task, vault, pause)
	require.NoError(t, env.Apply(t, m, authorized(t, tx(2, 0))))

	params, err = env.Deps.Repos.PermissionParams.ChildrenOf(ctx, id)
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, entity.OpGt, params[0].Op)
	assert.Equal(t, int64(1), permissionCount(t, env))

	require.NoError(t, env.Apply(t, m, modtest.Event(t, tx(3, 0), authorizerAddr, sigUnauthorized, task, vault, pause)))

	permission, err = env.Deps.Repos.Permissions.Load(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, permission)
	assert.Equal(t, 0, env.Backend.Count("PermissionParam"))
	assert.Zero(t, permissionCount(t, env))

	require.NoError(t, env.Apply(t, m, modtest.Event(t, tx(3, 0), authorizerAddr, sigUnauthorized, task, vault, pause)))
	assert.Zero(t, permissionCount(t, env))
}

func TestAuthorized_ParamsReadReverts(t *testing.T) {
	env, m := setup(t)

	require.NoError(t, env.Apply(t, m, authorized(t, tx(1, 0), param{Op: 1, Value: big.NewInt(1)})))

	id := PermissionID(authorizerAddr, task, vault, pause)
	permission, err := env.Deps.Repos.Permissions.Load(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, permission)
	assert.Equal(t, 0, env.Backend.Count("PermissionParam"))
	assert.Equal(t, int64(1), permissionCount(t, env))
}

func TestAuthorized_UnknownSelectorAndNonTaskGrantee(t *testing.T) {
	env, m := setup(t)
	someone := modtest.Addr("0x00000000000000000000000000000000000000ee")
	selector := [4]byte{0xde, 0xad, 0xbe, 0xef}

	require.NoError(t, env.Apply(t, m, modtest.Event(t, tx(1, 0), authorizerAddr, sigAuthorized, someone, vault, selector, []param{})))

	permission, err := env.Deps.Repos.Permissions.Load(context.Background(), PermissionID(authorizerAddr, someone, vault, selector))
	require.NoError(t, err)
	require.NotNil(t, permission)
	assert.Equal(t, permissions.Unknown, permission.Method)
	assert.Zero(t, permissionCount(t, env))
}

func TestPermissionCount_ReplayedGrantCountsOnce(t *testing.T) {
	env, m := setup(t)
	ctx := context.Background()
	grant := authorized(t, tx(1, 0))
	revoke := modtest.Event(t, tx(2, 0), authorizerAddr, sigUnauthorized, task, vault, pause)

	require.NoError(t, env.Apply(t, m, grant))
	require.NoError(t, env.Apply(t, m, revoke))

	// the grant is delivered again after its revocation, then the revocation
	require.NoError(t, env.Apply(t, m, grant))
	assert.Zero(t, permissionCount(t, env))
	require.NoError(t, env.Apply(t, m, revoke))
	assert.Zero(t, permissionCount(t, env))

	require.NoError(t, env.Apply(t, m, authorized(t, tx(3, 0))))
	assert.Equal(t, int64(1), permissionCount(t, env))

	balance, err := env.Deps.Ledger.Balance(ctx, PermissionsAccount(core.AddressID(task)))
	require.NoError(t, err)
	assert.Equal(t, permissionCount(t, env), balance.Int64())
}
