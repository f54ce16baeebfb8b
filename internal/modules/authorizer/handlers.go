package authorizer

import (
	"context"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mimic-fi/v3-subgraph/internal/accounting"
	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
	"github.com/mimic-fi/v3-subgraph/internal/permissions"
)

// PermissionID is keccak256(authorizer ++ who ++ where ++ what).
func PermissionID(authorizer, who, where common.Address, what [4]byte) string {
	raw := make([]byte, 0, 3*common.AddressLength+4)
	raw = append(raw, authorizer.Bytes()...)
	raw = append(raw, who.Bytes()...)
	raw = append(raw, where.Bytes()...)
	raw = append(raw, what[:]...)
	return core.Hex(crypto.Keccak256(raw))
}

// PermissionsAccount is the ledger account of a task's permission count.
func PermissionsAccount(taskID string) string {
	return accounting.Account("Task", taskID, "permissions")
}

// ParamID addresses the i-th constraint of a permission.
func ParamID(permissionID string, i int) string {
	return permissionID + "/param/" + strconv.Itoa(i)
}

type grant struct {
	who, where common.Address
	what       [4]byte
	id         string
}

func parseGrant(e *core.ParsedEvent) (*grant, error) {
	who, err := e.AddressArg("who")
	if err != nil {
		return nil, err
	}
	where, err := e.AddressArg("where")
	if err != nil {
		return nil, err
	}
	what, err := e.Bytes4Arg("what")
	if err != nil {
		return nil, err
	}
	return &grant{who: who, where: where, what: what, id: PermissionID(e.Address, who, where, what)}, nil
}

func handleAuthorized(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	g, err := parseGrant(e)
	if err != nil {
		return err
	}

	existing, err := m.Repos.Permissions.Load(ctx, g.id)
	if err != nil {
		return err
	}

	permission := &entity.Permission{
		ID:         g.id,
		Authorizer: e.Emitter(),
		Who:        core.AddressID(g.who),
		Where:      core.AddressID(g.where),
		What:       permissions.Hex(g.what),
		Method:     m.Permissions.Method(g.what),
	}
	if err := m.Repos.Permissions.Save(ctx, permission); err != nil {
		return err
	}
	if err := m.removeParams(ctx, g.id); err != nil {
		return err
	}

	params, ok := m.Contracts.PermissionParams(ctx, e.Address, g.who, g.where, g.what)
	if !ok {
		m.logger.Warn().
			Str("authorizer", e.Emitter()).
			Str("permission", g.id).
			Msg("Permission stored without params")
	}
	for i, p := range params {
		value := "0x0"
		if p.Value != nil {
			value = hexutil.EncodeBig(p.Value)
		}
		err := m.Repos.PermissionParams.Save(ctx, &entity.PermissionParam{
			ID:         ParamID(g.id, i),
			Permission: g.id,
			Index:      i,
			Op:         entity.ParseOp(p.Op),
			Value:      value,
		})
		if err != nil {
			return err
		}
	}

	if existing == nil {
		return m.adjustPermissions(ctx, g.who, e.ID(), 1)
	}
	return nil
}

func handleUnauthorized(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	g, err := parseGrant(e)
	if err != nil {
		return err
	}

	permission, err := m.Repos.Permissions.Load(ctx, g.id)
	if err != nil {
		return err
	}
	if permission == nil {
		m.logger.Debug().Str("permission", g.id).Msg("Unauthorized unknown permission")
		return nil
	}

	if err := m.removeParams(ctx, g.id); err != nil {
		return err
	}
	if err := m.Repos.Permissions.Remove(ctx, g.id); err != nil {
		return err
	}
	return m.adjustPermissions(ctx, g.who, e.ID(), -1)
}

func (m *Module) removeParams(ctx context.Context, permissionID string) error {
	params, err := m.Repos.PermissionParams.ChildrenOf(ctx, permissionID)
	if err != nil {
		return err
	}
	for _, p := range params {
		if err := m.Repos.PermissionParams.Remove(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

// adjustPermissions records delta against the permission counter of who
// when it is a task, once per event. The counter never goes below zero.
func (m *Module) adjustPermissions(ctx context.Context, who common.Address, eventID string, delta int64) error {
	task, err := m.Repos.Tasks.Load(ctx, core.AddressID(who))
	if err != nil || task == nil {
		return err
	}
	if delta < 0 && task.Permissions == 0 {
		return nil
	}
	applied, err := m.Ledger.Apply(ctx, PermissionsAccount(task.ID), eventID, big.NewInt(delta))
	if err != nil || !applied {
		return err
	}
	task.Permissions += delta
	return m.Repos.Tasks.Save(ctx, task)
}
