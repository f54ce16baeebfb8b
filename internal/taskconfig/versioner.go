// Package taskconfig maintains the copy-on-write version chain of task
// configurations.
//
// Every configuration change observed at a new block clones the task's
// current version, including its per-token overrides, into a version keyed
// by task and block. Changes observed at the same block extend that block's
// version. Superseded versions are never written again.
package taskconfig

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/store"
)

// Mutation applies one configuration change to the version being written.
type Mutation func(ctx context.Context, cfg *entity.TaskConfig, overrides *Overrides) error

// VersionID keys the version of a task written at block.
func VersionID(task string, block uint64) string {
	return task + "#" + strconv.FormatUint(block, 10)
}

type Versioner struct {
	repos  *entity.Repos
	logger zerolog.Logger
}

func NewVersioner(repos *entity.Repos, logger zerolog.Logger) *Versioner {
	return &Versioner{
		repos:  repos,
		logger: logger.With().Str("component", "taskconfig").Logger(),
	}
}

// Apply writes mutation into the task's version for block and makes it the
// task's current configuration. It returns nil without writing anything
// when the task is unknown or when block is older than the current version,
// which only happens when an already applied event is delivered again.
func (v *Versioner) Apply(ctx context.Context, taskID string, block uint64, mutation Mutation) (*entity.TaskConfig, error) {
	task, err := v.repos.Tasks.Load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		v.logger.Warn().Str("task", taskID).Uint64("block", block).Msg("Missing task entity")
		return nil, nil
	}

	id := VersionID(taskID, block)
	cfg, err := v.writable(ctx, task, id, block)
	if err != nil || cfg == nil {
		return nil, err
	}

	if err := mutation(ctx, cfg, &Overrides{repos: v.repos, configID: cfg.ID}); err != nil {
		return nil, fmt.Errorf("failed to apply change to %s: %w", cfg.ID, err)
	}
	if err := v.repos.TaskConfigs.Save(ctx, cfg); err != nil {
		return nil, err
	}

	if task.TaskConfig != cfg.ID {
		task.TaskConfig = cfg.ID
		if err := v.repos.Tasks.Save(ctx, task); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// writable returns the version mutations at block must go to, cloning the
// current version when block has none yet. It returns nil for blocks older
// than the current version.
func (v *Versioner) writable(ctx context.Context, task *entity.Task, id string, block uint64) (*entity.TaskConfig, error) {
	if task.TaskConfig == "" {
		v.logger.Debug().Str("task", task.ID).Str("version", id).Msg("Creating first task config")
		return entity.NewTaskConfig(id, task.ID, block), nil
	}

	current, err := v.repos.TaskConfigs.Load(ctx, task.TaskConfig)
	if err != nil {
		return nil, err
	}
	if current == nil {
		v.logger.Warn().
			Str("task", task.ID).
			Str("version", task.TaskConfig).
			Msg("Current task config missing, starting a new chain")
		return entity.NewTaskConfig(id, task.ID, block), nil
	}
	if current.ID == id {
		return current, nil
	}
	if block < current.Block {
		v.logger.Debug().
			Str("task", task.ID).
			Str("current", current.ID).
			Uint64("block", block).
			Msg("Skipping replayed task config change")
		return nil, nil
	}

	next := current.Successor(id, block)
	if err := v.cloneOverrides(ctx, current.ID, next.ID); err != nil {
		return nil, fmt.Errorf("failed to clone overrides of %s: %w", current.ID, err)
	}
	v.logger.Debug().
		Str("task", task.ID).
		Str("from", current.ID).
		Str("to", next.ID).
		Int("version", next.Version).
		Msg("Cloned task config")
	return next, nil
}

func (v *Versioner) cloneOverrides(ctx context.Context, from, to string) error {
	r := v.repos
	if err := cloneChildren(ctx, r.CustomTokenThresholds, from, to); err != nil {
		return err
	}
	if err := cloneChildren(ctx, r.CustomVolumeLimits, from, to); err != nil {
		return err
	}
	if err := cloneChildren(ctx, r.CustomTokenOuts, from, to); err != nil {
		return err
	}
	if err := cloneChildren(ctx, r.CustomMaxSlippages, from, to); err != nil {
		return err
	}
	if err := cloneChildren(ctx, r.CustomDestinationChains, from, to); err != nil {
		return err
	}
	return cloneChildren(ctx, r.CustomMaxBridgeFees, from, to)
}

func cloneChildren[T any, PT interface {
	*T
	entity.Override
}](ctx context.Context, repo *store.Repository[T, PT], from, to string) error {
	children, err := repo.ChildrenOf(ctx, from)
	if err != nil {
		return err
	}
	for _, child := range children {
		child.Rebase(to)
		if err := repo.Save(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

// History returns every version of the task, oldest first.
func (v *Versioner) History(ctx context.Context, taskID string) ([]*entity.TaskConfig, error) {
	return v.repos.TaskConfigs.ChildrenOf(ctx, taskID)
}
