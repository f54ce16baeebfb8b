package taskconfig

import (
	"context"
	"math/big"

	"github.com/mimic-fi/v3-subgraph/internal/entity"
)

// Overrides upserts per-token settings of the version being written.
// Setting a token twice overwrites the first value.
type Overrides struct {
	repos    *entity.Repos
	configID string
}

func (o *Overrides) SetTokenThreshold(ctx context.Context, token string, threshold entity.TokenThreshold) error {
	return o.repos.CustomTokenThresholds.Save(ctx, &entity.CustomTokenThreshold{
		ID:         entity.OverrideID(o.configID, token),
		TaskConfig: o.configID,
		Token:      token,
		Threshold:  threshold,
	})
}

func (o *Overrides) SetVolumeLimit(ctx context.Context, token string, limit entity.VolumeLimit) error {
	return o.repos.CustomVolumeLimits.Save(ctx, &entity.CustomVolumeLimit{
		ID:          entity.OverrideID(o.configID, token),
		TaskConfig:  o.configID,
		Token:       token,
		VolumeLimit: limit,
	})
}

func (o *Overrides) SetTokenOut(ctx context.Context, token, tokenOut string) error {
	return o.repos.CustomTokenOuts.Save(ctx, &entity.CustomTokenOut{
		ID:         entity.OverrideID(o.configID, token),
		TaskConfig: o.configID,
		Token:      token,
		TokenOut:   tokenOut,
	})
}

func (o *Overrides) SetMaxSlippage(ctx context.Context, token string, slippage *big.Int) error {
	return o.repos.CustomMaxSlippages.Save(ctx, &entity.CustomMaxSlippage{
		ID:          entity.OverrideID(o.configID, token),
		TaskConfig:  o.configID,
		Token:       token,
		MaxSlippage: slippage,
	})
}

func (o *Overrides) SetDestinationChain(ctx context.Context, token string, chain *big.Int) error {
	return o.repos.CustomDestinationChains.Save(ctx, &entity.CustomDestinationChain{
		ID:               entity.OverrideID(o.configID, token),
		TaskConfig:       o.configID,
		Token:            token,
		DestinationChain: chain,
	})
}

func (o *Overrides) SetMaxBridgeFee(ctx context.Context, token string, fee entity.MaxBridgeFee) error {
	return o.repos.CustomMaxBridgeFees.Save(ctx, &entity.CustomMaxBridgeFee{
		ID:           entity.OverrideID(o.configID, token),
		TaskConfig:   o.configID,
		Token:        token,
		MaxBridgeFee: fee,
	})
}

// Snapshot holds every per-token override of one version.
type Snapshot struct {
	TokenThresholds   []*entity.CustomTokenThreshold
	VolumeLimits      []*entity.CustomVolumeLimit
	TokenOuts         []*entity.CustomTokenOut
	MaxSlippages      []*entity.CustomMaxSlippage
	DestinationChains []*entity.CustomDestinationChain
	MaxBridgeFees     []*entity.CustomMaxBridgeFee
}

// Overrides loads the per-token overrides of a version.
func (v *Versioner) Overrides(ctx context.Context, configID string) (*Snapshot, error) {
	var (
		s   Snapshot
		err error
	)
	r := v.repos
	if s.TokenThresholds, err = r.CustomTokenThresholds.ChildrenOf(ctx, configID); err != nil {
		return nil, err
	}
	if s.VolumeLimits, err = r.CustomVolumeLimits.ChildrenOf(ctx, configID); err != nil {
		return nil, err
	}
	if s.TokenOuts, err = r.CustomTokenOuts.ChildrenOf(ctx, configID); err != nil {
		return nil, err
	}
	if s.MaxSlippages, err = r.CustomMaxSlippages.ChildrenOf(ctx, configID); err != nil {
		return nil, err
	}
	if s.DestinationChains, err = r.CustomDestinationChains.ChildrenOf(ctx, configID); err != nil {
		return nil, err
	}
	if s.MaxBridgeFees, err = r.CustomMaxBridgeFees.ChildrenOf(ctx, configID); err != nil {
		return nil, err
	}
	return &s, nil
}
