package entity

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOp(t *testing.T) {
	assert.Equal(t, OpNone, ParseOp(0))
	assert.Equal(t, OpEq, ParseOp(1))
	assert.Equal(t, OpLte, ParseOp(6))
	assert.Equal(t, OpUnknown, ParseOp(7))
	assert.Equal(t, OpUnknown, ParseOp(255))
}

func TestParseEnums(t *testing.T) {
	assert.Equal(t, AcceptanceDenyList, ParseAcceptanceType(0))
	assert.Equal(t, AcceptanceAllowList, ParseAcceptanceType(1))
	assert.Equal(t, AcceptanceAllowList, ParseAcceptanceType(9))

	assert.Equal(t, TimeLockSeconds, ParseTimeLockMode(0))
	assert.Equal(t, TimeLockOnDay, ParseTimeLockMode(1))
	assert.Equal(t, TimeLockLastMonthDay, ParseTimeLockMode(2))
	assert.Equal(t, TimeLockUnknown, ParseTimeLockMode(3))
}

func TestTaskConfig_SuccessorSharesNoMemory(t *testing.T) {
	cfg := NewTaskConfig("0xt#1", "0xt", 1)
	cfg.SetAccepted("0xa", true)
	cfg.DefaultTokenThreshold = &TokenThreshold{Token: "0xa", Min: big.NewInt(1), Max: big.NewInt(2)}

	next := cfg.Successor("0xt#2", 2)
	require.Equal(t, 1, next.Version)
	assert.Equal(t, "0xt#1", next.Previous)

	next.SetAccepted("0xb", true)
	next.GasLimits.GasPriceLimit.SetInt64(99)
	next.DefaultTokenThreshold.Min.SetInt64(50)

	assert.Equal(t, []string{"0xa"}, cfg.AcceptanceList.Tokens)
	assert.Zero(t, cfg.GasLimits.GasPriceLimit.Sign())
	assert.Equal(t, int64(1), cfg.DefaultTokenThreshold.Min.Int64())
}

func TestTaskConfig_SetAccepted(t *testing.T) {
	cfg := NewTaskConfig("c", "t", 0)
	cfg.SetAccepted("0xa", true)
	cfg.SetAccepted("0xa", true)
	cfg.SetAccepted("0xb", true)
	assert.Equal(t, []string{"0xa", "0xb"}, cfg.AcceptanceList.Tokens)

	cfg.SetAccepted("0xa", false)
	cfg.SetAccepted("0xc", false)
	assert.Equal(t, []string{"0xb"}, cfg.AcceptanceList.Tokens)
}

func TestOverride_Rebase(t *testing.T) {
	o := &CustomMaxSlippage{ID: "0xt#1/0xa", TaskConfig: "0xt#1", Token: "0xa", MaxSlippage: big.NewInt(5)}
	o.Rebase("0xt#7")
	assert.Equal(t, "0xt#7/0xa", o.ID)
	assert.Equal(t, "0xt#7", o.ParentKey())
}
