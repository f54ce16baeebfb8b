package entity

import "math/big"

const (
	AcceptanceDenyList  = "DenyList"
	AcceptanceAllowList = "AllowList"

	TimeLockSeconds      = "Seconds"
	TimeLockOnDay        = "OnDay"
	TimeLockLastMonthDay = "LastMonthDay"
	TimeLockUnknown      = "Unknown"

	// ZeroConnector is the unset balance connector id.
	ZeroConnector = "0x0000000000000000000000000000000000000000000000000000000000000000"
)

// ParseAcceptanceType maps the on-chain acceptance type. Only 0 denies.
func ParseAcceptanceType(t uint8) string {
	if t == 0 {
		return AcceptanceDenyList
	}
	return AcceptanceAllowList
}

// ParseTimeLockMode maps the on-chain time-lock mode.
func ParseTimeLockMode(mode uint8) string {
	switch mode {
	case 0:
		return TimeLockSeconds
	case 1:
		return TimeLockOnDay
	case 2:
		return TimeLockLastMonthDay
	default:
		return TimeLockUnknown
	}
}

type AcceptanceList struct {
	Type   string   `json:"type"`
	Tokens []string `json:"tokens"`
}

type GasLimits struct {
	GasPriceLimit    *big.Int `json:"gasPriceLimit"`
	PriorityFeeLimit *big.Int `json:"priorityFeeLimit"`
	TxCostLimitPct   *big.Int `json:"txCostLimitPct"`
	TxCostLimit      *big.Int `json:"txCostLimit"`
}

type TimeLock struct {
	Mode      string   `json:"mode"`
	Frequency *big.Int `json:"frequency"`
	AllowedAt *big.Int `json:"allowedAt"`
	Window    *big.Int `json:"window"`
}

type TokenThreshold struct {
	Token string   `json:"token"`
	Min   *big.Int `json:"min"`
	Max   *big.Int `json:"max"`
}

type VolumeLimit struct {
	Token  string   `json:"token"`
	Amount *big.Int `json:"amount"`
	Period *big.Int `json:"period"`
}

type MaxBridgeFee struct {
	Token  string   `json:"token"`
	Amount *big.Int `json:"amount"`
}

// TaskConfig is one immutable-once-superseded version of a task's settings.
// Versions of a task are its TaskConfig children in creation order.
type TaskConfig struct {
	ID       string `json:"id"`
	Task     string `json:"task"`
	Version  int    `json:"version"`
	Previous string `json:"previous,omitempty"`
	Block    uint64 `json:"block"`

	PreviousBalanceConnector string         `json:"previousBalanceConnector"`
	NextBalanceConnector     string         `json:"nextBalanceConnector"`
	AcceptanceList           AcceptanceList `json:"acceptanceList"`
	GasLimits                GasLimits      `json:"gasLimits"`
	TimeLock                 TimeLock       `json:"timeLock"`
	Connector                string         `json:"connector,omitempty"`
	Recipient                string         `json:"recipient,omitempty"`

	DefaultTokenThreshold   *TokenThreshold `json:"defaultTokenThreshold,omitempty"`
	DefaultVolumeLimit      *VolumeLimit    `json:"defaultVolumeLimit,omitempty"`
	DefaultTokenOut         string          `json:"defaultTokenOut,omitempty"`
	DefaultMaxSlippage      *big.Int        `json:"defaultMaxSlippage,omitempty"`
	DefaultDestinationChain *big.Int        `json:"defaultDestinationChain,omitempty"`
	DefaultMaxBridgeFee     *MaxBridgeFee   `json:"defaultMaxBridgeFee,omitempty"`
}

func (e *TaskConfig) Kind() string      { return "TaskConfig" }
func (e *TaskConfig) Key() string       { return e.ID }
func (e *TaskConfig) ParentKey() string { return e.Task }

// NewTaskConfig returns a first version with every setting at its default.
func NewTaskConfig(id, task string, block uint64) *TaskConfig {
	return &TaskConfig{
		ID:                       id,
		Task:                     task,
		Block:                    block,
		PreviousBalanceConnector: ZeroConnector,
		NextBalanceConnector:     ZeroConnector,
		AcceptanceList:           AcceptanceList{Type: AcceptanceDenyList, Tokens: []string{}},
		GasLimits: GasLimits{
			GasPriceLimit:    new(big.Int),
			PriorityFeeLimit: new(big.Int),
			TxCostLimitPct:   new(big.Int),
			TxCostLimit:      new(big.Int),
		},
		TimeLock: TimeLock{
			Mode:      TimeLockSeconds,
			Frequency: new(big.Int),
			AllowedAt: new(big.Int),
			Window:    new(big.Int),
		},
	}
}

// Successor deep-copies the version under a new id. The copy shares no
// memory with the receiver.
func (e *TaskConfig) Successor(id string, block uint64) *TaskConfig {
	next := &TaskConfig{
		ID:       id,
		Task:     e.Task,
		Version:  e.Version + 1,
		Previous: e.ID,
		Block:    block,

		PreviousBalanceConnector: e.PreviousBalanceConnector,
		NextBalanceConnector:     e.NextBalanceConnector,
		AcceptanceList: AcceptanceList{
			Type:   e.AcceptanceList.Type,
			Tokens: append([]string{}, e.AcceptanceList.Tokens...),
		},
		GasLimits: GasLimits{
			GasPriceLimit:    copyInt(e.GasLimits.GasPriceLimit),
			PriorityFeeLimit: copyInt(e.GasLimits.PriorityFeeLimit),
			TxCostLimitPct:   copyInt(e.GasLimits.TxCostLimitPct),
			TxCostLimit:      copyInt(e.GasLimits.TxCostLimit),
		},
		TimeLock: TimeLock{
			Mode:      e.TimeLock.Mode,
			Frequency: copyInt(e.TimeLock.Frequency),
			AllowedAt: copyInt(e.TimeLock.AllowedAt),
			Window:    copyInt(e.TimeLock.Window),
		},
		Connector:               e.Connector,
		Recipient:               e.Recipient,
		DefaultTokenOut:         e.DefaultTokenOut,
		DefaultMaxSlippage:      copyInt(e.DefaultMaxSlippage),
		DefaultDestinationChain: copyInt(e.DefaultDestinationChain),
	}
	if t := e.DefaultTokenThreshold; t != nil {
		next.DefaultTokenThreshold = &TokenThreshold{Token: t.Token, Min: copyInt(t.Min), Max: copyInt(t.Max)}
	}
	if v := e.DefaultVolumeLimit; v != nil {
		next.DefaultVolumeLimit = &VolumeLimit{Token: v.Token, Amount: copyInt(v.Amount), Period: copyInt(v.Period)}
	}
	if f := e.DefaultMaxBridgeFee; f != nil {
		next.DefaultMaxBridgeFee = &MaxBridgeFee{Token: f.Token, Amount: copyInt(f.Amount)}
	}
	return next
}

// SetAccepted adds or removes a token from the acceptance list.
func (e *TaskConfig) SetAccepted(token string, added bool) {
	idx := -1
	for i, t := range e.AcceptanceList.Tokens {
		if t == token {
			idx = i
			break
		}
	}
	switch {
	case added && idx < 0:
		e.AcceptanceList.Tokens = append(e.AcceptanceList.Tokens, token)
	case !added && idx >= 0:
		e.AcceptanceList.Tokens = append(e.AcceptanceList.Tokens[:idx], e.AcceptanceList.Tokens[idx+1:]...)
	}
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
