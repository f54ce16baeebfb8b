package entity

import "math/big"

// Override is a per-token setting owned by a TaskConfig version.
type Override interface {
	Kind() string
	Key() string
	ParentKey() string
	// Rebase moves the override under another version, keeping its token.
	Rebase(configID string)
}

// OverrideID addresses a per-token override inside a version.
func OverrideID(configID, token string) string {
	return configID + "/" + token
}

type CustomTokenThreshold struct {
	ID         string         `json:"id"`
	TaskConfig string         `json:"taskConfig"`
	Token      string         `json:"token"`
	Threshold  TokenThreshold `json:"threshold"`
}

func (e *CustomTokenThreshold) Kind() string      { return "CustomTokenThreshold" }
func (e *CustomTokenThreshold) Key() string       { return e.ID }
func (e *CustomTokenThreshold) ParentKey() string { return e.TaskConfig }
func (e *CustomTokenThreshold) Rebase(configID string) {
	e.TaskConfig, e.ID = configID, OverrideID(configID, e.Token)
}

type CustomVolumeLimit struct {
	ID          string      `json:"id"`
	TaskConfig  string      `json:"taskConfig"`
	Token       string      `json:"token"`
	VolumeLimit VolumeLimit `json:"volumeLimit"`
}

func (e *CustomVolumeLimit) Kind() string      { return "CustomVolumeLimit" }
func (e *CustomVolumeLimit) Key() string       { return e.ID }
func (e *CustomVolumeLimit) ParentKey() string { return e.TaskConfig }
func (e *CustomVolumeLimit) Rebase(configID string) {
	e.TaskConfig, e.ID = configID, OverrideID(configID, e.Token)
}

type CustomTokenOut struct {
	ID         string `json:"id"`
	TaskConfig string `json:"taskConfig"`
	Token      string `json:"token"`
	TokenOut   string `json:"tokenOut"`
}

func (e *CustomTokenOut) Kind() string      { return "CustomTokenOut" }
func (e *CustomTokenOut) Key() string       { return e.ID }
func (e *CustomTokenOut) ParentKey() string { return e.TaskConfig }
func (e *CustomTokenOut) Rebase(configID string) {
	e.TaskConfig, e.ID = configID, OverrideID(configID, e.Token)
}

type CustomMaxSlippage struct {
	ID          string   `json:"id"`
	TaskConfig  string   `json:"taskConfig"`
	Token       string   `json:"token"`
	MaxSlippage *big.Int `json:"maxSlippage"`
}

func (e *CustomMaxSlippage) Kind() string      { return "CustomMaxSlippage" }
func (e *CustomMaxSlippage) Key() string       { return e.ID }
func (e *CustomMaxSlippage) ParentKey() string { return e.TaskConfig }
func (e *CustomMaxSlippage) Rebase(configID string) {
	e.TaskConfig, e.ID = configID, OverrideID(configID, e.Token)
}

type CustomDestinationChain struct {
	ID               string   `json:"id"`
	TaskConfig       string   `json:"taskConfig"`
	Token            string   `json:"token"`
	DestinationChain *big.Int `json:"destinationChain"`
}

func (e *CustomDestinationChain) Kind() string      { return "CustomDestinationChain" }
func (e *CustomDestinationChain) Key() string       { return e.ID }
func (e *CustomDestinationChain) ParentKey() string { return e.TaskConfig }
func (e *CustomDestinationChain) Rebase(configID string) {
	e.TaskConfig, e.ID = configID, OverrideID(configID, e.Token)
}

type CustomMaxBridgeFee struct {
	ID           string       `json:"id"`
	TaskConfig   string       `json:"taskConfig"`
	Token        string       `json:"token"`
	MaxBridgeFee MaxBridgeFee `json:"maxBridgeFee"`
}

func (e *CustomMaxBridgeFee) Kind() string      { return "CustomMaxBridgeFee" }
func (e *CustomMaxBridgeFee) Key() string       { return e.ID }
func (e *CustomMaxBridgeFee) ParentKey() string { return e.TaskConfig }
func (e *CustomMaxBridgeFee) Rebase(configID string) {
	e.TaskConfig, e.ID = configID, OverrideID(configID, e.Token)
}
