package entity

import "math/big"

// RelayerConfig tracks a vault's funds at one relayer. Balance and
// QuotaUsed are caches of the delta ledger.
type RelayerConfig struct {
	ID           string   `json:"id"`
	Relayer      string   `json:"relayer"`
	SmartVault   string   `json:"smartVault"`
	FeeCollector string   `json:"feeCollector"`
	Balance      *big.Int `json:"balance"`
	QuotaUsed    *big.Int `json:"quotaUsed"`
	MaxQuota     *big.Int `json:"maxQuota"`
	NativeToken  string   `json:"nativeToken"`
}

func (e *RelayerConfig) Kind() string      { return "RelayerConfig" }
func (e *RelayerConfig) Key() string       { return e.ID }
func (e *RelayerConfig) ParentKey() string { return e.Relayer }

// RelayerConfigID keys a relayer config by relayer and vault.
func RelayerConfigID(relayer, smartVault string) string {
	return relayer + "/" + smartVault
}

type RelayerDefaultConfig struct {
	ID                  string `json:"id"`
	DefaultFeeCollector string `json:"defaultFeeCollector"`
}

func (e *RelayerDefaultConfig) Kind() string      { return "RelayerDefaultConfig" }
func (e *RelayerDefaultConfig) Key() string       { return e.ID }
func (e *RelayerDefaultConfig) ParentKey() string { return "" }

type Executor struct {
	ID                   string `json:"id"`
	Address              string `json:"address"`
	RelayerDefaultConfig string `json:"relayerDefaultConfig"`
	Allowed              bool   `json:"allowed"`
}

func (e *Executor) Kind() string      { return "Executor" }
func (e *Executor) Key() string       { return e.ID }
func (e *Executor) ParentKey() string { return e.RelayerDefaultConfig }

type FeeController struct {
	ID           string `json:"id"`
	FeeCollector string `json:"feeCollector"`
}

func (e *FeeController) Kind() string      { return "FeeController" }
func (e *FeeController) Key() string       { return e.ID }
func (e *FeeController) ParentKey() string { return "" }

type SmartVaultFee struct {
	ID               string   `json:"id"`
	FeeController    string   `json:"feeController"`
	SmartVault       string   `json:"smartVault"`
	FeeCollector     string   `json:"feeCollector"`
	FeePercentage    *big.Int `json:"feePercentage"`
	MaxFeePercentage *big.Int `json:"maxFeePercentage"`
}

func (e *SmartVaultFee) Kind() string      { return "SmartVaultFee" }
func (e *SmartVaultFee) Key() string       { return e.ID }
func (e *SmartVaultFee) ParentKey() string { return e.FeeController }

type PriceOracleSigner struct {
	ID          string `json:"id"`
	PriceOracle string `json:"priceOracle"`
	Signer      string `json:"signer"`
}

func (e *PriceOracleSigner) Kind() string      { return "PriceOracleSigner" }
func (e *PriceOracleSigner) Key() string       { return e.ID }
func (e *PriceOracleSigner) ParentKey() string { return e.PriceOracle }

type PriceOracleFeed struct {
	ID          string `json:"id"`
	PriceOracle string `json:"priceOracle"`
	Base        string `json:"base"`
	Quote       string `json:"quote"`
	Feed        string `json:"feed"`
}

func (e *PriceOracleFeed) Kind() string      { return "PriceOracleFeed" }
func (e *PriceOracleFeed) Key() string       { return e.ID }
func (e *PriceOracleFeed) ParentKey() string { return e.PriceOracle }
