package entity

// Implementation is a contract implementation known to the registry.
type Implementation struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Stateless  bool   `json:"stateless"`
	Deprecated bool   `json:"deprecated"`
}

func (e *Implementation) Kind() string      { return "Implementation" }
func (e *Implementation) Key() string       { return e.ID }
func (e *Implementation) ParentKey() string { return "" }

// Environment groups deployments made by one creator under one namespace.
type Environment struct {
	ID        string `json:"id"`
	Creator   string `json:"creator"`
	Namespace string `json:"namespace"`
	Network   string `json:"network"`
}

func (e *Environment) Kind() string      { return "Environment" }
func (e *Environment) Key() string       { return e.ID }
func (e *Environment) ParentKey() string { return "" }

type Authorizer struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Implementation string `json:"implementation"`
	Environment    string `json:"environment"`
}

func (e *Authorizer) Kind() string      { return "Authorizer" }
func (e *Authorizer) Key() string       { return e.ID }
func (e *Authorizer) ParentKey() string { return e.Environment }

type PriceOracle struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Implementation string `json:"implementation"`
	Environment    string `json:"environment"`
}

func (e *PriceOracle) Kind() string      { return "PriceOracle" }
func (e *PriceOracle) Key() string       { return e.ID }
func (e *PriceOracle) ParentKey() string { return e.Environment }

// SmartVault pointers fall back to the zero address when the deploy-time
// reads revert.
type SmartVault struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Implementation string `json:"implementation"`
	Environment    string `json:"environment"`
	Registry       string `json:"registry"`
	Authorizer     string `json:"authorizer"`
	PriceOracle    string `json:"priceOracle"`
	Paused         bool   `json:"paused"`
}

func (e *SmartVault) Kind() string      { return "SmartVault" }
func (e *SmartVault) Key() string       { return e.ID }
func (e *SmartVault) ParentKey() string { return e.Environment }

type Task struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Implementation string `json:"implementation"`
	Environment    string `json:"environment"`
	SmartVault     string `json:"smartVault"`
	TokensSource   string `json:"tokensSource"`
	ExecutionType  string `json:"executionType"`
	TaskConfig     string `json:"taskConfig,omitempty"`
	Paused         bool   `json:"paused"`
	Permissions    int64  `json:"permissions"`
}

func (e *Task) Kind() string      { return "Task" }
func (e *Task) Key() string       { return e.ID }
func (e *Task) ParentKey() string { return e.SmartVault }

// DataSource is a contract instance created from a template at runtime.
type DataSource struct {
	ID       string `json:"id"`
	Template string `json:"template"`
	Block    uint64 `json:"block"`
}

func (e *DataSource) Kind() string      { return "DataSource" }
func (e *DataSource) Key() string       { return e.ID }
func (e *DataSource) ParentKey() string { return e.Template }

// ERC20 describes a token. Reverted metadata reads leave "Unknown" and 0.
type ERC20 struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

func (e *ERC20) Kind() string      { return "ERC20" }
func (e *ERC20) Key() string       { return e.ID }
func (e *ERC20) ParentKey() string { return "" }
