package entity

// Permission exists only while the grant is active.
type Permission struct {
	ID         string `json:"id"`
	Authorizer string `json:"authorizer"`
	Who        string `json:"who"`
	Where      string `json:"where"`
	What       string `json:"what"`
	Method     string `json:"method"`
}

func (e *Permission) Kind() string      { return "Permission" }
func (e *Permission) Key() string       { return e.ID }
func (e *Permission) ParentKey() string { return e.Authorizer }

// PermissionParam is a positional constraint owned by a Permission.
type PermissionParam struct {
	ID         string `json:"id"`
	Permission string `json:"permission"`
	Index      int    `json:"index"`
	Op         string `json:"op"`
	Value      string `json:"value"`
}

func (e *PermissionParam) Kind() string      { return "PermissionParam" }
func (e *PermissionParam) Key() string       { return e.ID }
func (e *PermissionParam) ParentKey() string { return e.Permission }

const (
	OpNone    = "NONE"
	OpEq      = "EQ"
	OpNeq     = "NEQ"
	OpGt      = "GT"
	OpLt      = "LT"
	OpGte     = "GTE"
	OpLte     = "LTE"
	OpUnknown = "Unknown"
)

var ops = []string{OpNone, OpEq, OpNeq, OpGt, OpLt, OpGte, OpLte}

// ParseOp maps an on-chain operator code to its tag.
func ParseOp(op uint8) string {
	if int(op) < len(ops) {
		return ops[op]
	}
	return OpUnknown
}
