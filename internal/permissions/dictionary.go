// Package permissions names the functions that authorizer grants refer to.
package permissions

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"gopkg.in/yaml.v3"
)

// Unknown names selectors missing from the dictionary.
const Unknown = "Unknown"

//go:embed functions.yaml
var functionsYAML []byte

// Dictionary maps 4-byte selectors to function names.
type Dictionary struct {
	names map[[4]byte]string
}

// Load builds the dictionary of the embedded function list.
func Load() (*Dictionary, error) {
	return Parse(functionsYAML)
}

// Parse builds a dictionary from YAML mapping contract names to function
// signatures.
func Parse(data []byte) (*Dictionary, error) {
	var contracts map[string][]string
	if err := yaml.Unmarshal(data, &contracts); err != nil {
		return nil, fmt.Errorf("failed to parse function list: %w", err)
	}

	d := &Dictionary{names: make(map[[4]byte]string)}
	for contract, signatures := range contracts {
		for _, sig := range signatures {
			open := strings.IndexByte(sig, '(')
			if open <= 0 || !strings.HasSuffix(sig, ")") {
				return nil, fmt.Errorf("invalid signature %q in %s", sig, contract)
			}
			d.names[Selector(sig)] = sig[:open]
		}
	}
	return d, nil
}

// Selector returns the first four bytes of the signature's keccak hash.
func Selector(signature string) [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(signature))[:4])
	return sel
}

// Method names a selector, or returns Unknown.
func (d *Dictionary) Method(selector [4]byte) string {
	if name, ok := d.names[selector]; ok {
		return name
	}
	return Unknown
}

// Hex formats a selector as 0x-prefixed hex.
func Hex(selector [4]byte) string {
	return hexutil.Encode(selector[:])
}

// Len returns the number of known selectors.
func (d *Dictionary) Len() int {
	return len(d.names)
}
