package core

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ParseEventSignature builds an event ABI from a manifest signature such as
//
//	Authorized(indexed address who, indexed address where, indexed bytes4 what, (uint8 op, uint248 value)[] params)
//
// "indexed" may precede or follow the type. Unnamed parameters are named
// arg0, arg1, ... by position.
func ParseEventSignature(sig string) (*abi.Event, error) {
	sig = strings.TrimSpace(sig)
	open := strings.Index(sig, "(")
	if open <= 0 || !strings.HasSuffix(sig, ")") {
		return nil, fmt.Errorf("invalid event signature %q", sig)
	}
	name := strings.TrimSpace(sig[:open])

	params, err := splitTopLevel(sig[open+1 : len(sig)-1])
	if err != nil {
		return nil, fmt.Errorf("invalid event signature %q: %w", sig, err)
	}

	inputs := make(abi.Arguments, 0, len(params))
	for i, param := range params {
		arg, err := parseParam(param, i)
		if err != nil {
			return nil, fmt.Errorf("invalid parameter %d of %s: %w", i, name, err)
		}
		inputs = append(inputs, arg)
	}

	event := abi.NewEvent(name, name, false, inputs)
	return &event, nil
}

func parseParam(param string, pos int) (abi.Argument, error) {
	typ, rest, err := splitType(param)
	if err != nil {
		return abi.Argument{}, err
	}

	indexed := false
	fields := strings.Fields(rest)
	if typ == "indexed" {
		indexed = true
		typ, rest, err = splitType(rest)
		if err != nil {
			return abi.Argument{}, err
		}
		fields = strings.Fields(rest)
	}
	if len(fields) > 0 && fields[0] == "indexed" {
		indexed = true
		fields = fields[1:]
	}
	if len(fields) > 1 {
		return abi.Argument{}, fmt.Errorf("unexpected tokens %q", rest)
	}

	argName := fmt.Sprintf("arg%d", pos)
	if len(fields) == 1 {
		argName = fields[0]
	}

	t, err := buildType(typ)
	if err != nil {
		return abi.Argument{}, err
	}
	return abi.Argument{Name: argName, Type: t, Indexed: indexed}, nil
}

func buildType(typ string) (abi.Type, error) {
	if !strings.HasPrefix(typ, "(") {
		return abi.NewType(typ, "", nil)
	}
	components, suffix, err := tupleComponents(typ)
	if err != nil {
		return abi.Type{}, err
	}
	return abi.NewType("tuple"+suffix, "", components)
}

// tupleComponents parses "(uint8 op, uint248 value)[]" into its components
// and the array suffix.
func tupleComponents(typ string) ([]abi.ArgumentMarshaling, string, error) {
	end := matchingParen(typ)
	if end < 0 {
		return nil, "", fmt.Errorf("unbalanced tuple %q", typ)
	}
	suffix := typ[end+1:]

	parts, err := splitTopLevel(typ[1:end])
	if err != nil {
		return nil, "", err
	}
	out := make([]abi.ArgumentMarshaling, 0, len(parts))
	for i, part := range parts {
		ctyp, rest, err := splitType(part)
		if err != nil {
			return nil, "", err
		}
		name := strings.TrimSpace(rest)
		if name == "" {
			name = fmt.Sprintf("field%d", i)
		}
		component := abi.ArgumentMarshaling{Name: name, Type: ctyp}
		if strings.HasPrefix(ctyp, "(") {
			nested, nestedSuffix, err := tupleComponents(ctyp)
			if err != nil {
				return nil, "", err
			}
			component.Type = "tuple" + nestedSuffix
			component.Components = nested
		}
		out = append(out, component)
	}
	return out, suffix, nil
}

// splitType returns the leading type token of s (a tuple including its
// array suffix) and the remainder.
func splitType(s string) (string, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", fmt.Errorf("empty parameter")
	}
	if s[0] == '(' {
		end := matchingParen(s)
		if end < 0 {
			return "", "", fmt.Errorf("unbalanced tuple %q", s)
		}
		i := end + 1
		for i < len(s) && s[i] != ' ' {
			i++
		}
		return s[:i], s[i:], nil
	}
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i], s[i+1:], nil
	}
	return s, "", nil
}

func splitTopLevel(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var parts []string
	depth, start := 0, 0
	for i, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced parentheses")
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced parentheses")
	}
	return append(parts, strings.TrimSpace(s[start:])), nil
}

func matchingParen(s string) int {
	depth := 0
	for i, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
