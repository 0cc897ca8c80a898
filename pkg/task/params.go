// SPDX-License-Identifier: MPL-2.0

package task

import (
	"fmt"

	pkgcontext "github.com/invowk/crewctl/pkg/context"
)

// Params is the resolved, immutable argument map presented to a task
// body for the duration of one invocation.
type Params struct {
	values   map[string]any
	declared []ArgDecl
}

// Get returns the bound value for name, or nil if name was never
// declared or resolved to no value.
func (p Params) Get(name string) any {
	return p.values[name]
}

// Esc returns the shell-escaped form of the named string argument, the
// Go equivalent of pitcrew's `esc_<name>` companion parameter.
func (p Params) Esc(name string) (string, error) {
	v, ok := p.values[name]
	if !ok {
		return "", fmt.Errorf("param %q not bound", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %q is not a string (got %T)", name, v)
	}
	return pkgcontext.Esc(s), nil
}

// Declared returns the ArgDecl list this Params was bound against.
func (p Params) Declared() []ArgDecl {
	return p.declared
}

// Snapshot returns a defensive copy of the bound values, suitable for
// passing to a Logger without risking later mutation aliasing.
func (p Params) Snapshot() map[string]any {
	out := make(map[string]any, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// Bind resolves declared arguments against positional and keyword call
// values, implementing the declaration-order consumption protocol:
// each non-variadic declared argument consumes the next
// positional value if one remains, else the matching keyword value, else
// its default. A trailing variadic argument collects all remaining
// positional values. Unclaimed positional or keyword values fail the
// bind with ErrUnexpectedArgument.
func Bind(declared []ArgDecl, positional []any, keyword map[string]any) (Params, error) {
	values := make(map[string]any, len(declared))
	consumedKeyword := make(map[string]bool, len(keyword))
	posIdx := 0

	for i, decl := range declared {
		if decl.Name == "env" {
			return Params{}, &ReservedArgumentNameError{Name: decl.Name}
		}

		if decl.Variadic {
			rest := append([]any(nil), positional[min(posIdx, len(positional)):]...)
			coerced := make([]any, len(rest))
			for j, raw := range rest {
				cv, err := decl.Process(raw, true)
				if err != nil {
					return Params{}, err
				}
				coerced[j] = cv
			}
			values[decl.Name] = coerced
			posIdx = len(positional)
			if i != len(declared)-1 {
				return Params{}, fmt.Errorf("task: variadic argument %q must be declared last", decl.Name)
			}
			continue
		}

		var raw any
		hasValue := false
		switch {
		case posIdx < len(positional):
			raw = positional[posIdx]
			posIdx++
			hasValue = true
		case keyword != nil:
			if kv, ok := keyword[decl.Name]; ok {
				raw = kv
				hasValue = true
				consumedKeyword[decl.Name] = true
			}
		}
		if !hasValue {
			if decl.Default != nil {
				raw = decl.Default
				hasValue = true
			}
		}
		if !hasValue {
			if decl.Required {
				return Params{}, &MissingArgumentError{Name: decl.Name}
			}
			values[decl.Name] = nil
			continue
		}

		cv, err := decl.Process(raw, true)
		if err != nil {
			return Params{}, err
		}
		values[decl.Name] = cv
	}

	if posIdx < len(positional) {
		return Params{}, &UnexpectedArgumentError{Index: posIdx}
	}
	for k := range keyword {
		if !consumedKeyword[k] {
			return Params{}, &UnexpectedArgumentError{Name: k}
		}
	}

	return Params{values: values, declared: declared}, nil
}
