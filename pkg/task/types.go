// SPDX-License-Identifier: MPL-2.0

// Package task implements crewctl's task runtime: declared arguments,
// parameter binding, the Task/Verifier contract, and the verify-run-verify
// invocation lifecycle — the Go rendering of pitcrew's task.py.
package task

import (
	"fmt"
	"strconv"
)

// ArgType is the semantic type an ArgDecl coerces raw values to.
type ArgType int

const (
	// TypeString declares a string-valued argument.
	TypeString ArgType = iota
	// TypeInt declares an integer-valued argument.
	TypeInt
	// TypeBool declares a boolean-valued argument.
	TypeBool
	// TypeFloat declares a floating-point-valued argument.
	TypeFloat
	// TypeAny declares an argument accepted without coercion.
	TypeAny
)

func (t ArgType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeFloat:
		return "float"
	case TypeAny:
		return "any"
	default:
		return "unknown"
	}
}

// ArgDecl declares one task argument: name, semantic type,
// required/optional, default value, whether it collects all remaining
// positional values (variadic), and a human description.
type ArgDecl struct {
	Name        string
	Type        ArgType
	Required    bool
	Default     any
	Variadic    bool
	Description string
}

// Process coerces raw to a's declared type. When coerce is false,
// strings are not parsed or formatted, but numeric values are still
// converted between Go's int, int64 and float64 kinds.
func (a ArgDecl) Process(raw any, coerce bool) (any, error) {
	switch a.Type {
	case TypeString:
		if v, ok := raw.(string); ok {
			return v, nil
		}
		if coerce {
			return fmt.Sprint(raw), nil
		}
	case TypeInt:
		switch v := raw.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			return int(v), nil
		case string:
			if coerce {
				n, err := strconv.Atoi(v)
				if err == nil {
					return n, nil
				}
			}
		}
	case TypeBool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			if coerce {
				b, err := strconv.ParseBool(v)
				if err == nil {
					return b, nil
				}
			}
		}
	case TypeFloat:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case string:
			if coerce {
				f, err := strconv.ParseFloat(v, 64)
				if err == nil {
					return f, nil
				}
			}
		}
	case TypeAny:
		return raw, nil
	}
	return nil, &ArgumentTypeMismatchError{Name: a.Name, Wanted: a.Type, Got: raw}
}

// ArgBuilder provides a fluent API for declaring a task argument,
// grounded on opal's ParamBuilder (core/decorator/param_builder.go).
// Call Done to obtain the finished ArgDecl.
type ArgBuilder struct {
	decl ArgDecl
}

// NewArg starts declaring an argument named name with semantic type t.
func NewArg(name string, t ArgType) *ArgBuilder {
	return &ArgBuilder{decl: ArgDecl{Name: name, Type: t}}
}

// Required marks the argument as required.
func (b *ArgBuilder) Required() *ArgBuilder {
	b.decl.Required = true
	b.decl.Default = nil
	return b
}

// Default sets the argument's default value and marks it optional.
func (b *ArgBuilder) Default(value any) *ArgBuilder {
	b.decl.Default = value
	b.decl.Required = false
	return b
}

// Variadic marks the argument as collecting all remaining positional
// values. Only the last declared argument may be variadic.
func (b *ArgBuilder) Variadic() *ArgBuilder {
	b.decl.Variadic = true
	return b
}

// Description sets the argument's human-readable description.
func (b *ArgBuilder) Description(text string) *ArgBuilder {
	b.decl.Description = text
	return b
}

// Done returns the finished ArgDecl.
func (b *ArgBuilder) Done() ArgDecl {
	return b.decl
}
