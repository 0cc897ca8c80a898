// SPDX-License-Identifier: MPL-2.0

// Package hostrange expands nmap-style IPv4 host range expressions
// ("192.168.1.1-10", "10.0.0-1.1,5") into the individual addresses
// they denote.
//
// pitcrew's own SSH provider (tasks/providers/ssh.py) wraps this exact
// expansion in a bare try/except that silently falls back to treating
// the unparsed string as a literal hostname on any failure. This
// package instead surfaces a parse error, favouring explicit failure
// over silent misinterpretation: a typo'd range should not quietly
// become a DNS lookup for a nonsense hostname.
package hostrange

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRange is returned by Expand when expr is not a well-formed
// nmap-style range expression.
type ErrInvalidRange struct {
	Expr   string
	Reason string
}

func (e *ErrInvalidRange) Error() string {
	return fmt.Sprintf("invalid host range %q: %s", e.Expr, e.Reason)
}

// Expand parses an nmap-style range expression and returns every IPv4
// address it denotes, with the first octet varying slowest and each
// octet's values in the order the expression lists them. An expression
// containing neither "-" nor "," is a plain hostname or single IP and
// is returned unchanged. Anything containing that syntax is required to
// be a well-formed four-octet dotted range, or Expand fails — this is
// the explicit-failure half of the package's Open Question resolution.
func Expand(expr string) ([]string, error) {
	if !strings.ContainsAny(expr, "-,") {
		return []string{expr}, nil
	}

	octets := strings.Split(expr, ".")
	if len(octets) != 4 {
		return nil, &ErrInvalidRange{Expr: expr, Reason: "range syntax requires a dotted IPv4 quad"}
	}

	perOctet := make([][]int, 4)
	for i, octet := range octets {
		values, err := expandOctet(octet)
		if err != nil {
			return nil, &ErrInvalidRange{Expr: expr, Reason: err.Error()}
		}
		perOctet[i] = values
	}

	var out []string
	for _, a := range perOctet[0] {
		for _, b := range perOctet[1] {
			for _, c := range perOctet[2] {
				for _, d := range perOctet[3] {
					out = append(out, fmt.Sprintf("%d.%d.%d.%d", a, b, c, d))
				}
			}
		}
	}
	return out, nil
}

// expandOctet parses one dotted-quad segment, which may be a plain
// integer, a comma-separated list ("1,2,5"), or an inclusive range
// ("10-20"); these compose, e.g. "1,3,10-12".
func expandOctet(segment string) ([]int, error) {
	parts := strings.Split(segment, ",")
	var out []int
	for _, part := range parts {
		if idx := strings.Index(part, "-"); idx >= 0 {
			lo, err := strconv.Atoi(part[:idx])
			if err != nil {
				return nil, fmt.Errorf("bad range start %q", part[:idx])
			}
			hi, err := strconv.Atoi(part[idx+1:])
			if err != nil {
				return nil, fmt.Errorf("bad range end %q", part[idx+1:])
			}
			if lo > hi {
				return nil, fmt.Errorf("range %q has start greater than end", part)
			}
			for v := lo; v <= hi; v++ {
				if v < 0 || v > 255 {
					return nil, fmt.Errorf("octet value %d out of range 0-255", v)
				}
				out = append(out, v)
			}
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("non-numeric octet %q", part)
		}
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("octet value %d out of range 0-255", v)
		}
		out = append(out, v)
	}
	return out, nil
}
