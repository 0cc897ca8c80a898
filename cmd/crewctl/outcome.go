// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/invowk/crewctl/internal/executor"
)

// OutcomeEntry is the JSON wire representation of one executor.Outcome.
type OutcomeEntry struct {
	Context   string  `json:"context"`
	Result    any     `json:"result"`
	Exception *string `json:"exception"`
}

// OutcomeSet is the JSON wire representation of an executor.ResultSet's
// Passed/Failed/Errored bucketing.
type OutcomeSet struct {
	Passed  []OutcomeEntry `json:"passed"`
	Failed  []OutcomeEntry `json:"failed"`
	Errored []OutcomeEntry `json:"errored"`
}

// toOutcomeSet converts a ResultSet into its wire representation,
// decoding []byte results as UTF-8 when valid and falling back to
// base64 otherwise.
func toOutcomeSet(rs *executor.ResultSet) *OutcomeSet {
	set := &OutcomeSet{}
	for _, o := range rs.Passed {
		set.Passed = append(set.Passed, toOutcomeEntry(o))
	}
	for _, o := range rs.Failed {
		set.Failed = append(set.Failed, toOutcomeEntry(o))
	}
	for _, o := range rs.Errored {
		set.Errored = append(set.Errored, toOutcomeEntry(o))
	}
	return set
}

func toOutcomeEntry(o executor.Outcome) OutcomeEntry {
	entry := OutcomeEntry{Context: o.ContextDescriptor, Result: encodeResult(o.Result)}
	if o.Err != nil {
		msg := o.Err.Error()
		entry.Exception = &msg
	}
	return entry
}

func encodeResult(result any) any {
	b, ok := result.([]byte)
	if !ok {
		return result
	}
	if utf8.Valid(b) {
		return string(b)
	}
	return base64.StdEncoding.EncodeToString(b)
}

// exitCode returns 1 if set has any failed or errored outcome, 0 if
// every outcome passed.
func exitCode(set *OutcomeSet) int {
	if len(set.Failed) > 0 || len(set.Errored) > 0 {
		return 1
	}
	return 0
}

func printOutcomeJSON(w io.Writer, set *OutcomeSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(set)
}

func printOutcomeHuman(w io.Writer, set *OutcomeSet) {
	for _, e := range set.Passed {
		fmt.Fprintf(w, "%s %s  %v\n", successStyle.Render("✓"), cmdStyle.Render(e.Context), e.Result)
	}
	for _, e := range set.Failed {
		fmt.Fprintf(w, "%s %s  %s\n", warningStyle.Render("✗"), cmdStyle.Render(e.Context), exceptionText(e))
	}
	for _, e := range set.Errored {
		fmt.Fprintf(w, "%s %s  %s\n", errorStyle.Render("✗"), cmdStyle.Render(e.Context), exceptionText(e))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, subtitleStyle.Render("passed: %d  failed: %d  errored: %d\n"), len(set.Passed), len(set.Failed), len(set.Errored))
}

func exceptionText(e OutcomeEntry) string {
	if e.Exception == nil {
		return ""
	}
	return *e.Exception
}
