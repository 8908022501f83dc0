// Package command classifies raw command lines against a fixed denylist and
// dispatches permitted commands to a live session.
//
// Classification is a pure function: the first whitespace-separated token is the
// verb, compared upper-cased against denylisted prefixes. Prefix (not exact)
// matching means any verb that starts with a denylisted token is rejected.
package command

import "strings"

// Verdict is the result of classifying one command line.
type Verdict int

const (
	// Safe commands may be dispatched.
	Safe Verdict = iota
	// Denied commands start with a denylisted verb prefix.
	Denied
	// Malformed commands contain no verb at all.
	Malformed
)

// String returns the string representation of a Verdict.
func (v Verdict) String() string {
	switch v {
	case Safe:
		return "safe"
	case Denied:
		return "denied"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// denylist holds verb prefixes that are never executed through the gateway.
// It is read-only after package initialisation.
var denylist = [...]string{
	"FLUSHDB",
	"FLUSHALL",
	"SHUTDOWN",
	"DEBUG",
	"CONFIG",
	"EVAL",
	"EVALSHA",
	"SCRIPT",
	"CLIENT",
	"MONITOR",
	"SYNC",
	"PSYNC",
	"REPLCONF",
	"RESTORE",
	"MIGRATE",
}

// Denylist returns a copy of the denylisted verb prefixes in their fixed order.
func Denylist() []string {
	out := make([]string, len(denylist))
	copy(out, denylist[:])
	return out
}

// Classified is a command line split into verb and arguments plus its verdict.
type Classified struct {
	// Raw is the original text, untouched.
	Raw string
	// Verb is the upper-cased first token, used for comparisons only.
	Verb string
	// Name is the first token in its original casing, used for execution.
	Name string
	// Args are the remaining tokens in order.
	Args []string
	// Verdict is Safe, Denied or Malformed.
	Verdict Verdict
	// Match is the denylisted prefix that caused a Denied verdict.
	Match string
}

// Classify splits raw on whitespace and checks its verb against the denylist.
func Classify(raw string) Classified {
	c := Classified{Raw: raw}
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		c.Verdict = Malformed
		return c
	}

	c.Name = tokens[0]
	c.Verb = strings.ToUpper(tokens[0])
	c.Args = tokens[1:]
	if prefix, denied := DeniedPrefix(c.Verb); denied {
		c.Verdict = Denied
		c.Match = prefix
		return c
	}
	c.Verdict = Safe
	return c
}

// DeniedPrefix reports the first denylisted prefix the verb starts with.
// The comparison is case-insensitive.
func DeniedPrefix(verb string) (string, bool) {
	upper := strings.ToUpper(verb)
	for _, prefix := range denylist {
		if strings.HasPrefix(upper, prefix) {
			return prefix, true
		}
	}
	return "", false
}
