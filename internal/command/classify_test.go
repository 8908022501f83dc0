package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		verdict Verdict
		verb    string
		cmdName string
		args    []string
		match   string
	}{
		{name: "ping", raw: "PING", verdict: Safe, verb: "PING", cmdName: "PING", args: []string{}},
		{name: "lowercase keeps original name", raw: "  get  user:1 ", verdict: Safe, verb: "GET", cmdName: "get", args: []string{"user:1"}},
		{name: "tabs split tokens", raw: "SET\tk\tv", verdict: Safe, verb: "SET", cmdName: "SET", args: []string{"k", "v"}},
		{name: "flushall", raw: "FLUSHALL", verdict: Denied, verb: "FLUSHALL", cmdName: "FLUSHALL", args: []string{}, match: "FLUSHALL"},
		{name: "mixed case denied", raw: "cOnFiG get *", verdict: Denied, verb: "CONFIG", cmdName: "cOnFiG", args: []string{"get", "*"}, match: "CONFIG"},
		{name: "suffix still denied", raw: "EVAL_RO return 1 0", verdict: Denied, verb: "EVAL_RO", cmdName: "EVAL_RO", args: []string{"return", "1", "0"}, match: "EVAL"},
		{name: "smuggled compound verb", raw: "CLIENTKILL x", verdict: Denied, verb: "CLIENTKILL", cmdName: "CLIENTKILL", args: []string{"x"}, match: "CLIENT"},
		{name: "denied word as argument is fine", raw: "GET FLUSHALL", verdict: Safe, verb: "GET", cmdName: "GET", args: []string{"FLUSHALL"}},
		{name: "empty", raw: "", verdict: Malformed},
		{name: "whitespace only", raw: " \t ", verdict: Malformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.raw)
			assert.Equal(t, tt.raw, c.Raw)
			assert.Equal(t, tt.verdict, c.Verdict)
			assert.Equal(t, tt.verb, c.Verb)
			assert.Equal(t, tt.cmdName, c.Name)
			assert.Equal(t, tt.match, c.Match)
			if tt.args != nil {
				assert.Equal(t, tt.args, c.Args)
			}
		})
	}
}

// Every verb that starts with a denylisted token is denied, whatever follows it
// and however it is cased.
func TestClassify_DenylistPrefixProperty(t *testing.T) {
	suffixes := []string{"", "X", "_RO", "123", "SHA", ":", "ALL"}
	argTails := []string{"", " a", " key value", "   spaced   args  "}

	for _, token := range Denylist() {
		for _, suffix := range suffixes {
			for _, tail := range argTails {
				for _, verb := range []string{token + suffix, strings.ToLower(token + suffix), token[:1] + strings.ToLower(token[1:]) + suffix} {
					raw := verb + tail
					c := Classify(raw)
					if c.Verdict != Denied {
						t.Errorf("Classify(%q) = %v, want denied", raw, c.Verdict)
					}
					if !strings.HasPrefix(c.Verb, c.Match) || c.Match == "" {
						t.Errorf("Classify(%q) match = %q, verb %q", raw, c.Match, c.Verb)
					}
				}
			}
		}
	}
}

func TestClassify_SafeVerbs(t *testing.T) {
	for _, raw := range []string{"GET k", "HSET h f v", "LPUSH l a", "SCAN 0", "TTL k", "SELECT 1", "DBSIZE", "XADD s * f v"} {
		if c := Classify(raw); c.Verdict != Safe {
			t.Errorf("Classify(%q) = %v, want safe", raw, c.Verdict)
		}
	}
}

func TestDenylist_IsACopy(t *testing.T) {
	list := Denylist()
	assert.Len(t, list, 15)
	assert.Equal(t, "FLUSHDB", list[0])
	list[0] = "GET"
	assert.Equal(t, "FLUSHDB", Denylist()[0])
	assert.Equal(t, Denied, Classify("FLUSHDB").Verdict)
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "safe", Safe.String())
	assert.Equal(t, "denied", Denied.String())
	assert.Equal(t, "malformed", Malformed.String())
	assert.Equal(t, "unknown", Verdict(42).String())
}
