package parsing

import (
	"strings"
	"testing"
)

type doc struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
	Count int      `json:"count"`
}

var fallbackDoc = doc{Title: "generation failed", Tags: []string{}}

// ---------------------------------------------------------------------------
// 1. Well-formed input parses with no repair and the exact value
// ---------------------------------------------------------------------------

func TestParse_WellFormed(t *testing.T) {
	out := Parse(`{"title":"Go Basics","tags":["go","web"],"count":2}`, fallbackDoc)
	if out.Level != RepairNone {
		t.Fatalf("level: got %s, want none", out.Level)
	}
	if out.Value.Title != "Go Basics" || out.Value.Count != 2 || len(out.Value.Tags) != 2 {
		t.Errorf("unexpected value: %+v", out.Value)
	}
}

func TestParse_FencedStillCountsAsNone(t *testing.T) {
	raw := "```json\n{\"title\":\"Fenced\",\"tags\":[],\"count\":1}\n```"
	out := Parse(raw, fallbackDoc)
	if out.Level != RepairNone {
		t.Fatalf("level: got %s, want none", out.Level)
	}
	if out.Value.Title != "Fenced" {
		t.Errorf("title: got %q", out.Value.Title)
	}
}

// ---------------------------------------------------------------------------
// 2. Basic repairs: trailing commas, bare keys, single quotes, control chars
// ---------------------------------------------------------------------------

func TestParse_BasicRepairs(t *testing.T) {
	cases := []string{
		`{"title":"A","tags":["x",],"count":1,}`,
		`{title: "A", tags: [], count: 1}`,
		`{'title': 'A', 'tags': [], 'count': 1}`,
		"{\"title\":\"A\x01\",\"tags\":[],\"count\":1}",
	}
	for _, raw := range cases {
		out := Parse(raw, fallbackDoc)
		if out.Level != RepairBasic {
			t.Errorf("Parse(%q) level: got %s, want basic", raw, out.Level)
		}
		if !strings.HasPrefix(out.Value.Title, "A") {
			t.Errorf("Parse(%q) title: got %q", raw, out.Value.Title)
		}
	}
}

// ---------------------------------------------------------------------------
// 3. Aggressive repair: prose wrapping + bare array tokens
// ---------------------------------------------------------------------------

func TestParse_Aggressive(t *testing.T) {
	raw := `Sure! Here is the JSON you asked for:
{"title":"Wrapped","tags":[alpha, beta],"count":3}
Let me know if you need anything else.`
	out := Parse(raw, fallbackDoc)
	if out.Level != RepairAggressive {
		t.Fatalf("level: got %s, want aggressive", out.Level)
	}
	if out.Value.Title != "Wrapped" || len(out.Value.Tags) != 2 || out.Value.Tags[0] != "alpha" {
		t.Errorf("unexpected value: %+v", out.Value)
	}
}

// ---------------------------------------------------------------------------
// 4. Totality: adversarial input always yields the fallback, never a panic
// ---------------------------------------------------------------------------

func TestParse_TotalityFallback(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"not json at all",
		"{",
		"}{",
		"\x00\x01\x02",
		strings.Repeat("{[", 500),
		"``````",
	}
	for _, raw := range inputs {
		out := Parse(raw, fallbackDoc)
		if out.Level != RepairFallback {
			t.Errorf("Parse(%q) level: got %s, want fallback", raw, out.Level)
			continue
		}
		if out.Value.Title != fallbackDoc.Title {
			t.Errorf("Parse(%q) did not return the fallback: %+v", raw, out.Value)
		}
	}
}

// ---------------------------------------------------------------------------
// 5. Individual strategies
// ---------------------------------------------------------------------------

func TestStripCodeFences(t *testing.T) {
	if got := StripCodeFences("```json\n{\"a\":1}\n```"); got != `{"a":1}` {
		t.Errorf("got %q", got)
	}
	if got := StripCodeFences(`{"a":1}`); got != `{"a":1}` {
		t.Errorf("unfenced input changed: %q", got)
	}
}

func TestRemoveTrailingCommas(t *testing.T) {
	if got := RemoveTrailingCommas(`{"a":[1,2,],}`); got != `{"a":[1,2]}` {
		t.Errorf("got %q", got)
	}
}

func TestQuoteBareKeys(t *testing.T) {
	if got := QuoteBareKeys(`{a: 1, b_c: "x"}`); got != `{"a": 1, "b_c": "x"}` {
		t.Errorf("got %q", got)
	}
	// Values that look like keys are untouched.
	if got := QuoteBareKeys(`{"a": "b: c"}`); got != `{"a": "b: c"}` {
		t.Errorf("value mangled: %q", got)
	}
}

func TestStripControlChars(t *testing.T) {
	if got := StripControlChars("a\x01b\nc"); got != "abc" {
		t.Errorf("got %q", got)
	}
}

func TestExtractObject(t *testing.T) {
	if got := ExtractObject(`noise {"a":1} trailing`); got != `{"a":1}` {
		t.Errorf("got %q", got)
	}
	if got := ExtractObject("no braces here"); got != "no braces here" {
		t.Errorf("braceless input changed: %q", got)
	}
}

func TestNormalizeArrayTokens(t *testing.T) {
	got := NormalizeArrayTokens(`{"tags":[go, 2, true, null, "done"]}`)
	want := `{"tags":["go",2,true,null,"done"]}`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
