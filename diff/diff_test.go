package diff

import (
	"reflect"
	"testing"
)

func TestTokenize_SplitsOnWhitespaceRuns(t *testing.T) {
	got := Tokenize("  나는\t학교에 \n 갑니다  ")
	want := []string{"나는", "학교에", "갑니다"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTokenize_AbsentTextIsEmpty(t *testing.T) {
	if got := Tokenize(""); len(got) != 0 {
		t.Fatalf("expected no tokens, got %q", got)
	}
	if got := Tokenize(" \t\n"); len(got) != 0 {
		t.Fatalf("expected no tokens for blank text, got %q", got)
	}
}

func TestTokenize_SplitsOnSeparatorControls(t *testing.T) {
	got := Tokenize("a\x1cb\x1dc\x1ed\x1fe\u00a0f\u3000g")
	want := []string{"a", "b", "c", "d", "e", "f", "g"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := Tokenize("\x1c\x1f"); len(got) != 0 {
		t.Fatalf("expected no tokens for separator-only text, got %q", got)
	}
}

func TestTokenize_KeepsOtherControls(t *testing.T) {
	got := Tokenize("a\x1bb")
	if len(got) != 1 || got[0] != "a\x1bb" {
		t.Fatalf("expected a single token, got %q", got)
	}
}

func TestTokenize_KeepsPunctuationAndCase(t *testing.T) {
	got := Tokenize("Hello, World!")
	want := []string{"Hello,", "World!"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestLCSTable_Lengths(t *testing.T) {
	x := []string{"a", "b", "c", "b", "d", "a", "b"}
	y := []string{"b", "d", "c", "a", "b", "a"}
	table := LCSTable(x, y)

	if len(table) != len(x)+1 || len(table[0]) != len(y)+1 {
		t.Fatalf("expected %dx%d table, got %dx%d", len(x)+1, len(y)+1, len(table), len(table[0]))
	}
	if table[len(x)][len(y)] != 4 {
		t.Fatalf("expected LCS length 4, got %d", table[len(x)][len(y)])
	}
	for j := range table[0] {
		if table[0][j] != 0 {
			t.Fatalf("expected zero first row, got %v", table[0])
		}
	}
}

func TestLCS_IsCommonSubsequence(t *testing.T) {
	cases := []struct {
		name string
		x    []string
		y    []string
		want int
	}{
		{name: "identical", x: []string{"a", "b", "c"}, y: []string{"a", "b", "c"}, want: 3},
		{name: "disjoint", x: []string{"a", "b"}, y: []string{"c", "d"}, want: 0},
		{name: "left empty", x: nil, y: []string{"a"}, want: 0},
		{name: "right empty", x: []string{"a"}, y: nil, want: 0},
		{name: "interleaved", x: []string{"a", "b", "c", "b", "d", "a", "b"}, y: []string{"b", "d", "c", "a", "b", "a"}, want: 4},
		{name: "replacement", x: []string{"나는", "학교에", "갑니다"}, y: []string{"나는", "학교에", "갔습니다"}, want: 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := LCS(tc.x, tc.y)
			if len(got) != tc.want {
				t.Fatalf("expected length %d, got %d (%q)", tc.want, len(got), got)
			}
			if len(got) > len(tc.x) || len(got) > len(tc.y) {
				t.Fatalf("LCS %q longer than an input", got)
			}
			assertSubsequence(t, got, tc.x)
			assertSubsequence(t, got, tc.y)
		})
	}
}

func TestLCS_TiePrefersDroppingLeftToken(t *testing.T) {
	// Both "a" and "b" are maximal; walking back, the tie at (2,2) drops
	// x's trailing "b" first, leaving "a".
	got := LCS([]string{"a", "b"}, []string{"b", "a"})
	want := []string{"a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	again := LCS([]string{"a", "b"}, []string{"b", "a"})
	if !reflect.DeepEqual(got, again) {
		t.Fatalf("expected stable result, got %q then %q", got, again)
	}
}

func TestDiff_IdenticalTextsProduceNoSpans(t *testing.T) {
	for _, text := range []string{"", "하나", "나는 학교에 갑니다", "a b a b a"} {
		if spans := Diff(text, text); len(spans) != 0 {
			t.Fatalf("expected no spans for %q, got %+v", text, spans)
		}
	}
}

func TestDiff_Replacement(t *testing.T) {
	spans := Diff("나는 학교에 갑니다", "나는 학교에 갔습니다")
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d: %+v", len(spans), spans)
	}
	assertSpan(t, spans[0], Span{Left: "갑니다", Right: "갔습니다", LeftStart: 2, LeftEnd: 3, RightStart: 2, RightEnd: 3})
}

func TestDiff_AgainstEmptyCoversWholeText(t *testing.T) {
	spans := Diff("그는 빠르게 뛰었다", "")
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d: %+v", len(spans), spans)
	}
	assertSpan(t, spans[0], Span{Left: "그는 빠르게 뛰었다", Right: "", LeftStart: 0, LeftEnd: 3, RightStart: 0, RightEnd: 0})
}

func TestDiff_FromEmptyCoversWholeText(t *testing.T) {
	spans := Diff("", "새 문장")
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d: %+v", len(spans), spans)
	}
	assertSpan(t, spans[0], Span{Left: "", Right: "새 문장", LeftStart: 0, LeftEnd: 0, RightStart: 0, RightEnd: 2})
}

func TestRaw_DeletionThenInsertion(t *testing.T) {
	raw := Raw("a b c d", "a c x d")
	if len(raw) != 2 {
		t.Fatalf("expected 2 raw spans, got %d: %+v", len(raw), raw)
	}
	assertSpan(t, raw[0], Span{Left: "b", Right: "", LeftStart: 1, LeftEnd: 2, RightStart: 1, RightEnd: 1})
	assertSpan(t, raw[1], Span{Left: "", Right: "x", LeftStart: 3, LeftEnd: 3, RightStart: 2, RightEnd: 3})
}

func TestDiff_MergesNearbySpans(t *testing.T) {
	spans := Diff("a b c d", "a c x d")
	if len(spans) != 1 {
		t.Fatalf("expected 1 merged span, got %d: %+v", len(spans), spans)
	}
	assertSpan(t, spans[0], Span{Left: "b ", Right: " x", LeftStart: 1, LeftEnd: 3, RightStart: 1, RightEnd: 3})
}

func TestDiff_KeepsDistantSpansApart(t *testing.T) {
	spans := Diff("a b c d e f", "a X c d e Y")
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d: %+v", len(spans), spans)
	}
	assertSpan(t, spans[0], Span{Left: "b", Right: "X", LeftStart: 1, LeftEnd: 2, RightStart: 1, RightEnd: 2})
	assertSpan(t, spans[1], Span{Left: "f", Right: "Y", LeftStart: 5, LeftEnd: 6, RightStart: 5, RightEnd: 6})
}

func TestRaw_SpansAreOrderedAndDisjoint(t *testing.T) {
	raw := Raw("the cat sat on a mat today", "a cat is sitting on the mat")
	for i, s := range raw {
		if s.Left == "" && s.Right == "" {
			t.Fatalf("span %d has both sides empty", i)
		}
		if s.LeftEnd-s.LeftStart != len(Tokenize(s.Left)) {
			t.Fatalf("span %d left range %d..%d does not match %q", i, s.LeftStart, s.LeftEnd, s.Left)
		}
		if s.RightEnd-s.RightStart != len(Tokenize(s.Right)) {
			t.Fatalf("span %d right range %d..%d does not match %q", i, s.RightStart, s.RightEnd, s.Right)
		}
		if i > 0 && s.LeftStart < raw[i-1].LeftEnd {
			t.Fatalf("span %d overlaps previous: %+v after %+v", i, s, raw[i-1])
		}
	}
}

func TestMerge_ComparesAgainstPreviousRawStart(t *testing.T) {
	raw := []Span{
		{Left: "a", LeftStart: 0, LeftEnd: 1},
		{Left: "b", LeftStart: 2, LeftEnd: 3},
		{Left: "c", LeftStart: 4, LeftEnd: 5},
		{Left: "d", LeftStart: 8, LeftEnd: 9},
	}
	merged := Merge(raw)
	if len(merged) != 2 {
		t.Fatalf("expected 2 spans, got %d: %+v", len(merged), merged)
	}
	assertSpan(t, merged[0], Span{Left: "a b c", Right: "  ", LeftStart: 0, LeftEnd: 5})
	assertSpan(t, merged[1], Span{Left: "d", LeftStart: 8, LeftEnd: 9})
}

func TestMerge_Idempotent(t *testing.T) {
	inputs := [][2]string{
		{"a b c d", "a c x d"},
		{"a b c d e f g h", "a B c D e F g H"},
		{"one two three", ""},
		{"하나 둘 셋 넷 다섯", "하나 셋 넷 여섯 다섯"},
	}
	for _, in := range inputs {
		once := Diff(in[0], in[1])
		twice := Merge(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("merge not idempotent for %q: %+v then %+v", in, once, twice)
		}
	}
}

func TestMerge_Empty(t *testing.T) {
	if got := Merge(nil); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func assertSubsequence(t *testing.T, sub, seq []string) {
	t.Helper()
	j := 0
	for _, tok := range seq {
		if j < len(sub) && sub[j] == tok {
			j++
		}
	}
	if j != len(sub) {
		t.Fatalf("%q is not a subsequence of %q", sub, seq)
	}
}

func assertSpan(t *testing.T, got, want Span) {
	t.Helper()
	if got != want {
		t.Fatalf("expected span %+v, got %+v", want, got)
	}
}
