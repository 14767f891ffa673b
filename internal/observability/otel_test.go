package observability

import "testing"

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" authorization = Bearer x ,broken,=y, team=lex ")
	if len(got) != 2 || got["authorization"] != "Bearer x" || got["team"] != "lex" {
		t.Fatalf("headers: %+v", got)
	}
	if ParseHeaders("") != nil {
		t.Fatalf("empty input should give nil")
	}
}

func TestClampRatio(t *testing.T) {
	for in, want := range map[float64]float64{0: 0.1, -1: 0.1, 0.5: 0.5, 3: 1} {
		if got := clampRatio(in); got != want {
			t.Fatalf("clampRatio(%v): want=%v got=%v", in, want, got)
		}
	}
}
