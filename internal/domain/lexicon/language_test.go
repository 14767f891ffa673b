package lexicon

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParseLanguage(t *testing.T) {
	for raw, want := range map[string]Language{"sl": Slovene, " EN ": English} {
		got, err := ParseLanguage(raw)
		if err != nil {
			t.Fatalf("ParseLanguage(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseLanguage(%q): want=%s got=%s", raw, want, got)
		}
	}
	if _, err := ParseLanguage("de"); err == nil {
		t.Fatalf("expected error for de")
	}
}

func TestVariantsInheritWordLanguage(t *testing.T) {
	now := time.Now().UTC()
	w := &Word{ID: uuid.New(), Language: Slovene}
	lemma := NewLemma(w, "  jezik ", now)
	if lemma.Language != Slovene || lemma.Lemma != "jezik" {
		t.Fatalf("lemma: got=%+v", lemma)
	}
	desc := "organ v ustih"
	blank := "   "
	detail := NewMeaningDetail(w, uuid.New(), DetailFields{Description: &desc, Abbreviation: &blank}, now)
	if detail.Language != Slovene {
		t.Fatalf("detail language: want=sl got=%s", detail.Language)
	}
	if detail.Abbreviation != nil {
		t.Fatalf("blank abbreviation should be dropped, got=%q", *detail.Abbreviation)
	}
	if detail.Empty() {
		t.Fatalf("detail with description should not be empty")
	}
}

func TestOptionalTextApply(t *testing.T) {
	cur := "old"
	if got := (OptionalText{}).Apply(&cur); got == nil || *got != "old" {
		t.Fatalf("unset patch should keep value")
	}
	if got := ClearText().Apply(&cur); got != nil {
		t.Fatalf("clear patch should drop value")
	}
	if got := SetText(" new ").Apply(&cur); got == nil || *got != "new" {
		t.Fatalf("set patch: got=%v", got)
	}
}

func TestTranslationKeyRoundTrip(t *testing.T) {
	key := TranslationKey{SloveneMeaningID: uuid.New(), EnglishMeaningID: uuid.New()}
	parsed, err := ParseTranslationKey(key.String())
	if err != nil {
		t.Fatalf("ParseTranslationKey: %v", err)
	}
	if parsed != key {
		t.Fatalf("key: want=%v got=%v", key, parsed)
	}
	if _, err := ParseTranslationKey("nope"); err == nil {
		t.Fatalf("expected malformed key error")
	}
}
