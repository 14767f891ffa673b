package lexicon

import (
	"fmt"
	"strings"
)

// Language is the tag of a word and everything hanging off it. Only two values exist.
type Language string

const (
	Slovene Language = "sl"
	English Language = "en"
)

func ParseLanguage(raw string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(raw))) {
	case Slovene:
		return Slovene, nil
	case English:
		return English, nil
	default:
		return "", fmt.Errorf("unsupported language %q (want sl or en)", raw)
	}
}

func (l Language) Valid() bool {
	return l == Slovene || l == English
}

func (l Language) String() string { return string(l) }
