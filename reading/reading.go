// Package reading derives canonical phonetic readings for names. The
// derived strings feed both the search index (reading fields) and the
// natural-order sort keys used elsewhere in the server.
package reading

import (
	"strings"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/otomedia/oto/domain"
)

// Service computes readings with a per-scan memo. A single scan session
// owns the memo exclusively; it is not safe for concurrent rebuilds.
type Service struct {
	settings  domain.Settings
	tokenizer *tokenizer.Tokenizer
	articles  []string
	memo      map[string]string
	truncated map[string]string
}

// NewService loads the morphological dictionary. Loading is expensive, so
// callers hold one Service for the process lifetime.
func NewService(settings domain.Settings) (*Service, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, errors.Wrap(err, "load morphological dictionary")
	}
	var articles []string
	for _, a := range strings.Fields(settings.IgnoredArticles) {
		articles = append(articles, strings.ToLower(a))
	}
	return &Service{
		settings:  settings,
		tokenizer: t,
		articles:  articles,
		memo:      map[string]string{},
		truncated: map[string]string{},
	}, nil
}

// Clear resets the memo. Called at scan start.
func (s *Service) Clear() {
	s.memo = map[string]string{}
	s.truncated = map[string]string{}
}

// StripArticle removes a configured leading article ("The ", "El ", ...)
// from name, matching the sort-key convention.
func (s *Service) StripArticle(name string) string {
	lower := strings.ToLower(name)
	for _, a := range s.articles {
		if strings.HasPrefix(lower, a+" ") {
			return name[len(a)+1:]
		}
	}
	return name
}

// Reading returns the derived reading for name, or "" for empty input.
// Latin, full-width Latin and katakana tokens keep their surface form;
// everything else is replaced by its morphological reading. Under the
// romanized scheme the result is converted to Hepburn romaji.
func (s *Service) Reading(name string) string {
	if name == "" {
		return ""
	}
	if cached, ok := s.memo[name]; ok {
		return cached
	}
	r := s.derive(name)
	s.memo[name] = r
	return r
}

func (s *Service) derive(name string) string {
	input := s.StripArticle(name)
	input = norm.NFKC.String(input)

	if s.settings.IndexScheme == domain.WithoutJPLangProcessing {
		return input
	}

	tokens := s.tokenizer.Tokenize(input)
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		parts = append(parts, tokenReading(tok))
	}
	reading := strings.Join(parts, "")

	if s.settings.IndexScheme == domain.RomanizedJapanese {
		return Romanize(reading)
	}
	return reading
}

// tokenReading picks the surface form for pass-through scripts and the
// analyzed reading otherwise. Unknown tokens have no reading and pass
// through unchanged.
func tokenReading(tok tokenizer.Token) string {
	if tok.Class == tokenizer.UNKNOWN || isPassThrough(tok.Surface) {
		return tok.Surface
	}
	if r, ok := tok.Reading(); ok && r != "" && r != "*" {
		return r
	}
	return tok.Surface
}

func isPassThrough(surface string) bool {
	for _, r := range surface {
		if !isLatinLetter(r) && !isKatakana(r) && !unicode.IsDigit(r) && r != ' ' {
			return false
		}
	}
	return true
}

func isLatinLetter(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' ||
		r >= 'ａ' && r <= 'ｚ' || r >= 'Ａ' && r <= 'Ｚ'
}

func isKatakana(r rune) bool {
	return r >= 0x30A0 && r <= 0x30FF || r == 'ー'
}

// RemovePunctuation strips punctuation and symbol runes from a Japanese
// reading, memoized. Non-Japanese strings pass through untouched.
func (s *Service) RemovePunctuation(reading string) string {
	if !ContainsJapanese(reading) {
		return reading
	}
	if cached, ok := s.truncated[reading]; ok {
		return cached
	}
	var b strings.Builder
	for _, r := range reading {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) && !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	s.truncated[reading] = out
	return out
}

// ContainsJapanese reports whether any rune is hiragana, katakana or a CJK
// ideograph.
func ContainsJapanese(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return true
		}
	}
	return false
}

// IndexableName chooses the string an entity is bucketed and indexed
// under. Priority: the raw name when English-prior is set and the name is
// already Latin; a previously derived reading; a fresh reading of the sort
// tag. Non-ASCII leading characters get half-width katakana NFD treatment
// so prefix buckets group correctly.
func (s *Service) IndexableName(name, sortTag, readingTag string) string {
	chosen := name
	switch {
	case s.settings.IndexEnglishPrior && startsWithLatin(name):
		chosen = name
	case readingTag != "":
		chosen = readingTag
	default:
		src := sortTag
		if src == "" {
			src = name
		}
		if r := s.Reading(src); r != "" {
			chosen = r
		}
	}
	if chosen == "" {
		return chosen
	}
	if first := []rune(chosen)[0]; first > unicode.MaxASCII {
		chosen = width.Fold.String(HiraganaToKatakana(chosen))
		chosen = norm.NFD.String(chosen)
	}
	return chosen
}

func startsWithLatin(s string) bool {
	for _, r := range s {
		return isLatinLetter(r)
	}
	return false
}

// HiraganaToKatakana transliterates hiragana runes in place.
func HiraganaToKatakana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'ぁ' && r <= 'ゖ' {
			return r + 0x60
		}
		return r
	}, s)
}

// KatakanaToHiragana transliterates katakana runes in place.
func KatakanaToHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'ァ' && r <= 'ヶ' {
			return r - 0x60
		}
		return r
	}, s)
}
