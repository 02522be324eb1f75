package search

import (
	"bytes"
	"strings"
	"sync"
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	unicodetok "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/registry"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/otomedia/oto/reading"
)

// Registry names for the custom analysis components. Analyzer chains in
// analyzer.go reference these.
const (
	MorphTokenizerName   = "ja_morph"
	ArtistTokenizerName  = "artist_delim"
	GenreTokenizerName   = "genre_delim"
	ToHiraganaName       = "to_hiragana"
	PunctStemName        = "punct_stem"
	ScriptGateName       = "script_gate"
	TrailingWildcardName = "trailing_wildcard"
)

// WildcardMarker terminates the last token emitted by the query-side
// analyzers of prefix-matchable fields. The query builder strips it and
// emits a prefix query for that token.
const WildcardMarker = '*'

var (
	morphOnce sync.Once
	morphTok  *tokenizer.Tokenizer
	morphErr  error
)

func sharedMorphTokenizer() (*tokenizer.Tokenizer, error) {
	morphOnce.Do(func() {
		morphTok, morphErr = tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	})
	return morphTok, morphErr
}

// Part-of-speech classes dropped during morphological tokenization.
// Grammar particles and auxiliaries carry no search value and would poison
// phrase positions.
var stopPOS = map[string]bool{
	"助詞":  true, // particles
	"助動詞": true, // auxiliary verbs
	"記号":  true, // symbols
}

// morphTokenizer segments text morphologically. Part-of-speech stop
// filtering happens here because bleve tokens carry no POS attribute a
// downstream filter could inspect.
type morphTokenizer struct{}

func (t *morphTokenizer) Tokenize(input []byte) analysis.TokenStream {
	kt, err := sharedMorphTokenizer()
	if err != nil {
		// dictionary failed to load; fall back to unicode segmentation
		return unicodetok.NewUnicodeTokenizer().Tokenize(input)
	}
	text := string(input)
	stream := make(analysis.TokenStream, 0, 8)
	cursor, position := 0, 0
	for _, tok := range kt.Tokenize(text) {
		surface := tok.Surface
		idx := strings.Index(text[cursor:], surface)
		if idx < 0 {
			continue
		}
		start := cursor + idx
		cursor = start + len(surface)
		if strings.TrimSpace(surface) == "" {
			continue
		}
		if pos := tok.POS(); len(pos) > 0 && stopPOS[pos[0]] {
			continue
		}
		position++
		stream = append(stream, &analysis.Token{
			Term:     []byte(surface),
			Start:    start,
			End:      cursor,
			Position: position,
			Type:     tokenType(surface),
		})
	}
	return stream
}

func tokenType(s string) analysis.TokenType {
	if reading.ContainsJapanese(s) {
		return analysis.Ideographic
	}
	return analysis.AlphaNumeric
}

func morphTokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &morphTokenizer{}, nil
}

// artistDelimiters separate co-credited artists inside a single tag value.
// Bare "feat"/"with" style joiners are handled by the artist stop word
// list instead, so mid-word hits like "Defeated" never split.
var artistDelimiters = []string{"feat.", "×", "、", "，", ";", "／", "/", "&"}

// artistTokenizer splits a multi-artist tag value on the delimiter
// conventions first, then segments each credit with the unicode tokenizer.
type artistTokenizer struct {
	inner *unicodetok.UnicodeTokenizer
}

func (t *artistTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	lower := strings.ToLower(text)
	stream := make(analysis.TokenStream, 0, 4)
	position := 0
	emit := func(start, end int) {
		if start >= end {
			return
		}
		for _, tok := range t.inner.Tokenize([]byte(text[start:end])) {
			position++
			tok.Start += start
			tok.End += start
			tok.Position = position
			stream = append(stream, tok)
		}
	}
	start := 0
	for i := 0; i < len(text); {
		matched := 0
		// first delimiter wins, so "feat." takes precedence over "feat"
		for _, d := range artistDelimiters {
			if strings.HasPrefix(lower[i:], d) {
				matched = len(d)
				break
			}
		}
		if matched == 0 {
			i++
			continue
		}
		emit(start, i)
		i += matched
		start = i
	}
	emit(start, len(text))
	return stream
}

func artistTokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &artistTokenizer{inner: unicodetok.NewUnicodeTokenizer()}, nil
}

// genreTokenizer splits a genre tag on the fixed multi-genre delimiter set
// and strips the bracket noise some tag writers add. One token per genre.
type genreTokenizer struct{}

func (t *genreTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	stream := make(analysis.TokenStream, 0, 2)
	position := 0
	start := 0
	emit := func(start, end int) {
		chunk := text[start:end]
		trimmed := strings.TrimSpace(chunk)
		trimmed = strings.Trim(trimmed, "()")
		if trimmed == "" {
			return
		}
		position++
		stream = append(stream, &analysis.Token{
			Term:     []byte(trimmed),
			Start:    start,
			End:      end,
			Position: position,
			Type:     tokenType(trimmed),
		})
	}
	for i, r := range text {
		if r == ';' || r == ',' || r == '/' || r == '\x00' {
			emit(start, i)
			start = i + len(string(r))
		}
	}
	emit(start, len(text))
	return stream
}

func genreTokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &genreTokenizer{}, nil
}

// toHiraganaFilter folds katakana terms to hiragana so kana-agnostic
// phonetic matching works.
type toHiraganaFilter struct{}

func (f *toHiraganaFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	for _, tok := range input {
		tok.Term = []byte(reading.KatakanaToHiragana(string(tok.Term)))
	}
	return input
}

func toHiraganaConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	return &toHiraganaFilter{}, nil
}

// punctStemFilter strips punctuation and symbol runes inside terms and
// drops terms that end up empty.
type punctStemFilter struct{}

func (f *punctStemFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	out := input[:0]
	for _, tok := range input {
		var b bytes.Buffer
		for _, r := range string(tok.Term) {
			if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
				b.WriteRune(r)
			}
		}
		if b.Len() == 0 {
			continue
		}
		tok.Term = b.Bytes()
		out = append(out, tok)
	}
	return out
}

func punctStemConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	return &punctStemFilter{}, nil
}

// scriptGateFilter passes or suppresses fully-native-script (hiragana or
// katakana) terms depending on mode. The exceptional fields use it to
// index only the alternate-reading tokens a morphological pass loses.
type scriptGateFilter struct {
	dropNative bool
}

func fullyKana(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.In(r, unicode.Hiragana, unicode.Katakana) && r != 'ー' {
			return false
		}
	}
	return true
}

func (f *scriptGateFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	out := input[:0]
	for _, tok := range input {
		if fullyKana(string(tok.Term)) == f.dropNative {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func scriptGateConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	mode, _ := config["mode"].(string)
	return &scriptGateFilter{dropNative: mode == "drop_native"}, nil
}

// trailingWildcardFilter marks the final term of the query-side stream so
// the query builder emits a prefix query for it. Index-side chains never
// include this filter; it is the sole difference between the two analyzer
// sets.
type trailingWildcardFilter struct{}

func (f *trailingWildcardFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	if len(input) == 0 {
		return input
	}
	last := input[len(input)-1]
	if !bytes.HasSuffix(last.Term, []byte{WildcardMarker}) {
		last.Term = append(last.Term, WildcardMarker)
	}
	return input
}

func trailingWildcardConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	return &trailingWildcardFilter{}, nil
}

func init() {
	for name, c := range map[string]registry.TokenizerConstructor{
		MorphTokenizerName:  morphTokenizerConstructor,
		ArtistTokenizerName: artistTokenizerConstructor,
		GenreTokenizerName:  genreTokenizerConstructor,
	} {
		registry.RegisterTokenizer(name, c)
	}
	for name, c := range map[string]registry.TokenFilterConstructor{
		ToHiraganaName:       toHiraganaConstructor,
		PunctStemName:        punctStemConstructor,
		ScriptGateName:       scriptGateConstructor,
		TrailingWildcardName: trailingWildcardConstructor,
	} {
		registry.RegisterTokenFilter(name, c)
	}
}
