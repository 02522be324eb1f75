package search

import (
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/char/asciifolding"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/stop"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/analysis/tokenmap"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/pkg/errors"
)

// Analyzer names. One chain per field category; the same chain serves
// index time and query time, except that prefix-matchable fields gain a
// trailing-wildcard rewrite on the query side.
const (
	anText      = "oto_text"
	anMediaText = "oto_media_text"
	anArtist    = "oto_artist"
	anReading   = "oto_reading"
	anGenre     = "oto_genre"
	anEx        = "oto_ex"
)

const (
	tmPhrase     = "oto_words_phrase"
	tmArtist     = "oto_words_artist"
	tfStopPhrase = "oto_stop_phrase"
	tfStopArtist = "oto_stop_artist"
	tfGateNative = "oto_gate_native"
)

type analyzerChain struct {
	name        string
	tokenizer   string
	charFilters []string
	filters     []string
	// wildcardable chains append the trailing-wildcard rewrite on the
	// query side.
	wildcardable bool
}

func chains() []analyzerChain {
	return []analyzerChain{
		{
			name:        anText,
			tokenizer:   MorphTokenizerName,
			charFilters: []string{asciifolding.Name},
			filters:     []string{cjk.WidthName, lowercase.Name, tfStopPhrase},
		},
		{
			name:        anMediaText,
			tokenizer:   MorphTokenizerName,
			charFilters: []string{asciifolding.Name},
			filters:     []string{cjk.WidthName, lowercase.Name, tfStopPhrase, PunctStemName},
		},
		{
			name:        anArtist,
			tokenizer:   ArtistTokenizerName,
			charFilters: []string{asciifolding.Name},
			filters:     []string{cjk.WidthName, lowercase.Name, tfStopArtist, ToHiraganaName},
		},
		{
			name:         anReading,
			tokenizer:    unicode.Name,
			charFilters:  []string{asciifolding.Name},
			filters:      []string{cjk.WidthName, lowercase.Name, tfStopArtist, PunctStemName, cjk.BigramName, ToHiraganaName},
			wildcardable: true,
		},
		{
			name:        anGenre,
			tokenizer:   GenreTokenizerName,
			charFilters: []string{asciifolding.Name},
			filters:     []string{cjk.WidthName},
		},
		{
			name:         anEx,
			tokenizer:    single.Name,
			charFilters:  []string{asciifolding.Name},
			filters:      []string{cjk.WidthName, lowercase.Name, PunctStemName, tfGateNative, ToHiraganaName, cjk.BigramName},
			wildcardable: true,
		},
	}
}

// fieldAnalyzers maps every indexed field to its chain. Exact-key fields
// use the builtin keyword analyzer.
var fieldAnalyzers = map[string]string{
	FieldTitle:                    anMediaText,
	FieldTitleReading:             anMediaText,
	FieldAlbum:                    anText,
	FieldAlbumReading:             anText,
	FieldArtist:                   anArtist,
	FieldComposer:                 anArtist,
	FieldArtistReading:            anReading,
	FieldComposerReading:          anReading,
	FieldArtistReadingRomanized:   anReading,
	FieldComposerReadingRomanized: anReading,
	FieldGenre:                    anGenre,
	FieldTitleEx:                  anEx,
	FieldAlbumEx:                  anEx,
	FieldArtistEx:                 anEx,
	FieldGenreKey:                 keyword.Name,
	FieldMediaType:                keyword.Name,
	FieldFolder:                   keyword.Name,
	FieldFolderID:                 keyword.Name,
	FieldYearKey:                  keyword.Name,
}

// AnalyzerFactory owns the two deterministic analyzer sets: the indexing
// set and the query set. It is constructed once at the composition root
// and injected wherever analysis is needed.
type AnalyzerFactory struct {
	indexSide *mapping.IndexMappingImpl
	querySide *mapping.IndexMappingImpl
}

func NewAnalyzerFactory() (*AnalyzerFactory, error) {
	idx := mapping.NewIndexMapping()
	if err := registerAnalysis(idx, false); err != nil {
		return nil, err
	}
	qry := mapping.NewIndexMapping()
	if err := registerAnalysis(qry, true); err != nil {
		return nil, err
	}
	return &AnalyzerFactory{indexSide: idx, querySide: qry}, nil
}

func registerAnalysis(im *mapping.IndexMappingImpl, querySide bool) error {
	words := func(ws []string) []interface{} {
		out := make([]interface{}, len(ws))
		for i, w := range ws {
			out[i] = w
		}
		return out
	}
	if err := im.AddCustomTokenMap(tmPhrase, map[string]interface{}{
		"type": tokenmap.Name, "tokens": words(stopWordsPhrase),
	}); err != nil {
		return errors.Wrap(err, "register phrase stop words")
	}
	if err := im.AddCustomTokenMap(tmArtist, map[string]interface{}{
		"type": tokenmap.Name, "tokens": words(stopWordsArtist),
	}); err != nil {
		return errors.Wrap(err, "register artist stop words")
	}
	if err := im.AddCustomTokenFilter(tfStopPhrase, map[string]interface{}{
		"type": stop.Name, "stop_token_map": tmPhrase,
	}); err != nil {
		return errors.Wrap(err, "register phrase stop filter")
	}
	if err := im.AddCustomTokenFilter(tfStopArtist, map[string]interface{}{
		"type": stop.Name, "stop_token_map": tmArtist,
	}); err != nil {
		return errors.Wrap(err, "register artist stop filter")
	}
	if err := im.AddCustomTokenFilter(tfGateNative, map[string]interface{}{
		"type": ScriptGateName, "mode": "native_only",
	}); err != nil {
		return errors.Wrap(err, "register script gate")
	}
	for _, c := range chains() {
		filters := make([]interface{}, 0, len(c.filters)+1)
		for _, f := range c.filters {
			filters = append(filters, f)
		}
		if querySide && c.wildcardable {
			filters = append(filters, TrailingWildcardName)
		}
		chars := make([]interface{}, 0, len(c.charFilters))
		for _, cf := range c.charFilters {
			chars = append(chars, cf)
		}
		err := im.AddCustomAnalyzer(c.name, map[string]interface{}{
			"type":          custom.Name,
			"char_filters":  chars,
			"tokenizer":     c.tokenizer,
			"token_filters": filters,
		})
		if err != nil {
			return errors.Wrapf(err, "register analyzer %s", c.name)
		}
	}
	im.DefaultAnalyzer = anText
	return nil
}

// QueryTokens analyzes input with the query-side chain of field. Tokens of
// prefix-matchable fields may carry the trailing WildcardMarker.
func (f *AnalyzerFactory) QueryTokens(field, input string) []string {
	return f.tokens(f.querySide, field, input)
}

// IndexTokens analyzes input with the indexing chain of field.
func (f *AnalyzerFactory) IndexTokens(field, input string) []string {
	return f.tokens(f.indexSide, field, input)
}

func (f *AnalyzerFactory) tokens(im *mapping.IndexMappingImpl, field, input string) []string {
	name, ok := fieldAnalyzers[field]
	if !ok {
		name = anText
	}
	analyzer := im.AnalyzerNamed(name)
	if analyzer == nil {
		return nil
	}
	stream := analyzer.Analyze([]byte(input))
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		out = append(out, string(tok.Term))
	}
	return out
}

// NewIndexMapping builds the bleve index mapping for one collection:
// static document mapping, per-field analyzers, no dynamic fields.
func (f *AnalyzerFactory) NewIndexMapping(c Collection) (mapping.IndexMapping, error) {
	im := mapping.NewIndexMapping()
	if err := registerAnalysis(im, false); err != nil {
		return nil, err
	}
	dm := mapping.NewDocumentMapping()
	dm.Dynamic = false
	for _, field := range recordFields(c) {
		if field == FieldYear {
			nf := mapping.NewNumericFieldMapping()
			nf.IncludeInAll = false
			dm.AddFieldMappingsAt(field, nf)
			continue
		}
		fm := mapping.NewTextFieldMapping()
		fm.Analyzer = fieldAnalyzers[field]
		fm.IncludeInAll = false
		fm.IncludeTermVectors = true
		// genre keys are read back when resolving analyzed genres to
		// their catalog spellings
		fm.Store = field == FieldGenreKey
		dm.AddFieldMappingsAt(field, fm)
	}
	im.DefaultMapping = dm
	im.StoreDynamic = false
	im.IndexDynamic = false
	return im, nil
}

// recordFields lists every field the record builder may write for the
// collection, unlike Collection.Fields which lists only the default query
// targets.
func recordFields(c Collection) []string {
	switch c {
	case CollectionSong:
		return []string{
			FieldTitle, FieldTitleReading, FieldArtist, FieldArtistReading,
			FieldArtistReadingRomanized, FieldComposer, FieldComposerReading,
			FieldComposerReadingRomanized, FieldGenre, FieldYear, FieldYearKey,
			FieldFolder, FieldMediaType, FieldTitleEx, FieldArtistEx,
		}
	case CollectionAlbum:
		return []string{
			FieldAlbum, FieldAlbumReading, FieldArtist, FieldArtistReading,
			FieldArtistReadingRomanized, FieldGenre, FieldFolder,
			FieldAlbumEx, FieldArtistEx,
		}
	case CollectionAlbumByID:
		return []string{
			FieldAlbum, FieldAlbumReading, FieldArtist, FieldArtistReading,
			FieldArtistReadingRomanized, FieldGenre, FieldFolderID,
			FieldAlbumEx, FieldArtistEx,
		}
	case CollectionArtist:
		return []string{
			FieldArtist, FieldArtistReading, FieldArtistReadingRomanized,
			FieldFolder, FieldArtistEx,
		}
	case CollectionArtistByID:
		return []string{
			FieldArtist, FieldArtistReading, FieldArtistReadingRomanized,
			FieldFolderID, FieldArtistEx,
		}
	case CollectionGenre:
		return []string{FieldGenreKey, FieldGenre}
	}
	return nil
}
