package search

import (
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/otomedia/oto/domain"
)

// defaultBoostMultiplier scales every table boost so that boosted fields
// separate cleanly from unboosted ones in mixed disjunctions.
const defaultBoostMultiplier = 2.0

// Year range defaults when a bound is absent.
const (
	yearMin = 1
	yearMax = 9999
)

// QueryBuilder constructs bleve queries from raw user input. All analysis
// goes through the query-side analyzer set, so query tokens always line up
// with indexed tokens. Every method returns ok=false when the input
// analyzes to nothing; callers skip the clause in that case.
type QueryBuilder struct {
	analyzer *AnalyzerFactory
	settings domain.Settings
}

func NewQueryBuilder(analyzer *AnalyzerFactory, settings domain.Settings) *QueryBuilder {
	return &QueryBuilder{analyzer: analyzer, settings: settings}
}

// splitWildcard separates the prefix-marked trailing token from the exact
// terms. prefix is empty when no token carries the marker.
func splitWildcard(tokens []string) (terms []string, prefix string) {
	if len(tokens) == 0 {
		return nil, ""
	}
	last := tokens[len(tokens)-1]
	if strings.HasSuffix(last, string(WildcardMarker)) {
		return tokens[:len(tokens)-1], strings.TrimSuffix(last, string(WildcardMarker))
	}
	return tokens, ""
}

func termQuery(field, term string) query.Query {
	q := query.NewTermQuery(term)
	q.SetField(field)
	return q
}

func prefixQuery(field, term string) query.Query {
	q := query.NewPrefixQuery(term)
	q.SetField(field)
	return q
}

// FieldQuery builds the single-field clause for input. Romanized fields
// match terms in any order; all other fields match as a phrase. A
// prefix-marked trailing token becomes a prefix query.
func (b *QueryBuilder) FieldQuery(field, input string) (query.Query, bool) {
	terms, prefix := splitWildcard(b.analyzer.QueryTokens(field, input))
	if len(terms) == 0 && prefix == "" {
		return nil, false
	}
	if romanizedFields[field] {
		parts := make([]query.Query, 0, len(terms)+1)
		for _, t := range terms {
			parts = append(parts, termQuery(field, t))
		}
		if prefix != "" {
			parts = append(parts, prefixQuery(field, prefix))
		}
		if len(parts) == 1 {
			return parts[0], true
		}
		return query.NewDisjunctionQuery(parts), true
	}
	if prefix != "" {
		if len(terms) == 0 {
			return prefixQuery(field, prefix), true
		}
		parts := make([]query.Query, 0, len(terms)+1)
		for _, t := range terms {
			parts = append(parts, termQuery(field, t))
		}
		parts = append(parts, prefixQuery(field, prefix))
		return query.NewConjunctionQuery(parts), true
	}
	if len(terms) == 1 {
		return termQuery(field, terms[0]), true
	}
	return query.NewPhraseQuery(terms, field), true
}

// fieldEnabled filters the per-collection target set by the runtime
// switches: composer fields behind SearchComposer, romanized-only fields
// behind the romanized index scheme.
func (b *QueryBuilder) fieldEnabled(field string) bool {
	if composerFields[field] && !b.settings.SearchComposer {
		return false
	}
	if romanizedOnlyFields[field] && b.settings.IndexScheme != domain.RomanizedJapanese {
		return false
	}
	return true
}

// MultiFieldQuery builds the ranked free-text clause: one boosted per-field
// clause per enabled target field, ORed together.
func (b *QueryBuilder) MultiFieldQuery(c Collection, input string) (query.Query, bool) {
	boosts := c.Boosts()
	parts := make([]query.Query, 0, 8)
	for _, field := range c.Fields() {
		if !b.fieldEnabled(field) {
			continue
		}
		fq, ok := b.FieldQuery(field, input)
		if !ok {
			continue
		}
		if boost, boosted := boosts[field]; boosted {
			if bq, can := fq.(query.BoostableQuery); can {
				bq.SetBoost(boost * defaultBoostMultiplier)
			}
		}
		parts = append(parts, fq)
	}
	if len(parts) == 0 {
		return nil, false
	}
	if len(parts) == 1 {
		return parts[0], true
	}
	return query.NewDisjunctionQuery(parts), true
}

// FolderQuery scopes by content roots: one exact-key term per folder, ORed.
// ID-scoped collections match the numeric id, the rest match the path. An
// empty folder set matches nothing: every query runs inside the caller's
// visible roots, and a caller with no roots sees no records.
func (b *QueryBuilder) FolderQuery(idScoped bool, folders []domain.MusicFolder) query.Query {
	if len(folders) == 0 {
		return query.NewMatchNoneQuery()
	}
	parts := make([]query.Query, 0, len(folders))
	for _, f := range folders {
		if idScoped {
			parts = append(parts, termQuery(FieldFolderID, strconv.Itoa(f.ID)))
		} else {
			parts = append(parts, termQuery(FieldFolder, f.Path))
		}
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return query.NewDisjunctionQuery(parts)
}

// YearRangeQuery matches songs in the inclusive [from, to] year range.
// A zero bound falls back to the schema-wide extreme.
func (b *QueryBuilder) YearRangeQuery(from, to int) query.Query {
	if from <= 0 {
		from = yearMin
	}
	if to <= 0 {
		to = yearMax
	}
	lo, hi := float64(from), float64(to)
	inclusive := true
	q := query.NewNumericRangeInclusiveQuery(&lo, &hi, &inclusive, &inclusive)
	q.SetField(FieldYear)
	return q
}

// GenreQuery matches any of the given genre spellings. Each input is run
// through the genre analyzer so delimiter conventions and width variants
// line up with the indexed form.
func (b *QueryBuilder) GenreQuery(genres []string) (query.Query, bool) {
	parts := make([]query.Query, 0, len(genres))
	for _, g := range genres {
		for _, t := range b.analyzer.QueryTokens(FieldGenre, g) {
			parts = append(parts, termQuery(FieldGenre, t))
		}
	}
	if len(parts) == 0 {
		return nil, false
	}
	if len(parts) == 1 {
		return parts[0], true
	}
	return query.NewDisjunctionQuery(parts), true
}

// MediaTypeQuery matches any of the given media types.
func (b *QueryBuilder) MediaTypeQuery(types ...domain.MediaType) (query.Query, bool) {
	if len(types) == 0 {
		return nil, false
	}
	parts := make([]query.Query, 0, len(types))
	for _, t := range types {
		parts = append(parts, termQuery(FieldMediaType, string(t)))
	}
	if len(parts) == 1 {
		return parts[0], true
	}
	return query.NewDisjunctionQuery(parts), true
}

// RandomSongsQuery builds the candidate filter for random song selection:
// music files only, optionally narrowed by genre, year range and folders.
func (b *QueryBuilder) RandomSongsQuery(criteria domain.RandomCriteria) query.Query {
	bq := query.NewBooleanQuery(nil, nil, nil)
	mt, _ := b.MediaTypeQuery(domain.TypeMusic)
	bq.AddMust(mt)
	if gq, ok := b.GenreQuery(criteria.Genres); ok {
		bq.AddMust(gq)
	}
	if criteria.FromYear > 0 || criteria.ToYear > 0 {
		bq.AddMust(b.YearRangeQuery(criteria.FromYear, criteria.ToYear))
	}
	bq.AddMust(b.FolderQuery(false, criteria.Folders))
	return bq
}

// SearchQuery combines the ranked free-text clause with the folder scope.
// ok is false when the input analyzes to nothing for every target field.
func (b *QueryBuilder) SearchQuery(c Collection, input string, folders []domain.MusicFolder) (query.Query, bool) {
	mq, ok := b.MultiFieldQuery(c, input)
	if !ok {
		return nil, false
	}
	bq := query.NewBooleanQuery(nil, nil, nil)
	bq.AddMust(mq, b.FolderQuery(c.IDScoped(), folders))
	return bq, true
}
