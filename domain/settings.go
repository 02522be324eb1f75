package domain

// IndexScheme selects how Japanese names are indexed.
type IndexScheme int

const (
	// NativeJapanese indexes derived readings in kana.
	NativeJapanese IndexScheme = iota
	// RomanizedJapanese additionally fills the romanized reading fields.
	RomanizedJapanese
	// WithoutJPLangProcessing skips Japanese language processing entirely.
	WithoutJPLangProcessing
)

// Settings are the read-only runtime switches the search core consumes.
// They are constructed once at the composition root and never mutated by
// this module.
type Settings struct {
	// SearchComposer includes composer fields in multi-field queries.
	SearchComposer bool
	// IndexScheme decides whether romanized-only fields participate.
	IndexScheme IndexScheme
	// IndexEnglishPrior prefers the raw name over a derived reading when
	// the name already starts with a Latin letter.
	IndexEnglishPrior bool
	// OutputSearchQuery logs every executed search.
	OutputSearchQuery bool
	// IgnoredArticles is a space-separated list of leading articles
	// stripped before reading derivation and sorting, e.g. "The El La".
	IgnoredArticles string
}

// DefaultSettings mirror the server defaults.
func DefaultSettings() Settings {
	return Settings{
		SearchComposer:    false,
		IndexScheme:       NativeJapanese,
		IndexEnglishPrior: true,
		IgnoredArticles:   "The El La Los Las Le Les",
	}
}
