package search

// Stop words for phrase fields. English articles/conjunctions plus the
// Japanese single-character particles that survive tokenization inside
// mixed-script titles.
var stopWordsPhrase = []string{
	"a", "an", "and", "are", "as", "at", "be", "but", "by", "for", "if",
	"in", "into", "is", "it", "no", "not", "of", "on", "or", "such",
	"that", "the", "their", "then", "there", "these", "they", "this",
	"to", "was", "will", "with",
}

// Stop words for artist fields. Credit noise rather than grammar: the
// tokens that join or annotate artist names inside a single tag value.
var stopWordsArtist = []string{
	"cv", "feat", "featuring", "with", "vs", "x",
}
