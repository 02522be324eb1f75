package search

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/otomedia/oto/domain"
)

// CriteriaError reports a device search-criteria string this translator
// cannot honor. It is a hard caller-visible error: the device asked for
// something outside the supported grammar subset.
type CriteriaError struct {
	msg string
}

func (e *CriteriaError) Error() string { return e.msg }

func criteriaErrorf(format string, args ...interface{}) *CriteriaError {
	return &CriteriaError{msg: fmt.Sprintf(format, args...)}
}

// UPnPCriteria is the translation result: the target collection and the
// fully scoped query to run against it.
type UPnPCriteria struct {
	Collection Collection
	Query      query.Query
}

// ---- lexer ----

type tokenKind int

const (
	tokWord tokenKind = iota
	tokQuoted
	tokLParen
	tokRParen
)

type criteriaToken struct {
	kind tokenKind
	text string
}

func lexCriteria(input string) ([]criteriaToken, error) {
	var toks []criteriaToken
	for i := 0; i < len(input); {
		r, size := utf8.DecodeRuneInString(input[i:])
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			i += size
		case r == '(':
			toks = append(toks, criteriaToken{kind: tokLParen, text: "("})
			i += size
		case r == ')':
			toks = append(toks, criteriaToken{kind: tokRParen, text: ")"})
			i += size
		case r == '"':
			i += size
			var b strings.Builder
			closed := false
			for i < len(input) {
				c, cs := utf8.DecodeRuneInString(input[i:])
				i += cs
				if c == '\\' && i < len(input) {
					e, es := utf8.DecodeRuneInString(input[i:])
					i += es
					b.WriteRune(e)
					continue
				}
				if c == '"' {
					closed = true
					break
				}
				b.WriteRune(c)
			}
			if !closed {
				return nil, criteriaErrorf("unterminated quoted value")
			}
			toks = append(toks, criteriaToken{kind: tokQuoted, text: b.String()})
		default:
			start := i
			for i < len(input) {
				c, cs := utf8.DecodeRuneInString(input[i:])
				if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '(' || c == ')' || c == '"' {
					break
				}
				i += cs
			}
			toks = append(toks, criteriaToken{kind: tokWord, text: input[start:i]})
		}
	}
	return toks, nil
}

// ---- class mapping ----

type entityClass int

const (
	classSong entityClass = iota
	classAlbum
	classArtist
)

// unsupportedClassMarks name the class fragments this server has no
// corresponding collection for. Checked before any broad-category mapping
// so e.g. photoAlbum never falls through to the album category.
var unsupportedClassMarks = []string{
	"photoAlbum", "imageItem", "textItem",
	"playlistItem", "playlistContainer", "bookmarkItem",
}

// classMapping binds one class complement to an entity class and its
// media-type narrowing.
type classMapping struct {
	class entityClass
	types []domain.MediaType
}

// leafClasses maps exact-equality complements.
var leafClasses = map[string]classMapping{
	"object.container.person.musicArtist":  {classArtist, nil},
	"object.container.album.musicAlbum":    {classAlbum, nil},
	"object.item.audioItem.musicTrack":     {classSong, []domain.MediaType{domain.TypeMusic}},
	"object.item.audioItem.audioBroadcast": {classSong, []domain.MediaType{domain.TypePodcast}},
	"object.item.audioItem.audioBook":      {classSong, []domain.MediaType{domain.TypeAudiobook}},
	"object.item.videoItem.movie":          {classSong, []domain.MediaType{domain.TypeVideo}},
	"object.item.videoItem.videoBroadcast": {classSong, []domain.MediaType{domain.TypeVideo}},
	"object.item.videoItem.musicVideoClip": {classSong, []domain.MediaType{domain.TypeVideo}},
}

// derivedClasses maps the derivedfrom complements the server honors. The
// set is closed: a subtype absent from it is rejected rather than widened
// to its category.
var derivedClasses = map[string]classMapping{
	"object.container.person":             {classArtist, nil},
	"object.container.person.musicArtist": {classArtist, nil},
	"object.container.album":              {classAlbum, nil},
	"object.container.album.musicAlbum":   {classAlbum, nil},
	"object.item.audioItem.musicTrack":    {classSong, []domain.MediaType{domain.TypeMusic}},
	"object.item.audioItem": {classSong, []domain.MediaType{
		domain.TypeMusic, domain.TypePodcast, domain.TypeAudiobook}},
	"object.item.videoItem": {classSong, []domain.MediaType{domain.TypeVideo}},
}

// ---- translation accumulator ----

// criteriaAcc is the accumulator threaded through the parse. Each grammar
// node folds into a new state; the final state is combined exactly once.
type criteriaAcc struct {
	class      entityClass
	haveClass  bool
	mediaTypes []domain.MediaType
	prop       *query.BooleanQuery
	haveProp   bool
	lastOp     string // "and" or "or"; defaults to "or"
}

// CriteriaTranslator turns a device search-criteria string into a scoped
// collection query. It carries no per-parse state; one translator serves
// concurrent callers.
type CriteriaTranslator struct {
	builder *QueryBuilder
}

func NewCriteriaTranslator(builder *QueryBuilder) *CriteriaTranslator {
	return &CriteriaTranslator{builder: builder}
}

// Translate parses input and builds the final query, scoped to folders.
// id3 selects the tag-derived collections for album and artist classes.
func (t *CriteriaTranslator) Translate(input string, folders []domain.MusicFolder, id3 bool) (*UPnPCriteria, error) {
	toks, err := lexCriteria(input)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, criteriaErrorf("empty search criteria")
	}
	p := &criteriaParser{translator: t, toks: toks}
	acc := criteriaAcc{lastOp: "or", prop: query.NewBooleanQuery(nil, nil, nil)}
	acc, err = p.parseExpr(acc)
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, criteriaErrorf("unexpected %q after expression", p.peekText())
	}
	if !acc.haveClass {
		return nil, criteriaErrorf("criteria contains no class relation")
	}
	return t.finalize(acc, folders, id3)
}

// finalize combines the accumulated property filter, media-type filter and
// folder scope into the single query the caller executes. The folder scope
// is always a MUST clause, so an empty folder set matches nothing.
func (t *CriteriaTranslator) finalize(acc criteriaAcc, folders []domain.MusicFolder, id3 bool) (*UPnPCriteria, error) {
	c := collectionFor(acc.class, id3)
	final := query.NewBooleanQuery(nil, nil, nil)
	if acc.haveProp {
		final.AddMust(acc.prop)
	}
	if mt, ok := t.builder.MediaTypeQuery(acc.mediaTypes...); ok {
		final.AddMust(mt)
	}
	final.AddMust(t.builder.FolderQuery(c.IDScoped(), folders))
	return &UPnPCriteria{Collection: c, Query: final}, nil
}

func collectionFor(class entityClass, id3 bool) Collection {
	switch class {
	case classAlbum:
		if id3 {
			return CollectionAlbumByID
		}
		return CollectionAlbum
	case classArtist:
		if id3 {
			return CollectionArtistByID
		}
		return CollectionArtist
	}
	return CollectionSong
}

// ---- parser ----

type criteriaParser struct {
	translator *CriteriaTranslator
	toks       []criteriaToken
	pos        int
}

func (p *criteriaParser) peek() (criteriaToken, bool) {
	if p.pos >= len(p.toks) {
		return criteriaToken{}, false
	}
	return p.toks[p.pos], true
}

func (p *criteriaParser) peekText() string {
	if tok, ok := p.peek(); ok {
		return tok.text
	}
	return "end of input"
}

func (p *criteriaParser) next() (criteriaToken, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

// parseExpr folds "term (logOp term)*" into the accumulator.
func (p *criteriaParser) parseExpr(acc criteriaAcc) (criteriaAcc, error) {
	acc, err := p.parseTerm(acc)
	if err != nil {
		return acc, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokWord {
			return acc, nil
		}
		op := strings.ToLower(tok.text)
		if op != "and" && op != "or" {
			return acc, nil
		}
		p.pos++
		acc.lastOp = op
		acc, err = p.parseTerm(acc)
		if err != nil {
			return acc, err
		}
	}
}

// parseTerm folds one parenthesized expression or one relation.
func (p *criteriaParser) parseTerm(acc criteriaAcc) (criteriaAcc, error) {
	tok, ok := p.peek()
	if !ok {
		return acc, criteriaErrorf("unexpected end of criteria")
	}
	if tok.kind == tokLParen {
		p.pos++
		acc, err := p.parseExpr(acc)
		if err != nil {
			return acc, err
		}
		closing, ok := p.next()
		if !ok || closing.kind != tokRParen {
			return acc, criteriaErrorf("missing closing parenthesis")
		}
		return acc, nil
	}
	return p.parseRelation(acc)
}

// parseRelation folds "subject op value" into the accumulator: either a
// class relation or a property relation.
func (p *criteriaParser) parseRelation(acc criteriaAcc) (criteriaAcc, error) {
	subject, ok := p.next()
	if !ok || subject.kind != tokWord {
		return acc, criteriaErrorf("expected a relation subject, got %q", subject.text)
	}
	op, ok := p.next()
	if !ok || op.kind != tokWord {
		return acc, criteriaErrorf("expected a relation operator after %q", subject.text)
	}
	value, ok := p.next()
	if !ok || value.kind != tokQuoted {
		return acc, criteriaErrorf("expected a quoted value after %q %s", subject.text, op.text)
	}
	if strings.EqualFold(subject.text, "upnp:class") {
		return p.foldClassRelation(acc, strings.ToLower(op.text), value.text)
	}
	return p.foldPropertyRelation(acc, subject.text, value.text)
}

// foldClassRelation resolves the target entity class and media-type
// narrowing from a class relation node.
func (p *criteriaParser) foldClassRelation(acc criteriaAcc, op, complement string) (criteriaAcc, error) {
	for _, mark := range unsupportedClassMarks {
		if strings.Contains(complement, mark) {
			return acc, criteriaErrorf("unsupported class %q", complement)
		}
	}
	switch op {
	case "derivedfrom":
		derived, ok := derivedClasses[complement]
		if !ok {
			return acc, criteriaErrorf("unrecognized class %q", complement)
		}
		acc.class = derived.class
		acc.mediaTypes = derived.types
	case "=":
		leaf, ok := leafClasses[complement]
		if !ok {
			return acc, criteriaErrorf("unrecognized class %q", complement)
		}
		acc.class = leaf.class
		acc.mediaTypes = leaf.types
	default:
		return acc, criteriaErrorf("unsupported class operator %q", op)
	}
	acc.haveClass = true
	return acc, nil
}

// propertyFields maps one relation subject to its target fields given the
// current entity class. Title-like subjects follow the class; artist and
// creator subjects are fixed.
func propertyFields(subject string, class entityClass) []string {
	s := strings.ToLower(subject)
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[:i]
	}
	switch s {
	case "dc:title":
		switch class {
		case classAlbum:
			return []string{FieldAlbum, FieldAlbumReading}
		case classArtist:
			return []string{FieldArtist, FieldArtistReading}
		}
		return []string{FieldTitle, FieldTitleReading}
	case "upnp:artist", "upnp:albumartist":
		return []string{FieldArtist, FieldArtistReading}
	case "dc:creator", "upnp:author":
		return []string{FieldComposer, FieldComposerReading}
	case "upnp:genre":
		return []string{FieldGenre}
	}
	return nil
}

// foldPropertyRelation ANDs or ORs a boosted multi-field clause for one
// property into the accumulated property filter.
func (p *criteriaParser) foldPropertyRelation(acc criteriaAcc, subject, value string) (criteriaAcc, error) {
	if !acc.haveClass {
		return acc, criteriaErrorf("property %q before any class relation", subject)
	}
	fields := propertyFields(subject, acc.class)
	if fields == nil {
		return acc, criteriaErrorf("unsupported property %q", subject)
	}
	boosts := collectionFor(acc.class, false).Boosts()
	parts := make([]query.Query, 0, len(fields))
	for _, field := range fields {
		fq, ok := p.translator.builder.FieldQuery(field, value)
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
		return acc, nil
	}
	var clause query.Query = parts[0]
	if len(parts) > 1 {
		clause = query.NewDisjunctionQuery(parts)
	}
	if acc.lastOp == "and" {
		acc.prop.AddMust(clause)
	} else {
		acc.prop.AddShould(clause)
	}
	acc.haveProp = true
	return acc, nil
}
