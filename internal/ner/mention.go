package ner

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/docingest/internal/model"
)

// MapLabel folds a recognizer label into the entity taxonomy.
func MapLabel(label string) model.EntityType {
	switch strings.ToUpper(label) {
	case "PERSON":
		return model.EntityPerson
	case "ORG":
		return model.EntityOrg
	case "GPE", "LOC", "FAC":
		return model.EntityPlace
	default:
		return model.EntityOther
	}
}

// Canonicalize returns the form an entity is stored under:
// NFKC-normalized with runs of whitespace collapsed to one space.
func Canonicalize(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}

// Mentions locates each entity in text and returns the mentions with
// code point offsets. Entities are searched for in order, each starting
// after the previous match; an entity that cannot be found is dropped.
func Mentions(text string, entities []Entity) []model.Mention {
	mentions := make([]model.Mention, 0, len(entities))
	cursor := 0
	for _, e := range entities {
		canonical := Canonicalize(e.Text)
		if canonical == "" {
			continue
		}
		pattern := entityPattern(e.Text)
		if pattern == nil {
			continue
		}

		start, end, ok := find(pattern, text, cursor)
		if !ok {
			start, end, ok = find(pattern, text, 0)
		}
		if !ok {
			continue
		}
		if start >= cursor {
			cursor = end
		}

		mentions = append(mentions, model.Mention{
			Text:      text[start:end],
			Canonical: canonical,
			Start:     utf8.RuneCountInString(text[:start]),
			End:       utf8.RuneCountInString(text[:end]),
			Type:      MapLabel(e.Label),
		})
	}
	return mentions
}

// entityPattern matches the entity tokens separated by any whitespace,
// since recognizers join tokens with single spaces.
func entityPattern(entity string) *regexp.Regexp {
	tokens := strings.Fields(entity)
	if len(tokens) == 0 {
		return nil
	}
	for i, tok := range tokens {
		tokens[i] = regexp.QuoteMeta(tok)
	}
	return regexp.MustCompile(strings.Join(tokens, `\s+`))
}

// find returns the byte span of the first match at or after from.
func find(pattern *regexp.Regexp, text string, from int) (int, int, bool) {
	if from > len(text) {
		return 0, 0, false
	}
	loc := pattern.FindStringIndex(text[from:])
	if loc == nil {
		return 0, 0, false
	}
	return from + loc[0], from + loc[1], true
}
