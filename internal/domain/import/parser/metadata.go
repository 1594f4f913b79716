package parser

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

var (
	bracketMetaPattern = bn(`\[\s*([^\[\]:：ঃ]+?)\s*[:：ঃ]\s*([^\[\]]*?)\s*\]`)
	bareMetaPattern    = bn(`^\s*([^:：ঃ\[\]]+?)\s*[:：ঃ]\s*(.*?)\s*$`)
)

type metaField int

const (
	metaSubject metaField = iota
	metaChapter
	metaLesson
	metaBoard
)

var metaKeys = func() map[string]metaField {
	keys := map[string]metaField{
		"subject": metaSubject,
		"বিষয়":    metaSubject,
		"chapter": metaChapter,
		"অধ্যায়":  metaChapter,
		"lesson":  metaLesson,
		"পাঠ":     metaLesson,
		"board":   metaBoard,
		"বোর্ড":   metaBoard,
	}
	out := make(map[string]metaField, len(keys))
	for k, v := range keys {
		out[norm.NFC.String(k)] = v
	}
	return out
}()

func lookupMetaKey(key string) (metaField, bool) {
	f, ok := metaKeys[strings.ToLower(strings.TrimSpace(key))]
	return f, ok
}

func (f metaField) set(m *question.Metadata, value string) {
	switch f {
	case metaSubject:
		m.Subject = value
	case metaChapter:
		m.Chapter = value
	case metaLesson:
		m.Lesson = value
	case metaBoard:
		m.Board = value
	}
}

// parseMetadataLine recognises "[Key: Value]" blocks (several per line allowed)
// and bare "Key: Value" lines with an English or Bengali key.
func parseMetadataLine(line string) (question.Metadata, bool) {
	var meta question.Metadata
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return meta, false
	}

	if strings.HasPrefix(trimmed, "[") {
		matches := bracketMetaPattern.FindAllStringSubmatch(trimmed, -1)
		if len(matches) == 0 {
			return meta, false
		}
		rest := strings.TrimSpace(bracketMetaPattern.ReplaceAllString(trimmed, ""))
		if rest != "" {
			return meta, false
		}
		for _, m := range matches {
			field, ok := lookupMetaKey(m[1])
			if !ok {
				return question.Metadata{}, false
			}
			field.set(&meta, m[2])
		}
		return meta, true
	}

	m := bareMetaPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return meta, false
	}
	field, ok := lookupMetaKey(m[1])
	if !ok {
		return meta, false
	}
	field.set(&meta, m[2])
	return meta, true
}
