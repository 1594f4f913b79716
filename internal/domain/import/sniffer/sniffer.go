// Package sniffer identifies which question format a pasted blob follows and
// fingerprints it so repeated imports of the same source can be recognised.
package sniffer

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/cloudflare/ahocorasick"
	"golang.org/x/text/unicode/norm"

	"github.com/FACorreiaa/question-bank/internal/domain/import/normalizer"
	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

// Format is a parser family
type Format string

const (
	FormatMCQ      Format = "mcq"
	FormatCQ       Format = "cq"
	FormatSQ       Format = "sq"
	FormatLesson   Format = "lesson"
	FormatOverview Format = "overview"
)

// QuestionKind maps a question format onto its record kind.
// Lesson and overview documents have no question kind.
func (f Format) QuestionKind() (question.Kind, bool) {
	switch f {
	case FormatMCQ:
		return question.KindMCQ, true
	case FormatCQ:
		return question.KindCQ, true
	case FormatSQ:
		return question.KindSQ, true
	}
	return "", false
}

// Keyword is a marker phrase that votes for a format
type Keyword struct {
	Phrase string
	Format Format
	Weight int
}

// defaultKeywords are matched against lowercased, bold-stripped text
var defaultKeywords = []Keyword{
	{"correct:", FormatMCQ, 3},
	{"correct answer", FormatMCQ, 3},
	{"সঠিক উত্তর", FormatMCQ, 3},
	{"সঠিক:", FormatMCQ, 3},
	{"\na)", FormatMCQ, 1},
	{"\nb)", FormatMCQ, 1},
	{"\nc)", FormatMCQ, 1},
	{"\nd)", FormatMCQ, 1},
	{"\nক)", FormatMCQ, 1},
	{"\nখ)", FormatMCQ, 1},
	{"\nগ)", FormatMCQ, 1},
	{"\nঘ)", FormatMCQ, 1},
	{"explanation:", FormatMCQ, 1},

	{"উদ্দীপক", FormatCQ, 4},
	{"stem:", FormatCQ, 4},
	{"stimulus", FormatCQ, 4},
	{"(1)", FormatCQ, 1},
	{"(2)", FormatCQ, 1},
	{"(3)", FormatCQ, 1},
	{"(4)", FormatCQ, 1},
	{"(১)", FormatCQ, 1},
	{"(২)", FormatCQ, 1},
	{"(৩)", FormatCQ, 1},
	{"(৪)", FormatCQ, 1},
	{"[picture]", FormatCQ, 2},

	{"answer:", FormatSQ, 2},
	{"উত্তর:", FormatSQ, 2},
	{"উত্তরঃ", FormatSQ, 2},
	{"\na:", FormatSQ, 1},

	{"### topic", FormatLesson, 4},
	{"#### subtopic", FormatLesson, 4},
	{"definition:", FormatLesson, 2},
	{"shortcut:", FormatLesson, 2},
	{"difficulty:", FormatLesson, 2},
	{"review questions", FormatLesson, 2},

	{"t-01", FormatOverview, 4},
	{"t-1:", FormatOverview, 3},
	{"টি-০১", FormatOverview, 4},
}

// Detection is the outcome of sniffing a blob
type Detection struct {
	Format      Format
	Language    question.Language
	Confidence  float64
	Scores      map[Format]int
	Fingerprint string
	Lines       int
}

// Sniffer scores text against every keyword in a single Aho-Corasick pass
type Sniffer struct {
	matcher  *ahocorasick.Matcher
	keywords []Keyword
	mu       sync.RWMutex
}

// New creates a sniffer with the default keyword set plus any extra keywords
func New(extra ...Keyword) *Sniffer {
	s := &Sniffer{}
	s.Build(append(append([]Keyword{}, defaultKeywords...), extra...))
	return s
}

// Build rebuilds the matcher from keywords
func (s *Sniffer) Build(keywords []Keyword) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keywords = make([]Keyword, 0, len(keywords))
	patterns := make([][]byte, 0, len(keywords))
	for _, k := range keywords {
		phrase := norm.NFC.String(strings.ToLower(k.Phrase))
		if phrase == "" {
			continue
		}
		k.Phrase = phrase
		s.keywords = append(s.keywords, k)
		patterns = append(patterns, []byte(phrase))
	}
	if len(patterns) == 0 {
		s.matcher = nil
		return
	}
	s.matcher = ahocorasick.NewMatcher(patterns)
}

// Scores returns the summed weight of the distinct keywords found per format
func (s *Sniffer) Scores(text string) map[Format]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scores := make(map[Format]int)
	if s.matcher == nil {
		return scores
	}
	normalized := "\n" + strings.ToLower(strings.Join(normalizer.Lines(text), "\n"))
	for _, idx := range s.matcher.Match([]byte(normalized)) {
		if idx >= 0 && idx < len(s.keywords) {
			k := s.keywords[idx]
			scores[k.Format] += k.Weight
		}
	}
	return scores
}

// Detect picks the highest-scoring format, defaulting to MCQ when nothing matches.
// Ties resolve in the order lesson, overview, cq, mcq, sq.
func (s *Sniffer) Detect(text string) *Detection {
	scores := s.Scores(text)
	d := &Detection{
		Format:      FormatMCQ,
		Language:    normalizer.DetectLanguage(text),
		Scores:      scores,
		Fingerprint: Fingerprint(text),
		Lines:       strings.Count(text, "\n") + 1,
	}

	total, best := 0, 0
	for _, f := range []Format{FormatLesson, FormatOverview, FormatCQ, FormatMCQ, FormatSQ} {
		total += scores[f]
		if scores[f] > best {
			best = scores[f]
			d.Format = f
		}
	}
	if total > 0 {
		d.Confidence = float64(best) / float64(total)
	}
	return d
}

// Fingerprint hashes the letters and digits of each non-empty line, so whitespace,
// bold markers and punctuation differences do not change it.
func Fingerprint(text string) string {
	var normalized []string
	for _, line := range normalizer.Lines(text) {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r) {
				return unicode.ToLower(r)
			}
			return -1
		}, line)
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}
	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}

// Ranked lists formats by descending score
func (d *Detection) Ranked() []Format {
	formats := make([]Format, 0, len(d.Scores))
	for f := range d.Scores {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool {
		if d.Scores[formats[i]] != d.Scores[formats[j]] {
			return d.Scores[formats[i]] > d.Scores[formats[j]]
		}
		return formats[i] < formats[j]
	})
	return formats
}
