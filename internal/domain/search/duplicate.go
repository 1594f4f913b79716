package search

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/question-bank/internal/domain/import/normalizer"
	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

// DefaultThreshold is the similarity score at which two question texts are treated as the same question
const DefaultThreshold = 85

// Duplicate describes an existing question similar to a candidate
type Duplicate struct {
	Index    int        `json:"index"`
	ID       *uuid.UUID `json:"id,omitempty"`
	Text     string     `json:"text"`
	Score    int        `json:"score"`
	Distance int        `json:"distance"`
}

// DuplicateDetector scores pasted questions against the existing bank by edit distance
type DuplicateDetector struct {
	entries []entry
	mu      sync.RWMutex
}

type entry struct {
	kind       question.Kind
	normalized string
	text       string
	id         *uuid.UUID
}

// NewDuplicateDetector creates a detector seeded with existing questions
func NewDuplicateDetector(existing []question.Question) *DuplicateDetector {
	d := &DuplicateDetector{}
	d.Build(existing)
	return d
}

// Build replaces the known questions
func (d *DuplicateDetector) Build(existing []question.Question) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries = make([]entry, 0, len(existing))
	for _, q := range existing {
		d.entries = appendEntry(d.entries, q)
	}
}

// Add registers newly stored questions
func (d *DuplicateDetector) Add(qs ...question.Question) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, q := range qs {
		d.entries = appendEntry(d.entries, q)
	}
}

func appendEntry(entries []entry, q question.Question) []entry {
	text := questionText(q)
	n := normalize(text)
	if n == "" {
		return entries
	}
	return append(entries, entry{kind: q.Kind(), normalized: n, text: text, id: q.ID()})
}

// Size returns the number of known questions
func (d *DuplicateDetector) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Match returns the closest known question of the same kind scoring at least threshold, or nil
func (d *DuplicateDetector) Match(q question.Question, threshold int) *Duplicate {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := normalize(questionText(q))
	if n == "" {
		return nil
	}

	var best *Duplicate
	for _, e := range d.entries {
		if e.kind != q.Kind() {
			continue
		}
		score := similarity(n, e.normalized)
		if score < threshold || (best != nil && score <= best.Score) {
			continue
		}
		best = &Duplicate{
			ID:       e.id,
			Text:     e.text,
			Score:    score,
			Distance: fuzzy.LevenshteinDistance(n, e.normalized),
		}
	}
	return best
}

// MatchAll checks every candidate and returns the duplicates found, ordered by candidate index
func (d *DuplicateDetector) MatchAll(qs []question.Question, threshold int) []Duplicate {
	var out []Duplicate
	for i, q := range qs {
		if dup := d.Match(q, threshold); dup != nil {
			dup.Index = i
			out = append(out, *dup)
		}
	}
	return out
}

// GroupSimilar clusters texts whose similarity reaches threshold.
// Each group lists indexes into texts; the first index is the canonical member.
func GroupSimilar(texts []string, threshold int) [][]int {
	normalized := make([]string, len(texts))
	for i, t := range texts {
		normalized[i] = normalize(t)
	}

	assigned := make([]bool, len(texts))
	var groups [][]int
	for i := range texts {
		if assigned[i] {
			continue
		}
		group := []int{i}
		assigned[i] = true
		for j := i + 1; j < len(texts); j++ {
			if assigned[j] {
				continue
			}
			if similarity(normalized[i], normalized[j]) >= threshold {
				group = append(group, j)
				assigned[j] = true
			}
		}
		groups = append(groups, group)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return len(groups[a]) > len(groups[b])
	})
	return groups
}

// similarity scores two normalized strings from 0 to 100
func similarity(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}
	l1, l2 := utf8.RuneCountInString(s1), utf8.RuneCountInString(s2)
	maxLen := max(l1, l2)
	if maxLen == 0 {
		return 0
	}

	if strings.Contains(s1, s2) {
		return 75 + 25*l2/l1
	}
	if strings.Contains(s2, s1) {
		return 75 + 25*l1/l2
	}

	distance := fuzzy.LevenshteinDistance(s1, s2)
	score := 100 * (maxLen - distance) / maxLen

	// Subsequence matches ("what is dye" inside "what is a dye") are at least a weak hit.
	if score < 60 && (fuzzy.Match(s1, s2) || fuzzy.Match(s2, s1)) {
		return 60
	}
	return score
}

func normalize(s string) string {
	s = strings.ToLower(normalizer.CleanText(normalizer.StripBold(s)))
	return strings.Join(strings.Fields(s), " ")
}

func questionText(q question.Question) string {
	switch v := q.(type) {
	case question.MCQ:
		return v.QuestionText
	case question.CQ:
		return v.QuestionText
	case question.SQ:
		return v.Question
	}
	return ""
}
