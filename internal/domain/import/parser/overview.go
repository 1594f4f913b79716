package parser

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/question-bank/internal/domain/import/normalizer"
	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

var (
	overviewHeaderPattern = bn(`^[#*\s]*((?:T|টি)\s*-\s*[0-9০-৯]+(?:\s*(?:&|and|,|ও)\s*(?:(?:T|টি)\s*-\s*)?[0-9০-৯]+)*)\s*[:：ঃ]\s*(.*?)[*\s]*$`)
	overviewBannerPattern = bn(`(?i)version|chapter|অধ্যায়|সংস্করণ|ভার্সন`)
	idSpacingPattern      = regexp.MustCompile(`\s*-\s*`)
)

// ParseOverview splits a chapter overview into topics keyed by "T-01" style ids.
// Content keeps its original line formatting; only surrounding blank lines are removed.
// Banner lines ahead of the first topic are dropped, other preamble lines open the
// first topic's content.
func ParseOverview(text string) question.Overview {
	overview := question.Overview{Topics: []question.OverviewTopic{}}
	var (
		preamble []string
		content  []string
		current  *question.OverviewTopic
	)

	closeTopic := func() {
		if current == nil {
			return
		}
		current.Content = joinContent(content)
		overview.Topics = append(overview.Topics, *current)
		content = nil
	}

	for _, line := range strings.Split(normalizer.CleanText(text), "\n") {
		if m := overviewHeaderPattern.FindStringSubmatch(line); m != nil {
			closeTopic()
			current = &question.OverviewTopic{
				ID:    idSpacingPattern.ReplaceAllString(strings.Join(strings.Fields(m[1]), " "), "-"),
				Title: strings.TrimSpace(m[2]),
			}
			if len(overview.Topics) == 0 {
				content = preamble
				preamble = nil
			}
			continue
		}
		if current == nil {
			if overviewBannerPattern.MatchString(line) {
				continue
			}
			preamble = append(preamble, line)
			continue
		}
		content = append(content, line)
	}
	closeTopic()
	return overview
}

// joinContent trims blank lines at both ends and keeps everything else verbatim
func joinContent(lines []string) string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
