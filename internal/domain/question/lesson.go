package question

import "github.com/google/uuid"

// Chapter is the root of a parsed lesson outline
type Chapter struct {
	ID      *uuid.UUID `json:"id,omitempty"`
	Subject string     `json:"subject"`
	Chapter string     `json:"chapter"`
	Topics  []Topic    `json:"topics"`
}

// Topic groups subtopics and the review questions that follow them
type Topic struct {
	ID        *uuid.UUID  `json:"id,omitempty"`
	Title     string      `json:"title"`
	Subtopics []Subtopic  `json:"subtopics"`
	Questions []LessonMCQ `json:"questions"`
}

// Subtopic carries the five fixed fields of a lesson subtopic
type Subtopic struct {
	Title       string `json:"title"`
	Definition  string `json:"definition"`
	Explanation string `json:"explanation"`
	Shortcut    string `json:"shortcut"`
	Mistakes    string `json:"mistakes"`
	Difficulty  string `json:"difficulty"`
}

// LessonMCQ is a review question attached to a topic
type LessonMCQ struct {
	Question      string   `json:"question"`
	Options       []Option `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// Overview is a flat list of topic summaries keyed by topic id
type Overview struct {
	Topics []OverviewTopic `json:"topics"`
}

// OverviewTopic is one "T-01: Title" entry with its free-text content
type OverviewTopic struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}
