// Package search indexes the question bank for full-text lookup and flags pasted
// questions that already exist.
package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/google/uuid"

	"github.com/FACorreiaa/question-bank/internal/domain/import/normalizer"
	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

// textAnalyzer tokenizes on unicode word boundaries so Bengali vowel signs stay inside their word.
const textAnalyzer = "qbank_text"

// Document is the indexed form of a question
type Document struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Language string `json:"language"`
	Subject  string `json:"subject"`
	Chapter  string `json:"chapter"`
	Board    string `json:"board"`
	Question string `json:"question"`
	Body     string `json:"body"`
}

// Result is a search hit
type Result struct {
	ID       uuid.UUID     `json:"id"`
	Kind     question.Kind `json:"type"`
	Subject  string        `json:"subject"`
	Chapter  string        `json:"chapter"`
	Question string        `json:"question"`
	Score    float64       `json:"score"`
}

// Filter restricts a search to one kind or subject
type Filter struct {
	Kind    question.Kind
	Subject string
}

// Index is a bleve full-text index of stored questions
type Index struct {
	index   bleve.Index
	indexMu sync.RWMutex
	path    string
}

// NewIndex creates a new search index.
// An empty path creates an in-memory index; otherwise the index is created or reopened on disk.
func NewIndex(path string) (*Index, error) {
	idx := &Index{path: path}

	indexMapping, err := buildIndexMapping()
	if err != nil {
		return nil, err
	}

	var index bleve.Index
	if path == "" {
		index, err = bleve.NewMemOnly(indexMapping)
	} else if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		if mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755); mkdirErr != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", mkdirErr)
		}
		index, err = bleve.New(path, indexMapping)
	} else {
		index, err = bleve.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}

	idx.index = index
	return idx, nil
}

func buildIndexMapping() (mapping.IndexMapping, error) {
	indexMapping := bleve.NewIndexMapping()
	err := indexMapping.AddCustomAnalyzer(textAnalyzer, map[string]any{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register analyzer: %w", err)
	}

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = textAnalyzer

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("type", keywordField)
	docMapping.AddFieldMappingsAt("language", keywordField)
	docMapping.AddFieldMappingsAt("subject", keywordField)
	docMapping.AddFieldMappingsAt("chapter", keywordField)
	docMapping.AddFieldMappingsAt("board", keywordField)
	docMapping.AddFieldMappingsAt("question", textField)
	docMapping.AddFieldMappingsAt("body", textField)

	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = textAnalyzer
	return indexMapping, nil
}

// NewDocument builds the indexed form of q. Records without an id cannot be indexed.
func NewDocument(q question.Question) (Document, bool) {
	id := q.ID()
	if id == nil {
		return Document{}, false
	}
	meta := q.Meta()
	doc := Document{
		ID:      id.String(),
		Type:    string(q.Kind()),
		Subject: meta.Subject,
		Chapter: meta.Chapter,
		Board:   meta.Board,
	}

	var body []string
	switch v := q.(type) {
	case question.MCQ:
		doc.Language = string(v.Language)
		doc.Question = v.QuestionText
		for _, o := range v.Options {
			body = append(body, o.Text)
		}
		body = append(body, v.Explanation)
	case question.CQ:
		doc.Language = string(v.Language)
		doc.Question = v.QuestionText
		for _, p := range v.Parts {
			body = append(body, p.Text, p.Answer)
		}
	case question.SQ:
		doc.Language = string(v.Language)
		doc.Question = v.Question
		body = append(body, v.Answer)
	}
	doc.Question = normalizer.CleanText(doc.Question)
	doc.Body = normalizer.CleanText(strings.Join(body, " "))
	return doc, true
}

// IndexQuestions adds or replaces every record that carries an id
func (idx *Index) IndexQuestions(qs []question.Question) (int, error) {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	batch := idx.index.NewBatch()
	n := 0
	for _, q := range qs {
		doc, ok := NewDocument(q)
		if !ok {
			continue
		}
		if err := batch.Index(doc.ID, doc); err != nil {
			return 0, fmt.Errorf("failed to index question %s: %w", doc.ID, err)
		}
		n++
	}
	if err := idx.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("failed to execute batch index: %w", err)
	}
	return n, nil
}

// Rebuild clears the index and indexes qs
func (idx *Index) Rebuild(qs []question.Question) (int, error) {
	if err := idx.Clear(); err != nil {
		return 0, err
	}
	return idx.IndexQuestions(qs)
}

// Search runs a match query over question and body text with one edit of typo tolerance
func (idx *Index) Search(text string, f Filter, limit int) ([]Result, error) {
	match := bleve.NewMatchQuery(normalizer.CleanText(text))
	match.SetFuzziness(1)
	return idx.run(match, f, limit)
}

// SearchWithPrefix performs a prefix search over question text
func (idx *Index) SearchWithPrefix(prefix string, f Filter, limit int) ([]Result, error) {
	q := bleve.NewPrefixQuery(strings.ToLower(normalizer.CleanText(prefix)))
	q.SetField("question")
	return idx.run(q, f, limit)
}

func (idx *Index) run(q query.Query, f Filter, limit int) ([]Result, error) {
	idx.indexMu.RLock()
	defer idx.indexMu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	conj := bleve.NewConjunctionQuery(q)
	if f.Kind != "" {
		term := bleve.NewTermQuery(string(f.Kind))
		term.SetField("type")
		conj.AddQuery(term)
	}
	if f.Subject != "" {
		term := bleve.NewTermQuery(f.Subject)
		term.SetField("subject")
		conj.AddQuery(term)
	}

	req := bleve.NewSearchRequest(conj)
	req.Size = limit
	req.Fields = []string{"*"}

	res, err := idx.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return convertResults(res), nil
}

func convertResults(res *bleve.SearchResult) []Result {
	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		r := Result{ID: id, Score: hit.Score}
		if v, ok := hit.Fields["type"].(string); ok {
			r.Kind = question.Kind(v)
		}
		if v, ok := hit.Fields["subject"].(string); ok {
			r.Subject = v
		}
		if v, ok := hit.Fields["chapter"].(string); ok {
			r.Chapter = v
		}
		if v, ok := hit.Fields["question"].(string); ok {
			r.Question = v
		}
		results = append(results, r)
	}
	return results
}

// Clear removes all documents from the index
func (idx *Index) Clear() error {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	for {
		req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
		req.Size = 10000
		res, err := idx.index.Search(req)
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		if len(res.Hits) == 0 {
			return nil
		}

		batch := idx.index.NewBatch()
		for _, hit := range res.Hits {
			batch.Delete(hit.ID)
		}
		if err := idx.index.Batch(batch); err != nil {
			return fmt.Errorf("failed to delete documents: %w", err)
		}
	}
}

// Delete removes a single question from the index
func (idx *Index) Delete(id uuid.UUID) error {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	return idx.index.Delete(id.String())
}

// DocumentCount returns the number of indexed questions
func (idx *Index) DocumentCount() (uint64, error) {
	idx.indexMu.RLock()
	defer idx.indexMu.RUnlock()

	return idx.index.DocCount()
}

// Close closes the index
func (idx *Index) Close() error {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	if idx.index != nil {
		return idx.index.Close()
	}
	return nil
}
