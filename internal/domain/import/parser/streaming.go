package parser

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

// Document is one pasted blob queued for parsing
type Document struct {
	Index    int
	Kind     question.Kind
	Language question.Language
	Text     string
}

// StreamResult is sent through the channel for each parsed document
type StreamResult struct {
	Index   int
	Result  *ParseResult
	Err     error
	Elapsed time.Duration
}

// StreamStats tracks parsing statistics
type StreamStats struct {
	Documents int64
	Records   int64
	Empty     int64
	Failed    int64
}

// StreamingParser parses many documents through a worker pool.
// Scanners share no state, so documents are parsed fully in parallel.
type StreamingParser struct {
	workerCount int
}

// NewStreamingParser creates a streaming parser with configurable worker count
func NewStreamingParser(workers int) *StreamingParser {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &StreamingParser{workerCount: workers}
}

// ParseStream parses docs and streams one result per document. Results arrive in
// completion order; Index ties each back to its document. The results channel is
// closed when every document is done or ctx is cancelled, after which a single
// StreamStats value is sent.
func (p *StreamingParser) ParseStream(ctx context.Context, docs []Document) (<-chan StreamResult, <-chan StreamStats) {
	results := make(chan StreamResult, p.workerCount*4)
	statsChan := make(chan StreamStats, 1)

	go p.parseAsync(ctx, docs, results, statsChan)

	return results, statsChan
}

func (p *StreamingParser) parseAsync(ctx context.Context, docs []Document, results chan<- StreamResult, statsChan chan<- StreamStats) {
	defer close(statsChan)

	jobs := make(chan Document, p.workerCount*2)
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		stats StreamStats
	)

	for i := 0; i < p.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				start := time.Now()
				res, err := Parse(doc.Kind, doc.Text, doc.Language)
				elapsed := time.Since(start)

				mu.Lock()
				stats.Documents++
				switch {
				case err != nil:
					stats.Failed++
				case len(res.Questions) == 0:
					stats.Empty++
				default:
					stats.Records += int64(len(res.Questions))
				}
				mu.Unlock()

				select {
				case results <- StreamResult{Index: doc.Index, Result: res, Err: err, Elapsed: elapsed}:
				case <-ctx.Done():
				}
			}
		}()
	}

dispatch:
	for _, doc := range docs {
		select {
		case jobs <- doc:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	statsChan <- stats
}

// ParseAll parses docs concurrently and returns the results in input order.
// The first parse error is returned after all workers finish.
func (p *StreamingParser) ParseAll(ctx context.Context, docs []Document) ([]*ParseResult, error) {
	ordered, err := p.ParseOrdered(ctx, docs)
	if err != nil {
		return nil, err
	}
	out := make([]*ParseResult, len(ordered))
	for i, r := range ordered {
		out[i] = r.Result
	}
	return out, nil
}

// ParseOrdered is ParseAll keeping each document's StreamResult, so callers
// also see how long every document took.
func (p *StreamingParser) ParseOrdered(ctx context.Context, docs []Document) ([]StreamResult, error) {
	queued := make([]Document, len(docs))
	for i, d := range docs {
		d.Index = i
		queued[i] = d
	}

	out := make([]StreamResult, len(docs))
	results, stats := p.ParseStream(ctx, queued)
	var firstErr error
	for r := range results {
		if r.Err != nil && firstErr == nil {
			firstErr = r.Err
		}
		out[r.Index] = r
	}
	<-stats

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
