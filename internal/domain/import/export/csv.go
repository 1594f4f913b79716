package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/question-bank/internal/domain/question"
)

// WriteCSV writes qs to w with a header row
func WriteCSV(w io.Writer, qs []question.Question) error {
	rows, err := Rows(qs)
	if err != nil {
		return err
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// ReadCSV reads questions written by WriteCSV
func ReadCSV(r io.Reader) ([]question.Question, error) {
	var rows []Row
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return Questions(rows)
}
