// Package importer bulk-loads questions from spreadsheet files.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/munje/internal/database"
)

// Config defines the import configuration
type Config struct {
	FilePath    string // Path to the Excel or CSV file
	AuthorID    string // User the imported questions are attributed to
	TitleColumn string // Column with the question title
	TextColumn  string // Column with the question text
	LinkColumn  string // Column with the challenge link
	SheetName   string // Name of the sheet to import
	StartRow    int    // The row to start importing from (1-based index)
}

// DefaultConfig returns the default import configuration
func DefaultConfig() Config {
	return Config{
		TitleColumn: "A",
		TextColumn:  "B",
		LinkColumn:  "C",
		SheetName:   "Sheet1",
		StartRow:    2, // By default, start from the second row (skip header)
	}
}

// Result holds the outcome of an import operation
type Result struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// ImportQuestions imports questions from an Excel or CSV file
func ImportQuestions(ctx context.Context, config Config) (*Result, error) {
	if config.AuthorID == "" {
		return nil, fmt.Errorf("an author id is required for imported questions")
	}

	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		return importFromCSV(ctx, config)
	}
	return importFromExcel(ctx, config)
}

// importFromExcel imports questions from an Excel file
func importFromExcel(ctx context.Context, config Config) (*Result, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %v", config.SheetName, err)
	}

	result := &Result{Errors: make([]string, 0)}
	questions := database.NewQuestionRepository()

	titleIdx := columnIndex(config.TitleColumn)
	textIdx := columnIndex(config.TextColumn)
	linkIdx := columnIndex(config.LinkColumn)

	for i, row := range rows {
		rowNum := i + 1
		if rowNum < config.StartRow {
			continue
		}
		result.TotalProcessed++
		createRow(ctx, questions, config.AuthorID, rowNum,
			cell(row, titleIdx), cell(row, textIdx), cell(row, linkIdx), result)
	}
	return result, nil
}

// importFromCSV imports questions from a CSV file
func importFromCSV(ctx context.Context, config Config) (*Result, error) {
	f, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	result := &Result{Errors: make([]string, 0)}
	questions := database.NewQuestionRepository()

	titleIdx := columnIndex(config.TitleColumn)
	textIdx := columnIndex(config.TextColumn)
	linkIdx := columnIndex(config.LinkColumn)

	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %v", err)
		}
		rowNum++
		if rowNum < config.StartRow {
			continue
		}
		result.TotalProcessed++
		createRow(ctx, questions, config.AuthorID, rowNum,
			cell(row, titleIdx), cell(row, textIdx), cell(row, linkIdx), result)
	}
	return result, nil
}

func createRow(ctx context.Context, questions *database.QuestionRepository, authorID string, rowNum int, title, text, link string, result *Result) {
	title = strings.TrimSpace(title)
	text = strings.TrimSpace(text)
	link = strings.TrimSpace(link)

	if title == "" {
		result.Skipped++
		return
	}
	if text == "" && link == "" {
		result.Skipped++
		result.Errors = append(result.Errors, fmt.Sprintf("row %d: question %q has neither text nor link", rowNum, title))
		return
	}

	create := database.CreateQuestion{AuthorID: authorID, Title: title, Text: text}
	if link != "" {
		create.Link = &link
	}
	if _, err := questions.Create(ctx, create); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
		return
	}
	result.Created++
}

// columnIndex converts a spreadsheet column letter ("A", "B", ...) to a
// zero-based index
func columnIndex(column string) int {
	index, err := excelize.ColumnNameToNumber(column)
	if err != nil {
		return 0
	}
	return index - 1
}

func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return row[index]
}
