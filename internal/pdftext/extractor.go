// Package pdftext turns a bill of lading PDF into one plain text file per
// page, which is the input format the table parser works from.
package pdftext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bol-processing-service/pkg/errors"
	"bol-processing-service/pkg/logger"

	"github.com/ledongthuc/pdf"
)

// emptyPagePlaceholder is written for pages that yield no text, so page
// numbering stays aligned with the source document.
const emptyPagePlaceholder = "[NO TEXT CONTENT]"

// Extractor splits PDFs into per-page text files.
type Extractor struct {
	logger logger.Logger

	// RemoveSource deletes the PDF after all pages are written.
	RemoveSource bool
}

func NewExtractor(log logger.Logger) *Extractor {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Extractor{logger: log, RemoveSource: true}
}

// ExtractToDir writes one "<n>.txt" file per PDF page into outputDir, where n
// is the 1-based page number. It returns the number of pages written. A page
// that cannot be read is logged and written as a placeholder; the rest of the
// document is still processed.
func (e *Extractor) ExtractToDir(ctx context.Context, pdfPath, outputDir string) (int, error) {
	file, reader, err := pdf.Open(pdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.FileError(errors.CodeFileNotFound, pdfPath, err)
		}
		return 0, errors.ParseError(errors.CodeInvalidFormat, pdfPath, err)
	}
	defer file.Close()

	numPages := reader.NumPage()
	if numPages == 0 {
		return 0, errors.FileError(errors.CodeFileEmpty, pdfPath, nil)
	}

	e.logger.WithFields(logger.Fields{
		"pdf":   filepath.Base(pdfPath),
		"pages": numPages,
	}).Info("Extracting PDF pages")

	written := 0
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		text := e.pageText(reader, pageNum)
		if strings.TrimSpace(text) == "" {
			text = emptyPagePlaceholder
		}

		pagePath := filepath.Join(outputDir, fmt.Sprintf("%d.txt", pageNum))
		if err := os.WriteFile(pagePath, []byte(text), 0o644); err != nil {
			return written, errors.FileError(errors.CodeDirectoryError, pagePath, err)
		}
		written++
	}

	if e.RemoveSource {
		if err := os.Remove(pdfPath); err != nil {
			e.logger.WithError(err).Warn("Could not remove source PDF")
		}
	}

	return written, nil
}

// pageText renders a single page as newline-separated rows of space-joined
// words. Extraction failures degrade to an empty page rather than aborting
// the document.
func (e *Extractor) pageText(reader *pdf.Reader, pageNum int) string {
	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return ""
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		e.logger.WithFields(logger.Fields{"page": pageNum}).WithError(err).Warn("Page text extraction failed")
		return ""
	}

	var builder strings.Builder
	for _, row := range rows {
		words := make([]string, 0, len(row.Content))
		for _, word := range row.Content {
			words = append(words, word.S)
		}
		builder.WriteString(strings.Join(words, " "))
		builder.WriteString("\n")
	}
	return builder.String()
}
