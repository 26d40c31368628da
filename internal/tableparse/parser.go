// Package tableparse recovers tabular shipment data from the raw text of a
// single Bill-of-Lading PDF page.
//
// The parser assumes a fixed family of BOL templates: a header line carrying
// the CARTONS / STYLE / PIECES keywords, followed by whitespace-tokenized data
// rows, optionally terminated by a TOTAL CARTONS summary line or a SHIPPING
// INSTRUCTIONS block. Column alignment is never assumed; values are recovered
// from token order and content patterns.
package tableparse

import (
	"regexp"
	"strings"

	"bol-processing-service/internal/models"
	"bol-processing-service/pkg/errors"
	"bol-processing-service/pkg/logger"
)

const (
	headerKeywordCartons = "CARTONS"
	headerKeywordStyle   = "STYLE"
	headerKeywordPieces  = "PIECES"

	totalsMarker       = "TOTAL CARTONS"
	instructionsMarker = "SHIPPING INSTRUCTIONS:"
	invoiceMarker      = "BILL OF LADING"

	// invoiceScanLines is how many leading lines are searched for the
	// BILL OF LADING header carrying the invoice number.
	invoiceScanLines = 10

	// minTotalsTokens is the minimum token count of a well-formed totals
	// line, e.g. "30 TOTAL CARTONS 2,160 TOTAL PIECES TOTAL VOL / WGT 595.2".
	minTotalsTokens = 11
)

var (
	// Lines that can never be data rows even when they carry numbers.
	skipPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^CARTONS.*STYLE.*PIECES`),
		regexp.MustCompile(`(?i)^SHIPPING INSTRUCTIONS`),
		regexp.MustCompile(`(?i)^TOTAL CARTONS`),
		regexp.MustCompile(`(?i)^Page \d+`),
		regexp.MustCompile(`(?i)^BILL OF LADING`),
		regexp.MustCompile(`(?i)^[A-Z\s]+:$`),
	}

	leadingDigitPattern = regexp.MustCompile(`^\d+`)
	numberRunPattern    = regexp.MustCompile(`\d+`)
	numericTokenPattern = regexp.MustCompile(`^\d+$`)
	styleTokenPattern   = regexp.MustCompile(`\b[A-Z]+\d+\b|\b\d+[A-Z]+\b`)
	weightPattern       = regexp.MustCompile(`^\d+\.?\d*$`)
	cubePattern         = regexp.MustCompile(`\b\d{1,3}\.\d{2}\b`)
	invoicePattern      = regexp.MustCompile(`(?i)BILL OF LADING\s+([A-Z]\d+)`)
)

// Parser extracts shipment tables from page text
type Parser struct {
	logger logger.Logger
}

// NewParser creates a table parser
func NewParser() *Parser {
	return &Parser{
		logger: logger.GetGlobalLogger().WithComponent("tableparse"),
	}
}

// ExtractInvoiceNo scans the first lines of a page for the invoice number on
// the BILL OF LADING header. Returns the empty string when none is found.
func (p *Parser) ExtractInvoiceNo(content string) string {
	lines := strings.Split(content, "\n")
	limit := invoiceScanLines
	if len(lines) < limit {
		limit = len(lines)
	}

	for _, line := range lines[:limit] {
		if !strings.Contains(strings.ToUpper(line), invoiceMarker) {
			continue
		}
		if m := invoicePattern.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

// ParsePage extracts the shipment table from one page of text. A page without
// a recognizable table header yields a parse error with CodeNoTableHeader,
// which callers treat as a recoverable per-page condition.
func (p *Parser) ParsePage(content string) (*models.PageExtraction, error) {
	lines := strings.Split(content, "\n")

	headerIdx := p.findTableHeader(lines)
	if headerIdx < 0 {
		return nil, errors.ParseError(errors.CodeNoTableHeader, "page text", nil)
	}

	page := &models.PageExtraction{
		BOLCube: p.extractBOLCube(lines),
	}

	for _, line := range lines[headerIdx+1:] {
		upper := strings.ToUpper(line)

		if strings.Contains(upper, totalsMarker) {
			page.HasTotals = true
			tokens := strings.Fields(line)
			if len(tokens) >= minTotalsTokens {
				page.Totals.Pieces = models.CleanNumber(tokens[3])
				page.Totals.Weight = models.CleanNumber(tokens[len(tokens)-1])
			}
			p.logger.WithFields(logger.Fields{
				"pieces": page.Totals.Pieces,
				"weight": page.Totals.Weight,
			}).Debug("Found totals line")
			break
		}

		if strings.Contains(upper, instructionsMarker) {
			break
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if !isDataRow(trimmed) {
			p.logger.WithField("line", trimmed).Debug("Skipped non-data line")
			continue
		}

		row, ok := parseRow(trimmed)
		if !ok {
			p.logger.WithField("line", trimmed).Debug("Discarded malformed row")
			continue
		}
		page.Rows = append(page.Rows, row)
	}

	p.logger.WithFields(logger.Fields{
		"rows":       len(page.Rows),
		"has_totals": page.HasTotals,
		"bol_cube":   page.BOLCube,
	}).Debug("Parsed page")

	return page, nil
}

// findTableHeader returns the index of the first line carrying all three
// header keywords, or -1
func (p *Parser) findTableHeader(lines []string) int {
	for i, line := range lines {
		upper := strings.ToUpper(line)
		if strings.Contains(upper, headerKeywordCartons) &&
			strings.Contains(upper, headerKeywordStyle) &&
			strings.Contains(upper, headerKeywordPieces) {
			return i
		}
	}
	return -1
}

// extractBOLCube scans backward from the SHIPPING INSTRUCTIONS marker for the
// first token shaped like a cube value
func (p *Parser) extractBOLCube(lines []string) string {
	for i, line := range lines {
		if !strings.Contains(strings.ToUpper(line), instructionsMarker) {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if m := cubePattern.FindString(strings.TrimSpace(lines[j])); m != "" {
				return m
			}
		}
		break
	}
	return ""
}

// isDataRow classifies a trimmed, non-blank line as a shipment data row.
// Extracted text from scanned BOLs is noisy, so three progressively looser
// criteria are applied after known non-data lines are rejected.
func isDataRow(line string) bool {
	line = strings.Join(strings.Fields(line), " ")
	if line == "" {
		return false
	}

	for _, pattern := range skipPatterns {
		if pattern.MatchString(line) {
			return false
		}
	}

	// Classic data rows start with a carton count.
	if leadingDigitPattern.MatchString(line) {
		return true
	}

	// Rows with formatting damage still carry several numbers.
	if len(numberRunPattern.FindAllString(line, -1)) >= 3 {
		return true
	}

	// A style-like token plus a numeric token among enough fields.
	if styleTokenPattern.MatchString(line) {
		tokens := strings.Fields(line)
		if len(tokens) >= 3 {
			for _, token := range tokens {
				if numericTokenPattern.MatchString(token) {
					return true
				}
			}
		}
	}

	return false
}

// parseRow extracts the typed fields from a qualifying line. The weight is
// the last token that is fully numeric after comma stripping; rows without
// one are discarded rather than emitted malformed.
func parseRow(line string) (models.ParsedRow, bool) {
	tokens := strings.Fields(line)
	if len(tokens) < 3 {
		return models.ParsedRow{}, false
	}

	row := models.ParsedRow{
		Cartons: models.CleanNumber(tokens[0]),
		Style:   tokens[1],
		Pieces:  models.CleanNumber(tokens[2]),
	}

	for i := len(tokens) - 1; i >= 0; i-- {
		candidate := models.CleanNumber(tokens[i])
		if weightPattern.MatchString(candidate) {
			row.Weight = candidate
			break
		}
	}

	if row.Weight == "" {
		return models.ParsedRow{}, false
	}
	return row, true
}
