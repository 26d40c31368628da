// Package aggregator groups per-page parse results by invoice number and
// resolves each invoice's authoritative totals.
//
// A single invoice may span several PDF pages and its TOTAL CARTONS line can
// appear on any of them. Pages are collected in arrival order, batched to cap
// peak memory, and totals are resolved against the last qualifying page, with
// a summation fallback when no page carries explicit totals.
package aggregator

import (
	"context"
	"strconv"

	"bol-processing-service/internal/models"
	"bol-processing-service/internal/tableparse"
	"bol-processing-service/pkg/errors"
	"bol-processing-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// DefaultPageBatchSize is how many pages are parsed per batch
const DefaultPageBatchSize = 10

// PageSource is one page of extracted PDF text awaiting aggregation
type PageSource struct {
	Name    string
	Content string
}

// Collection holds the aggregated invoices of one document in first-seen order
type Collection struct {
	order   []string
	records map[string]*models.InvoiceRecord
}

// Invoices returns the invoice records in first-seen order
func (c *Collection) Invoices() []*models.InvoiceRecord {
	out := make([]*models.InvoiceRecord, 0, len(c.order))
	for _, invoiceNo := range c.order {
		out = append(out, c.records[invoiceNo])
	}
	return out
}

// Get returns the record for an invoice number, or nil
func (c *Collection) Get(invoiceNo string) *models.InvoiceRecord {
	return c.records[invoiceNo]
}

// Len returns the number of distinct invoices collected
func (c *Collection) Len() int {
	return len(c.order)
}

func (c *Collection) add(invoiceNo string, page *models.PageExtraction) {
	record, ok := c.records[invoiceNo]
	if !ok {
		record = models.NewInvoiceRecord(invoiceNo)
		c.records[invoiceNo] = record
		c.order = append(c.order, invoiceNo)
	}
	record.AddPage(page)
}

// Aggregator collects page extractions into per-invoice records
type Aggregator struct {
	parser        *tableparse.Parser
	logger        logger.Logger
	pageBatchSize int
}

// NewAggregator creates an aggregator with the given page batch size; zero or
// negative selects the default
func NewAggregator(pageBatchSize int) *Aggregator {
	if pageBatchSize <= 0 {
		pageBatchSize = DefaultPageBatchSize
	}
	return &Aggregator{
		parser:        tableparse.NewParser(),
		logger:        logger.GetGlobalLogger().WithComponent("aggregator"),
		pageBatchSize: pageBatchSize,
	}
}

// Aggregate parses all page sources and groups the results by invoice number.
// Pages without an invoice number or table header are skipped and counted on
// the summary; they never fail the run.
func (a *Aggregator) Aggregate(ctx context.Context, sources []PageSource, summary *logger.RunSummary) (*Collection, error) {
	collection := &Collection{records: make(map[string]*models.InvoiceRecord)}

	for start := 0; start < len(sources); start += a.pageBatchSize {
		end := start + a.pageBatchSize
		if end > len(sources) {
			end = len(sources)
		}

		if err := ctx.Err(); err != nil {
			return nil, errors.InternalError(errors.CodeUnexpectedError, "page aggregation", err)
		}

		for _, source := range sources[start:end] {
			a.collectPage(collection, source, summary)
		}
	}

	a.logger.WithFields(logger.Fields{
		"pages":    len(sources),
		"invoices": collection.Len(),
	}).Info("Collected pages")

	return collection, nil
}

func (a *Aggregator) collectPage(collection *Collection, source PageSource, summary *logger.RunSummary) {
	summary.PagesProcessed++

	invoiceNo := a.parser.ExtractInvoiceNo(source.Content)
	if invoiceNo == "" {
		summary.PagesSkipped++
		summary.AddWarning("no invoice number found in %s", source.Name)
		a.logger.WithField("page", source.Name).Warn("Invoice number not found, skipping page")
		return
	}

	page, err := a.parser.ParsePage(source.Content)
	if err != nil {
		summary.PagesSkipped++
		summary.AddWarning("no shipment table found in %s", source.Name)
		a.logger.WithError(err).WithField("page", source.Name).Warn("Table header not found, skipping page")
		return
	}

	collection.add(invoiceNo, page)
	summary.RowsCollected += len(page.Rows)

	a.logger.WithFields(logger.Fields{
		"page":       source.Name,
		"invoice_no": invoiceNo,
		"rows":       len(page.Rows),
		"has_totals": page.HasTotals,
	}).Debug("Collected page")
}

// ResolveTotals determines the authoritative totals and BOL cube for an
// invoice. The last page (in arrival order) whose totals line carried both
// values wins; otherwise totals are computed by summing the individual rows
// and the BOL cube is taken from the first page that has one.
func (a *Aggregator) ResolveTotals(record *models.InvoiceRecord) (models.Totals, string) {
	for i := len(record.Pages) - 1; i >= 0; i-- {
		page := record.Pages[i]
		if page.HasTotals && page.Totals.IsComplete() {
			a.logger.WithFields(logger.Fields{
				"invoice_no": record.InvoiceNo,
				"page_index": i,
				"pieces":     page.Totals.Pieces,
				"weight":     page.Totals.Weight,
			}).Debug("Resolved totals from totals line")
			return page.Totals, page.BOLCube
		}
	}

	totals := a.sumTotals(record)

	bolCube := ""
	for _, page := range record.Pages {
		if page.BOLCube != "" {
			bolCube = page.BOLCube
			break
		}
	}

	a.logger.WithFields(logger.Fields{
		"invoice_no": record.InvoiceNo,
		"pieces":     totals.Pieces,
		"weight":     totals.Weight,
	}).Debug("No totals line found, computed totals from rows")

	return totals, bolCube
}

// sumTotals computes fallback totals across all rows of all pages. Rows whose
// values fail to parse are skipped with a warning. Weight keeps its decimal
// precision rather than being truncated to an integer.
func (a *Aggregator) sumTotals(record *models.InvoiceRecord) models.Totals {
	totalPieces := 0
	totalWeight := decimal.Zero

	for _, page := range record.Pages {
		for i := range page.Rows {
			row := &page.Rows[i]

			pieces, err := row.PiecesInt()
			if err != nil {
				a.logger.WithError(err).WithField("row", row.String()).Warn("Could not parse pieces, skipping row in summation")
			} else {
				totalPieces += pieces
			}

			weight, err := row.WeightDecimal()
			if err != nil {
				a.logger.WithError(err).WithField("row", row.String()).Warn("Could not parse weight, skipping row in summation")
			} else {
				totalWeight = totalWeight.Add(weight)
			}
		}
	}

	return models.Totals{
		Pieces: strconv.Itoa(totalPieces),
		Weight: totalWeight.String(),
	}
}
