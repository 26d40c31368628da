package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"bol-processing-service/cmd/bolproc/config"
	"bol-processing-service/internal/aggregator"
	"bol-processing-service/internal/combiner"
	"bol-processing-service/internal/emitter"
	"bol-processing-service/internal/pdftext"
	"bol-processing-service/internal/workspace"
	"bol-processing-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the process command
var (
	pdfFile       string
	pagesDir      string
	workspaceRoot string
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Extract shipment data from a bill of lading",
	Long: `Process extracts the shipment table from a bill of lading, writes one
CSV per invoice, and merges them into a single combined CSV inside a new
session directory.

The input is either a PDF document or a directory of page text files named
"<page>.txt".

Examples:
  # Process a PDF document
  bolproc process --pdf shipment.pdf

  # Process pre-extracted page text files
  bolproc process --pages-dir ./pages

  # Keep sessions under a custom root
  bolproc process --pdf shipment.pdf --workspace /var/lib/bolproc`,

	PreRunE: validateProcessFlags,
	RunE:    runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&pdfFile, "pdf", "p", "", "path to bill of lading PDF")
	processCmd.Flags().StringVar(&pagesDir, "pages-dir", "", "directory of page text files (alternative to --pdf)")
	processCmd.Flags().StringVarP(&workspaceRoot, "workspace", "w", "", "root directory for session folders")

	viper.BindPFlag("pdf", processCmd.Flags().Lookup("pdf"))
	viper.BindPFlag("pages-dir", processCmd.Flags().Lookup("pages-dir"))
}

// resolveWorkspaceRoot prefers the --workspace flag over config file and
// environment settings. The flag is shared by every command touching
// sessions, so it cannot be viper-bound per command.
func resolveWorkspaceRoot() string {
	if workspaceRoot != "" {
		return workspaceRoot
	}
	return config.GetWorkspaceRoot()
}

func validateProcessFlags(cmd *cobra.Command, args []string) error {
	pdfFile = viper.GetString("pdf")
	pagesDir = viper.GetString("pages-dir")

	if pdfFile == "" && pagesDir == "" {
		return fmt.Errorf("either --pdf or --pages-dir is required")
	}
	if pdfFile != "" && pagesDir != "" {
		return fmt.Errorf("--pdf and --pages-dir are mutually exclusive")
	}

	if pdfFile != "" {
		if err := validateFileExists(pdfFile, "bill of lading PDF"); err != nil {
			return err
		}
	}
	if pagesDir != "" {
		info, err := os.Stat(pagesDir)
		if err != nil {
			return fmt.Errorf("pages directory does not exist: %s", pagesDir)
		}
		if !info.IsDir() {
			return fmt.Errorf("pages directory is not a directory: %s", pagesDir)
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := logger.GetGlobalLogger()
	summary := logger.NewRunSummary()

	session, err := workspace.NewSession(resolveWorkspaceRoot())
	if err != nil {
		return err
	}
	log.WithFields(logger.Fields{"session": session.ID}).Info("Created session")

	// Stage 1: page text. Either extract from the PDF into the session, or
	// read a prepared directory of page files.
	sourceDir := pagesDir
	if pdfFile != "" {
		extractor := pdftext.NewExtractor(log)
		extractor.RemoveSource = false
		pages, err := extractor.ExtractToDir(ctx, pdfFile, session.Path)
		if err != nil {
			return err
		}
		log.WithFields(logger.Fields{"pages": pages}).Info("PDF extraction complete")
		sourceDir = session.Path
	}

	sources, err := loadPageSources(sourceDir)
	if err != nil {
		return err
	}

	// Stage 2: aggregate pages into invoice records.
	pageBatch, err := config.GetPageBatchSize()
	if err != nil {
		return err
	}
	agg := aggregator.NewAggregator(pageBatch)
	collection, err := agg.Aggregate(ctx, sources, summary)
	if err != nil {
		return err
	}

	// Stage 3: one CSV per invoice.
	emit := emitter.NewEmitter()
	for _, record := range collection.Invoices() {
		if record.RowCount() == 0 {
			summary.InvoicesSkipped++
			summary.AddWarning("no rows collected for invoice %s", record.InvoiceNo)
			continue
		}
		totals, bolCube := agg.ResolveTotals(record)

		file, err := os.Create(session.FilePath(record.InvoiceNo + ".csv"))
		if err != nil {
			return err
		}
		rows, err := emit.Emit(record, totals, bolCube, file)
		file.Close()
		if err != nil {
			return err
		}
		summary.InvoicesEmitted++
		summary.RowsWritten += rows
	}

	// Stage 4: fold the per-invoice CSVs into the combined file.
	combineBatch, err := config.GetCombineBatchSize()
	if err != nil {
		return err
	}
	combinedName := config.GetCombinedName()
	totalRows, err := combiner.NewCombiner(combineBatch).Combine(session.Path, combinedName)
	if err != nil {
		return err
	}

	summary.Log(log)
	fmt.Printf("Session: %s\n", session.ID)
	fmt.Printf("Combined file: %s (%d rows)\n", session.FilePath(combinedName), totalRows)
	for _, warning := range summary.Warnings() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}

	return nil
}

// loadPageSources reads every "<n>.txt" page file under dir, ordered by page
// number so invoices spanning pages 9 and 10 stay contiguous.
func loadPageSources(dir string) ([]aggregator.PageSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type pageFile struct {
		num  int
		name string
	}
	var pages []pageFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		num, err := strconv.Atoi(base)
		if err != nil {
			continue
		}
		pages = append(pages, pageFile{num: num, name: entry.Name()})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].num < pages[j].num })

	sources := make([]aggregator.PageSource, 0, len(pages))
	for _, page := range pages {
		content, err := os.ReadFile(filepath.Join(dir, page.name))
		if err != nil {
			return nil, err
		}
		sources = append(sources, aggregator.PageSource{Name: page.name, Content: string(content)})
	}
	return sources, nil
}
