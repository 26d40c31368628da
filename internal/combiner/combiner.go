// Package combiner folds the per-invoice CSV files of a workspace into one
// combined dataset. Sources are consumed in fixed-size batches so that a
// document with many invoices never requires the whole dataset in memory, and
// each source file is deleted as soon as it has been folded in.
package combiner

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"

	"bol-processing-service/pkg/errors"
	"bol-processing-service/pkg/logger"
)

// DefaultBatchSize is how many source files are read per batch
const DefaultBatchSize = 5

// Combiner merges per-invoice CSV files into a single output file
type Combiner struct {
	logger    logger.Logger
	batchSize int
}

// NewCombiner creates a combiner with the given file batch size; zero or
// negative selects the default
func NewCombiner(batchSize int) *Combiner {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Combiner{
		logger:    logger.GetGlobalLogger().WithComponent("combiner"),
		batchSize: batchSize,
	}
}

// Combine merges every CSV file in dir (except the output file itself) into
// outputName within the same directory. The header is written once, from the
// first readable source. The combined file only replaces any previous one
// after the merge completes, so a failed run leaves no partial output behind.
// Returns the number of data rows written.
func (c *Combiner) Combine(dir, outputName string) (int, error) {
	sources, err := c.listSources(dir, outputName)
	if err != nil {
		return 0, err
	}
	if len(sources) == 0 {
		return 0, errors.MergeError(errors.CodeNoInputFiles, "combine", nil)
	}

	c.logger.WithFields(logger.Fields{
		"sources":    len(sources),
		"batch_size": c.batchSize,
	}).Info("Combining invoice files")

	outputPath := filepath.Join(dir, outputName)
	tempPath := outputPath + ".tmp"

	out, err := os.Create(tempPath)
	if err != nil {
		return 0, errors.FileError(errors.CodeDirectoryError, tempPath, err)
	}

	writer := csv.NewWriter(out)
	headerWritten := false
	totalRows := 0
	var foldErrors []*errors.PipelineError

	for start := 0; start < len(sources); start += c.batchSize {
		end := start + c.batchSize
		if end > len(sources) {
			end = len(sources)
		}

		for _, source := range sources[start:end] {
			rows, err := c.foldSource(source, writer, &headerWritten)
			if err != nil {
				c.logger.WithError(err).WithField("source", source).Warn("Skipping unreadable source file")
				foldErrors = append(foldErrors, errors.WrapIfNeeded(err, errors.CategoryParse, errors.CodeInvalidFormat, source))
				continue
			}
			totalRows += rows
		}

		writer.Flush()
	}

	if err := writer.Error(); err != nil {
		out.Close()
		os.Remove(tempPath)
		return 0, errors.Wrap(err, errors.CategoryFile, errors.CodeDirectoryError, "failed writing combined output")
	}
	if err := out.Close(); err != nil {
		os.Remove(tempPath)
		return 0, errors.Wrap(err, errors.CategoryFile, errors.CodeDirectoryError, "failed closing combined output")
	}

	if totalRows == 0 {
		os.Remove(tempPath)
		if len(foldErrors) > 0 {
			return 0, errors.NewErrorSummary(foldErrors)
		}
		return 0, errors.MergeError(errors.CodeNoInputFiles, "combine", nil).
			WithSuggestion("no source file yielded any rows")
	}

	if err := os.Rename(tempPath, outputPath); err != nil {
		os.Remove(tempPath)
		return 0, errors.FileError(errors.CodeDirectoryError, outputPath, err)
	}

	c.logger.WithFields(logger.Fields{
		"rows":   totalRows,
		"output": outputPath,
	}).Info("Combined invoice files")

	return totalRows, nil
}

// listSources returns the CSV files to fold, sorted by name for deterministic
// output order
func (c *Combiner) listSources(dir, outputName string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.FileError(errors.CodeDirectoryError, dir, err)
	}

	var sources []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != ".csv" || name == outputName {
			continue
		}
		sources = append(sources, filepath.Join(dir, name))
	}
	sort.Strings(sources)
	return sources, nil
}

// foldSource appends one source file's data rows to the writer and deletes
// the source afterwards. Returns the number of data rows appended.
func (c *Combiner) foldSource(source string, writer *csv.Writer, headerWritten *bool) (int, error) {
	file, err := os.Open(source)
	if err != nil {
		return 0, err
	}

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	file.Close()
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	if !*headerWritten {
		if err := writer.Write(records[0]); err != nil {
			return 0, err
		}
		*headerWritten = true
	}

	rows := 0
	for _, record := range records[1:] {
		if err := writer.Write(record); err != nil {
			return rows, err
		}
		rows++
	}

	if err := os.Remove(source); err != nil {
		c.logger.WithError(err).WithField("source", source).Warn("Could not remove folded source file")
	}

	return rows, nil
}
