package reconciler

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"bol-processing-service/internal/models"
	"bol-processing-service/pkg/errors"

	"github.com/xuri/excelize/v2"
)

// ReadTabularFile loads an uploaded reconciliation file into a dataset. CSV
// and Excel workbooks are supported; every cell is read as a string.
func ReadTabularFile(path string) (*models.Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSVFile(path)
	case ".xlsx", ".xls":
		return readExcelFile(path)
	default:
		return nil, errors.ValidationError(errors.CodeUnsupportedExtension, "file", filepath.Ext(path), nil)
	}
}

func readCSVFile(path string) (*models.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		return nil, errors.FileError(errors.CodeFilePermission, path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, err)
	}
	if len(records) == 0 {
		return nil, errors.FileError(errors.CodeFileEmpty, path, nil)
	}

	return models.NewDataset(records[0], records[1:]), nil
}

func readExcelFile(path string) (*models.Dataset, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.FileError(errors.CodeFileEmpty, path, nil)
	}

	records, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, err)
	}
	if len(records) == 0 {
		return nil, errors.FileError(errors.CodeFileEmpty, path, nil)
	}

	return models.NewDataset(records[0], records[1:]), nil
}

// writeCSVFile persists a dataset to path via a temp file rename, so a failed
// write never leaves a truncated dataset behind
func writeCSVFile(ds *models.Dataset, path string) error {
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return errors.FileError(errors.CodeDirectoryError, tempPath, err)
	}

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(ds.Records()); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errors.Wrap(err, errors.CategoryFile, errors.CodeDirectoryError, "failed writing dataset")
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Wrap(err, errors.CategoryFile, errors.CodeDirectoryError, "failed closing dataset")
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.FileError(errors.CodeDirectoryError, path, err)
	}
	return nil
}
