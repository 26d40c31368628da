// Package config builds component configurations for the bolproc CLI from
// viper-managed settings.
package config

import (
	"fmt"

	"bol-processing-service/internal/aggregator"
	"bol-processing-service/internal/combiner"
	"bol-processing-service/internal/workspace"
	"bol-processing-service/pkg/logger"

	"github.com/spf13/viper"
)

// Default output name for the merged per-invoice data.
const DefaultCombinedName = "combined_data.csv"

// CreateLoggerConfig builds the logger configuration, honoring the global
// verbose flag and any log settings from the config file.
func CreateLoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()

	if viper.GetBool("verbose") {
		cfg.Level = logger.DebugLevel
	}
	if level := viper.GetString("log.level"); level != "" {
		cfg.Level = logger.Level(level)
	}
	if format := viper.GetString("log.format"); format != "" {
		cfg.Format = logger.Format(format)
	}
	if file := viper.GetString("log.file"); file != "" {
		cfg.Output = logger.FileOutput
		cfg.File = file
	}

	return cfg
}

// GetWorkspaceRoot returns the directory session folders live under.
func GetWorkspaceRoot() string {
	if root := viper.GetString("workspace.root"); root != "" {
		return root
	}
	return workspace.DefaultRoot
}

// GetCombinedName returns the filename of the merged CSV.
func GetCombinedName() string {
	if name := viper.GetString("output.combined_name"); name != "" {
		return name
	}
	return DefaultCombinedName
}

// GetPageBatchSize returns how many page files are aggregated per batch.
func GetPageBatchSize() (int, error) {
	size := viper.GetInt("processing.page_batch_size")
	if size == 0 {
		return aggregator.DefaultPageBatchSize, nil
	}
	if size < 0 {
		return 0, fmt.Errorf("page batch size must be positive, got %d", size)
	}
	return size, nil
}

// GetCombineBatchSize returns how many CSV files are folded per batch when
// building the combined file.
func GetCombineBatchSize() (int, error) {
	size := viper.GetInt("processing.combine_batch_size")
	if size == 0 {
		return combiner.DefaultBatchSize, nil
	}
	if size < 0 {
		return 0, fmt.Errorf("combine batch size must be positive, got %d", size)
	}
	return size, nil
}
