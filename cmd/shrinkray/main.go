package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dunamismax/shrinkray/internal/codec"
	"github.com/dunamismax/shrinkray/internal/domain"
	"github.com/dunamismax/shrinkray/internal/id"
	"github.com/dunamismax/shrinkray/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	flagSettings       string
	flagOutputDir      string
	flagOutputFilename string
)

func main() {
	root := &cobra.Command{
		Use:   "shrinkray <image>",
		Short: "Optimize a single image from the command line",
		Long: `Optimize a single image without the API or worker.

The image is processed with the default settings (auto mode, WEBP
output, 150 KiB target) unless overridden with --settings, which takes
a JSON object merged over the defaults. Prefix the value with @ to read
the JSON from a file.

The processing result is printed as JSON. The exit status is zero only
when processing succeeded.`,
		Args: cobra.ExactArgs(1),
		RunE: run,
	}

	root.Flags().StringVar(&flagSettings, "settings", "", "JSON settings override, or @path to a JSON file")
	root.Flags().StringVar(&flagOutputDir, "output-dir", ".", "directory for the optimized image")
	root.Flags().StringVar(&flagOutputFilename, "output-filename", "", "override the generated output filename")
	root.SilenceUsage = true

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	overrides, err := loadSettings(flagSettings)
	if err != nil {
		return err
	}

	if err := codec.Startup(); err != nil {
		return fmt.Errorf("codec startup: %w", err)
	}
	defer codec.Shutdown()

	processor := pipeline.NewLocalProcessor(flagOutputDir)
	result := processor.Process(cmd.Context(), pipeline.Request{
		JobID:          id.New(),
		SourceType:     domain.SourceTypeLocalFile,
		ObjectKey:      args[0],
		OutputFilename: flagOutputFilename,
		Settings:       overrides,
	})

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("processing failed (%s): %s", result.ErrorKind, result.Error)
	}
	return nil
}

func loadSettings(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if strings.HasPrefix(raw, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(raw, "@"))
		if err != nil {
			return nil, fmt.Errorf("read settings file: %w", err)
		}
		raw = string(data)
	}

	var overrides map[string]any
	if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
		return nil, fmt.Errorf("parse settings JSON: %w", err)
	}
	return overrides, nil
}
