package domain

import "math"

// Error kinds reported on a failed ProcessingResult.
const (
	ErrKindDecode     = "decode_failure"
	ErrKindEncode     = "encode_failure"
	ErrKindFilesystem = "filesystem_failure"
	ErrKindSettings   = "invalid_settings"
)

// ImageInfo describes one side of a processing run.
type ImageInfo struct {
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	FileSize int64  `json:"fileSize"`
}

// ProcessingResult is the terminal record of one run. It is built once
// by the orchestrator and never mutated afterwards. A failed run carries
// Error and ErrorKind; everything else is left zero.
type ProcessingResult struct {
	Success          bool       `json:"success"`
	OutputPath       string     `json:"outputPath,omitempty"`
	OutputFilename   string     `json:"outputFilename,omitempty"`
	Original         *ImageInfo `json:"original,omitempty"`
	Processed        *ImageInfo `json:"processed,omitempty"`
	SettingsUsed     *Settings  `json:"settingsUsed,omitempty"`
	CompressionRatio float64    `json:"compressionRatio"`
	Error            string     `json:"error,omitempty"`
	ErrorKind        string     `json:"errorKind,omitempty"`
}

// FailedResult wraps an error into the failure branch of the record.
func FailedResult(kind string, err error) ProcessingResult {
	return ProcessingResult{
		Success:   false,
		Error:     err.Error(),
		ErrorKind: kind,
	}
}

// CompressionRatio returns the percent reduction from original to final
// byte size, rounded to two decimals. A zero-byte original yields 0.
func CompressionRatio(originalSize, finalSize int64) float64 {
	if originalSize <= 0 {
		return 0
	}
	ratio := (1 - float64(finalSize)/float64(originalSize)) * 100
	return math.Round(ratio*100) / 100
}
