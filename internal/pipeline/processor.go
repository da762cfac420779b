package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dunamismax/shrinkray/internal/codec"
	"github.com/dunamismax/shrinkray/internal/domain"
)

var ErrUnsupportedSourceType = errors.New("unsupported source_type")

type Request struct {
	JobID          string
	SourceType     string
	ObjectKey      string
	OutputFilename string
	Settings       map[string]any
}

type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

// Emitter writes the final encoded bytes and returns the output path.
type Emitter interface {
	Emit(ctx context.Context, req Request, filename string, data []byte, format codec.Format) (string, error)
}

// Processor runs one image end-to-end: resolve settings, decode,
// optimize or transform, strip metadata, encode, write. Every failure
// is folded into the result record; nothing propagates past Process.
type Processor struct {
	fetcher Fetcher
	emitter Emitter
	now     func() time.Time
}

func NewLocalProcessor(outputDir string) *Processor {
	return &Processor{
		fetcher: LocalFileFetcher{},
		emitter: LocalFileEmitter{OutputDir: outputDir},
		now:     time.Now,
	}
}

func NewProcessor(fetcher Fetcher, emitter Emitter) (*Processor, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if emitter == nil {
		return nil, errors.New("emitter is required")
	}
	return &Processor{fetcher: fetcher, emitter: emitter, now: time.Now}, nil
}

func (p *Processor) Process(ctx context.Context, req Request) domain.ProcessingResult {
	settings, err := domain.ResolveSettings(req.Settings)
	if err != nil {
		return domain.FailedResult(domain.ErrKindSettings, err)
	}

	data, err := p.fetcher.Fetch(ctx, req)
	if err != nil {
		return domain.FailedResult(domain.ErrKindFilesystem, err)
	}

	img, err := codec.Decode(data)
	if err != nil {
		return domain.FailedResult(domain.ErrKindDecode, err)
	}

	sourceFormat := img.SourceFormat()
	original := &domain.ImageInfo{
		Format:   reportFormat(sourceFormat),
		Width:    img.Width(),
		Height:   img.Height(),
		FileSize: int64(len(data)),
	}

	if settings.IsAuto() {
		settings = forceAutoDefaults(settings)
		optimized, quality, err := optimizeForSize(img, settings.TargetFileSize)
		if err != nil {
			return domain.FailedResult(domain.ErrKindEncode, err)
		}
		img = optimized
		settings.Compression.Quality = quality
		settings.Compression.Enabled = true
	} else {
		img, err = applyManual(img, settings)
		if err != nil {
			return domain.FailedResult(domain.ErrKindEncode, err)
		}
	}

	outputFormat := resolveFormat(settings.Format.OutputFormat, sourceFormat)

	if settings.Optimization.RemoveMetadata {
		img, err = img.Flatten()
		if err != nil {
			return domain.FailedResult(domain.ErrKindEncode, err)
		}
	}

	encoded, err := img.Encode(outputFormat, saveParams(outputFormat, settings, img.Animated()))
	if err != nil {
		return domain.FailedResult(domain.ErrKindEncode, err)
	}

	filename := strings.TrimSpace(req.OutputFilename)
	if filename == "" {
		filename = p.synthesizeFilename(req, outputFormat)
	}

	outputPath, err := p.emitter.Emit(ctx, req, filename, encoded, outputFormat)
	if err != nil {
		return domain.FailedResult(domain.ErrKindFilesystem, err)
	}

	return domain.ProcessingResult{
		Success:        true,
		OutputPath:     outputPath,
		OutputFilename: filename,
		Original:       original,
		Processed: &domain.ImageInfo{
			Format:   reportFormat(outputFormat),
			Width:    img.Width(),
			Height:   img.Height(),
			FileSize: int64(len(encoded)),
		},
		SettingsUsed:     &settings,
		CompressionRatio: domain.CompressionRatio(original.FileSize, int64(len(encoded))),
	}
}

// synthesizeFilename builds <stem>_<epoch-millis>.<ext> from the source
// object key, falling back to the job id when the key has no usable stem.
func (p *Processor) synthesizeFilename(req Request, format codec.Format) string {
	base := filepath.Base(strings.TrimSpace(req.ObjectKey))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "image_" + sanitizePathToken(req.JobID)
	}
	return fmt.Sprintf("%s_%d.%s", sanitizePathToken(stem), p.now().UnixMilli(), codec.Extension(format))
}

func reportFormat(f codec.Format) string {
	if f == "" {
		return ""
	}
	return strings.ToUpper(string(f))
}

type LocalFileFetcher struct{}

func (LocalFileFetcher) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if !strings.EqualFold(req.SourceType, domain.SourceTypeLocalFile) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSourceType, req.SourceType)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(req.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("read input file %s: %w", req.ObjectKey, err)
	}
	return data, nil
}

type LocalFileEmitter struct {
	OutputDir string
}

func (e LocalFileEmitter) Emit(_ context.Context, _ Request, filename string, data []byte, _ codec.Format) (string, error) {
	if strings.TrimSpace(e.OutputDir) == "" {
		return "", errors.New("output directory is required")
	}

	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	fullPath := filepath.Join(e.OutputDir, filename)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write output file: %w", err)
	}
	return fullPath, nil
}

func sanitizePathToken(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return "unknown"
	}

	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
