// Package pack aggregates handcrafted benchmark examples into
// distributable artifacts: a TSV with inlined board images and a set
// of per-case JSON files.
package pack

import (
	"bytes"
	"context"
	"crypto/md5" // #nosec G401 -- checksum sidecar, not a security boundary
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

// Example is one handcrafted benchmark case. Every example carries a
// rendered board image referenced by URL.
type Example struct {
	ID       string
	Question string
	Answer   string
	ImageURL string
}

// requiredKeys must all be present in an example file for it to be
// included in the TSV.
var requiredKeys = []string{"ID", "Question", "Answer", "game_state_url"}

// TSVBuilder downloads each example's board image, optionally resizes
// it, and writes one TSV row per example with the image inlined as
// base64 PNG.
type TSVBuilder struct {
	HTTPClient  *http.Client
	MaxImageDim int
	Logger      *zap.Logger
}

// NewTSVBuilder returns a builder with the given HTTP timeout and
// resize bound. maxImageDim <= 0 disables resizing and the original
// PNG bytes pass through untouched.
func NewTSVBuilder(timeout time.Duration, maxImageDim int) *TSVBuilder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TSVBuilder{
		HTTPClient:  &http.Client{Timeout: timeout},
		MaxImageDim: maxImageDim,
		Logger:      zap.NewNop(),
	}
}

// GatherExamples loads every *.json file in dir (non-recursive, sorted
// by filename). Files with invalid JSON or missing required keys are
// logged and skipped rather than failing the run.
func GatherExamples(dir string, logger *zap.Logger) ([]Example, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list examples in %s: %w", dir, err)
	}
	sort.Strings(matches)

	var examples []Example
	for _, path := range matches {
		raw, err := os.ReadFile(path) // #nosec G304 -- operator-supplied input dir
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			logger.Warn("skipping example with invalid JSON",
				zap.String("file", filepath.Base(path)),
				zap.Error(err))
			continue
		}
		var missing []string
		for _, key := range requiredKeys {
			if _, ok := fields[key]; !ok {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			logger.Warn("skipping example with missing keys",
				zap.String("file", filepath.Base(path)),
				zap.Strings("missing", missing))
			continue
		}
		examples = append(examples, Example{
			ID:       fieldString(fields["ID"]),
			Question: fieldString(fields["Question"]),
			Answer:   fieldString(fields["Answer"]),
			ImageURL: fieldString(fields["game_state_url"]),
		})
	}
	return examples, nil
}

// BuildTSV writes one row per example to outPath with columns
// index, image, question, answer, split. The image column is a JSON
// list holding a single base64-encoded PNG. When dumpDir is non-empty
// each fetched PNG is also written there as {ID}.png. Examples whose
// image cannot be fetched or decoded are logged and omitted.
func (b *TSVBuilder) BuildTSV(ctx context.Context, examples []Example, outPath, split, dumpDir string) (int, error) {
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if dumpDir != "" {
		if err := os.MkdirAll(dumpDir, 0o755); err != nil {
			return 0, fmt.Errorf("create dump dir %s: %w", dumpDir, err)
		}
	}

	out, err := os.Create(outPath) // #nosec G304 -- operator-supplied output path
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close() // nolint:errcheck

	w := csv.NewWriter(out)
	w.Comma = '\t'
	if err := w.Write([]string{"index", "image", "question", "answer", "split"}); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	written := 0
	for _, ex := range examples {
		row, err := b.buildRow(ctx, ex, split, dumpDir)
		if err != nil {
			logger.Error("packing example failed",
				zap.String("id", ex.ID),
				zap.Error(err))
			continue
		}
		if err := w.Write(row); err != nil {
			return written, fmt.Errorf("write row for %s: %w", ex.ID, err)
		}
		written++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return written, fmt.Errorf("flush %s: %w", outPath, err)
	}
	return written, nil
}

func (b *TSVBuilder) buildRow(ctx context.Context, ex Example, split, dumpDir string) ([]string, error) {
	pngBytes, err := b.fetchPNG(ctx, ex.ImageURL)
	if err != nil {
		return nil, err
	}
	if b.MaxImageDim > 0 {
		pngBytes, err = resizePNG(pngBytes, b.MaxImageDim)
		if err != nil {
			return nil, err
		}
	}
	if dumpDir != "" {
		dumpPath := filepath.Join(dumpDir, ex.ID+".png")
		if err := os.WriteFile(dumpPath, pngBytes, 0o644); err != nil {
			return nil, fmt.Errorf("dump %s: %w", dumpPath, err)
		}
	}

	encoded := base64.StdEncoding.EncodeToString(pngBytes)
	imageCol, err := json.Marshal([]string{encoded})
	if err != nil {
		return nil, fmt.Errorf("encode image column: %w", err)
	}
	return []string{ex.ID, string(imageCol), ex.Question, ex.Answer, split}, nil
}

func (b *TSVBuilder) fetchPNG(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasSuffix(strings.ToLower(url), ".png") {
		logger := b.Logger
		if logger == nil {
			logger = zap.NewNop()
		}
		logger.Warn("image URL does not end with .png", zap.String("url", url))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := b.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image body from %s: %w", url, err)
	}
	return body, nil
}

// resizePNG re-encodes pngBytes so the longest side is at most
// longestSide pixels. Images already within bounds are still
// re-encoded so callers get stable PNG output regardless of the
// source encoder.
func resizePNG(pngBytes []byte, longestSide int) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}

	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", width, height)
	}

	longest := width
	if height > longest {
		longest = height
	}
	scale := float64(longestSide) / float64(longest)
	if scale > 1 {
		scale = 1
	}
	newW := int(float64(width) * scale)
	newH := int(float64(height) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteMD5 writes an md5sum-style sidecar for filePath: the hex digest,
// two spaces, and the file's base name.
func WriteMD5(filePath, md5Path string) error {
	f, err := os.Open(filePath) // #nosec G304 -- operator-supplied path
	if err != nil {
		return fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close() // nolint:errcheck

	h := md5.New() // #nosec G401
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hash %s: %w", filePath, err)
	}
	line := fmt.Sprintf("%x  %s\n", h.Sum(nil), filepath.Base(filePath))
	if err := os.WriteFile(md5Path, []byte(line), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", md5Path, err)
	}
	return nil
}

// DefaultDumpDir derives the image dump directory from the TSV path,
// e.g. bench.tsv becomes bench_images.
func DefaultDumpDir(outPath string) string {
	stem := strings.TrimSuffix(outPath, filepath.Ext(outPath))
	return stem + "_images"
}

// DefaultMD5Path derives the checksum sidecar path from the TSV path.
func DefaultMD5Path(outPath string) string {
	return outPath + ".md5"
}

func fieldString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// JSON numbers decode as float64; integral IDs print without
		// a fractional part.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
