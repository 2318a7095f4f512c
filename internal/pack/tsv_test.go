package pack

import (
	"bytes"
	"context"
	"crypto/md5" // #nosec G401
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeExample(t *testing.T, dir, name string, fields map[string]any) {
	t.Helper()
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), raw, 0o644))
}

func TestGatherExamplesSkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	writeExample(t, dir, "b_valid.json", map[string]any{
		"ID": "2", "Question": "Q2", "Answer": "A2", "game_state_url": "http://x/2.png",
	})
	writeExample(t, dir, "a_valid.json", map[string]any{
		"ID": 1, "Question": "Q1", "Answer": "A1", "game_state_url": "http://x/1.png",
	})
	writeExample(t, dir, "missing.json", map[string]any{"ID": "3", "Question": "Q3"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{nope"), 0o644))

	examples, err := GatherExamples(dir, nil)
	require.NoError(t, err)
	require.Len(t, examples, 2)

	// Sorted by filename, and numeric IDs come out as plain strings.
	require.Equal(t, "1", examples[0].ID)
	require.Equal(t, "Q1", examples[0].Question)
	require.Equal(t, "2", examples[1].ID)
	require.Equal(t, "http://x/2.png", examples[1].ImageURL)
}

func TestBuildTSVInlinesImages(t *testing.T) {
	original := testPNG(t, 8, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(original)
	}))
	defer srv.Close()

	examples := []Example{
		{ID: "001", Question: "How many tiles?", Answer: "Four", ImageURL: srv.URL + "/board.png"},
		{ID: "002", Question: "Broken", Answer: "Skip", ImageURL: srv.URL + "/missing.png"},
	}

	dir := t.TempDir()
	outPath := filepath.Join(dir, "bench.tsv")
	dumpDir := filepath.Join(dir, "bench_images")

	builder := NewTSVBuilder(5*time.Second, 4)
	written, err := builder.BuildTSV(context.Background(), examples, outPath, "test", dumpDir)
	require.NoError(t, err)
	require.Equal(t, 1, written)

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close() // nolint:errcheck

	r := csv.NewReader(f)
	r.Comma = '\t'
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, []string{"index", "image", "question", "answer", "split"}, rows[0])

	row := rows[1]
	require.Equal(t, "001", row[0])
	require.Equal(t, "How many tiles?", row[2])
	require.Equal(t, "Four", row[3])
	require.Equal(t, "test", row[4])

	var imageList []string
	require.NoError(t, json.Unmarshal([]byte(row[1]), &imageList))
	require.Len(t, imageList, 1)

	decoded, err := base64.StdEncoding.DecodeString(imageList[0])
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(decoded))
	require.NoError(t, err)

	// 8x4 scaled so the longest side is 4.
	require.Equal(t, 4, img.Bounds().Dx())
	require.Equal(t, 2, img.Bounds().Dy())

	dumped, err := os.ReadFile(filepath.Join(dumpDir, "001.png"))
	require.NoError(t, err)
	require.Equal(t, decoded, dumped)
}

func TestBuildTSVWithoutResizeKeepsOriginalBytes(t *testing.T) {
	original := testPNG(t, 6, 6)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(original)
	}))
	defer srv.Close()

	dir := t.TempDir()
	outPath := filepath.Join(dir, "bench.tsv")

	builder := NewTSVBuilder(5*time.Second, 0)
	written, err := builder.BuildTSV(context.Background(), []Example{
		{ID: "007", Question: "Q", Answer: "A", ImageURL: srv.URL + "/board.png"},
	}, outPath, "train", "")
	require.NoError(t, err)
	require.Equal(t, 1, written)

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close() // nolint:errcheck

	r := csv.NewReader(f)
	r.Comma = '\t'
	rows, err := r.ReadAll()
	require.NoError(t, err)

	var imageList []string
	require.NoError(t, json.Unmarshal([]byte(rows[1][1]), &imageList))
	decoded, err := base64.StdEncoding.DecodeString(imageList[0])
	require.NoError(t, err)
	require.Equal(t, original, decoded)
}

func TestWriteMD5(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "bench.tsv")
	content := []byte("index\timage\tquestion\tanswer\tsplit\n")
	require.NoError(t, os.WriteFile(target, content, 0o644))

	md5Path := filepath.Join(dir, "bench.tsv.md5")
	require.NoError(t, WriteMD5(target, md5Path))

	sidecar, err := os.ReadFile(md5Path)
	require.NoError(t, err)
	want := fmt.Sprintf("%x  bench.tsv\n", md5.Sum(content)) // #nosec G401
	require.Equal(t, want, string(sidecar))
}

func TestDefaultPaths(t *testing.T) {
	require.Equal(t, filepath.Join("out", "bench_images"), DefaultDumpDir(filepath.Join("out", "bench.tsv")))
	require.Equal(t, "bench.tsv.md5", DefaultMD5Path("bench.tsv"))
}
