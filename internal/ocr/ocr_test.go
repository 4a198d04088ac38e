package ocr

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/deadline-extractor/constants"
	"github.com/joseph-ayodele/deadline-extractor/internal/common"
)

type fakeRunner struct {
	pdftotext string
	pages     int
	calls     []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, name)
	switch name {
	case "pdftotext":
		return []byte(f.pdftotext), nil, nil
	case "pdftoppm":
		prefix := args[len(args)-1]
		for i := 1; i <= f.pages; i++ {
			p := prefix + "-" + string(rune('0'+i)) + ".png"
			if err := os.WriteFile(p, []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		base := filepath.Base(args[0])
		return []byte("Hearing\n\non \ufb01ling for " + base + "\n-----\n"), nil, nil
	}
	return nil, []byte("unknown"), errors.New("unexpected command " + name)
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestExtractTXTNormalizes(t *testing.T) {
	path := writeFile(t, "notice.txt", "  The  hearing\n\tis  set\r\nfor January 5, 2026.  ")
	res, err := NewExtractor(Config{}, nil).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Text != "The hearing is set for January 5, 2026." {
		t.Errorf("text = %q", res.Text)
	}
	if res.SourceType != constants.TXT || res.Method != "txt" {
		t.Errorf("source=%s method=%s", res.SourceType, res.Method)
	}
}

func TestExtractImage(t *testing.T) {
	path := writeFile(t, "scan.png", "png")
	fr := &fakeRunner{}
	res, err := NewExtractor(Config{}, nil).WithRunner(fr).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Text != "Hearing on filing for scan.png" {
		t.Errorf("text = %q", res.Text)
	}
	if res.Method != "image-ocr" || res.Language != "eng" {
		t.Errorf("method=%s lang=%s", res.Method, res.Language)
	}
}

func TestExtractPDFTextLayer(t *testing.T) {
	path := writeFile(t, "order.pdf", "not really a pdf")
	fr := &fakeRunner{pdftotext: "ORDER setting hearing\fPage two text here"}
	res, err := NewExtractor(Config{}, nil).WithRunner(fr).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Method != "pdf-text" {
		t.Fatalf("method = %s", res.Method)
	}
	want := "--- Page 1 --- ORDER setting hearing --- Page 2 --- Page two text here"
	if res.Text != want {
		t.Errorf("text = %q, want %q", res.Text, want)
	}
	if res.Pages != 2 {
		t.Errorf("pages = %d", res.Pages)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a page-count warning for an invalid pdf")
	}
}

func TestExtractPDFFallsBackToOCR(t *testing.T) {
	path := writeFile(t, "scan.pdf", "not really a pdf")
	fr := &fakeRunner{pdftotext: "  \f ", pages: 3}
	res, err := NewExtractor(Config{MaxPages: 2}, nil).WithRunner(fr).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Method != "pdf-ocr" || res.Pages != 2 {
		t.Fatalf("method=%s pages=%d", res.Method, res.Pages)
	}
	if !strings.HasPrefix(res.Text, "--- Page 1 --- Hearing on filing for page-1.png") {
		t.Errorf("text = %q", res.Text)
	}
	if !strings.Contains(res.Text, "--- Page 2 --- Hearing on filing for page-2.png") {
		t.Errorf("text = %q", res.Text)
	}
}

func TestExtractUnsupported(t *testing.T) {
	path := writeFile(t, "brief.docx", "x")
	_, err := NewExtractor(Config{}, nil).Extract(context.Background(), path)
	if !errors.Is(err, common.ErrUnsupportedFormat) {
		t.Fatalf("err = %v", err)
	}
}

func TestMeanTSVConfidence(t *testing.T) {
	tsv := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
		"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\tHearing\n" +
		"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t70\tset\n" +
		"4\t1\t1\t1\t1\t0\t0\t0\t10\t10\t-1\t\n"
	if got := meanTSVConfidence(tsv); got < 0.79 || got > 0.81 {
		t.Errorf("confidence = %v", got)
	}
}

func TestExecRunnerMissingTool(t *testing.T) {
	r := execRunner{logger: slog.Default()}
	_, _, err := r.Run(context.Background(), "definitely-not-a-real-ocr-binary")
	if !errors.Is(err, ErrToolMissing) {
		t.Fatalf("err = %v", err)
	}
}

func TestTesseractArgs(t *testing.T) {
	e := NewExtractor(Config{PSM: 6, OEM: 1, TessdataDir: "/td"}, nil)
	got := strings.Join(e.tesseractArgs("scan.png", true), " ")
	want := "scan.png stdout -l eng --psm 6 --oem 1 --tessdata-dir /td tsv"
	if got != want {
		t.Errorf("tsv args = %q", got)
	}
	if got := strings.Join(e.tesseractArgs("scan.png", false), " "); strings.Contains(got, "--oem") || strings.HasSuffix(got, "tsv") {
		t.Errorf("text args = %q", got)
	}
}
