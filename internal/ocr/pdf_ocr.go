package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/joseph-ayodele/deadline-extractor/constants"
)

// minTextLayerChars is the smallest text layer we trust before rasterizing.
const minTextLayerChars = 20

func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	var warns []string
	pages, err := api.PageCountFile(path)
	if err != nil {
		warns = append(warns, "page count: "+err.Error())
		pages = 0
	}

	parts, w, err := e.pdfToText(ctx, path)
	warns = append(warns, w...)
	if err == nil && layerChars(parts) >= minTextLayerChars {
		if pages == 0 {
			pages = len(parts)
		}
		txt := Normalize(joinPages(parts))
		return ExtractionResult{
			Text:       txt,
			Pages:      pages,
			SourceType: constants.PDF,
			Method:     "pdf-text",
			Warnings:   warns,
			Confidence: heuristicConfidence(txt),
		}, nil
	}
	if err != nil {
		e.logger.Warn("ocr.pdf.text_layer_failed", "path", path, "error", err)
	}

	text, ocrPages, w, err := e.pdfToOCR(ctx, path, pages)
	warns = append(warns, w...)
	if err != nil {
		return ExtractionResult{SourceType: constants.PDF, Warnings: warns}, err
	}
	txt := Normalize(text)
	return ExtractionResult{
		Text:       txt,
		Pages:      ocrPages,
		SourceType: constants.PDF,
		Method:     "pdf-ocr",
		Language:   e.cfg.TesseractLang,
		Warnings:   warns,
		Confidence: heuristicConfidence(txt),
	}, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (pages []string, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, []string{string(errb)}, err
	}
	// form feeds separate pages; the last page is followed by one too
	return strings.Split(strings.TrimSuffix(string(out), "\f"), "\f"), nil, nil
}

func layerChars(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string, knownPages int) (text string, pages int, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "dl-pp-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func(dir string) {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("ocr.pdf.cleanup_failed", "dir", dir, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 [-l N] -png <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(e.cfg.DPI)}
	if e.cfg.MaxPages > 0 && (knownPages == 0 || knownPages > e.cfg.MaxPages) {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, "-png", path, prefix)
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}

	// prefix-1.png, prefix-2.png, ... (zero padded for long documents)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Slice(matches, func(i, j int) bool { return pageNumber(matches[i]) < pageNumber(matches[j]) })
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var texts []string
	var warns []string
	for _, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			txt = ""
		}
		texts = append(texts, txt)
		warns = append(warns, w...)
	}
	return joinPages(texts), len(matches), warns, nil
}

// joinPages prefixes every page with a "--- Page N ---" header.
func joinPages(pages []string) string {
	var b strings.Builder
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "--- Page %d ---\n", i+1)
		b.WriteString(p)
	}
	return b.String()
}

func pageNumber(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), ".png")
	i := strings.LastIndexByte(base, '-')
	n, err := strconv.Atoi(base[i+1:])
	if err != nil {
		return 0
	}
	return n
}
