package ocr

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/deadline-extractor/constants"
)

// ImageConfidenceThreshold flags scans whose text is likely unreliable.
const ImageConfidenceThreshold = 0.6

var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)

func (e *Extractor) extractImage(ctx context.Context, path string) (ExtractionResult, error) {
	txt, warn, err := e.tesseractOCR(ctx, path)
	if err != nil {
		return ExtractionResult{SourceType: constants.IMAGE, Warnings: warn}, err
	}
	txt = Normalize(txt)

	var ocrConf float32
	if e.cfg.EnableTSVConfidence {
		if c, w, err2 := e.tesseractTSVConfidence(ctx, path); err2 == nil {
			ocrConf = c
			warn = append(warn, w...)
		} else {
			warn = append(warn, err2.Error())
		}
	}
	heurConf := heuristicConfidence(txt)

	// weight OCR higher if present
	conf := heurConf
	if ocrConf > 0 {
		conf = 0.7*ocrConf + 0.3*heurConf
	}
	if conf > 1.0 {
		conf = 1.0
	}
	if conf < ImageConfidenceThreshold {
		e.logger.Warn("ocr.image.low_confidence", "path", path, "confidence", conf)
	}

	return ExtractionResult{
		Text:       txt,
		Pages:      1,
		SourceType: constants.IMAGE,
		Method:     "image-ocr",
		Language:   e.cfg.TesseractLang,
		Warnings:   warn,
		Confidence: conf,
	}, nil
}

// tesseractArgs builds the command line shared by the text and TSV passes.
func (e *Extractor) tesseractArgs(path string, tsv bool) []string {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if tsv && e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	if tsv {
		args = append(args, "tsv")
	}
	return args
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	out, stderr, err := e.runner.Run(ctx, e.cfg.Tesseract, e.tesseractArgs(path, false)...)
	if err != nil {
		return "", stderrWarnings(stderr), fmt.Errorf("tesseract: %w", err)
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil, nil
}

// tesseractTSVConfidence returns the mean word confidence in 0..1.
func (e *Extractor) tesseractTSVConfidence(ctx context.Context, path string) (float32, []string, error) {
	out, stderr, err := e.runner.Run(ctx, e.cfg.Tesseract, e.tesseractArgs(path, true)...)
	if err != nil {
		return 0, stderrWarnings(stderr), fmt.Errorf("tesseract tsv: %w", err)
	}
	return meanTSVConfidence(string(out)), nil, nil
}

func stderrWarnings(stderr []byte) []string {
	if s := strings.TrimSpace(string(stderr)); s != "" {
		return []string{s}
	}
	return nil
}

// meanTSVConfidence averages the conf column over word rows (level 5),
// skipping the header and the -1 rows tesseract emits for layout blocks.
func meanTSVConfidence(tsv string) float32 {
	var sum float64
	var words int
	for i, line := range strings.Split(tsv, "\n") {
		cols := strings.Split(line, "\t")
		if i == 0 || len(cols) < 12 || cols[0] != "5" {
			continue
		}
		v, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || v < 0 {
			continue
		}
		sum += v
		words++
	}
	if words == 0 {
		return 0
	}
	return float32(sum / float64(words) / 100)
}
