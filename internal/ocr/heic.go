package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// convertHEICtoPNG converts a HEIC/HEIF file to PNG using converter
// ("heif-convert" | "magick" | "sips"). With a cacheDir the PNG is kept at
// {cacheDir}/{sha256}.png and reused; otherwise a temp dir is returned with a
// cleanup func.
func convertHEICtoPNG(ctx context.Context, r Runner, converter, in, cacheDir string) (string, []string, func(), error) {
	var cached string
	if cacheDir != "" {
		sum, err := fileSHA256(in)
		if err != nil {
			return "", nil, nil, err
		}
		cached = filepath.Join(cacheDir, sum+".png")
		if st, err := os.Stat(cached); err == nil && !st.IsDir() {
			return cached, nil, nil, nil
		}
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return "", nil, nil, err
		}
	}

	tmpDir, err := os.MkdirTemp("", "dl-heic-*")
	if err != nil {
		return "", nil, nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "page.png")

	var errb []byte
	switch converter {
	case "heif-convert":
		_, errb, err = r.Run(ctx, "heif-convert", in, out)
	case "magick":
		_, errb, err = r.Run(ctx, "magick", in, out)
	case "sips":
		_, errb, err = r.Run(ctx, "sips", "-s", "format", "png", in, "--out", out)
	default:
		cleanup()
		return "", nil, nil, fmt.Errorf("HEIC not supported: set HEIC_CONVERTER to one of: heif-convert | magick | sips")
	}
	if err != nil {
		cleanup()
		return "", []string{string(errb)}, nil, fmt.Errorf("%s failed: %w", converter, err)
	}
	if _, statErr := os.Stat(out); statErr != nil {
		cleanup()
		return "", nil, nil, fmt.Errorf("HEIC conversion produced no output: %v", statErr)
	}

	if cached == "" {
		return out, nil, cleanup, nil
	}
	defer cleanup()
	if err := copyFile(out, cached); err != nil {
		return "", nil, nil, err
	}
	return cached, nil, nil, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func copyFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
