package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// ErrToolMissing is returned when an OCR binary is not on PATH.
var ErrToolMissing = errors.New("ocr tool not installed")

// Runner executes an external command. Tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrToolMissing, name)
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	attrs := []any{
		"cmd", name,
		"args", strings.Join(args, " "),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	switch {
	case ctx.Err() != nil:
		r.logger.Warn("ocr.exec.canceled", append(attrs, "error", ctx.Err())...)
		return nil, stderr.Bytes(), ctx.Err()
	case err != nil:
		r.logger.Error("ocr.exec.failed", append(attrs, "error", err, "stderr", truncate(stderr.String(), 8<<10))...)
	default:
		r.logger.Debug("ocr.exec.ok", append(attrs, "stdout_bytes", stdout.Len())...)
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
