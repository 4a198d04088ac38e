package common

import (
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		want     error
	}{
		{"pdf ok", "order.pdf", 1024, nil},
		{"upper ext ok", "SCAN.JPG", 1024, nil},
		{"docx rejected", "brief.docx", 10, ErrUnsupportedFormat},
		{"empty name", "", 10, ErrUnsupportedFormat},
		{"too large", "order.pdf", 10<<20 + 1, ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.filename, tt.size)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGRPCCode(t *testing.T) {
	if got := GRPCCode(WrapError(ErrNoText, "process")); got != codes.InvalidArgument {
		t.Errorf("no text -> %v", got)
	}
	if got := GRPCCode(NewAppError("CAL", "insert", ErrCalendar)); got != codes.Unavailable {
		t.Errorf("calendar -> %v", got)
	}
	if got := GRPCCode(errors.New("boom")); got != codes.Internal {
		t.Errorf("other -> %v", got)
	}
}
