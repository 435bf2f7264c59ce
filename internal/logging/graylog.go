package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGraylogWriter opens a UDP GELF writer to addr.
func NewGraylogWriter(addr, facility string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to create graylog writer: %w", err)
	}
	if facility != "" {
		w.Facility = facility
	}
	return w, nil
}

// NewGraylogHandler writes one JSON body per record to w. Each Write on a gelf.Writer
// becomes one GELF message.
func NewGraylogHandler(w io.Writer, lvl slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, handlerOptions(lvl))
}
