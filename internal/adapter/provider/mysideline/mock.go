package mysideline

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/provider"
)

//go:embed fixtures/events.html
var defaultFixture []byte

// loadMock returns the configured fixture file, or the embedded listing when
// no path is set.
func (f *Fetcher) loadMock() (*provider.RawPayload, error) {
	body := defaultFixture
	contentType := "text/html"

	if path := f.cfg.MockFixturePath; path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, &FetchError{Kind: KindTransportFailure, Attempts: 1, Err: fmt.Errorf("read mock fixture: %w", err)}
		}
		body = b
		if strings.EqualFold(filepath.Ext(path), ".json") {
			contentType = "application/json"
		}
	}

	f.log.Info("mysideline mock fixture served",
		slog.Int("bytes", len(body)),
		slog.String("path", f.cfg.MockFixturePath),
	)

	return &provider.RawPayload{
		Body:        body,
		ContentType: contentType,
		SourceURL:   f.cfg.URL,
		Attempts:    1,
		FetchedAt:   f.now().UTC(),
	}, nil
}
