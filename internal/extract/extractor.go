package extract

import (
	"go.uber.org/zap"

	"github.com/jobsweep/linkedin-crawler/internal/crawler"
)

// Extractor owns the full page-to-record path: selector parsing, embedded
// JSON recovery, id resolution and field reconciliation.
type Extractor struct {
	clock  crawler.Clock
	logger *zap.Logger
}

// New builds an Extractor. A nil logger falls back to a no-op one.
func New(clock crawler.Clock, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{clock: clock, logger: logger}
}

// FallbackID exposes the synthetic-id derivation on the instance, satisfying
// crawler.PageExtractor.
func (e *Extractor) FallbackID(link string) string {
	return FallbackID(link)
}

// pick returns the first candidate with content.
func pick(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}
