package pipeline

import (
	"context"

	"github.com/use-agent/harvest/llm"
)

// Extractor performs one structured extraction.
type Extractor interface {
	Extract(ctx context.Context, req llm.ExtractRequest, creds llm.Credentials) (*llm.Extraction, error)
}
