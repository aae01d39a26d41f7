package data

import (
	"context"

	"github.com/tdmkt/tdseq/internal/domain/demark"
)

// Source supplies the ordered bar series for one instrument. The engine never
// owns ingestion or persistence; it consumes whatever a Source hands it.
type Source interface {
	Bars(ctx context.Context, symbol string) ([]demark.Bar, error)
}
