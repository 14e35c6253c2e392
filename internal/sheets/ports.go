package sheets

import "context"

// Ports for outbound adapters.
type (
	// Exporter writes a header row plus data rows to a spreadsheet tab,
	// replacing what was there. It returns a reference to the written range.
	Exporter interface {
		Export(ctx context.Context, header []string, rows [][]string) (ref string, err error)
	}
)
