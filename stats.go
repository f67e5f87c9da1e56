package trpx

import (
	"io"

	"github.com/gocarina/gocsv"
)

// FileStats records one file conversion for the --verbose summary and the
// --stats CSV export.
type FileStats struct {
	Input      string  `csv:"input"`
	Output     string  `csv:"output"`
	Frames     int     `csv:"frames"`
	RawBytes   int64   `csv:"raw_bytes"`
	TerseBytes int64   `csv:"terse_bytes"`
	Ratio      float64 `csv:"ratio"`
}

// WriteStatsCSV renders the collected records as CSV with a header row.
func WriteStatsCSV(w io.Writer, stats []FileStats) error {
	return gocsv.Marshal(&stats, w)
}
