package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dusk-indust/illumprofile/internal/aggregator"
	"github.com/dusk-indust/illumprofile/internal/summary"
)

// Header describes the series carried by a point document.
type Header struct {
	DataType  string `json:"dataType"`
	Units     string `json:"units"`
	Frequency string `json:"frequency"`
	Starts    string `json:"starts"`
	Ends      string `json:"ends"`
	Location  string `json:"location"`
}

// SeriesExport is one category of hourly values.
type SeriesExport struct {
	Category string        `json:"category"`
	Values   []float64     `json:"values"`
	Summary  summary.Stats `json:"summary"`
}

// PointExport is the top-level JSON export structure for one point.
type PointExport struct {
	RequestID  string         `json:"requestId"`
	ExportedAt string         `json:"exportedAt"`
	Outcome    string         `json:"outcome"`
	Message    string         `json:"message,omitempty"`
	Warnings   []string       `json:"warnings,omitempty"`
	Header     Header         `json:"header"`
	Space      int            `json:"space"`
	Chunk      int            `json:"chunk"`
	Offset     int            `json:"offset"`
	ChunkFile  string         `json:"chunkFile"`
	Series     []SeriesExport `json:"series"`
}

// NewHeader returns the header for an annual hourly illuminance series.
func NewHeader(location string) Header {
	return Header{
		DataType:  "Annual illuminance values",
		Units:     "lux",
		Frequency: "Hourly",
		Starts:    "1 1 1",
		Ends:      "12 31 24",
		Location:  location,
	}
}

// ExportPoint builds a PointExport from an aggregation result. Series follow
// the result's category order.
func ExportPoint(res *aggregator.Result, location string) *PointExport {
	out := &PointExport{
		RequestID:  res.RequestID.String(),
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Outcome:    res.Outcome.String(),
		Message:    res.Message,
		Warnings:   res.Warnings,
		Header:     NewHeader(location),
		Space:      res.Space,
		Chunk:      res.Chunk,
		Offset:     res.Offset,
		ChunkFile:  res.ChunkFile,
	}

	for _, cat := range res.Categories() {
		out.Series = append(out.Series, SeriesExport{
			Category: cat,
			Values:   res.Series[cat],
			Summary:  res.Summary[cat],
		})
	}
	return out
}

// ToJSON renders the result as an indented JSON document.
func ToJSON(res *aggregator.Result, location string) ([]byte, error) {
	data, err := json.MarshalIndent(ExportPoint(res, location), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: marshal: %w", err)
	}
	return append(data, '\n'), nil
}
