package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tirasundara/rfm-service/internal/domain"
)

// OutputFormatter defines the interface for formatting the result of an RFM run
type OutputFormatter interface {
	Format(analysis domain.Analysis) ([]byte, error)
	FileExtension() string
}

// NewFormatter returns the formatter registered under name ("json" or "csv")
func NewFormatter(name string, prettyPrint bool) (OutputFormatter, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return NewJSONFormatter(prettyPrint), nil
	case "csv":
		return NewCSVFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", name)
	}
}

// JSONFormatter formats every dataset of an analysis as one JSON document
type JSONFormatter struct {
	PrettyPrint bool
}

func NewJSONFormatter(prettyPrint bool) *JSONFormatter {
	return &JSONFormatter{
		PrettyPrint: prettyPrint,
	}
}

// Format implements the OutputFormatter interface for JSON
func (f *JSONFormatter) Format(analysis domain.Analysis) ([]byte, error) {
	if f.PrettyPrint {
		return json.MarshalIndent(analysis, "", "  ")
	}
	return json.Marshal(analysis)
}

func (f *JSONFormatter) FileExtension() string {
	return "json"
}

var csvHeader = []string{
	"transactionDescription",
	"transactionDirection",
	"recency",
	"monetaryAvgWeek",
	"monetaryAvgMonth",
	"monetaryAvgYear",
	"frequencyAvgWeek",
	"frequencyAvgMonth",
	"frequencyAvgYear",
	"monetaryTotal",
	"frequencyTotal",
}

// CSVFormatter writes the RFM dataset as one row per record.
// Undefined averages are written as empty cells.
type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// Format implements the OutputFormatter interface for CSV
func (f *CSVFormatter) Format(analysis domain.Analysis) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}

	for _, r := range analysis.RFM {
		row := []string{
			r.Description,
			string(r.Direction),
			strconv.Itoa(r.Recency),
			formatAverage(r.MonetaryAvgWeek),
			formatAverage(r.MonetaryAvgMonth),
			formatAverage(r.MonetaryAvgYear),
			formatAverage(r.FrequencyAvgWeek),
			formatAverage(r.FrequencyAvgMonth),
			formatAverage(r.FrequencyAvgYear),
			formatFloat(r.MonetaryTotal),
			strconv.Itoa(r.FrequencyTotal),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("writing CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing CSV: %w", err)
	}

	return buf.Bytes(), nil
}

func (f *CSVFormatter) FileExtension() string {
	return "csv"
}

func formatAverage(a domain.Average) string {
	if !a.Defined {
		return ""
	}
	return formatFloat(a.Value)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
