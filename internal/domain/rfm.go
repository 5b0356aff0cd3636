package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// GroupKey identifies the transactions sharing one description and direction
type GroupKey struct {
	Description string
	Direction   Direction
}

// GroupAccumulator holds the running totals of one group
type GroupAccumulator struct {
	EarliestDate       *time.Time
	LatestDate         *time.Time
	TransactionCount   int
	TotalAmount        decimal.Decimal
	TransactionNumbers []string
	AmountHistory      []decimal.Decimal // total before each contribution, parallel to TransactionNumbers
}

// Groups maps every group seen in a batch to its accumulator
type Groups map[GroupKey]*GroupAccumulator

// Average is a per-window mean that is undefined when the elapsed window is empty
type Average struct {
	Value   float64
	Defined bool
}

// DefinedAverage returns a defined Average holding v
func DefinedAverage(v float64) Average {
	return Average{Value: v, Defined: true}
}

func (a Average) MarshalJSON() ([]byte, error) {
	if !a.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

func (a *Average) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Average{}
		return nil
	}
	if err := json.Unmarshal(data, &a.Value); err != nil {
		return err
	}
	a.Defined = true
	return nil
}

// Rates are the week/month/year averages of a quantity plus its total
type Rates struct {
	AvgWeek  Average `json:"avgWeek"`
	AvgMonth Average `json:"avgMonth"`
	AvgYear  Average `json:"avgYear"`
	Total    float64 `json:"total"`
}

// Metric is the RFM summary of one group
type Metric struct {
	Recency   int   `json:"recency"`
	Frequency Rates `json:"frequency"`
	Monetary  Rates `json:"monetary"`
}

// FlattenedRecord is one row of the RFM dataset
type FlattenedRecord struct {
	Description       string    `json:"transactionDescription"`
	Direction         Direction `json:"transactionDirection"`
	Recency           int       `json:"recency"`
	MonetaryAvgWeek   Average   `json:"monetaryAvgWeek"`
	MonetaryAvgMonth  Average   `json:"monetaryAvgMonth"`
	MonetaryAvgYear   Average   `json:"monetaryAvgYear"`
	FrequencyAvgWeek  Average   `json:"frequencyAvgWeek"`
	FrequencyAvgMonth Average   `json:"frequencyAvgMonth"`
	FrequencyAvgYear  Average   `json:"frequencyAvgYear"`
	MonetaryTotal     float64   `json:"monetaryTotal"`
	FrequencyTotal    int       `json:"frequencyTotal"`
}

// Key returns the group the record was computed from
func (r FlattenedRecord) Key() GroupKey {
	return GroupKey{Description: r.Description, Direction: r.Direction}
}

// Warning flags input that was accepted but produced no RFM output
type Warning struct {
	Description string `json:"transactionDescription"`
	Message     string `json:"message"`
}

// DescriptionSummary joins the long-run RFM averages of a group with the
// amount and number of its transactions in one batch
type DescriptionSummary struct {
	Description       string    `json:"transactionDescription"`
	Direction         Direction `json:"transactionDirection"`
	Recency           int       `json:"recency"`
	MonetaryAvgWeek   Average   `json:"monetaryAvgWeek"`
	MonetaryAvgMonth  Average   `json:"monetaryAvgMonth"`
	MonetaryAvgYear   Average   `json:"monetaryAvgYear"`
	FrequencyAvgWeek  Average   `json:"frequencyAvgWeek"`
	FrequencyAvgMonth Average   `json:"frequencyAvgMonth"`
	FrequencyAvgYear  Average   `json:"frequencyAvgYear"`
	AmountToday       float64   `json:"amountToday"`
	CountToday        int       `json:"timeToday"`
}

// Analysis contains the datasets produced by one pipeline run
type Analysis struct {
	ReferenceTime time.Time               `json:"referenceTime"`
	Transactions  []NormalizedTransaction `json:"transactions,omitempty"`
	RFM           []FlattenedRecord       `json:"rfm"`
	DaySummaries  []DescriptionSummary    `json:"daySummaries,omitempty"`
	Warnings      []Warning               `json:"warnings,omitempty"`
}
