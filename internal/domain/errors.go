package domain

import (
	"fmt"
)

// ParseError reports a ledger field that could not be converted to its typed value
type ParseError struct {
	Row               int // zero-based position in the batch
	TransactionNumber string
	Field             string
	Value             string
	Err               error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: row %d (transaction %q): field %q value %q: %v",
		e.Row, e.TransactionNumber, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConsistencyError reports input that cannot produce a well-defined metric
type ConsistencyError struct {
	Description       string
	Direction         Direction
	TransactionNumber string
	Reason            string
}

func (e *ConsistencyError) Error() string {
	msg := fmt.Sprintf("consistency error: description %q", e.Description)
	if e.Direction != "" {
		msg += fmt.Sprintf(" (%s)", e.Direction)
	}
	if e.TransactionNumber != "" {
		msg += fmt.Sprintf(" transaction %q", e.TransactionNumber)
	}
	return msg + ": " + e.Reason
}

// LookupError reports a description present in a batch but absent from the RFM dataset
type LookupError struct {
	Description string
	Direction   Direction
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup error: no RFM record for description %q (%s)", e.Description, e.Direction)
}
