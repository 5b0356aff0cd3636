package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/tirasundara/rfm-service/internal/domain"
	"github.com/tirasundara/rfm-service/internal/normalizer"
	"github.com/tirasundara/rfm-service/internal/rfm"
)

// RFMService orchestrates one full pipeline run per call: read, normalize, aggregate
type RFMService struct {
	repo       domain.TransactionRepository
	normalizer *normalizer.Normalizer
	clock      func() time.Time
	log        zerolog.Logger
}

// NewRFMService creates a new RFMService. clock is the only source of the reference time
// when a caller does not pass one; it defaults to time.Now.
func NewRFMService(
	repo domain.TransactionRepository,
	n *normalizer.Normalizer,
	clock func() time.Time,
	log zerolog.Logger,
) *RFMService {
	if n == nil {
		n = normalizer.New("")
	}
	if clock == nil {
		clock = time.Now
	}

	return &RFMService{
		repo:       repo,
		normalizer: n,
		clock:      clock,
		log:        log,
	}
}

// Now returns the service clock's current time
func (s *RFMService) Now() time.Time {
	return s.clock()
}

// Transactions returns the whole ledger normalized, in source order
func (s *RFMService) Transactions(ctx context.Context) ([]domain.NormalizedTransaction, error) {
	raws, err := s.repo.GetRawTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching transactions from %s: %w", s.repo.Source(), err)
	}

	txns, err := s.normalizer.Normalize(raws)
	if err != nil {
		return nil, fmt.Errorf("normalizing transactions: %w", err)
	}

	return txns, nil
}

// RFM computes the flattened RFM dataset relative to now (the service clock when now is zero)
func (s *RFMService) RFM(ctx context.Context, now time.Time) (domain.Analysis, error) {
	now = s.referenceTime(now)

	txns, err := s.Transactions(ctx)
	if err != nil {
		return domain.Analysis{}, err
	}

	return s.compute(ctx, txns, now)
}

// DaySummary joins the transactions dated on day with the RFM dataset computed over the whole ledger
func (s *RFMService) DaySummary(ctx context.Context, day, now time.Time) (domain.Analysis, error) {
	now = s.referenceTime(now)

	txns, err := s.Transactions(ctx)
	if err != nil {
		return domain.Analysis{}, err
	}

	analysis, err := s.compute(ctx, txns, now)
	if err != nil {
		return domain.Analysis{}, err
	}

	summaries, err := s.join(txns, analysis.RFM, day)
	if err != nil {
		return domain.Analysis{}, err
	}
	analysis.DaySummaries = summaries

	return analysis, nil
}

// Analyze returns every dataset of one run: the normalized ledger, the RFM dataset and
// the summary of the reference day
func (s *RFMService) Analyze(ctx context.Context, now time.Time) (domain.Analysis, error) {
	now = s.referenceTime(now)

	txns, err := s.Transactions(ctx)
	if err != nil {
		return domain.Analysis{}, err
	}

	analysis, err := s.compute(ctx, txns, now)
	if err != nil {
		return domain.Analysis{}, err
	}

	summaries, err := s.join(txns, analysis.RFM, now)
	if err != nil {
		return domain.Analysis{}, err
	}
	analysis.Transactions = txns
	analysis.DaySummaries = summaries

	return analysis, nil
}

func (s *RFMService) compute(ctx context.Context, txns []domain.NormalizedTransaction, now time.Time) (domain.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return domain.Analysis{}, err
	}

	start := time.Now()
	records, warnings, err := rfm.Compute(txns, now)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("computing RFM dataset: %w", err)
	}

	for _, w := range warnings {
		s.log.Warn().
			Str("description", w.Description).
			Msg(w.Message)
	}

	s.log.Info().
		Str("source", s.repo.Source()).
		Time("reference_time", now).
		Int("transactions", len(txns)).
		Int("records", len(records)).
		Int("warnings", len(warnings)).
		Dur("duration", time.Since(start)).
		Msg("RFM dataset computed")

	return domain.Analysis{
		ReferenceTime: now,
		RFM:           records,
		Warnings:      warnings,
	}, nil
}

func (s *RFMService) join(txns []domain.NormalizedTransaction, records []domain.FlattenedRecord, day time.Time) ([]domain.DescriptionSummary, error) {
	var batch []domain.NormalizedTransaction
	for _, txn := range txns {
		if txn.OnDay(day) {
			batch = append(batch, txn)
		}
	}

	summaries, err := rfm.Join(batch, records, rfm.BuildIndex(records))
	if err != nil {
		return nil, fmt.Errorf("summarizing %s: %w", day.Format(time.DateOnly), err)
	}

	return summaries, nil
}

func (s *RFMService) referenceTime(now time.Time) time.Time {
	if now.IsZero() {
		return s.clock()
	}
	return now
}
