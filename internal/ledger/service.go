package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/milltrade-erp/milltrade-erp/internal/observability"
	"github.com/milltrade-erp/milltrade-erp/internal/platform/httpx"
	"github.com/milltrade-erp/milltrade-erp/internal/recon"
	"github.com/milltrade-erp/milltrade-erp/internal/shared"
)

var (
	ErrEntryNotFound         = fmt.Errorf("purchase entry: %w", httpx.ErrNotFound)
	ErrPaymentNotFound       = fmt.Errorf("payment: %w", httpx.ErrNotFound)
	ErrGroupNotFound         = fmt.Errorf("profile group: %w", httpx.ErrNotFound)
	ErrDuplicateSerial       = fmt.Errorf("serial number: %w", httpx.ErrDuplicate)
	ErrDuplicatePayment      = fmt.Errorf("payment id: %w", httpx.ErrDuplicate)
	ErrAllocationExceedsFace = fmt.Errorf("allocation sum exceeds payment face value: %w", httpx.ErrValidation)
)

const summariesCacheName = "ledger:summaries"

// CrossCheckTolerance bounds the acceptable disagreement between the mill
// overview outstanding and the per-group outstanding sum.
const CrossCheckTolerance = 0.01

// TaskEnqueuer schedules the background summary refresh after ledger writes.
type TaskEnqueuer interface {
	EnqueueSummaryRefresh(ctx context.Context) error
}

// Service exposes ledger operations and reconciliation summaries.
type Service struct {
	repo    Repository
	cache   *Cache
	tasks   TaskEnqueuer
	metrics *observability.Metrics
	logger  *slog.Logger
	sf      singleflight.Group
}

// NewService constructs the ledger service. Cache, tasks, metrics and
// logger may each be nil; the service then skips that concern.
func NewService(repo Repository, cache *Cache, tasks TaskEnqueuer, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, tasks: tasks, metrics: metrics, logger: logger}
}

// CreateEntry registers a purchase entry.
func (s *Service) CreateEntry(ctx context.Context, input CreateEntryInput) (PurchaseEntry, error) {
	entry := PurchaseEntry{
		SerialNo:           strings.TrimSpace(input.SerialNo),
		Name:               input.Name,
		FatherOrSpouseName: input.FatherOrSpouseName,
		Address:            input.Address,
		Contact:            input.Contact,
		EntryDate:          input.EntryDate,
		Variety:            input.Variety,
		GrossWeight:        input.GrossWeight,
		TareWeight:         input.TareWeight,
		FinalWeight:        input.FinalWeight,
		KartaWeight:        input.KartaWeight,
		NetWeight:          input.NetWeight,
		Rate:               input.Rate,
		Amount:             input.Amount,
		KartaAmount:        input.KartaAmount,
		LabourAmount:       input.LabourAmount,
		KantaAmount:        input.KantaAmount,
		BrokerageRate:      input.BrokerageRate,
		BrokerageAmount:    input.BrokerageAmount,
		BrokerageIncluded:  input.BrokerageIncluded,
		OtherCharges:       input.OtherCharges,
		OriginalNetAmount:  input.OriginalNetAmount,
	}
	created, err := s.repo.CreateEntry(ctx, entry)
	if err != nil {
		return PurchaseEntry{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// GetEntry fetches one entry by serial number.
func (s *Service) GetEntry(ctx context.Context, serialNo string) (PurchaseEntry, error) {
	return s.repo.GetEntry(ctx, strings.TrimSpace(serialNo))
}

// ListEntries pages through the entry ledger.
func (s *Service) ListEntries(ctx context.Context, opts ListOptions) ([]PurchaseEntry, shared.Pagination, error) {
	page := shared.NewPagination(opts.Page, opts.PerPage, 0)
	entries, total, err := s.repo.ListEntries(ctx, page)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return entries, shared.NewPagination(opts.Page, opts.PerPage, total), nil
}

// CreatePayment records a settlement voucher. The validator has already
// checked field-level shape; the face value invariant is enforced here.
func (s *Service) CreatePayment(ctx context.Context, input CreatePaymentInput) (Payment, error) {
	if input.FaceValue > 0 {
		var allocated float64
		for _, a := range input.PaidFor {
			allocated += a.Amount
		}
		if recon.Round2(allocated) > recon.Round2(input.FaceValue) {
			return Payment{}, ErrAllocationExceedsFace
		}
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	}

	payment := Payment{
		ID:          id,
		PaymentDate: input.PaymentDate,
		ReceiptType: parseReceiptType(input.ReceiptType),
		TotalCD:     input.TotalCD,
		Note:        input.Note,
		PaidFor:     make([]AllocationRecord, len(input.PaidFor)),
	}
	for i, a := range input.PaidFor {
		payment.PaidFor[i] = AllocationRecord{
			SerialNo:         strings.TrimSpace(a.SerialNo),
			Amount:           FlexNumber(a.Amount),
			CDAmount:         flexPtr(a.CDAmount),
			ExtraAmount:      flexPtr(a.ExtraAmount),
			AdjustedOriginal: flexPtr(a.AdjustedOriginal),
		}
	}

	created, err := s.repo.CreatePayment(ctx, payment)
	if err != nil {
		return Payment{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// GetPayment fetches one payment by id.
func (s *Service) GetPayment(ctx context.Context, id string) (Payment, error) {
	return s.repo.GetPayment(ctx, strings.TrimSpace(id))
}

// ListPayments pages through recorded payments.
func (s *Service) ListPayments(ctx context.Context, opts ListOptions) ([]Payment, shared.Pagination, error) {
	page := shared.NewPagination(opts.Page, opts.PerPage, 0)
	payments, total, err := s.repo.ListPayments(ctx, page)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return payments, shared.NewPagination(opts.Page, opts.PerPage, total), nil
}

// Summaries returns the reconciliation map, cache-first. Concurrent callers
// share one computation.
func (s *Service) Summaries(ctx context.Context) (map[string]*recon.GroupSummary, error) {
	key, err := s.cache.BuildKey(ctx, summariesCacheName)
	if err != nil {
		// Losing Redis only costs the cache, never the summaries.
		s.warn("summary cache unavailable", err)
		return s.computeSummaries(ctx)
	}

	value, err, _ := s.sf.Do(key, func() (any, error) {
		var out map[string]*recon.GroupSummary
		loadErr := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
			return s.computeSummaries(ctx)
		})
		if loadErr != nil {
			return nil, loadErr
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(map[string]*recon.GroupSummary), nil
}

// GroupSummary returns one partner group (or the mill overview).
func (s *Service) GroupSummary(ctx context.Context, groupKey string) (*recon.GroupSummary, error) {
	summaries, err := s.Summaries(ctx)
	if err != nil {
		return nil, err
	}
	g, ok := summaries[groupKey]
	if !ok {
		return nil, ErrGroupNotFound
	}
	return g, nil
}

// FilteredGroup re-aggregates one group under the given filter.
func (s *Service) FilteredGroup(ctx context.Context, groupKey string, opts recon.FilterOptions) (*recon.GroupSummary, error) {
	g, err := s.GroupSummary(ctx, groupKey)
	if err != nil {
		return nil, err
	}
	return recon.Filter(g, opts), nil
}

// StatementLine is one row of a partner statement: purchases and payments
// interleaved chronologically with a running balance.
type StatementLine struct {
	Date    time.Time `json:"date"`
	Kind    string    `json:"kind"` // PURCHASE or PAYMENT
	Ref     string    `json:"ref"`
	Debit   float64   `json:"debit"`
	Credit  float64   `json:"credit"`
	Balance float64   `json:"balance"`
}

// Statement builds the printable ledger statement for one group.
func (s *Service) Statement(ctx context.Context, groupKey string) ([]StatementLine, error) {
	g, err := s.GroupSummary(ctx, groupKey)
	if err != nil {
		return nil, err
	}

	serials := make(map[string]struct{}, len(g.AllTransactions))
	lines := make([]StatementLine, 0, len(g.AllTransactions)+len(g.AllPayments))
	for _, e := range g.AllTransactions {
		serials[e.SerialNo] = struct{}{}
		res := recon.ResolveEntry(e, g.AllPayments)
		lines = append(lines, StatementLine{
			Date:  e.Date,
			Kind:  "PURCHASE",
			Ref:   e.SerialNo,
			Debit: res.AdjustedOriginal,
		})
	}
	for _, p := range g.AllPayments {
		var credit float64
		for _, a := range p.PaidFor {
			if _, ok := serials[a.SerialNo]; ok {
				credit += a.Amount
				if a.CDAmount != nil {
					credit += *a.CDAmount
				}
			}
		}
		credit += legacyCDShare(p, serials)
		lines = append(lines, StatementLine{
			Date:   p.Date,
			Kind:   "PAYMENT",
			Ref:    p.ID,
			Credit: recon.Round2(credit),
		})
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Date.Before(lines[j].Date)
	})
	var balance float64
	for i := range lines {
		balance = recon.Round2(balance + lines[i].Debit - lines[i].Credit)
		lines[i].Balance = balance
	}
	return lines, nil
}

// legacyCDShare sums the proportional legacy discount this payment grants
// to the group's serials.
func legacyCDShare(p recon.Payment, serials map[string]struct{}) float64 {
	if p.TotalCD <= 0 {
		return 0
	}
	var sum, share float64
	for _, a := range p.PaidFor {
		sum += a.Amount
	}
	if sum <= 0 {
		return 0
	}
	for _, a := range p.PaidFor {
		if a.CDAmount != nil {
			continue
		}
		if _, ok := serials[a.SerialNo]; ok {
			share += recon.Round2(p.TotalCD * a.Amount / sum)
		}
	}
	return share
}

// Recompute bypasses the cache, runs the engine, and warms the current
// cache slot. Used by the background refresh job.
func (s *Service) Recompute(ctx context.Context) (map[string]*recon.GroupSummary, error) {
	summaries, err := s.computeSummaries(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.StoreJSON(ctx, summariesCacheName, summaries); err != nil {
		s.warn("store summaries", err)
	}
	return summaries, nil
}

// computeSummaries loads both snapshots concurrently and runs the engine.
func (s *Service) computeSummaries(ctx context.Context) (map[string]*recon.GroupSummary, error) {
	var (
		entries  []PurchaseEntry
		payments []Payment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.repo.AllEntries(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = s.repo.AllPayments(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ledger: load snapshots: %w", err)
	}

	reconEntries := make([]recon.PurchaseEntry, len(entries))
	for i, e := range entries {
		reconEntries[i] = e.Recon()
	}
	reconPayments := make([]recon.Payment, len(payments))
	for i, p := range payments {
		reconPayments[i] = p.Recon()
	}

	start := time.Now()
	summaries := recon.Reconcile(reconEntries, reconPayments)
	s.metrics.ObserveReconcile(time.Since(start), len(summaries)-1, len(reconEntries))
	s.crossCheck(summaries)
	return summaries, nil
}

// crossCheck compares the independently derived mill overview against the
// per-group outstanding sum. Disagreement is observed drift in the source
// data handling, not an error; it is logged and counted.
func (s *Service) crossCheck(summaries map[string]*recon.GroupSummary) {
	mill, ok := summaries[recon.MillOverviewKey]
	if !ok {
		return
	}
	var groupSum float64
	for key, g := range summaries {
		if key == recon.MillOverviewKey {
			continue
		}
		groupSum += g.TotalOutstanding
	}
	diff := recon.Round2(mill.TotalOutstanding - groupSum)
	if diff < -CrossCheckTolerance || diff > CrossCheckTolerance {
		s.metrics.RecordDrift()
		if s.logger != nil {
			s.logger.Warn("mill overview drift",
				slog.Float64("overview_outstanding", mill.TotalOutstanding),
				slog.Float64("group_sum", groupSum),
			)
		}
	}
}

// invalidate bumps the cache version and schedules a background refresh.
func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.warn("bump summary cache", err)
	}
	if s.tasks != nil {
		if err := s.tasks.EnqueueSummaryRefresh(ctx); err != nil {
			s.warn("enqueue summary refresh", err)
		}
	}
}

func (s *Service) warn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, slog.Any("error", err))
	}
}

func parseReceiptType(v string) recon.ReceiptType {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "CASH":
		return recon.ReceiptCash
	case "RTGS":
		return recon.ReceiptRTGS
	case "GOV", "GOVT", "GOVERNMENT":
		return recon.ReceiptGov
	default:
		return recon.ReceiptType(strings.TrimSpace(v))
	}
}

func flexPtr(v *float64) *FlexNumber {
	if v == nil {
		return nil
	}
	n := FlexNumber(*v)
	return &n
}
