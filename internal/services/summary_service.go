package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"soda/internal/amqp"
	"soda/internal/core"
	applog "soda/internal/log"
	"soda/internal/repository"
)

// EventPublisher announces summary mutations to other processes.
type EventPublisher interface {
	PublishSummaryChanged(ctx context.Context, op, id string) error
}

// Snapshot is the result of one full reload.
type Snapshot struct {
	Summaries     []core.Summary
	Weeks         []core.Week
	OverallProfit decimal.Decimal
	LoadedAt      time.Time
}

// Find returns the summary with the given id.
func (s Snapshot) Find(id string) (core.Summary, bool) {
	for _, sum := range s.Summaries {
		if sum.ID == id {
			return sum, true
		}
	}
	return core.Summary{}, false
}

// SummaryService writes summaries through the repository, announces the
// change and keeps the most recently loaded snapshot.
type SummaryService struct {
	repo      repository.Repository
	publisher EventPublisher
	logger    *applog.Logger
	now       func() time.Time

	mu     sync.RWMutex
	latest Snapshot
	loaded bool
}

var _ core.Saver = (*SummaryService)(nil)

// NewSummaryService wires a service. publisher may be nil.
func NewSummaryService(repo repository.Repository, publisher EventPublisher, logger *applog.Logger) *SummaryService {
	if logger == nil {
		logger = applog.Discard()
	}
	return &SummaryService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentSummary),
		now:       time.Now,
	}
}

// Create stores a new summary and publishes a created event.
func (s *SummaryService) Create(ctx context.Context, f core.Fields) (string, error) {
	id, err := s.repo.Create(ctx, f)
	if err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "Summary created",
		applog.NewFields().WithOperation(applog.OpCreate).WithSummary(id, f.Date.String()).ToSlice()...)
	s.publish(ctx, amqp.ChangeCreated, id)
	return id, nil
}

// Update replaces summary id and publishes an updated event.
func (s *SummaryService) Update(ctx context.Context, id string, f core.Fields) error {
	if err := s.repo.Update(ctx, id, f); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Summary updated",
		applog.NewFields().WithOperation(applog.OpUpdate).WithSummary(id, f.Date.String()).ToSlice()...)
	s.publish(ctx, amqp.ChangeUpdated, id)
	return nil
}

// Delete removes summary id and publishes a deleted event.
func (s *SummaryService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return &repository.Error{Op: repository.OpDelete, Status: 400, Message: "Falta el identificador del resumen"}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete summary %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Summary deleted",
		applog.NewFields().WithOperation(applog.OpDelete).WithSummary(id, "").ToSlice()...)
	s.publish(ctx, amqp.ChangeDeleted, id)
	return nil
}

// Reload fetches every summary, rebuilds the week groups and stores the
// result as the latest snapshot. Overlapping reloads are not ordered: the
// one that finishes last wins.
func (s *SummaryService) Reload(ctx context.Context) (Snapshot, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Reload failed",
			applog.FieldOperation, applog.OpReload,
			applog.FieldStatusCode, repository.Status(err),
			applog.FieldError, err)
		return Snapshot{}, err
	}

	snap := BuildSnapshot(all, s.now())

	s.mu.Lock()
	s.latest = snap
	s.loaded = true
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Summaries reloaded",
		applog.FieldOperation, applog.OpReload,
		applog.FieldCount, len(all))
	return snap, nil
}

// Latest returns the last stored snapshot and whether one exists.
func (s *SummaryService) Latest() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.loaded
}

// BuildSnapshot groups summaries into weeks, newest first.
func BuildSnapshot(all []core.Summary, at time.Time) Snapshot {
	return Snapshot{
		Summaries:     all,
		Weeks:         core.SortWeeksDescending(core.GroupByWeek(all)),
		OverallProfit: core.OverallProfit(all),
		LoadedAt:      at,
	}
}

func (s *SummaryService) publish(ctx context.Context, op, id string) {
	if s.publisher == nil || id == "" {
		return
	}
	if err := s.publisher.PublishSummaryChanged(ctx, op, id); err != nil {
		level := s.logger.ErrorContext
		if errors.Is(err, amqp.ErrCircuitOpen) {
			level = s.logger.WarnContext
		}
		level(ctx, "Failed to publish summary change",
			applog.FieldOperation, op,
			applog.FieldSummaryID, id,
			applog.FieldError, err)
	}
}
