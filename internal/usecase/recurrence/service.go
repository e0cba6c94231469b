// Package recurrence advances recurring articles: for every article whose
// application deadline has passed it creates the successor announcement and
// links the two, one candidate at a time and independently of the others.
package recurrence

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"funding-catalog/internal/common/pagination"
	"funding-catalog/internal/domain/entity"
	"funding-catalog/internal/observability/logging"
	"funding-catalog/internal/observability/metrics"
	"funding-catalog/internal/observability/tracing"
	"funding-catalog/internal/repository"
	artUC "funding-catalog/internal/usecase/article"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultParallelism bounds concurrent candidates when Config leaves it unset.
const DefaultParallelism = 4

// Config tunes a Service.
type Config struct {
	// Parallelism is the maximum number of candidates processed at once.
	Parallelism int
	// MaxPerSecond throttles how many candidates start per second.
	// Zero means unlimited.
	MaxPerSecond float64
}

// Service runs the recurrence job.
type Service struct {
	Repo repository.ArticleRepository
	// Validator checks each derived successor before it is written.
	Validator *artUC.Validator
	Now       func() time.Time
	Config    Config
}

// NewService wires a Service with the article rule set minus the parent
// relation check. The successor is linked to its parent inside the same unit
// of work that inserts it, so the symmetric check cannot hold beforehand.
func NewService(repo repository.ArticleRepository, cfg Config) *Service {
	return &Service{
		Repo:      repo,
		Validator: artUC.NewValidator(repo).Without(artUC.RuleParentRelation),
		Now:       time.Now,
		Config:    cfg,
	}
}

// CandidateFailure is one candidate that was not advanced.
type CandidateFailure struct {
	Parent entity.ID[entity.Article]
	Err    error
}

func (f CandidateFailure) Error() string {
	return fmt.Sprintf("article %s: %v", f.Parent, f.Err)
}

func (f CandidateFailure) Unwrap() error { return f.Err }

// RunReport summarizes one run.
type RunReport struct {
	RunID      string
	Candidates int
	// Advanced lists the parents that received a successor, in ascending order.
	Advanced []entity.ID[entity.Article]
	// Skipped counts parents another run linked first.
	Skipped  int
	Failures []CandidateFailure
	Duration time.Duration
}

// Run advances every due recurring article.
//
// Candidate failures are collected in the report and never abort the run.
// The returned error is reserved for failures of the run itself: the
// candidate query failing, or ctx ending before every candidate was handled.
// A report is returned in both cases.
func (s *Service) Run(ctx context.Context) (report *RunReport, err error) {
	start := time.Now()
	report = &RunReport{RunID: uuid.NewString()}

	ctx = logging.ContextWithRunID(ctx, report.RunID)
	logger := logging.WithRunID(ctx, slog.Default())

	ctx, span := tracing.StartSpan(ctx, "recurrence.run", attribute.String("run_id", report.RunID))
	defer func() {
		report.Duration = time.Since(start)
		metrics.RecordRecurrenceRun(report.Duration)
		span.SetAttributes(
			attribute.Int("candidates", report.Candidates),
			attribute.Int("advanced", len(report.Advanced)),
			attribute.Int("failures", len(report.Failures)),
		)
		tracing.EndSpan(span, err)
	}()

	now := s.Now()
	res, err := s.Repo.ByQuery(ctx, repository.RecurrenceCandidates(now), pagination.Unbounded)
	if err != nil {
		logger.Error("recurrence candidate query failed", slog.Any("error", err))
		return report, fmt.Errorf("select recurrence candidates: %w", err)
	}
	report.Candidates = len(res.Items)
	metrics.RecordRecurrenceCandidates(report.Candidates)
	logger.Info("recurrence run started",
		slog.Int("candidates", report.Candidates),
		slog.Time("now", now))

	var mu sync.Mutex
	eg := &errgroup.Group{}
	eg.SetLimit(s.parallelism())
	limiter := s.limiter()

	for _, parent := range res.Items {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			var child entity.Article
			err := s.throttle(ctx, limiter)
			if err == nil {
				child, err = s.advance(ctx, parent)
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Advanced = append(report.Advanced, parent.ID)
				metrics.RecordChildCreated()
				logger.Info("successor created",
					slog.Int64("parent_id", parent.ID.Int64()),
					slog.Int64("child_id", child.ID.Int64()),
					slog.Time("application_deadline", child.ApplicationDeadline))
			case errors.Is(err, repository.ErrAlreadyLinked):
				report.Skipped++
				metrics.RecordRecurrenceFailure(metrics.ReasonAlreadyLinked)
				logger.Info("candidate already linked by another run",
					slog.Int64("parent_id", parent.ID.Int64()))
			default:
				report.Failures = append(report.Failures, CandidateFailure{Parent: parent.ID, Err: err})
				metrics.RecordRecurrenceFailure(failureReason(err))
				logger.Warn("candidate failed, continuing",
					slog.Int64("parent_id", parent.ID.Int64()),
					slog.Any("error", err))
			}
			// candidate failures never cancel siblings
			return nil
		})
	}
	_ = eg.Wait()

	slices.SortFunc(report.Advanced, func(a, b entity.ID[entity.Article]) int {
		return cmp.Compare(a.Int64(), b.Int64())
	})
	slices.SortFunc(report.Failures, func(a, b CandidateFailure) int {
		return cmp.Compare(a.Parent.Int64(), b.Parent.Int64())
	})

	handled := len(report.Advanced) + report.Skipped + len(report.Failures)
	if cerr := ctx.Err(); cerr != nil && handled < report.Candidates {
		err = fmt.Errorf("recurrence run interrupted after %d of %d candidates: %w", handled, report.Candidates, cerr)
	}

	logger.Info("recurrence run completed",
		slog.Int("candidates", report.Candidates),
		slog.Int("advanced", len(report.Advanced)),
		slog.Int("skipped", report.Skipped),
		slog.Int("failures", len(report.Failures)),
		slog.Duration("duration", time.Since(start)))

	return report, err
}

// advance derives, validates and links the successor of parent.
func (s *Service) advance(ctx context.Context, parent entity.Article) (child entity.Article, err error) {
	ctx, span := tracing.StartSpan(ctx, "recurrence.candidate", attribute.Int64("parent_id", parent.ID.Int64()))
	defer func() { tracing.EndSpan(span, err) }()

	derived, ok := parent.RecurrentCopy()
	if !ok {
		// selected as recurrent but read back without recurrence dates
		return entity.Article{}, &entity.ValidationFailedError{Violations: []error{
			&entity.ValidationError{Field: "recurrentInfo", Message: "missing on recurrent article"},
		}}
	}

	res, err := s.Validator.Validate(ctx, derived)
	if err != nil {
		return entity.Article{}, fmt.Errorf("validate successor: %w", err)
	}
	if verr := res.Err(); verr != nil {
		return entity.Article{}, verr
	}

	created, err := s.Repo.CreateLinkedChild(ctx, parent.ID, res.Value)
	if err != nil {
		return entity.Article{}, fmt.Errorf("create linked successor: %w", err)
	}
	return created, nil
}

// throttle waits for a start slot. A wait that would outlast the run's
// deadline is reported as a deadline failure.
func (s *Service) throttle(ctx context.Context, limiter *rate.Limiter) error {
	if err := limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return nil
}

func (s *Service) limiter() *rate.Limiter {
	if s.Config.MaxPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	// burst of one spreads starts evenly
	return rate.NewLimiter(rate.Limit(s.Config.MaxPerSecond), 1)
}

func (s *Service) parallelism() int {
	if s.Config.Parallelism > 0 {
		return s.Config.Parallelism
	}
	return DefaultParallelism
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, entity.ErrValidationFailed):
		return metrics.ReasonValidation
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ReasonCanceled
	default:
		return metrics.ReasonStorage
	}
}
