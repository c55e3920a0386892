package ai

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	// defaultMaxAttempts is how many times one role is tried before failing
	// over (initial attempt plus retries on capacity errors).
	defaultMaxAttempts = 6
	// defaultBaseDelay seeds the exponential backoff between retries.
	defaultBaseDelay = 2 * time.Second
)

// OutcomeKind discriminates the variants of a generation outcome.
type OutcomeKind int

const (
	// OutcomeSuccess means textual content was produced.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeBlocked means the backend refused on content-policy grounds.
	// Blocks are terminal: failing over to another model would not help.
	OutcomeBlocked
	// OutcomeNoContent means the backend answered but returned no text.
	OutcomeNoContent
	// OutcomeError means no candidate produced a response.
	OutcomeError
)

// ErrorKind categorizes an OutcomeError for the caller.
type ErrorKind string

const (
	// ErrServiceUnavailable means no roles are configured at all.
	ErrServiceUnavailable ErrorKind = "service_unavailable"
	// ErrRateLimitExceeded means every eligible candidate exhausted its
	// retry budget on capacity errors.
	ErrRateLimitExceeded ErrorKind = "rate_limit_exceeded"
	// ErrBackend means the last recorded failure was a non-capacity backend
	// error.
	ErrBackend ErrorKind = "backend_error"
	// ErrUnhandled means every role was skipped without any attempt being
	// made (unconfigured or incompatible with the requested mode).
	ErrUnhandled ErrorKind = "unhandled"
)

// Outcome is the normalized result of one dispatch call. Exactly one variant
// applies, selected by Kind.
type Outcome struct {
	Kind        OutcomeKind
	Text        string
	BlockReason string
	Usage       *Usage
	// Model names the backend that produced the outcome, when one was
	// reached.
	Model   string
	ErrKind ErrorKind
	Err     error
}

// CallContext identifies the caller for usage attribution. It never affects
// routing decisions.
type CallContext struct {
	UserID int64
	// Mode is the caller's active feature surface (chat, journal, ocr, ...);
	// combined with the task type it forms the usage feature tag.
	Mode string
}

// FeatureTag returns the usage attribution tag for a task.
func (c CallContext) FeatureTag(task TaskType) string {
	mode := c.Mode
	if mode == "" {
		mode = "unknown"
	}
	return mode + ":" + string(task)
}

// Generator is the dispatch surface handlers and workers consume. It exists
// so they can be tested against a fake dispatcher.
type Generator interface {
	Generate(ctx context.Context, parts []Part, task TaskType, opts GenerateOptions, call CallContext) Outcome
}

// Dispatcher orchestrates generation calls: role selection, local admission
// control, bounded retries with exponential backoff, failover, outcome
// classification and usage accounting.
type Dispatcher struct {
	registry *Registry
	router   *Router
	limiters map[ModelRole]*RateLimiter
	ledger   *Ledger
	logger   *zap.Logger

	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewDispatcher wires a dispatcher over its collaborators. The limiters map
// holds one limiter per configured role; roles without an entry are not
// throttled locally.
func NewDispatcher(registry *Registry, limiters map[ModelRole]*RateLimiter, ledger *Ledger, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		registry:    registry,
		router:      NewRouter(registry),
		limiters:    limiters,
		ledger:      ledger,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		sleep:       sleepContext,
	}
}

// Router exposes the dispatcher's router, mainly for callers that need to
// inspect candidate order.
func (d *Dispatcher) Router() *Router {
	return d.router
}

// Generate resolves the candidate roles for a task and attempts generation
// against each in order. Capacity errors are retried on the same role with
// exponential backoff before failing over; safety blocks and successes
// short-circuit immediately.
func (d *Dispatcher) Generate(ctx context.Context, parts []Part, task TaskType, opts GenerateOptions, call CallContext) Outcome {
	candidates := d.router.CandidateOrder(task, opts.RoleOverride)
	if len(candidates) == 0 {
		d.logger.Error("no_model_roles_configured", zap.String("task", string(task)))
		return Outcome{Kind: OutcomeError, ErrKind: ErrServiceUnavailable}
	}

	var (
		lastErr      error
		lastCapacity bool
	)

	for _, role := range candidates {
		binding, ok := d.registry.Resolve(role)
		if !ok {
			continue
		}
		if opts.JSONOutput && !binding.SupportsJSONOutput {
			d.logger.Debug("skipping_role_without_json_output",
				zap.String("role", string(role)),
				zap.String("task", string(task)),
			)
			continue
		}

		outcome, err, capacity := d.tryRole(ctx, role, binding, parts, task, opts, call)
		if outcome != nil {
			return *outcome
		}
		if err != nil {
			lastErr = err
			lastCapacity = capacity
		}
	}

	switch {
	case lastErr == nil:
		return Outcome{Kind: OutcomeError, ErrKind: ErrUnhandled}
	case lastCapacity:
		d.logger.Error("all_candidates_capacity_exhausted", zap.String("task", string(task)))
		return Outcome{Kind: OutcomeError, ErrKind: ErrRateLimitExceeded, Err: lastErr}
	default:
		d.logger.Error("generation_failed",
			zap.String("task", string(task)),
			zap.String("error_kind", ErrorKindName(lastErr)),
			zap.Error(lastErr),
		)
		return Outcome{Kind: OutcomeError, ErrKind: ErrBackend, Err: lastErr}
	}
}

// tryRole runs the bounded retry loop for one candidate. It returns a
// non-nil outcome to short-circuit the dispatch, or the last error seen on
// this role (capacity reports whether it was capacity-class) to move on to
// the next candidate.
func (d *Dispatcher) tryRole(ctx context.Context, role ModelRole, binding Binding, parts []Part, task TaskType, opts GenerateOptions, call CallContext) (*Outcome, error, bool) {
	limiter := d.limiters[role]
	modelName := binding.Backend.Name()

	for attempt := 0; attempt < d.maxAttempts; attempt++ {
		if limiter != nil {
			if err := limiter.Acquire(ctx); err != nil {
				return &Outcome{Kind: OutcomeError, ErrKind: ErrBackend, Err: err}, nil, false
			}
		}

		resp, err := binding.Backend.Generate(ctx, parts, opts)
		if err != nil {
			if blocked, ok := IsBlockedError(err); ok {
				if blocked.Usage != nil {
					d.ledger.Record(ctx, call.UserID, *blocked.Usage, call.FeatureTag(task), modelName)
				}
				d.logger.Warn("generation_blocked",
					zap.String("role", string(role)),
					zap.String("reason", blocked.Reason),
				)
				return &Outcome{Kind: OutcomeBlocked, BlockReason: blocked.Reason, Usage: blocked.Usage, Model: modelName}, nil, false
			}
			if IsCapacityError(err) {
				if attempt+1 < d.maxAttempts {
					delay := d.baseDelay << uint(attempt)
					d.logger.Warn("capacity_error_retrying",
						zap.String("role", string(role)),
						zap.Int("attempt", attempt+1),
						zap.Duration("delay", delay),
					)
					if sleepErr := d.sleep(ctx, delay); sleepErr != nil {
						return &Outcome{Kind: OutcomeError, ErrKind: ErrBackend, Err: sleepErr}, nil, false
					}
					continue
				}
				d.logger.Warn("capacity_retries_exhausted", zap.String("role", string(role)))
				return nil, err, true
			}
			// Non-capacity errors are not retried on the same role.
			return nil, err, false
		}

		if resp.Usage != nil {
			d.ledger.Record(ctx, call.UserID, *resp.Usage, call.FeatureTag(task), modelName)
		}
		if resp.BlockReason != "" {
			d.logger.Warn("generation_blocked",
				zap.String("role", string(role)),
				zap.String("reason", resp.BlockReason),
			)
			return &Outcome{Kind: OutcomeBlocked, BlockReason: resp.BlockReason, Usage: resp.Usage, Model: modelName}, nil, false
		}
		if resp.Text == "" {
			return &Outcome{Kind: OutcomeNoContent, Usage: resp.Usage, Model: modelName}, nil, false
		}
		return &Outcome{Kind: OutcomeSuccess, Text: resp.Text, Usage: resp.Usage, Model: modelName}, nil, false
	}

	return nil, nil, false
}

var _ Generator = (*Dispatcher)(nil)
