package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/patrickmn/go-cache"
	"github.com/sellershield/intake-backend/internal/classifier"
	"github.com/sellershield/intake-backend/internal/entity"
	"github.com/sellershield/intake-backend/internal/intake"
	"github.com/sellershield/intake-backend/internal/quote"
	"go.uber.org/zap"
)

const (
	defaultSessionTTL      = 30 * time.Minute
	defaultCleanupInterval = 5 * time.Minute
)

// Config tunes session lifetime and flow pacing
type Config struct {
	Timings         intake.Timings
	SessionTTL      time.Duration
	CleanupInterval time.Duration
	// Scheduler drives the flow timers; nil means wall-clock timers
	Scheduler intake.Scheduler
}

// IntakeUsecase keeps live intake flows in memory, one controller per session
type IntakeUsecase struct {
	catalog   *intake.Catalog
	cfg       Config
	sessions  *cache.Cache
	callback  CallbackConnector
	metrics   MetricsRecorder
	logger    *zap.Logger
	now       func() time.Time
	callbacks sync.WaitGroup
}

// NewUsecase creates the intake use case. callback and metrics may be nil.
func NewUsecase(
	catalog *intake.Catalog,
	cfg Config,
	callback CallbackConnector,
	metrics MetricsRecorder,
	logger *zap.Logger,
) *IntakeUsecase {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaultCleanupInterval
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = intake.NewClockScheduler()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	uc := &IntakeUsecase{
		catalog:  catalog,
		cfg:      cfg,
		sessions: cache.New(cfg.SessionTTL, cfg.CleanupInterval),
		callback: callback,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
	uc.sessions.OnEvicted(uc.onEvicted)

	return uc
}

// Catalog lists the questions every session walks through
func (uc *IntakeUsecase) Catalog() *entity.CatalogDTO {
	questions := uc.catalog.Questions()
	dto := &entity.CatalogDTO{
		Total:     len(questions),
		Questions: make([]entity.QuestionDTO, 0, len(questions)),
	}
	for i, q := range questions {
		dto.Questions = append(dto.Questions, toQuestionDTO(q, i+1))
	}
	return dto
}

// StartSession creates a fresh flow at step 1
func (uc *IntakeUsecase) StartSession(ctx context.Context, req *entity.StartSessionRequest) (*entity.SessionView, error) {
	s := &liveSession{
		id:          uuid.New().String(),
		createdAt:   uc.now().UTC(),
		subscribers: map[int]func(*entity.SessionView){},
		endReason:   endReasonExpired,
	}
	if req != nil {
		s.callbackURL = req.CallbackURL
	}
	s.updatedAt = s.createdAt

	s.ctrl = intake.NewController(uc.catalog,
		intake.WithScheduler(uc.cfg.Scheduler),
		intake.WithTimings(uc.cfg.Timings),
		intake.WithObserver(func(prev, next entity.FlowState) {
			uc.onTransition(s, prev, next)
		}),
	)

	uc.sessions.Set(s.id, s, cache.DefaultExpiration)
	uc.metrics.SessionStarted()
	uc.metrics.StepReached(uc.questionID(1))

	ctxzap.Info(ctx, "intake session started",
		zap.String("session_id", s.id),
		zap.Bool("has_callback", s.callbackURL != ""),
	)

	return uc.buildView(s, s.ctrl.State()), nil
}

// GetSession returns the current screen of a session
func (uc *IntakeUsecase) GetSession(ctx context.Context, sessionID string) (*entity.SessionView, error) {
	s, err := uc.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return uc.buildView(s, s.ctrl.State()), nil
}

// SubmitAnswer records an answer for any question of the catalog
func (uc *IntakeUsecase) SubmitAnswer(ctx context.Context, sessionID, questionID string, raw entity.Answer) (*entity.SessionView, error) {
	return uc.mutate(ctx, sessionID, "answer", func(c *intake.Controller) error {
		return c.Answer(questionID, raw)
	})
}

// Advance moves to the next step, starting the analysis after the last one
func (uc *IntakeUsecase) Advance(ctx context.Context, sessionID string) (*entity.SessionView, error) {
	return uc.mutate(ctx, sessionID, "advance", func(c *intake.Controller) error {
		return c.Advance()
	})
}

// Retreat moves back one step
func (uc *IntakeUsecase) Retreat(ctx context.Context, sessionID string) (*entity.SessionView, error) {
	return uc.mutate(ctx, sessionID, "retreat", func(c *intake.Controller) error {
		return c.Retreat()
	})
}

// Restart clears the answers and returns to step 1
func (uc *IntakeUsecase) Restart(ctx context.Context, sessionID string) (*entity.SessionView, error) {
	view, err := uc.mutate(ctx, sessionID, "restart", func(c *intake.Controller) error {
		return c.Restart()
	})
	if err != nil {
		return nil, err
	}
	uc.metrics.SessionRestarted()
	return view, nil
}

// GetResult returns the quote of a finished session
func (uc *IntakeUsecase) GetResult(ctx context.Context, sessionID string) (*entity.Quote, error) {
	s, err := uc.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	state := s.ctrl.State()
	if state.Phase != entity.FlowPhaseResulted {
		return nil, fmt.Errorf("session %s is %s: %w", sessionID, state.Phase, entity.ErrNoResult)
	}
	return buildQuote(state), nil
}

// CancelSession drops a session and stops its timers
func (uc *IntakeUsecase) CancelSession(ctx context.Context, sessionID string) error {
	s, err := uc.getSession(sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.endReason = endReasonCancelled
	s.mu.Unlock()
	uc.sessions.Delete(sessionID)

	ctxzap.Info(ctx, "intake session cancelled", zap.String("session_id", sessionID))
	return nil
}

// Subscribe registers fn to receive a fresh view after every transition of the
// session, including the timer driven ones. The returned func unsubscribes.
// Views arrive in transition order on whichever goroutine is delivering the
// session's transitions, so fn must not block.
func (uc *IntakeUsecase) Subscribe(sessionID string, fn func(*entity.SessionView)) (func(), error) {
	s, err := uc.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	id := s.nextSubscriber
	s.nextSubscriber++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}, nil
}

// Shutdown closes every live session and waits for in-flight callbacks
func (uc *IntakeUsecase) Shutdown(ctx context.Context) error {
	items := uc.sessions.Items()
	uc.sessions.Flush()
	for _, item := range items {
		if s, ok := item.Object.(*liveSession); ok {
			s.ctrl.Close()
			uc.metrics.SessionEnded()
		}
	}

	done := make(chan struct{})
	go func() {
		uc.callbacks.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (uc *IntakeUsecase) mutate(ctx context.Context, sessionID, action string, fn func(*intake.Controller) error) (*entity.SessionView, error) {
	s, err := uc.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	if err := fn(s.ctrl); err != nil {
		ctxzap.Debug(ctx, "intake action rejected",
			zap.String("session_id", sessionID),
			zap.String("action", action),
			zap.Error(err),
		)
		return nil, err
	}

	// sliding expiration
	uc.sessions.Set(sessionID, s, cache.DefaultExpiration)

	return uc.buildView(s, s.ctrl.State()), nil
}

func (uc *IntakeUsecase) getSession(sessionID string) (*liveSession, error) {
	item, ok := uc.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, entity.ErrSessionNotFound)
	}
	return item.(*liveSession), nil
}

func (uc *IntakeUsecase) onEvicted(id string, item any) {
	s, ok := item.(*liveSession)
	if !ok {
		return
	}
	state := s.ctrl.State()
	s.ctrl.Close()
	uc.metrics.SessionEnded()

	uc.logger.Debug("intake session evicted", zap.String("session_id", id))
	uc.dispatchAbandoned(s, state)
}

// dispatchAbandoned tells the integrator a session ended before any result
func (uc *IntakeUsecase) dispatchAbandoned(s *liveSession, state entity.FlowState) {
	if uc.callback == nil || s.callbackURL == "" {
		return
	}

	s.mu.Lock()
	delivered, reason := s.delivered, s.endReason
	s.mu.Unlock()
	if delivered {
		return
	}

	details := map[string]any{
		"session_id": s.id,
		"reason":     reason,
		"phase":      string(state.Phase),
		"step":       state.Step,
	}

	uc.callbacks.Add(1)
	go func() {
		defer uc.callbacks.Done()
		ctx := ctxzap.ToContext(context.Background(), uc.logger.With(zap.String("session_id", s.id)))
		uc.callback.SendError(ctx, s.callbackURL, s.id, "session ended without a result", details)
	}()
}

// onTransition runs after the controller releases its lock
func (uc *IntakeUsecase) onTransition(s *liveSession, prev, next entity.FlowState) {
	s.mu.Lock()
	s.updatedAt = uc.now().UTC()
	s.mu.Unlock()

	if next.Phase == entity.FlowPhaseCollecting && next.Step != prev.Step {
		uc.metrics.StepReached(uc.questionID(next.Step))
	}

	if prev.Phase == entity.FlowPhaseAnalyzing && next.Phase == entity.FlowPhaseResulted {
		uc.metrics.OutcomeClassified(next.Outcome)
		uc.dispatchResult(s, next)
	}

	view := uc.buildView(s, next)
	for _, fn := range s.snapshotSubscribers() {
		fn(view)
	}
}

func (uc *IntakeUsecase) dispatchResult(s *liveSession, state entity.FlowState) {
	logger := uc.logger.With(zap.String("session_id", s.id))
	logger.Info("intake session classified", zap.String("tier", string(state.Outcome)))

	if uc.callback == nil || s.callbackURL == "" {
		return
	}

	s.mu.Lock()
	s.delivered = true
	s.mu.Unlock()

	data := &entity.CallbackResultData{
		SessionID: s.id,
		Tier:      state.Outcome,
		Quote:     buildQuote(state),
	}
	if ans, ok := state.Answers[entity.QuestionIDContact]; ok && ans.Contact != nil {
		contact := *ans.Contact
		data.Contact = &contact
	}

	uc.callbacks.Add(1)
	go func() {
		defer uc.callbacks.Done()
		ctx := ctxzap.ToContext(context.Background(), logger)
		uc.callback.SendResult(ctx, s.callbackURL, s.id, data)
	}()
}

func (uc *IntakeUsecase) questionID(step int) string {
	q, ok := uc.catalog.At(step)
	if !ok {
		return ""
	}
	return q.ID
}

type liveSession struct {
	id          string
	callbackURL string
	createdAt   time.Time
	ctrl        *intake.Controller

	mu             sync.Mutex
	updatedAt      time.Time
	subscribers    map[int]func(*entity.SessionView)
	nextSubscriber int
	delivered      bool
	endReason      string
}

const (
	endReasonExpired   = "expired"
	endReasonCancelled = "cancelled"
)

func (s *liveSession) lastUpdate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *liveSession) snapshotSubscribers() []func(*entity.SessionView) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	fns := make([]func(*entity.SessionView), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subscribers[id])
	}
	return fns
}

func buildQuote(state entity.FlowState) *entity.Quote {
	return quote.Build(state.Outcome, classifier.MonthlyRevenue(state.Answers))
}
