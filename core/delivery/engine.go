package delivery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/dmitrymomot/relaykit/core/logger"
	"github.com/dmitrymomot/relaykit/core/notify"
)

// ErrSenderNil is returned when an engine is constructed without a sender.
var ErrSenderNil = errors.New("sender is required")

// Defaults for the retry table and state machine.
const (
	defaultRetryLimit     = 5
	defaultRecordCapacity = 1024
	defaultRecordTTL      = time.Hour
)

// Notifier receives lifecycle notifications emitted by the engine.
// *notify.Registry satisfies it.
type Notifier interface {
	Emit(ctx context.Context, kind notify.Kind, payload any)
}

type noopNotifier struct{}

func (noopNotifier) Emit(context.Context, notify.Kind, any) {}

// Engine owns the per-event retry table and drives the delivery state
// machine: Pending -> Sending -> {Success, RetryScheduled, Abandoned,
// Rejected}, where RetryScheduled loops back to Sending after a backoff
// delay.
type Engine struct {
	sender     Sender
	notifier   Notifier
	logger     *slog.Logger
	retryLimit int
	baseDelay  time.Duration

	// records tracks attempt counts per event id. The cache is capacity
	// bounded so sustained failure cannot grow memory without limit; the
	// TTL reclaims records for deliveries that never reached a terminal
	// state.
	records *ttlcache.Cache[string, int]

	// inflight serializes run loops that share an event id, so repeated
	// updates of one id never send concurrently.
	inflightMu sync.Mutex
	inflight   map[string]*idLock

	disabled atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	delivered atomic.Int64
	retried   atomic.Int64
	rejected  atomic.Int64
	abandoned atomic.Int64
}

// Stats provides observability counters for monitoring and tests.
type Stats struct {
	Delivered int64 // deliveries that reached a 2xx outcome
	Retried   int64 // individual retry schedules
	Rejected  int64 // terminal server rejections
	Abandoned int64 // deliveries dropped after exhausting the retry limit
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	notifier       Notifier
	logger         *slog.Logger
	retryLimit     int
	baseDelay      time.Duration
	recordCapacity uint64
	recordTTL      time.Duration
}

// WithNotifier sets the notification sink for delivery outcomes.
func WithNotifier(n Notifier) EngineOption {
	return func(o *engineOptions) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithLogger sets the engine logger. If not set, logs are discarded.
func WithLogger(l *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRetryLimit caps how many send attempts a single event may consume.
func WithRetryLimit(limit int) EngineOption {
	return func(o *engineOptions) {
		if limit > 0 {
			o.retryLimit = limit
		}
	}
}

// WithBaseDelay sets the backoff floor and growth unit. Mainly useful to
// shorten delays in tests.
func WithBaseDelay(d time.Duration) EngineOption {
	return func(o *engineOptions) {
		if d > 0 {
			o.baseDelay = d
		}
	}
}

// WithRecordCapacity bounds the retry table size.
func WithRecordCapacity(capacity uint64) EngineOption {
	return func(o *engineOptions) {
		if capacity > 0 {
			o.recordCapacity = capacity
		}
	}
}

// WithRecordTTL bounds how long an idle retry record may live.
func WithRecordTTL(ttl time.Duration) EngineOption {
	return func(o *engineOptions) {
		if ttl > 0 {
			o.recordTTL = ttl
		}
	}
}

// NewEngine creates a delivery engine sending through the given sender.
func NewEngine(sender Sender, opts ...EngineOption) (*Engine, error) {
	if sender == nil {
		return nil, ErrSenderNil
	}

	options := &engineOptions{
		notifier:       noopNotifier{},
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		retryLimit:     defaultRetryLimit,
		baseDelay:      DefaultBaseDelay,
		recordCapacity: defaultRecordCapacity,
		recordTTL:      defaultRecordTTL,
	}
	for _, opt := range opts {
		opt(options)
	}

	records := ttlcache.New[string, int](
		ttlcache.WithTTL[string, int](options.recordTTL),
		ttlcache.WithCapacity[string, int](options.recordCapacity),
		ttlcache.WithDisableTouchOnHit[string, int](),
	)
	go records.Start()

	ctx, cancel := context.WithCancel(context.Background())

	return &Engine{
		sender:     sender,
		notifier:   options.notifier,
		logger:     options.logger,
		retryLimit: options.retryLimit,
		baseDelay:  options.baseDelay,
		records:    records,
		inflight:   make(map[string]*idLock),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// idLock is a refcounted per-id mutex; the refcount lets the engine drop
// the entry once no run loop holds or waits for it.
type idLock struct {
	sync.Mutex
	refs int
}

func (e *Engine) lockID(id string) *idLock {
	e.inflightMu.Lock()
	lk := e.inflight[id]
	if lk == nil {
		lk = &idLock{}
		e.inflight[id] = lk
	}
	lk.refs++
	e.inflightMu.Unlock()

	lk.Lock()
	return lk
}

func (e *Engine) unlockID(id string, lk *idLock) {
	lk.Unlock()

	e.inflightMu.Lock()
	lk.refs--
	if lk.refs == 0 {
		delete(e.inflight, id)
	}
	e.inflightMu.Unlock()
}

// Deliver starts the delivery loop for ev and returns immediately. A
// disabled engine drops the event before any network action.
func (e *Engine) Deliver(ev Event) {
	if e.disabled.Load() {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(e.ctx, ev)
	}()
}

// Disable suppresses new deliveries and future scheduled retries. Attempts
// already in flight are not aborted.
func (e *Engine) Disable() {
	e.disabled.Store(true)
}

// Close disables the engine, cancels scheduled retries, waits for in-flight
// attempts, and releases the retry table.
func (e *Engine) Close() {
	e.disabled.Store(true)
	e.cancel()
	e.wg.Wait()
	e.records.Stop()
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Delivered: e.delivered.Load(),
		Retried:   e.retried.Load(),
		Rejected:  e.rejected.Load(),
		Abandoned: e.abandoned.Load(),
	}
}

// run executes sequential send attempts for a single event until a
// terminal outcome. The per-id lock gives it exclusive ownership of the
// event's retry record, even when a caller replays the same id.
func (e *Engine) run(ctx context.Context, ev Event) {
	req, err := ev.request()
	if err != nil {
		e.logger.Error("failed to encode event",
			logger.Component("delivery"), logger.EventID(ev.ID), logger.Error(err))
		return
	}

	lk := e.lockID(ev.ID)
	defer e.unlockID(ev.ID, lk)

	for {
		if e.disabled.Load() {
			return
		}

		attempts := e.bumpAttempts(ev.ID)

		resp, sendErr := e.sender.Send(ctx, req)
		if sendErr == nil {
			switch classify(ev.Kind, resp.Status) {
			case OutcomeSuccess:
				e.records.Delete(ev.ID)
				e.delivered.Add(1)
				e.notifier.Emit(ctx, notify.KindResponse, notify.ResponsePayload{
					EventID: ev.ID,
					Status:  resp.Status,
					Body:    resp.Body,
					Request: req.Body,
				})
				return
			case OutcomeRejected:
				e.records.Delete(ev.ID)
				e.rejected.Add(1)
				e.reject(ctx, ev, resp)
				return
			}
		}

		// No retry is scheduled for the final permitted attempt; the
		// event is abandoned as soon as that attempt fails.
		if attempts >= e.retryLimit {
			e.records.Delete(ev.ID)
			e.abandoned.Add(1)
			e.logger.Error("delivery abandoned, retry limit exceeded",
				logger.Component("delivery"), logger.EventID(ev.ID),
				logger.Attempt(attempts), logger.Error(sendErr))
			return
		}

		delay := Backoff(attempts, e.baseDelay)
		e.retried.Add(1)
		e.logger.Warn("delivery attempt failed, retry scheduled",
			logger.Component("delivery"), logger.EventID(ev.ID),
			logger.Attempt(attempts), logger.Delay(delay), logger.Error(sendErr))
		e.notifier.Emit(ctx, notify.KindRetry, notify.RetryPayload{
			EventID: ev.ID,
			Attempt: attempts,
			Delay:   delay,
			Reason:  retryReason(resp, sendErr),
		})

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// reject handles terminal server rejections per status.
func (e *Engine) reject(ctx context.Context, ev Event, resp *Response) {
	switch resp.Status {
	case 401:
		e.logger.Error("delivery unauthorized",
			logger.Component("delivery"), logger.EventID(ev.ID), logger.Status(resp.Status))
		e.notifier.Emit(ctx, notify.KindUnauthorized, notify.UnauthorizedPayload{
			EventID: ev.ID,
			Status:  resp.Status,
			Body:    resp.Body,
		})
	case 404:
		e.logger.Error("update target not found",
			logger.Component("delivery"), logger.EventID(ev.ID))
		e.notifier.Emit(ctx, notify.KindNotFound, notify.NotFoundPayload{EventID: ev.ID})
	default:
		e.logger.Error("delivery rejected by server",
			logger.Component("delivery"), logger.EventID(ev.ID),
			logger.Status(resp.Status), slog.String("body", string(resp.Body)))
	}
}

// bumpAttempts increments and returns the attempt count for the event id,
// creating the record on the first attempt.
func (e *Engine) bumpAttempts(id string) int {
	attempts := 1
	if item := e.records.Get(id); item != nil {
		attempts = item.Value() + 1
	}
	e.records.Set(id, attempts, ttlcache.DefaultTTL)
	return attempts
}

func retryReason(resp *Response, sendErr error) string {
	if sendErr != nil {
		return sendErr.Error()
	}
	if resp != nil {
		return "unexpected status " + strconv.Itoa(resp.Status)
	}
	return "unknown"
}
