package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hance08/dtl/internal/constants"
	"github.com/hance08/dtl/internal/ledger"
	"github.com/hance08/dtl/internal/metrics"
	"github.com/hance08/dtl/internal/model"
	"github.com/hance08/dtl/internal/store"
	"go.uber.org/zap"
)

const (
	stepApply      = "apply_balance"
	stepUpsert     = "upsert_confirmed"
	stepCheckpoint = "checkpoint"
)

var errSubscriptionClosed = errors.New("subscription closed")

type ConfirmerOptions struct {
	Contract string
	// StartBlock is where the first backfill begins when no checkpoint is
	// stored. Zero means the current head: history before it is assumed to
	// be reflected in the seeded balances.
	StartBlock   uint64
	Backfill     bool
	StepTimeout  time.Duration
	RetryInitial time.Duration
	RetryMax     time.Duration
	Checkpoint   string
}

// Confirmer is the event-driven writer. It is the only component that
// changes balances and the only one that marks a transfer confirmed.
type Confirmer struct {
	repo    store.Repository
	source  EventSource
	opts    ConfirmerOptions
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu sync.Mutex
	// unsettled maps events whose apply or upsert failed to their block.
	// The checkpoint never moves past the lowest of them, so the next
	// backfill replays them.
	unsettled map[model.EventKey]uint64
}

func NewConfirmer(repo store.Repository, source EventSource, opts ConfirmerOptions, logger *zap.Logger, m *metrics.Metrics) *Confirmer {
	if opts.Checkpoint == "" {
		opts.Checkpoint = constants.ConfirmerCheckpoint
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = 15 * time.Second
	}
	return &Confirmer{
		repo:      repo,
		source:    source,
		opts:      opts,
		logger:    logger.Named("confirmer"),
		metrics:   m,
		unsettled: make(map[model.EventKey]uint64),
	}
}

// Run consumes Transfer events until ctx is cancelled. A lost subscription
// is re-established with exponential backoff and the gap is backfilled
// from the stored checkpoint.
func (c *Confirmer) Run(ctx context.Context) error {
	c.logger.Info("confirmer started", zap.String("contract", c.opts.Contract))

	for {
		sub, err := c.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("confirmer stopped")
				return nil
			}
			return err
		}

		err = c.drain(ctx, sub)
		sub.Unsubscribe()

		if ctx.Err() != nil {
			c.logger.Info("confirmer stopped")
			return nil
		}

		c.metrics.Resubscriptions.Inc()
		c.logger.Warn("subscription lost, resubscribing", zap.Error(err))

		select {
		case <-ctx.Done():
			c.logger.Info("confirmer stopped")
			return nil
		case <-time.After(c.opts.RetryInitial):
		}
	}
}

// connect subscribes first and backfills second, so no event emitted in
// between is missed. Events seen by both are deduplicated on apply.
func (c *Confirmer) connect(ctx context.Context) (ledger.Subscription, error) {
	var sub ledger.Subscription

	operation := func() error {
		s, err := c.source.SubscribeTransferEvents(ctx, c.opts.Contract)
		if err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
		if err := c.backfill(ctx); err != nil {
			s.Unsubscribe()
			return fmt.Errorf("backfill: %w", err)
		}
		sub = s
		return nil
	}

	notify := func(err error, next time.Duration) {
		c.logger.Warn("confirmer not connected, retrying", zap.Error(err), zap.Duration("retry_in", next))
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(c.newBackOff(), ctx), notify); err != nil {
		return nil, err
	}
	return sub, nil
}

func (c *Confirmer) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if c.opts.RetryInitial > 0 {
		b.InitialInterval = c.opts.RetryInitial
	}
	if c.opts.RetryMax > 0 {
		b.MaxInterval = c.opts.RetryMax
	}
	b.MaxElapsedTime = 0
	return b
}

func (c *Confirmer) backfill(ctx context.Context) error {
	if !c.opts.Backfill {
		return nil
	}

	from, ok, err := c.repo.Checkpoint(ctx, c.opts.Checkpoint)
	if err != nil {
		return err
	}
	if !ok {
		if c.opts.StartBlock == 0 {
			head, err := c.source.BlockNumber(ctx)
			if err != nil {
				return fmt.Errorf("failed to read head block: %w", err)
			}
			c.logger.Info("no checkpoint, starting at head", zap.Uint64("block", head))
			return c.repo.SaveCheckpoint(ctx, c.opts.Checkpoint, head)
		}
		from = c.opts.StartBlock
	}

	// the checkpoint block itself is re-read: it may hold events after the
	// last one processed
	events, err := c.source.TransferEventsSince(ctx, c.opts.Contract, from)
	if err != nil {
		return err
	}

	c.logger.Info("backfilling", zap.Uint64("from_block", from), zap.Int("events", len(events)))
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		_ = c.Reconcile(ctx, ev)
	}
	return nil
}

func (c *Confirmer) drain(ctx context.Context, sub ledger.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			if err == nil {
				err = errSubscriptionClosed
			}
			return err
		case ev := <-sub.Events():
			_ = c.Reconcile(ctx, ev)
		}
	}
}

// Reconcile applies one Transfer event to the cache. The balance and
// confirmed-row steps are both attempted even when one fails; failures are
// logged and returned joined, and are not retried for this delivery. The
// checkpoint only advances once the event is settled, so a failed event is
// replayed by the next backfill. The steps ignore ctx's cancellation and are
// bounded by the step timeout instead.
func (c *Confirmer) Reconcile(ctx context.Context, ev ledger.TransferEvent) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.StepTimeout)
	defer cancel()

	log := c.logger.With(
		zap.String("tx_hash", ev.TxHash),
		zap.Uint("log_index", ev.LogIndex),
		zap.Uint64("block", ev.BlockNumber),
		zap.String("from", ev.From),
		zap.String("to", ev.To),
		zap.Uint64("amount", ev.Amount),
	)

	var errs []error
	settled := true

	applied, err := c.repo.ApplyTransferEvent(ctx, ev.Key(), ev.From, ev.To, ev.Amount)
	switch {
	case err != nil:
		settled = false
		errs = append(errs, c.stepFailed(log, stepApply, err))
	case !applied:
		c.metrics.ConfirmerEvents.WithLabelValues(stepApply, "duplicate").Inc()
		log.Debug("event already applied")
	default:
		c.metrics.ConfirmerEvents.WithLabelValues(stepApply, "ok").Inc()
		c.warnIfOverdrawn(ctx, log, ev.From)
	}

	confirmed := &model.Transfer{
		ID:          ev.TxHash,
		From:        ev.From,
		To:          ev.To,
		Amount:      ev.Amount,
		Status:      model.StatusConfirmed,
		BlockNumber: ev.BlockNumber,
	}
	if err := c.repo.UpsertTransaction(ctx, confirmed); err != nil {
		settled = false
		errs = append(errs, c.stepFailed(log, stepUpsert, err))
	} else {
		c.metrics.ConfirmerEvents.WithLabelValues(stepUpsert, "ok").Inc()
	}

	if target, ok := c.checkpointTarget(ev, settled); ok {
		if err := c.repo.SaveCheckpoint(ctx, c.opts.Checkpoint, target); err != nil {
			errs = append(errs, c.stepFailed(log, stepCheckpoint, err))
		} else {
			c.metrics.LastBlock.Set(float64(target))
		}
	} else {
		log.Warn("checkpoint held until the event is applied")
	}

	if len(errs) == 0 {
		log.Info("transfer confirmed")
	}
	return errors.Join(errs...)
}

// checkpointTarget records whether ev is settled and returns the block the
// checkpoint may move to. It reports false for an unsettled event.
func (c *Confirmer) checkpointTarget(ev ledger.TransferEvent, settled bool) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := ev.Key()
	if !settled {
		c.unsettled[key] = ev.BlockNumber
		return 0, false
	}
	delete(c.unsettled, key)

	target := ev.BlockNumber
	for _, block := range c.unsettled {
		if block < target {
			target = block
		}
	}
	return target, true
}

func (c *Confirmer) stepFailed(log *zap.Logger, step string, err error) error {
	c.metrics.ConfirmerEvents.WithLabelValues(step, "failed").Inc()
	if step != stepCheckpoint {
		c.metrics.CacheWriteFailures.WithLabelValues("confirmer").Inc()
	}
	log.Error("reconciliation step failed", zap.String("step", step), zap.NamedError("reason", ErrCacheWriteFailed), zap.Error(err))
	return fmt.Errorf("%s: %w", step, err)
}

func (c *Confirmer) warnIfOverdrawn(ctx context.Context, log *zap.Logger, address string) {
	acc, err := c.repo.GetAccount(ctx, address)
	if err != nil {
		return
	}
	if acc.Balance < 0 {
		log.Warn("cached balance is negative; sender was not seeded with its ledger balance",
			zap.String("account", acc.Address), zap.Int64("balance", acc.Balance))
	}
}
