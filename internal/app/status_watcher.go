// internal/app/status_watcher.go
package app

import (
	"context"
	"fmt"
	"time"

	"homework_status_bot/internal/domain/homework"

	"github.com/sirupsen/logrus"
)

const (
	failureMessagePrefix = "Сбой в работе программы: "
	noHomeworksMessage   = "Домашних работ пока нет."
)

// UpdatesFetcher is the upstream homework API.
type UpdatesFetcher interface {
	FetchUpdates(ctx context.Context, cursor int64) (homework.RawResponse, error)
	FetchAll(ctx context.Context) (homework.RawResponse, error)
}

// Waiter blocks between cycles.
type Waiter interface {
	Wait(ctx context.Context) error
}

// WatchState is everything the loop remembers between cycles. It is owned by
// a single loop and never shared.
type WatchState struct {
	Cursor      int64  // from_date for the next request
	LastVerdict string // last verdict message that was delivered
	LastError   string // last failure message that was reported
}

func NewWatchState(now time.Time) *WatchState {
	return &WatchState{Cursor: now.Unix()}
}

// StatusWatcher polls the homework API and reports status changes to the chat.
type StatusWatcher struct {
	fetcher  UpdatesFetcher
	notifier Notifier
	waiter   Waiter
	logger   *logrus.Entry
	now      func() time.Time
}

func NewStatusWatcher(f UpdatesFetcher, n Notifier, w Waiter, logger *logrus.Entry) *StatusWatcher {
	return &StatusWatcher{
		fetcher:  f,
		notifier: n,
		waiter:   w,
		logger:   logger.WithField("component", "status_watcher"),
		now:      time.Now,
	}
}

// Run polls until ctx is cancelled. Cycle failures never stop the loop.
func (w *StatusWatcher) Run(ctx context.Context) error {
	state := NewWatchState(w.now())
	w.logger.WithField("cursor", state.Cursor).Info("Status watcher started")

	for {
		_ = w.RunCycle(ctx, state)
		if err := w.waiter.Wait(ctx); err != nil {
			w.logger.WithField("cursor", state.Cursor).Info("Status watcher stopped")
			return err
		}
	}
}

// RunCycle performs one fetch-validate-extract-notify pass and updates state.
// The returned error has already been logged and, unless it repeats the
// previous one, reported to the chat.
func (w *StatusWatcher) RunCycle(ctx context.Context, state *WatchState) error {
	err := w.checkStatus(ctx, state)
	if err == nil {
		state.LastError = ""
		return nil
	}
	if ctx.Err() != nil {
		// shutting down; nothing worth reporting
		return err
	}
	w.reportFailure(ctx, state, err)
	return err
}

func (w *StatusWatcher) checkStatus(ctx context.Context, state *WatchState) error {
	logCtx := w.logger.WithField("cursor", state.Cursor)

	raw, err := w.fetcher.FetchUpdates(ctx, state.Cursor)
	if err != nil {
		return err
	}
	resp, err := homework.Validate(raw)
	if err != nil {
		return err
	}

	if rec, ok := resp.Latest(); ok {
		message, err := homework.ExtractVerdict(rec)
		if err != nil {
			return err
		}
		logCtx = logCtx.WithFields(logrus.Fields{"homework": rec.Name, "status": string(rec.Status)})
		if message == state.LastVerdict {
			logCtx.Debug("Status unchanged, notification suppressed")
		} else {
			if err := w.notifier.Notify(ctx, message); err != nil {
				return err
			}
			state.LastVerdict = message
			logCtx.Info("Status change reported")
		}
	} else {
		logCtx.Debug("No new statuses")
	}

	if resp.CurrentDate != nil {
		state.Cursor = *resp.CurrentDate
	} else {
		state.Cursor = w.now().Unix()
	}
	return nil
}

func (w *StatusWatcher) reportFailure(ctx context.Context, state *WatchState, cause error) {
	message := failureMessagePrefix + cause.Error()
	logCtx := w.logger.WithError(cause).WithFields(logrus.Fields{
		"kind":   homework.KindOf(cause).String(),
		"cursor": state.Cursor,
	})
	logCtx.Error("Poll cycle failed")

	if message == state.LastError {
		logCtx.Debug("Same failure already reported, skipping chat notification")
		return
	}
	// Remembered even if the send below fails.
	state.LastError = message
	if err := w.notifier.Notify(ctx, message); err != nil {
		logCtx.WithField("notify_error", err.Error()).Error("Failed to report failure to chat")
	}
}

// ReportLatest sends the status of the most recent homework regardless of
// when it changed. Used by the one-shot probe.
func (w *StatusWatcher) ReportLatest(ctx context.Context) error {
	raw, err := w.fetcher.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch homeworks: %w", err)
	}
	resp, err := homework.Validate(raw)
	if err != nil {
		return fmt.Errorf("failed to validate homeworks: %w", err)
	}

	message := noHomeworksMessage
	if rec, ok := resp.Latest(); ok {
		message, err = homework.LatestStatusMessage(rec)
		if err != nil {
			return fmt.Errorf("failed to format latest status: %w", err)
		}
	}
	if err := w.notifier.Notify(ctx, message); err != nil {
		return fmt.Errorf("failed to send latest status: %w", err)
	}
	w.logger.Info("Latest status reported")
	return nil
}
