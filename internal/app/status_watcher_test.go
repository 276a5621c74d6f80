package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"homework_status_bot/internal/domain/homework"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fetchResult struct {
	body string
	err  error
}

type fakeFetcher struct {
	results  []fetchResult
	cursors  []int64
	allCalls int
}

func (f *fakeFetcher) next() (homework.RawResponse, error) {
	r := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	if r.err != nil {
		return nil, r.err
	}
	var raw any
	if err := json.Unmarshal([]byte(r.body), &raw); err != nil {
		panic(err)
	}
	return raw, nil
}

func (f *fakeFetcher) FetchUpdates(ctx context.Context, cursor int64) (homework.RawResponse, error) {
	f.cursors = append(f.cursors, cursor)
	return f.next()
}

func (f *fakeFetcher) FetchAll(ctx context.Context) (homework.RawResponse, error) {
	f.allCalls++
	return f.next()
}

type fakeNotifier struct {
	sent []string
	err  error
}

func (n *fakeNotifier) Notify(ctx context.Context, message string) error {
	n.sent = append(n.sent, message)
	return n.err
}

type countingWaiter struct {
	waits  int
	cancel context.CancelFunc
	stopAt int
}

func (w *countingWaiter) Wait(ctx context.Context) error {
	w.waits++
	if w.waits >= w.stopAt {
		w.cancel()
	}
	return ctx.Err()
}

func quietEntry() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

const (
	approvedBody = `{"homeworks":[{"homework_name":"proj1","status":"approved"}],"current_date":1000}`
	approvedMsg  = `Изменился статус проверки работы "proj1". Работа проверена: ревьюеру всё понравилось. Ура!`
)

func newWatcher(f *fakeFetcher, n *fakeNotifier) *StatusWatcher {
	w := NewStatusWatcher(f, n, nil, quietEntry())
	w.now = func() time.Time { return time.Unix(5000, 0) }
	return w
}

func TestRunCycle_statusChangeNotifies(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{body: approvedBody}}}
	n := &fakeNotifier{}
	w := newWatcher(f, n)
	state := NewWatchState(time.Unix(900, 0))

	require.NoError(t, w.RunCycle(context.Background(), state))
	require.Equal(t, []int64{900}, f.cursors)
	require.Equal(t, []string{approvedMsg}, n.sent)
	require.Equal(t, int64(1000), state.Cursor)
	require.Equal(t, approvedMsg, state.LastVerdict)
}

func TestRunCycle_sameVerdictSuppressed(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{body: approvedBody}, {body: approvedBody}}}
	n := &fakeNotifier{}
	w := newWatcher(f, n)
	state := NewWatchState(time.Unix(900, 0))

	require.NoError(t, w.RunCycle(context.Background(), state))
	require.NoError(t, w.RunCycle(context.Background(), state))
	require.Len(t, n.sent, 1)
	require.Equal(t, []int64{900, 1000}, f.cursors)
}

func TestRunCycle_newVerdictAfterChange(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{
		{body: `{"homeworks":[{"homework_name":"proj1","status":"reviewing"}],"current_date":1000}`},
		{body: approvedBody},
	}}
	n := &fakeNotifier{}
	w := newWatcher(f, n)
	state := NewWatchState(time.Unix(900, 0))

	require.NoError(t, w.RunCycle(context.Background(), state))
	require.NoError(t, w.RunCycle(context.Background(), state))
	require.Equal(t, []string{
		`Изменился статус проверки работы "proj1". Работа взята на проверку ревьюером.`,
		approvedMsg,
	}, n.sent)
}

func TestRunCycle_upstreamFailureReportedOnce(t *testing.T) {
	unavailable := homework.NewError(homework.KindUpstreamUnavailable, "fetch", "practicum api responded with http 503")
	f := &fakeFetcher{results: []fetchResult{{err: unavailable}}}
	n := &fakeNotifier{}
	w := newWatcher(f, n)
	state := NewWatchState(time.Unix(900, 0))

	for i := 0; i < 3; i++ {
		err := w.RunCycle(context.Background(), state)
		require.Error(t, err)
		require.Equal(t, homework.KindUpstreamUnavailable, homework.KindOf(err))
	}
	require.Equal(t, []string{"Сбой в работе программы: fetch: practicum api responded with http 503"}, n.sent)
	require.Equal(t, int64(900), state.Cursor)
	require.Empty(t, state.LastVerdict)
}

func TestRunCycle_malformedKeepsCursor(t *testing.T) {
	for _, body := range []string{
		`{"current_date":1000}`,
		`{"homeworks":[]}`,
	} {
		f := &fakeFetcher{results: []fetchResult{{body: body}}}
		n := &fakeNotifier{}
		w := newWatcher(f, n)
		state := NewWatchState(time.Unix(900, 0))

		err := w.RunCycle(context.Background(), state)
		require.Error(t, err)
		require.Equal(t, homework.KindMalformedResponse, homework.KindOf(err))
		require.Equal(t, int64(900), state.Cursor)
		require.Len(t, n.sent, 1)
	}
}

func TestRunCycle_junkOlderElementIgnored(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{body: `{"homeworks":[{"homework_name":"proj1","status":"approved"},"junk"],"current_date":1000}`}}}
	n := &fakeNotifier{}
	w := newWatcher(f, n)
	state := NewWatchState(time.Unix(900, 0))

	require.NoError(t, w.RunCycle(context.Background(), state))
	require.Equal(t, []string{approvedMsg}, n.sent)
	require.Equal(t, int64(1000), state.Cursor)
}

func TestRunCycle_latestNotAnObject(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{body: `{"homeworks":["junk",{"homework_name":"proj1","status":"approved"}],"current_date":1000}`}}}
	n := &fakeNotifier{}
	w := newWatcher(f, n)
	state := NewWatchState(time.Unix(900, 0))

	err := w.RunCycle(context.Background(), state)
	require.Equal(t, homework.KindMalformedResponse, homework.KindOf(err))
	require.Equal(t, int64(900), state.Cursor)
	require.Len(t, n.sent, 1)
	require.Contains(t, n.sent[0], "Сбой в работе программы")
}

func TestRunCycle_unknownStatus(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{body: `{"homeworks":[{"homework_name":"proj1","status":"lost"}],"current_date":1000}`}}}
	n := &fakeNotifier{}
	w := newWatcher(f, n)
	state := NewWatchState(time.Unix(900, 0))

	err := w.RunCycle(context.Background(), state)
	require.Equal(t, homework.KindUnknownStatus, homework.KindOf(err))
	require.Equal(t, int64(900), state.Cursor)
	require.Len(t, n.sent, 1)
	require.Contains(t, n.sent[0], "Сбой в работе программы")
}

func TestRunCycle_emptyHomeworksAdvancesCursor(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{body: `{"homeworks":[],"current_date":1000}`}}}
	n := &fakeNotifier{}
	w := newWatcher(f, n)
	state := NewWatchState(time.Unix(900, 0))

	require.NoError(t, w.RunCycle(context.Background(), state))
	require.Empty(t, n.sent)
	require.Equal(t, int64(1000), state.Cursor)
}

func TestRunCycle_missingCurrentDateFallsBackToNow(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{body: `{"homeworks":[],"current_date":null}`}}}
	w := newWatcher(f, &fakeNotifier{})
	state := NewWatchState(time.Unix(900, 0))

	require.NoError(t, w.RunCycle(context.Background(), state))
	require.Equal(t, int64(5000), state.Cursor)
}

func TestRunCycle_deliveryFailureIsNotRemembered(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{body: approvedBody}}}
	n := &fakeNotifier{err: homework.WrapError(homework.KindDelivery, "notify", errors.New("chat not found"))}
	w := newWatcher(f, n)
	state := NewWatchState(time.Unix(900, 0))

	err := w.RunCycle(context.Background(), state)
	require.Equal(t, homework.KindDelivery, homework.KindOf(err))
	require.Empty(t, state.LastVerdict)
	require.Equal(t, int64(900), state.Cursor)
	// verdict attempt + failure report
	require.Len(t, n.sent, 2)

	err = w.RunCycle(context.Background(), state)
	require.Error(t, err)
	// verdict retried, identical failure suppressed
	require.Len(t, n.sent, 3)
	require.Equal(t, approvedMsg, n.sent[2])
}

func TestRunCycle_recoveryClearsLastError(t *testing.T) {
	unavailable := homework.NewError(homework.KindUpstreamUnavailable, "fetch", "practicum api responded with http 503")
	f := &fakeFetcher{results: []fetchResult{
		{err: unavailable},
		{body: `{"homeworks":[],"current_date":1000}`},
		{err: unavailable},
	}}
	n := &fakeNotifier{}
	w := newWatcher(f, n)
	state := NewWatchState(time.Unix(900, 0))

	require.Error(t, w.RunCycle(context.Background(), state))
	require.NoError(t, w.RunCycle(context.Background(), state))
	require.Empty(t, state.LastError)
	require.Error(t, w.RunCycle(context.Background(), state))
	require.Len(t, n.sent, 2)
}

func TestRunCycle_cancelledContextNotReported(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &fakeFetcher{results: []fetchResult{{err: homework.WrapError(homework.KindTransport, "fetch", context.Canceled)}}}
	n := &fakeNotifier{}
	w := newWatcher(f, n)

	require.Error(t, w.RunCycle(ctx, NewWatchState(time.Unix(900, 0))))
	require.Empty(t, n.sent)
}

func TestRun_loopsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &fakeFetcher{results: []fetchResult{{body: approvedBody}}}
	n := &fakeNotifier{}
	waiter := &countingWaiter{cancel: cancel, stopAt: 3}
	w := NewStatusWatcher(f, n, waiter, quietEntry())
	w.now = func() time.Time { return time.Unix(900, 0) }

	err := w.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 3, waiter.waits)
	require.Equal(t, []int64{900, 1000, 1000}, f.cursors)
	require.Equal(t, []string{approvedMsg}, n.sent)
}

func TestReportLatest(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{body: `{"homeworks":[{"homework_name":"proj2","status":"rejected"},{"homework_name":"proj1","status":"approved"}],"current_date":1000}`}}}
	n := &fakeNotifier{}
	w := newWatcher(f, n)

	require.NoError(t, w.ReportLatest(context.Background()))
	require.Equal(t, 1, f.allCalls)
	require.Equal(t, []string{`Статус последнего задания "proj2": Работа проверена: у ревьюера есть замечания.`}, n.sent)
}

func TestReportLatest_noHomeworks(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{body: `{"homeworks":[],"current_date":1000}`}}}
	n := &fakeNotifier{}
	w := newWatcher(f, n)

	require.NoError(t, w.ReportLatest(context.Background()))
	require.Equal(t, []string{noHomeworksMessage}, n.sent)
}

func TestReportLatest_fetchError(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{err: homework.NewError(homework.KindTransport, "fetch", "refused")}}}
	n := &fakeNotifier{}
	w := newWatcher(f, n)

	err := w.ReportLatest(context.Background())
	require.Equal(t, homework.KindTransport, homework.KindOf(err))
	require.Empty(t, n.sent)
}
