package delivery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/twilio-sms-mcp/internal/config"
	"github.com/teemow/twilio-sms-mcp/internal/twilio"
)

const (
	testFrom = "+13022716778"
	testTo   = "+15551234567"
	testSID  = "SM00000000000000000000000000000001"
)

// fakeProvider replays a scripted status sequence. The first entry is the
// status on the create response; each fetch returns the next one and repeats
// the last entry once the script is exhausted.
type fakeProvider struct {
	mu        sync.Mutex
	statuses  []string
	createErr error
	fetchErrs map[int]error

	creates   []twilio.MessageParams
	fetches   int
	fetchSIDs []string
}

func (f *fakeProvider) CreateMessage(_ context.Context, params twilio.MessageParams) (*twilio.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, params)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &twilio.Message{SID: testSID, Status: f.statusAt(0)}, nil
}

func (f *fakeProvider) FetchMessage(_ context.Context, sid string) (*twilio.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	f.fetchSIDs = append(f.fetchSIDs, sid)
	if err := f.fetchErrs[f.fetches]; err != nil {
		return nil, err
	}
	return &twilio.Message{SID: sid, Status: f.statusAt(f.fetches)}, nil
}

func (f *fakeProvider) statusAt(i int) string {
	if i >= len(f.statuses) {
		return f.statuses[len(f.statuses)-1]
	}
	return f.statuses[i]
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates) + f.fetches
}

type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func newTestTracker(t *testing.T, p Provider, s Sleeper) *Tracker {
	t.Helper()
	tr, err := NewTracker(p, TrackerConfig{
		From:         testFrom,
		PollInterval: DefaultPollInterval,
		MaxAttempts:  DefaultMaxAttempts,
		Sleeper:      s,
	})
	require.NoError(t, err)
	return tr
}

func TestSend_RejectsNonE164WithoutProviderCalls(t *testing.T) {
	for _, to := range []string{"5551234567", "", "1+5551234567", " +15551234567"} {
		t.Run(to, func(t *testing.T) {
			p := &fakeProvider{statuses: []string{"sent"}}
			tr := newTestTracker(t, p, &recordingSleeper{})

			res, err := tr.Send(context.Background(), SendRequest{To: to, Message: "hi"})

			require.Error(t, err)
			assert.Nil(t, res)
			var vErr *ValidationError
			assert.ErrorAs(t, err, &vErr)
			assert.Equal(t, "Phone number must be in E.164 format (e.g., +1234567890)", err.Error())
			assert.Zero(t, p.calls())
		})
	}
}

func TestSend_ImmediateSuccess(t *testing.T) {
	// E2E scenario 1: queued, then delivered.
	p := &fakeProvider{statuses: []string{"queued", "delivered"}}
	sleeper := &recordingSleeper{}
	tr := newTestTracker(t, p, sleeper)

	res, err := tr.Send(context.Background(), SendRequest{To: testTo, Message: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "[FINAL] ✅ Message sent successfully. Do not attempt to resend this message.", res.Text)
	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, MessageHandle(testSID), res.Handle)
	assert.Equal(t, StatusDelivered, res.Status)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, 1, p.fetches)
	assert.Equal(t, []string{testSID}, p.fetchSIDs)
	assert.Equal(t, []time.Duration{2 * time.Second}, sleeper.waits)

	require.Len(t, p.creates, 1)
	assert.Equal(t, twilio.MessageParams{To: testTo, From: testFrom, Body: "hello"}, p.creates[0])
}

func TestSend_SentOnCreateNeedsNoPolling(t *testing.T) {
	p := &fakeProvider{statuses: []string{"sent"}}
	sleeper := &recordingSleeper{}
	tr := newTestTracker(t, p, sleeper)

	res, err := tr.Send(context.Background(), SendRequest{To: testTo, Message: "hello"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, 1, res.Attempts)
	assert.Zero(t, p.fetches)
	assert.Empty(t, sleeper.waits)
}

func TestSend_FailureStatuses(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     string
		attempts int
	}{
		{
			// E2E scenario 2
			name:     "undelivered after sending",
			statuses: []string{"queued", "sending", "undelivered"},
			want:     "[FINAL] ❌ Failed to send message: Message could not be delivered.. Do not attempt to resend this message.",
			attempts: 3,
		},
		{
			name:     "failed on create",
			statuses: []string{"failed"},
			want:     "[FINAL] ❌ Failed to send message: Message failed to send.. Do not attempt to resend this message.",
			attempts: 1,
		},
		{
			name:     "failed on last allowed observation",
			statuses: []string{"queued", "queued", "queued", "queued", "queued", "queued", "queued", "queued", "queued", "failed"},
			want:     "[FINAL] ❌ Failed to send message: Message failed to send.. Do not attempt to resend this message.",
			attempts: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{statuses: tt.statuses}
			tr := newTestTracker(t, p, &recordingSleeper{})

			res, err := tr.Send(context.Background(), SendRequest{To: testTo, Message: "x"})
			require.NoError(t, err)

			assert.Equal(t, tt.want, res.Text)
			assert.Contains(t, res.Text, "Failed to send message")
			assert.Contains(t, res.Text, StatusMessage(res.Status))
			assert.Equal(t, OutcomeFailure, res.Outcome)
			assert.Equal(t, tt.attempts, res.Attempts)
		})
	}
}

func TestSend_StuckQueuedTimesOutAfterTenObservations(t *testing.T) {
	// E2E scenario 3
	p := &fakeProvider{statuses: []string{"queued"}}
	sleeper := &recordingSleeper{}
	tr := newTestTracker(t, p, sleeper)

	res, err := tr.Send(context.Background(), SendRequest{To: testTo, Message: "x"})
	require.NoError(t, err)

	assert.Equal(t, "[FINAL] ❌ Message status unknown after maximum attempts. Do not attempt to resend this message.", res.Text)
	assert.Equal(t, OutcomeTimeout, res.Outcome)
	assert.Equal(t, StatusQueued, res.Status)
	assert.Equal(t, 10, res.Attempts)
	assert.Len(t, p.creates, 1)
	assert.Equal(t, 9, p.fetches)
	assert.Equal(t, 10, p.calls())
	assert.Len(t, sleeper.waits, 9)
}

func TestSend_UnknownStatusIsNonTerminal(t *testing.T) {
	p := &fakeProvider{statuses: []string{"accepted", "scheduled", "sent"}}
	tr := newTestTracker(t, p, &recordingSleeper{})

	res, err := tr.Send(context.Background(), SendRequest{To: testTo, Message: "x"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, 3, res.Attempts)
}

func TestSend_SubmissionErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "authentication",
			err:     &twilio.APIError{StatusCode: 401, Code: 20003, Message: "Authenticate"},
			wantMsg: "Twilio authentication failed. Please check your Account SID and Auth Token.",
		},
		{
			name:    "invalid number",
			err:     &twilio.APIError{StatusCode: 400, Code: 21211, Message: "Invalid 'To' Phone Number"},
			wantMsg: "Invalid phone number format. Please use E.164 format (e.g., +1234567890)",
		},
		{
			name:    "service unavailable",
			err:     &twilio.APIError{StatusCode: 503, Message: "Service Unavailable"},
			wantMsg: "Failed to send SMS: Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{statuses: []string{"queued"}, createErr: tt.err}
			sleeper := &recordingSleeper{}
			tr := newTestTracker(t, p, sleeper)

			res, err := tr.Send(context.Background(), SendRequest{To: testTo, Message: "x"})

			assert.Nil(t, res)
			assert.EqualError(t, err, tt.wantMsg)
			assert.Len(t, p.creates, 1)
			assert.Zero(t, p.fetches)
			assert.Empty(t, sleeper.waits)
		})
	}
}

func TestSend_FetchErrorIsReturned(t *testing.T) {
	p := &fakeProvider{
		statuses:  []string{"queued", "queued", "delivered"},
		fetchErrs: map[int]error{1: errors.New("connection reset")},
	}
	tr := newTestTracker(t, p, &recordingSleeper{})

	res, err := tr.Send(context.Background(), SendRequest{To: testTo, Message: "x"})
	require.Error(t, err)
	assert.Nil(t, res)

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, "Failed to send SMS: connection reset", err.Error())
	assert.Len(t, p.creates, 1)
	assert.Equal(t, 1, p.fetches)
}

func TestSend_FetchErrorIsTranslated(t *testing.T) {
	p := &fakeProvider{
		statuses:  []string{"queued"},
		fetchErrs: map[int]error{2: &twilio.APIError{StatusCode: 401, Code: 20003, Message: "Authenticate"}},
	}
	tr := newTestTracker(t, p, &recordingSleeper{})

	_, err := tr.Send(context.Background(), SendRequest{To: testTo, Message: "x"})

	var authErr *ProviderAuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 2, p.fetches)
}

func TestSend_FetchErrorAfterCancellationReturnsTimeoutText(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &cancellingProvider{fakeProvider: fakeProvider{statuses: []string{"queued"}}, cancel: cancel}
	tr := newTestTracker(t, p, &recordingSleeper{})

	res, err := tr.Send(ctx, SendRequest{To: testTo, Message: "x"})
	require.NoError(t, err)

	assert.Equal(t, TextTimeout, res.Text)
	assert.Equal(t, 2, res.Attempts)
}

// cancellingProvider cancels the caller's context and fails the first fetch,
// as an HTTP client does when the request context goes away.
type cancellingProvider struct {
	fakeProvider
	cancel context.CancelFunc
}

func (p *cancellingProvider) FetchMessage(ctx context.Context, sid string) (*twilio.Message, error) {
	p.cancel()
	return nil, ctx.Err()
}

func TestSend_CancelledWhilePollingReturnsTimeoutText(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &fakeProvider{statuses: []string{"queued"}}
	calls := 0
	sleeper := SleeperFunc(func(ctx context.Context, _ time.Duration) error {
		calls++
		if calls == 3 {
			cancel()
		}
		return ctx.Err()
	})
	tr := newTestTracker(t, p, sleeper)

	res, err := tr.Send(ctx, SendRequest{To: testTo, Message: "x"})
	require.NoError(t, err)

	assert.Equal(t, TextTimeout, res.Text)
	assert.Equal(t, OutcomeTimeout, res.Outcome)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 2, p.fetches)
}

func TestSend_CustomAttemptBudget(t *testing.T) {
	p := &fakeProvider{statuses: []string{"queued"}}
	tr, err := NewTracker(p, TrackerConfig{
		From:         testFrom,
		PollInterval: 10 * time.Millisecond,
		MaxAttempts:  3,
		Sleeper:      &recordingSleeper{},
	})
	require.NoError(t, err)

	res, err := tr.Send(context.Background(), SendRequest{To: testTo, Message: "x"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 2, p.fetches)
}

func TestSend_ConcurrentSendsAreIndependent(t *testing.T) {
	tr := newTestTracker(t, &fakeProvider{statuses: []string{"queued", "sent"}}, &recordingSleeper{})

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := tr.Send(context.Background(), SendRequest{To: testTo, Message: "x"})
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, OutcomeSuccess, res.Outcome)
	}
}

func TestNewTracker(t *testing.T) {
	_, err := NewTracker(nil, TrackerConfig{From: testFrom})
	assert.Error(t, err)

	_, err = NewTracker(&fakeProvider{statuses: []string{"sent"}}, TrackerConfig{})
	assert.Error(t, err)

	_, err = NewTracker(&fakeProvider{statuses: []string{"sent"}}, TrackerConfig{From: testFrom, PollInterval: -time.Second})
	assert.Error(t, err)

	tr, err := NewTracker(&fakeProvider{statuses: []string{"sent"}}, TrackerConfig{From: testFrom})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxAttempts, tr.maxAttempts)
	assert.IsType(t, TimerSleeper{}, tr.sleeper)
	assert.Equal(t, testFrom, tr.From())
}

func TestConfigFrom(t *testing.T) {
	cfg := &config.Config{
		FromNumber:   "+15550001111",
		PollInterval: 500 * time.Millisecond,
		MaxAttempts:  4,
	}
	tc := ConfigFrom(cfg)
	assert.Equal(t, "+15550001111", tc.From)
	assert.Equal(t, 500*time.Millisecond, tc.PollInterval)
	assert.Equal(t, 4, tc.MaxAttempts)
}

func TestTimerSleeper(t *testing.T) {
	var s TimerSleeper
	assert.NoError(t, s.Sleep(context.Background(), time.Millisecond))
	assert.NoError(t, s.Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Sleep(ctx, time.Hour), context.Canceled)
}

func TestFinalText(t *testing.T) {
	assert.Equal(t, TextSuccess, FinalText(OutcomeSuccess, StatusSent))
	assert.Equal(t, TextTimeout, FinalText(OutcomeTimeout, StatusQueued))
	assert.Equal(t,
		"[FINAL] ❌ Failed to send message: Message status: rejected. Do not attempt to resend this message.",
		FinalText(OutcomeFailure, "rejected"))
	for _, o := range []Outcome{OutcomeSuccess, OutcomeFailure, OutcomeTimeout} {
		assert.Contains(t, FinalText(o, StatusFailed), "[FINAL]")
	}
}
