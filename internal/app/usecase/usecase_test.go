package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fardannozami/wa-session-gateway/internal/dispatch"
	"github.com/fardannozami/wa-session-gateway/internal/infra/db"
	"github.com/fardannozami/wa-session-gateway/internal/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSessionAndStatus(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	out, err := NewCreateSessionUsecase(fx.registry).Execute(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.False(t, out.IsConnected)
	assert.False(t, out.PairingAvailable)

	again, err := NewCreateSessionUsecase(fx.registry).Execute(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, again.Created)

	_, err = NewCreateSessionUsecase(fx.registry).Execute(ctx, "bad id")
	assert.ErrorIs(t, err, session.ErrInvalidSession)

	st, err := NewSessionStatusUsecase(fx.registry).Execute(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", st.Session)
	assert.True(t, st.AutoReconnect)

	_, err = NewSessionStatusUsecase(fx.registry).Execute(ctx, "nobody")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestPairCodeWaitsForCode(t *testing.T) {
	fx := newFixture(t)

	type result struct {
		out *PairCodeOutput
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := NewPairCodeUsecase(fx.registry).Execute(context.Background(), "s1")
		done <- result{out, err}
	}()

	tr := fx.factory.transport(t, "s1")
	conn, ok := fx.registry.Get("s1")
	require.True(t, ok)
	require.Eventually(t, func() bool { return conn.State() == session.StateConnecting }, time.Second, 5*time.Millisecond)
	tr.emit(session.TransportEvent{Kind: session.EventPairingCode, Code: "2@pairing-code"})

	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, "ready", r.out.Status)
	assert.Equal(t, "2@pairing-code", r.out.Code)
	assert.True(t, strings.HasPrefix(r.out.QRCode, "data:image/png;base64,"))
}

func TestPairCodeWhenConnected(t *testing.T) {
	fx := newFixture(t)
	fx.connect(t, "s1")

	out, err := NewPairCodeUsecase(fx.registry).Execute(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "connected", out.Status)
	assert.Empty(t, out.Code)
}

func TestPairCodeConnectsWhileWaiting(t *testing.T) {
	fx := newFixture(t)

	type result struct {
		out *PairCodeOutput
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := NewPairCodeUsecase(fx.registry).Execute(context.Background(), "s1")
		done <- result{out, err}
	}()

	tr := fx.factory.transport(t, "s1")
	time.Sleep(50 * time.Millisecond)
	tr.emit(session.TransportEvent{Kind: session.EventOpen})

	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, "connected", r.out.Status)
	assert.Empty(t, r.out.Code)
}

func TestPairStream(t *testing.T) {
	fx := newFixture(t)
	uc := NewPairStreamUsecase(fx.registry, 45*time.Second)
	ctx := context.Background()

	_, _, err := uc.Next(ctx, "s1")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	require.NoError(t, uc.Start(ctx, "s1"))
	tr := fx.factory.transport(t, "s1")
	tr.emit(session.TransportEvent{Kind: session.EventPairingCode, Code: "abc"})

	require.Eventually(t, func() bool {
		out, done, err := uc.Next(ctx, "s1")
		return err == nil && !done && out.PairingCode == "abc" && out.ExpiresIn > 0
	}, time.Second, 5*time.Millisecond)

	tr.emit(session.TransportEvent{Kind: session.EventOpen})
	require.Eventually(t, func() bool {
		out, done, err := uc.Next(ctx, "s1")
		return err == nil && done && out.Status == "connected"
	}, time.Second, 5*time.Millisecond)
}

func TestStopAndDelete(t *testing.T) {
	fx := newFixture(t)
	fx.connect(t, "s1")
	ctx := context.Background()

	st, err := NewStopSessionUsecase(fx.registry).Execute(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, st.AutoReconnect)
	assert.False(t, st.IsConnected)
	assert.Empty(t, fx.factory.purged)

	list, err := NewListSessionsUsecase(fx.registry).Execute(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	del := NewDeleteSessionUsecase(fx.registry, fx.dispatcher)
	ok, err := del.Execute(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"s1"}, fx.factory.purged)

	ok, err = del.Execute(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err = NewListSessionsUsecase(fx.registry).Execute(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSendMessage(t *testing.T) {
	fx := newFixture(t)
	uc := NewSendMessageUsecase(fx.registry, fx.dispatcher)
	ctx := context.Background()
	req := dispatch.Request{Target: "6281234567890", Content: dispatch.Content{Text: "hi"}}

	_, err := uc.Execute(ctx, "s1", req)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	_, _, err = fx.registry.GetOrCreate("s1")
	require.NoError(t, err)
	_, err = uc.Execute(ctx, "s1", req)
	assert.ErrorIs(t, err, session.ErrNotConnected)

	fx.connect(t, "s1")
	d, err := uc.Execute(ctx, "s1", req)
	require.NoError(t, err)
	assert.Equal(t, "6281234567890@s.whatsapp.net", d.Target)
	assert.Len(t, d.Receipts, 1)
}

func TestSendBatchSyncAndAsync(t *testing.T) {
	fx := newFixture(t)
	fx.connect(t, "s1")

	jobs, err := NewJobRunner(context.Background(), 8, zerolog.Nop())
	require.NoError(t, err)
	uc := NewSendBatchUsecase(fx.registry, fx.dispatcher, jobs, BatchDefaults{})
	zero := time.Duration(0)

	out, err := uc.Batch(context.Background(), BatchInput{
		Session: "s1",
		Target:  "6281234567890",
		Items:   []dispatch.Content{{Text: "a"}, {Text: "b"}},
		Delay:   &zero,
	})
	require.NoError(t, err)
	require.NotNil(t, out.Result)
	assert.Equal(t, 2, out.Result.Succeeded)

	out, err = uc.Fanout(context.Background(), FanoutInput{
		Session: "s1",
		Messages: []dispatch.Request{
			{Target: "6281111111111", Content: dispatch.Content{Text: "x"}},
			{Target: "6282222222222", Content: dispatch.Content{Text: "y"}},
		},
		Async: true,
	})
	require.NoError(t, err)
	require.NotNil(t, out.Job)
	assert.Equal(t, "fanout", out.Job.Mode)

	jobs.Wait()
	job, err := NewGetJobUsecase(jobs).Execute(context.Background(), out.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobFinished, job.Status)
	require.NotNil(t, job.Result)
	assert.Equal(t, 2, job.Result.Succeeded)
	assert.Equal(t, 4, fx.factory.transport(t, "s1").sentCount())

	_, err = NewGetJobUsecase(jobs).Execute(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestSendBatchAsyncValidatesFirst(t *testing.T) {
	fx := newFixture(t)
	fx.connect(t, "s1")
	jobs, err := NewJobRunner(context.Background(), 8, zerolog.Nop())
	require.NoError(t, err)
	uc := NewSendBatchUsecase(fx.registry, fx.dispatcher, jobs, BatchDefaults{})

	_, err = uc.Batch(context.Background(), BatchInput{
		Session: "s1",
		Target:  "6281234567890",
		Items:   []dispatch.Content{{Text: "a"}, {Document: &dispatch.Media{URL: "https://x/a.pdf"}}},
		Async:   true,
	})
	var ipe *dispatch.InvalidPayloadError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, 1, ipe.Index)
	assert.Equal(t, 0, fx.factory.transport(t, "s1").sentCount())
}

func TestJobRunnerRecordsFailure(t *testing.T) {
	jobs, err := NewJobRunner(context.Background(), 1, zerolog.Nop())
	require.NoError(t, err)

	job := jobs.Submit("s1", "batch", 1, func(ctx context.Context) (dispatch.BatchResult, error) {
		return dispatch.BatchResult{}, errors.New("boom")
	})
	jobs.Wait()

	got, err := jobs.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobFailed, got.Status)
	assert.Equal(t, "boom", got.Error)
	assert.False(t, got.FinishedAt.IsZero())
}

type stubSource struct{ ids []string }

func (s stubSource) SessionsOnDisk() ([]string, error) { return s.ids, nil }

type stubClosed map[string]bool

func (s stubClosed) IsClosed(id string) bool { return s[id] }

func TestRestoreSkipsClosedSessions(t *testing.T) {
	fx := newFixture(t)
	uc := NewRestoreSessionsUsecase(fx.registry, stubSource{ids: []string{"a", "b", "c"}}, stubClosed{"b": true}, zerolog.Nop())

	restored, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, restored)
	assert.Equal(t, []string{"a", "c"}, fx.registry.IDs())
}

type stubOwners struct {
	created []string
}

func (s *stubOwners) Create(ctx context.Context, username, email, phone string) (db.Owner, bool, error) {
	s.created = append(s.created, email)
	return db.Owner{ID: "o1", Username: username, Email: email, Phone: phone, SessionID: "sess"}, true, nil
}

func (s *stubOwners) Owns(ctx context.Context, id, sessionID string) (bool, error) {
	return id == "o1" && sessionID == "sess", nil
}

func TestCreateOwner(t *testing.T) {
	repo := &stubOwners{}
	uc := NewCreateOwnerUsecase(repo)
	ctx := context.Background()

	out, err := uc.Execute(ctx, CreateOwnerInput{Username: "ana", Email: "ana@example.com", Phone: "+62 811-2345-678"})
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.Equal(t, "628112345678", out.Owner.Phone)

	_, err = uc.Execute(ctx, CreateOwnerInput{Username: "ana"})
	assert.ErrorIs(t, err, ErrInvalidOwner)

	_, err = uc.Execute(ctx, CreateOwnerInput{Username: "ana", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidOwner)

	assert.Len(t, repo.created, 1)
}
