package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/treq/internal/core/collection"
	"github.com/sadopc/treq/internal/core/errs"
	"github.com/sadopc/treq/internal/core/request"
	"github.com/sadopc/treq/internal/protocol"
)

func okTransport(status int, body string) protocol.TransportFunc {
	return func(req request.Data) (*protocol.Response, error) {
		return &protocol.Response{Status: status, Body: body, Stage: protocol.StageFinished}, nil
	}
}

func newTestSession(t *testing.T, transport protocol.Transport) *Session {
	t.Helper()
	return New(transport, collection.New(t.TempDir()))
}

func TestSubmitByID(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, okTransport(200, "ok"))

	id, err := s.Add(ctx, request.New(request.MethodGet, "http://x/get"))
	require.NoError(t, err)

	resp, err := s.SubmitByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "ok", resp.Body)
	assert.Equal(t, protocol.StageFinished, resp.Stage)
}

func TestSubmitByIDUnknown(t *testing.T) {
	s := newTestSession(t, okTransport(200, "ok"))

	_, err := s.SubmitByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSubmitPropagatesTransportFailure(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("connection refused")
	s := newTestSession(t, protocol.TransportFunc(func(req request.Data) (*protocol.Response, error) {
		return nil, &errs.TransportError{Method: req.Method.String(), URL: req.URL.String(), Err: cause}
	}))

	id, err := s.Add(ctx, request.New(request.MethodPost, "http://x/post"))
	require.NoError(t, err)

	_, err = s.SubmitByID(ctx, id)
	assert.ErrorIs(t, err, errs.ErrTransport)
	assert.ErrorIs(t, err, cause)
}

func TestSubmitSendsCurrentValue(t *testing.T) {
	ctx := context.Background()
	got := make(chan request.Data, 1)
	s := newTestSession(t, protocol.TransportFunc(func(req request.Data) (*protocol.Response, error) {
		got <- req
		return &protocol.Response{Status: 204, Stage: protocol.StageFinished}, nil
	}))

	id, err := s.Add(ctx, request.New(request.MethodGet, "http://x/a"))
	require.NoError(t, err)
	require.NoError(t, s.Edit(ctx, id, request.New(request.MethodGet, "http://x/b")))

	_, err = s.SubmitByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "http://x/b", (<-got).URL.String())
}

func TestStoreOperations(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, okTransport(200, ""))

	r1 := request.New(request.MethodGet, "http://x/1")
	r2 := request.New(request.MethodPut, "http://x/2")

	id, err := s.Add(ctx, r1)
	require.NoError(t, err)
	require.NoError(t, s.Edit(ctx, id, r2))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Equal(r2))

	require.NoError(t, s.Undo(ctx, id))
	got, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Equal(r1))

	require.NoError(t, s.Redo(ctx, id))
	got, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Equal(r2))

	ids, err := s.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, ids)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, s.Edit(ctx, id, r1), errs.ErrNotFound)
	assert.ErrorIs(t, s.Undo(ctx, id), errs.ErrNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, okTransport(200, ""))

	r := request.New(request.MethodGet, "http://x/")
	r.SetHeader("Accept", "text/plain")
	id, err := s.Add(ctx, r)
	require.NoError(t, err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	got.Headers["Accept"] = "changed"

	again, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", again.Headers["Accept"])
}

func TestSaveAsOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, okTransport(200, ""))

	r1 := request.New(request.MethodGet, "http://x/one")
	r2 := request.New(request.MethodPost, "http://x/two")
	r2.Body = `{"a":1}`

	require.NoError(t, s.SaveAs(ctx, "foo", r1))
	require.NoError(t, s.SaveAs(ctx, "foo", r2))

	got, err := s.GetSaved(ctx, "foo")
	require.NoError(t, err)
	assert.True(t, got.Equal(r2))
}

func TestSavedLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, okTransport(200, ""))
	r := request.New(request.MethodDelete, "https://api.example.com/items/1")

	require.NoError(t, s.SaveAs(ctx, "a", r))
	require.NoError(t, s.SaveAs(ctx, "b", r))

	names, err := s.ListSaved(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, s.RenameSaved(ctx, "a", "c"))
	_, err = s.GetSaved(ctx, "a")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	got, err := s.GetSaved(ctx, "c")
	require.NoError(t, err)
	assert.True(t, got.Equal(r))

	require.NoError(t, s.RemoveSaved(ctx, "b"))
	assert.ErrorIs(t, s.RemoveSaved(ctx, "b"), errs.ErrNotFound)
	assert.ErrorIs(t, s.SaveAs(ctx, "../escape", r), errs.ErrInvalidName)

	names, err = s.ListSaved(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, names)
}

func TestSlowSubmissionDoesNotBlockEdits(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{})
	s := newTestSession(t, protocol.TransportFunc(func(req request.Data) (*protocol.Response, error) {
		close(started)
		<-release
		return &protocol.Response{Status: 200, Body: req.URL.String(), Stage: protocol.StageFinished}, nil
	}))

	id, err := s.Add(ctx, request.New(request.MethodGet, "http://x/before"))
	require.NoError(t, err)

	c, err := s.SubmitAsync(ctx, id)
	require.NoError(t, err)
	<-started

	editCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, s.Edit(editCtx, id, request.New(request.MethodGet, "http://x/after")))
	require.NoError(t, s.SaveAs(editCtx, "side", request.New(request.MethodGet, "http://x/side")))

	close(release)
	resp, err := c.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://x/before", resp.Body)
}

func TestConcurrentCallers(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, okTransport(200, "ok"))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.Add(ctx, request.New(request.MethodGet, "http://x/get"))
			if !assert.NoError(t, err) {
				return
			}
			assert.NoError(t, s.Edit(ctx, id, request.New(request.MethodHead, "http://x/head")))
			resp, err := s.SubmitByID(ctx, id)
			if assert.NoError(t, err) {
				assert.Equal(t, 200, resp.Status)
			}
			_, err = s.ListSaved(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	ids, err := s.IDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 16)
}

func TestSetTransport(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, okTransport(200, "first"))
	require.NoError(t, s.SetTransport(ctx, okTransport(201, "second")))

	resp, err := s.Submit(ctx, request.New(request.MethodGet, "http://x/"))
	require.NoError(t, err)
	assert.Equal(t, 201, resp.Status)

	require.NoError(t, s.SetTransport(ctx, nil))
	_, err = s.Submit(ctx, request.New(request.MethodGet, "http://x/"))
	assert.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestCancelledContextFailsFast(t *testing.T) {
	s := newTestSession(t, okTransport(200, ""))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Held so Add has to wait on ctx.
	require.NoError(t, s.storeMu.Lock(context.Background()))
	defer s.storeMu.Unlock()

	_, err := s.Add(ctx, request.New(request.MethodGet, "http://x/"))
	assert.ErrorIs(t, err, context.Canceled)
}
