package bridge_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/strandline/httpbridge/internal/bridge"
	"github.com/strandline/httpbridge/internal/bytestream"
	"github.com/strandline/httpbridge/internal/engine"
)

func streamOf(s string) *bytestream.Reader {
	return bytestream.FromBytes([]byte(s))
}

// echoEngine answers every request with its own body.
type echoEngine struct{}

func (echoEngine) Send(ctx context.Context, r *engine.Request) (*engine.Response, error) {
	var buf []byte
	if r.Body != nil {
		var err error
		buf, err = io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
	}
	return &engine.Response{
		Proto:         "HTTP/1.1",
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Header:        http.Header{},
		ContentLength: int64(len(buf)),
		Body:          io.NopCloser(bytes.NewReader(buf)),
	}, nil
}

// blockingEngine parks until the context is done.
type blockingEngine struct{}

func (blockingEngine) Send(ctx context.Context, _ *engine.Request) (*engine.Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestReplyPairing(t *testing.T) {
	b := bridge.New(echoEngine{}, zerolog.Nop())
	defer b.Close()

	var g errgroup.Group
	for i := 0; i < 100; i++ {
		i := i
		g.Go(func() error {
			payload := fmt.Sprintf("req-%d", i)
			resp, err := b.Dispatch(context.Background(), &engine.Request{
				Method: "POST",
				URL:    "http://echo.test/",
				Body:   streamOf(payload),
			})
			if err != nil {
				return err
			}
			got, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if string(got) != payload {
				return fmt.Errorf("request %d received body %q", i, got)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestCloseStopsDispatcher(t *testing.T) {
	b := bridge.New(echoEngine{}, zerolog.Nop())
	b.Close()
	b.Close() // idempotent

	select {
	case <-b.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher goroutine did not terminate after Close")
	}

	_, err := b.Dispatch(context.Background(), &engine.Request{})
	require.ErrorIs(t, err, bridge.ErrClosed)
}

func TestInFlightCompletesAcrossClose(t *testing.T) {
	b := bridge.New(echoEngine{}, zerolog.Nop())

	done := make(chan error, 1)
	go func() {
		resp, err := b.Dispatch(context.Background(), &engine.Request{Body: streamOf("late")})
		if err == nil {
			_, err = io.ReadAll(resp.Body)
		}
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	b.Close()
	require.NoError(t, <-done)
}

func TestDispatchHonorsContext(t *testing.T) {
	b := bridge.New(blockingEngine{}, zerolog.Nop())
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := b.Dispatch(ctx, &engine.Request{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
