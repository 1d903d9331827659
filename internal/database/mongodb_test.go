package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestConnectWithRetry_GivesUp(t *testing.T) {
	calls := 0
	boom := errors.New("connection refused")
	_, err := ConnectWithRetry(context.Background(), 3, time.Millisecond, func(ctx context.Context) (*mongo.Client, error) {
		calls++
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, calls)
}

func TestConnectWithRetry_SucceedsLater(t *testing.T) {
	calls := 0
	want := &mongo.Client{}
	got, err := ConnectWithRetry(context.Background(), 5, time.Millisecond, func(ctx context.Context) (*mongo.Client, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("not yet")
		}
		return want, nil
	})
	require.NoError(t, err)
	require.Same(t, want, got)
	require.Equal(t, 3, calls)
}

func TestConnectWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ConnectWithRetry(ctx, 5, time.Hour, func(ctx context.Context) (*mongo.Client, error) {
		return nil, errors.New("down")
	})
	require.ErrorIs(t, err, context.Canceled)
}
