package valkey

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stroppy-io/gatedfetch/internal/core/ids"
	"github.com/stroppy-io/gatedfetch/internal/domain/fetch"
	"github.com/stroppy-io/gatedfetch/internal/domain/outcome"
	"github.com/valkey-io/valkey-go"
)

func testClient(t *testing.T) valkey.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping valkey integration test in short mode")
	}
	url := os.Getenv(ValkeyUrlKey)
	if url == "" {
		t.Skipf("%s is not set", ValkeyUrlKey)
	}
	client, err := NewValkey(&Config{Url: url})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestEntryFields_RoundTrip(t *testing.T) {
	at := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	tr := fetch.Transition{
		RunId:   ids.RunId("01jtest"),
		From:    fetch.StateValidating,
		To:      fetch.StateFailed,
		Kind:    outcome.KindValidation,
		Err:     outcome.NewAgeError(18),
		At:      at,
		Elapsed: 1500 * time.Millisecond,
	}

	values := map[string]string{}
	for _, kv := range entryFields(tr) {
		values[kv[0]] = kv[1]
	}
	entry := parseEntry("1-0", values)

	require.Equal(t, Entry{
		Id:      "1-0",
		RunId:   "01jtest",
		From:    "validating",
		To:      "failed",
		Kind:    "validation",
		Error:   "Age less than 18",
		At:      at,
		Elapsed: 1500 * time.Millisecond,
	}, entry)
}

func TestEntryFields_SuccessHasNoError(t *testing.T) {
	fields := entryFields(fetch.Transition{To: fetch.StateDone, Kind: outcome.KindTransport, Err: errors.New("stale")})

	for _, kv := range fields {
		require.NotEqual(t, fieldKind, kv[0])
		require.NotEqual(t, fieldError, kv[0])
	}
}

func TestParseEntry_ToleratesGarbage(t *testing.T) {
	entry := parseEntry("2-0", map[string]string{fieldAt: "yesterday", fieldElapsed: "soon"})

	require.True(t, entry.At.IsZero())
	require.Zero(t, entry.Elapsed)
}

func TestNewJournal_Defaults(t *testing.T) {
	j := NewJournal(nil, &Config{})

	require.Equal(t, DefaultStream, j.stream)
	require.EqualValues(t, DefaultMaxLen, j.maxLen)
}

func TestConfig(t *testing.T) {
	require.False(t, (*Config)(nil).Enabled())
	require.False(t, (&Config{}).Enabled())
	require.True(t, (&Config{Url: "redis://localhost:6379"}).Enabled())
	require.True(t, (&Config{Addresses: []string{"localhost:6379"}}).Enabled())
	require.Error(t, (&Config{MaxLen: -1}).Validate())

	_, err := clientOption(&Config{Url: "::not a url"})
	require.Error(t, err)
	opt, err := clientOption(&Config{Addresses: []string{"127.0.0.1:6379"}, Password: "developer"})
	require.NoError(t, err)
	require.Equal(t, []string{"127.0.0.1:6379"}, opt.InitAddress)
}

func TestJournal_History(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	stream := fmt.Sprintf("gatedfetch:test:%s", ids.NewRunId())
	t.Cleanup(func() { _ = client.Do(ctx, client.B().Del().Key(stream).Build()).Error() })

	journal := NewJournal(client, &Config{Stream: stream, MaxLen: 100})
	runId := ids.NewRunId()
	other := ids.NewRunId()

	journal.Observe(ctx, fetch.Transition{RunId: runId, From: fetch.StateStart, To: fetch.StateValidating, At: time.Now()})
	journal.Observe(ctx, fetch.Transition{RunId: other, From: fetch.StateStart, To: fetch.StateValidating, At: time.Now()})
	journal.Observe(ctx, fetch.Transition{
		RunId: runId, From: fetch.StateValidating, To: fetch.StateFailed,
		Kind: outcome.KindValidation, Err: outcome.NewAgeError(18), At: time.Now(),
	})

	history, err := journal.History(ctx, runId)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "validating", history[0].To)
	require.Equal(t, "failed", history[1].To)
	require.Equal(t, "Age less than 18", history[1].Error)

	all, err := journal.History(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
}
