package remotestore_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"pim-sync/core/reconcile"
	"pim-sync/core/record"
	"pim-sync/core/storage/mocks"
	"pim-sync/feature/remotestore"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const bucket = "pim-sync"

var eventStart = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func listResult(infos ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(infos))
	for _, info := range infos {
		ch <- info
	}
	close(ch)
	return ch
}

func envelopeJSON(t *testing.T, ev *record.Event, metadata map[string]string, updated time.Time) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"kind":     "event",
		"event":    ev,
		"metadata": metadata,
		"updated":  updated,
	})
	require.NoError(t, err)
	return data
}

func TestCreateWritesEnvelope(t *testing.T) {
	client := new(mocks.Client)
	var storedKey string
	var storedBody []byte
	client.On("PutObject", mock.Anything, bucket, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			storedKey = args.String(2)
			storedBody, _ = io.ReadAll(args.Get(3).(io.Reader))
		}).
		Return(minio.UploadInfo{}, nil)

	store := remotestore.New(client, bucket, record.KindEvent, reconcile.Scope{Kind: record.KindEvent}, zap.NewNop())
	created, err := store.Create(context.Background(), &record.Event{Subject: "Planning", Start: eventStart})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID())

	assert.Equal(t, fmt.Sprintf("records/event/%s.json", created.ID()), storedKey)

	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(storedBody, &env))
	assert.Contains(t, string(env["kind"]), "event")

	var ev record.Event
	require.NoError(t, json.Unmarshal(env["event"], &ev))
	assert.Equal(t, "Planning", ev.Subject)

	// The store assigns its own update timestamp on create.
	assert.False(t, created.(*record.Event).Updated.IsZero())
	client.AssertExpectations(t)
}

func TestEnumerateDecodesAndFilters(t *testing.T) {
	inWindow := &record.Event{NativeID: "r1", Subject: "Soon", Start: eventStart}
	outOfWindow := &record.Event{NativeID: "r2", Subject: "Ancient", Start: eventStart.AddDate(-1, 0, 0)}

	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, bucket, mock.Anything).
		Return(listResult(
			minio.ObjectInfo{Key: "records/event/r1.json"},
			minio.ObjectInfo{Key: "records/event/r2.json"},
		))
	client.On("GetObject", mock.Anything, bucket, "records/event/r1.json", mock.Anything).
		Return(io.NopCloser(bytes.NewReader(envelopeJSON(t, inWindow, map[string]string{
			reconcile.MetaCounterpartID: "l1",
		}, eventStart))), nil)
	client.On("GetObject", mock.Anything, bucket, "records/event/r2.json", mock.Anything).
		Return(io.NopCloser(bytes.NewReader(envelopeJSON(t, outOfWindow, nil, eventStart))), nil)

	scope := reconcile.Scope{
		Kind: record.KindEvent,
		From: eventStart.AddDate(0, 0, -30),
		To:   eventStart.AddDate(0, 0, 60),
	}
	store := remotestore.New(client, bucket, record.KindEvent, scope, zap.NewNop())
	recs, err := store.Enumerate(context.Background(), scope)
	require.NoError(t, err)

	require.Len(t, recs, 1)
	assert.Equal(t, "r1", recs[0].ID())
	cid, ok := recs[0].Metadata(reconcile.MetaCounterpartID)
	require.True(t, ok)
	assert.Equal(t, "l1", cid)
	assert.True(t, recs[0].(*record.Event).Updated.Equal(eventStart))
}

func TestEnumerateUndecodableObjectSkipped(t *testing.T) {
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, bucket, mock.Anything).
		Return(listResult(minio.ObjectInfo{Key: "records/event/bad.json"}))
	client.On("GetObject", mock.Anything, bucket, "records/event/bad.json", mock.Anything).
		Return(io.NopCloser(strings.NewReader("not json")), nil)

	store := remotestore.New(client, bucket, record.KindEvent, reconcile.Scope{Kind: record.KindEvent}, zap.NewNop())
	recs, err := store.Enumerate(context.Background(), reconcile.Scope{Kind: record.KindEvent})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestDeleteRemovesObject(t *testing.T) {
	client := new(mocks.Client)
	client.On("RemoveObject", mock.Anything, bucket, "records/event/r1.json", mock.Anything).
		Return(nil)

	store := remotestore.New(client, bucket, record.KindEvent, reconcile.Scope{Kind: record.KindEvent}, zap.NewNop())
	err := store.Delete(context.Background(), &record.Event{NativeID: "r1", Subject: "Gone", Start: eventStart})
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestWriteMetadataKeepsUpdateTimestamp(t *testing.T) {
	client := new(mocks.Client)
	var storedBody []byte
	client.On("PutObject", mock.Anything, bucket, "records/event/r1.json", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			storedBody, _ = io.ReadAll(args.Get(3).(io.Reader))
		}).
		Return(minio.UploadInfo{}, nil)

	ev := &record.Event{NativeID: "r1", Subject: "Planning", Start: eventStart, Updated: eventStart}
	ev.SetMetadata(reconcile.MetaCounterpartID, "l1")

	store := remotestore.New(client, bucket, record.KindEvent, reconcile.Scope{Kind: record.KindEvent}, zap.NewNop())
	require.NoError(t, store.WriteMetadata(context.Background(), ev))

	var env struct {
		Metadata map[string]string `json:"metadata"`
		Updated  time.Time         `json:"updated"`
	}
	require.NoError(t, json.Unmarshal(storedBody, &env))
	assert.Equal(t, "l1", env.Metadata[reconcile.MetaCounterpartID])
	// A cross-reference write must not look like an edit on the next run.
	assert.True(t, env.Updated.Equal(eventStart))
}

func TestEtagTracksContent(t *testing.T) {
	client := new(mocks.Client)
	store := remotestore.New(client, bucket, record.KindEvent, reconcile.Scope{Kind: record.KindEvent}, zap.NewNop())

	ev := &record.Event{NativeID: "r1", Subject: "Planning", Start: eventStart}
	first := store.Etag(ev)
	assert.NotEmpty(t, first)
	assert.Equal(t, first, store.Etag(ev))

	ev.Subject = "Planning moved"
	assert.NotEqual(t, first, store.Etag(ev))
}

func TestFetchByCounterpartIDPropagatesConnectivity(t *testing.T) {
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, bucket, mock.Anything).
		Return(listResult(minio.ObjectInfo{Key: "records/event/r1.json"}))
	client.On("GetObject", mock.Anything, bucket, "records/event/r1.json", mock.Anything).
		Return(nil, errors.New("connection refused"))

	store := remotestore.New(client, bucket, record.KindEvent, reconcile.Scope{Kind: record.KindEvent}, zap.NewNop())
	rec, err := store.FetchByCounterpartID(context.Background(), "l1")
	require.Error(t, err)
	assert.True(t, reconcile.IsConnectivity(err))
	assert.Nil(t, rec)
}
