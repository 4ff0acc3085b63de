package remotestore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"pim-sync/core/reconcile"
	"pim-sync/core/record"
	"pim-sync/core/storage"
	"pim-sync/feature/calendar"
	"pim-sync/feature/contacts"
)

// prefix is the object key namespace for record payloads.
const prefix = "records"

// envelope is the stored object layout: the record itself plus its
// metadata bag and the store-side update timestamp.
type envelope struct {
	Kind     record.Kind       `json:"kind"`
	Event    *record.Event     `json:"event,omitempty"`
	Contact  *record.Contact   `json:"contact,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Updated  time.Time         `json:"updated"`
}

// Store adapts the object store to reconcile.StoreAdapter for one record
// kind.
type Store struct {
	client storage.Client
	bucket string
	kind   record.Kind
	scope  reconcile.Scope
	log    *zap.Logger

	now func() time.Time
}

// New creates a store adapter for the given kind and sync window.
func New(client storage.Client, bucket string, kind record.Kind, scope reconcile.Scope, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		client: client,
		bucket: bucket,
		kind:   kind,
		scope:  scope,
		log:    log,
		now:    time.Now,
	}
}

func (s *Store) Name() string { return "remote" }

func (s *Store) objectKey(id string) string {
	return path.Join(prefix, string(s.kind), id+".json")
}

func (s *Store) Enumerate(ctx context.Context, scope reconcile.Scope) ([]record.Record, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    path.Join(prefix, string(s.kind)) + "/",
		Recursive: true,
	}

	var out []record.Record
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, s.wrap(obj.Err)
		}
		rec, err := s.getObject(ctx, obj.Key)
		if err != nil {
			if reconcile.IsConnectivity(err) {
				return nil, err
			}
			s.log.Error("skipping undecodable object",
				zap.String("key", obj.Key), zap.Error(err))
			continue
		}
		if rec == nil {
			// Deleted between listing and fetch.
			continue
		}
		if start, ok := rec.StartsAt(); ok && !scope.Contains(start) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) FetchByID(ctx context.Context, id string) (record.Record, error) {
	return s.getObject(ctx, s.objectKey(id))
}

// FetchByCounterpartID scans the kind's namespace for the record whose
// stored counterpart id matches. The store has no secondary index, so this
// is a listing walk; callers use it only for individual lookups.
func (s *Store) FetchByCounterpartID(ctx context.Context, counterpartID string) (record.Record, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    path.Join(prefix, string(s.kind)) + "/",
		Recursive: true,
	}
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, s.wrap(obj.Err)
		}
		rec, err := s.getObject(ctx, obj.Key)
		if err != nil {
			if reconcile.IsConnectivity(err) {
				return nil, err
			}
			continue
		}
		if rec == nil {
			continue
		}
		if id, ok := rec.Metadata(reconcile.MetaCounterpartID); ok && id == counterpartID {
			return rec, nil
		}
	}
	return nil, nil
}

func (s *Store) InSyncWindow(t time.Time) bool { return s.scope.Contains(t) }

func (s *Store) Create(ctx context.Context, from record.Record) (record.Record, error) {
	switch src := from.(type) {
	case *record.Event:
		ev := calendar.NewEventFrom(src)
		ev.NativeID = uuid.NewString()
		ev.Updated = s.now()
		if err := s.putRecord(ctx, ev, ev.Updated); err != nil {
			return nil, err
		}
		return ev, nil
	case *record.Contact:
		c := contacts.NewContactFrom(src)
		c.NativeID = uuid.NewString()
		c.Updated = s.now()
		if err := s.putRecord(ctx, c, c.Updated); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported record kind %s", from.Kind())
	}
}

func (s *Store) Update(ctx context.Context, target, from record.Record) error {
	switch dst := target.(type) {
	case *record.Event:
		src, ok := from.(*record.Event)
		if !ok {
			return fmt.Errorf("kind mismatch: %s vs %s", target.Kind(), from.Kind())
		}
		s.logWarnings(target, calendar.MergeEvent(dst, src))
		dst.Updated = s.now()
		return s.putRecord(ctx, dst, dst.Updated)
	case *record.Contact:
		src, ok := from.(*record.Contact)
		if !ok {
			return fmt.Errorf("kind mismatch: %s vs %s", target.Kind(), from.Kind())
		}
		s.logWarnings(target, contacts.MergeContact(dst, src, contacts.MergeOptions{}))
		dst.Updated = s.now()
		return s.putRecord(ctx, dst, dst.Updated)
	default:
		return fmt.Errorf("unsupported record kind %s", target.Kind())
	}
}

func (s *Store) Delete(ctx context.Context, rec record.Record) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.objectKey(rec.ID()), minio.RemoveObjectOptions{})
	if err != nil {
		return s.wrap(err)
	}
	return nil
}

func (s *Store) LastModified(rec record.Record) time.Time {
	switch r := rec.(type) {
	case *record.Event:
		return r.Updated
	case *record.Contact:
		return r.Updated
	}
	return time.Time{}
}

// WriteMetadata rewrites the object with the current metadata bag, keeping
// the stored update timestamp so a cross-reference write does not count as
// an edit.
func (s *Store) WriteMetadata(ctx context.Context, rec record.Record) error {
	return s.putRecord(ctx, rec, s.LastModified(rec))
}

// ReleaseHandle is a no-op: objects hold no native handles.
func (s *Store) ReleaseHandle(record.Record) {}

// Etag derives an opaque change tag from the record's encoded payload.
func (s *Store) Etag(rec record.Record) string {
	data, err := json.Marshal(rec)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

func (s *Store) putRecord(ctx context.Context, rec record.Record, updated time.Time) error {
	env := envelope{Kind: rec.Kind(), Updated: updated}
	switch r := rec.(type) {
	case *record.Event:
		env.Event = r
		env.Metadata = r.MetadataMap()
	case *record.Contact:
		env.Contact = r
		env.Metadata = r.MetadataMap()
	default:
		return fmt.Errorf("unsupported record kind %s", rec.Kind())
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", rec.ID(), err)
	}
	_, err = s.client.PutObject(ctx, s.bucket, s.objectKey(rec.ID()),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return s.wrap(err)
	}
	return nil
}

// getObject fetches and decodes one record object. Missing objects return
// (nil, nil).
func (s *Store) getObject(ctx context.Context, key string) (record.Record, error) {
	reader, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrap(err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, s.wrap(err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}

	switch {
	case env.Event != nil:
		env.Event.SetMetadataMap(env.Metadata)
		env.Event.Updated = env.Updated
		return env.Event, nil
	case env.Contact != nil:
		env.Contact.SetMetadataMap(env.Metadata)
		env.Contact.Updated = env.Updated
		return env.Contact, nil
	default:
		return nil, fmt.Errorf("object %s carries no record", key)
	}
}

func (s *Store) logWarnings(rec record.Record, warnings []string) {
	for _, w := range warnings {
		s.log.Warn("field dropped during merge",
			zap.String("record", rec.Label()),
			zap.String("detail", w))
	}
}

func (s *Store) wrap(err error) error {
	return &reconcile.ConnectivityError{Store: s.Name(), Err: err}
}
