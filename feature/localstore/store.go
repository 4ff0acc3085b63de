package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pim-sync/core/reconcile"
	"pim-sync/core/record"
	"pim-sync/feature/calendar"
	"pim-sync/feature/contacts"
)

// Store adapts the database to reconcile.StoreAdapter for one record kind.
type Store struct {
	db    *gorm.DB
	kind  record.Kind
	scope reconcile.Scope
	log   *zap.Logger
}

// New creates a store adapter for the given kind and sync window.
func New(db *gorm.DB, kind record.Kind, scope reconcile.Scope, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, kind: kind, scope: scope, log: log}
}

// Migrate creates or updates the backing tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&EventRow{}, &ContactRow{})
}

func (s *Store) Name() string { return "local" }

func (s *Store) Enumerate(ctx context.Context, scope reconcile.Scope) ([]record.Record, error) {
	if s.kind == record.KindContact {
		var rows []ContactRow
		if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
			return nil, s.wrap(err)
		}
		out := make([]record.Record, 0, len(rows))
		for _, row := range rows {
			rec, err := s.decodeContact(row)
			if err != nil {
				s.log.Error("skipping undecodable contact row",
					zap.String("id", row.ID), zap.Error(err))
				continue
			}
			out = append(out, rec)
		}
		return out, nil
	}

	q := s.db.WithContext(ctx).Model(&EventRow{})
	if !scope.From.IsZero() {
		q = q.Where("start >= ?", scope.From)
	}
	if !scope.To.IsZero() {
		q = q.Where("start <= ?", scope.To)
	}
	var rows []EventRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, s.wrap(err)
	}
	out := make([]record.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := s.decodeEvent(row)
		if err != nil {
			s.log.Error("skipping undecodable event row",
				zap.String("id", row.ID), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) FetchByID(ctx context.Context, id string) (record.Record, error) {
	if s.kind == record.KindContact {
		var row ContactRow
		err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, s.wrap(err)
		}
		return s.decodeContact(row)
	}
	var row EventRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.wrap(err)
	}
	return s.decodeEvent(row)
}

func (s *Store) FetchByCounterpartID(ctx context.Context, counterpartID string) (record.Record, error) {
	if s.kind == record.KindContact {
		var row ContactRow
		err := s.db.WithContext(ctx).First(&row, "counterpart_id = ?", counterpartID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, s.wrap(err)
		}
		return s.decodeContact(row)
	}
	var row EventRow
	err := s.db.WithContext(ctx).First(&row, "counterpart_id = ?", counterpartID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.wrap(err)
	}
	return s.decodeEvent(row)
}

func (s *Store) InSyncWindow(t time.Time) bool { return s.scope.Contains(t) }

func (s *Store) Create(ctx context.Context, from record.Record) (record.Record, error) {
	switch src := from.(type) {
	case *record.Event:
		ev := calendar.NewEventFrom(src)
		ev.NativeID = uuid.NewString()
		if err := s.saveEvent(ctx, ev); err != nil {
			return nil, err
		}
		return ev, nil
	case *record.Contact:
		c := contacts.NewContactFrom(src)
		c.NativeID = uuid.NewString()
		if err := s.saveContact(ctx, c); err != nil {
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
		return s.saveEvent(ctx, dst)
	case *record.Contact:
		src, ok := from.(*record.Contact)
		if !ok {
			return fmt.Errorf("kind mismatch: %s vs %s", target.Kind(), from.Kind())
		}
		s.logWarnings(target, contacts.MergeContact(dst, src, contacts.MergeOptions{}))
		return s.saveContact(ctx, dst)
	default:
		return fmt.Errorf("unsupported record kind %s", target.Kind())
	}
}

func (s *Store) Delete(ctx context.Context, rec record.Record) error {
	var err error
	if rec.Kind() == record.KindContact {
		err = s.db.WithContext(ctx).Delete(&ContactRow{}, "id = ?", rec.ID()).Error
	} else {
		err = s.db.WithContext(ctx).Delete(&EventRow{}, "id = ?", rec.ID()).Error
	}
	if err != nil {
		return s.wrap(err)
	}
	return nil
}

// LastModified returns the row's update timestamp. The column holds minute
// precision only, matching the watermark truncation.
func (s *Store) LastModified(rec record.Record) time.Time {
	switch r := rec.(type) {
	case *record.Event:
		return r.Updated
	case *record.Contact:
		return r.Updated
	}
	return time.Time{}
}

// WriteMetadata persists the record's metadata bag into the dedicated
// cross-reference columns without touching the payload's update timestamp.
func (s *Store) WriteMetadata(ctx context.Context, rec record.Record) error {
	counterpart, _ := rec.Metadata(reconcile.MetaCounterpartID)
	lastSynced, _ := rec.Metadata(reconcile.MetaLastSynced)
	etag, _ := rec.Metadata(reconcile.MetaEtag)
	cols := map[string]any{
		"counterpart_id": counterpart,
		"last_synced":    lastSynced,
		"etag":           etag,
	}

	var err error
	if rec.Kind() == record.KindContact {
		err = s.db.WithContext(ctx).Model(&ContactRow{}).
			Where("id = ?", rec.ID()).UpdateColumns(cols).Error
	} else {
		err = s.db.WithContext(ctx).Model(&EventRow{}).
			Where("id = ?", rec.ID()).UpdateColumns(cols).Error
	}
	if err != nil {
		return s.wrap(err)
	}
	return nil
}

// ReleaseHandle is a no-op: rows hold no native handles.
func (s *Store) ReleaseHandle(record.Record) {}

func (s *Store) saveEvent(ctx context.Context, ev *record.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event %s: %w", ev.NativeID, err)
	}
	counterpart, _ := ev.Metadata(reconcile.MetaCounterpartID)
	lastSynced, _ := ev.Metadata(reconcile.MetaLastSynced)
	etag, _ := ev.Metadata(reconcile.MetaEtag)
	row := EventRow{
		ID:            ev.NativeID,
		Subject:       ev.Subject,
		Start:         ev.Start,
		End:           ev.End,
		AllDate:       ev.AllDate,
		Status:        ev.Status,
		Payload:       string(payload),
		CounterpartID: counterpart,
		LastSynced:    lastSynced,
		Etag:          etag,
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return s.wrap(err)
	}
	ev.Updated = reconcile.TruncateMinute(time.Now())
	return nil
}

func (s *Store) saveContact(ctx context.Context, c *record.Contact) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding contact %s: %w", c.NativeID, err)
	}
	counterpart, _ := c.Metadata(reconcile.MetaCounterpartID)
	lastSynced, _ := c.Metadata(reconcile.MetaLastSynced)
	etag, _ := c.Metadata(reconcile.MetaEtag)
	row := ContactRow{
		ID:            c.NativeID,
		DisplayName:   c.Name.Full(),
		Payload:       string(payload),
		CounterpartID: counterpart,
		LastSynced:    lastSynced,
		Etag:          etag,
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return s.wrap(err)
	}
	c.Updated = reconcile.TruncateMinute(time.Now())
	return nil
}

func (s *Store) decodeEvent(row EventRow) (*record.Event, error) {
	var ev record.Event
	if err := json.Unmarshal([]byte(row.Payload), &ev); err != nil {
		return nil, fmt.Errorf("decoding event %s: %w", row.ID, err)
	}
	ev.NativeID = row.ID
	ev.Updated = reconcile.TruncateMinute(row.UpdatedAt)
	s.loadMetadata(&ev.Meta, row.CounterpartID, row.LastSynced, row.Etag)
	return &ev, nil
}

func (s *Store) decodeContact(row ContactRow) (*record.Contact, error) {
	var c record.Contact
	if err := json.Unmarshal([]byte(row.Payload), &c); err != nil {
		return nil, fmt.Errorf("decoding contact %s: %w", row.ID, err)
	}
	c.NativeID = row.ID
	c.Updated = reconcile.TruncateMinute(row.UpdatedAt)
	s.loadMetadata(&c.Meta, row.CounterpartID, row.LastSynced, row.Etag)
	return &c, nil
}

func (s *Store) loadMetadata(m *record.Meta, counterpart, lastSynced, etag string) {
	if counterpart != "" {
		m.SetMetadata(reconcile.MetaCounterpartID, counterpart)
	}
	if lastSynced != "" {
		m.SetMetadata(reconcile.MetaLastSynced, lastSynced)
	}
	if etag != "" {
		m.SetMetadata(reconcile.MetaEtag, etag)
	}
}

func (s *Store) logWarnings(rec record.Record, warnings []string) {
	for _, w := range warnings {
		s.log.Warn("field dropped during merge",
			zap.String("record", rec.Label()),
			zap.String("detail", w))
	}
}

// wrap turns a database failure into a ConnectivityError. Row-level misses
// never reach here; they are reported as (nil, nil) by the callers.
func (s *Store) wrap(err error) error {
	return &reconcile.ConnectivityError{Store: s.Name(), Err: err}
}
