package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/debemdeboas/folio/internal/cache"
	"github.com/debemdeboas/folio/internal/db"
	"github.com/debemdeboas/folio/internal/model"
	"github.com/debemdeboas/folio/internal/util"
	"github.com/debemdeboas/folio/internal/util/compression"
)

const selectRecord = `SELECT id, kind, fields, fields_hash, image_url, user_id, created_at, updated_at FROM records`

type DBRecordRepository struct { // implements RecordRepository
	db         db.Db
	compressor compression.Compressor
	lists      cache.ListCache

	mu       sync.RWMutex
	notifier func(model.ChangeEvent)

	// Last seen id -> fields hash per kind, used to spot writes made by other processes.
	seen map[model.Kind]map[model.RecordID]string

	now func() time.Time
}

func NewDBRecordRepository(d db.Db, lists cache.ListCache) *DBRecordRepository {
	if lists == nil {
		lists = cache.NewMemoryListCache(0)
	}
	return &DBRecordRepository{
		db:         d,
		compressor: compression.NewZstd(),
		lists:      lists,
		seen:       make(map[model.Kind]map[model.RecordID]string),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *DBRecordRepository) SetChangeNotifier(notifier func(model.ChangeEvent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifier = notifier
}

func (r *DBRecordRepository) notify(op model.ChangeOp, kind model.Kind, id model.RecordID) {
	r.mu.RLock()
	n := r.notifier
	r.mu.RUnlock()
	if n != nil {
		n(model.ChangeEvent{Op: op, Kind: kind, ID: id, At: r.now()})
	}
}

func (r *DBRecordRepository) List(ctx context.Context, kind model.Kind, opts ListOptions) ([]model.ContentRecord, error) {
	if data, ok := r.lists.GetList(ctx, kind); ok {
		var records []model.ContentRecord
		if err := json.Unmarshal(data, &records); err == nil {
			return opts.Apply(records), nil
		}
		repoLogger.Warn().Str("kind", string(kind)).Msg("Discarding undecodable cached list")
		r.lists.Invalidate(ctx, kind)
	}

	records, err := r.load(ctx, kind)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(records); err == nil {
		r.lists.SetList(ctx, kind, data)
	}
	return opts.Apply(records), nil
}

func (r *DBRecordRepository) load(ctx context.Context, kind model.Kind) ([]model.ContentRecord, error) {
	rows, err := r.db.Query(ctx, selectRecord+` WHERE kind = ? ORDER BY created_at DESC, id`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("error querying records: %w", err)
	}
	defer rows.Close()

	records := make([]model.ContentRecord, 0)
	for rows.Next() {
		record, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *DBRecordRepository) scan(row scanner) (*model.ContentRecord, error) {
	var (
		record     model.ContentRecord
		id, kind   string
		owner      string
		compressed []byte
		created    time.Time
		updated    time.Time
	)
	if err := row.Scan(&id, &kind, &compressed, &record.FieldsHash, &record.ImageURL, &owner, &created, &updated); err != nil {
		return nil, err
	}

	raw, err := r.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("error decompressing fields of %s: %w", id, err)
	}
	if err := json.Unmarshal(raw, &record.Fields); err != nil {
		return nil, fmt.Errorf("error decoding fields of %s: %w", id, err)
	}

	record.ID = model.RecordID(id)
	record.Kind = model.Kind(kind)
	record.Owner = model.UserID(owner)
	created, updated = created.UTC(), updated.UTC()
	record.CreatedAt = &created
	record.UpdatedAt = &updated
	return &record, nil
}

func (r *DBRecordRepository) Get(ctx context.Context, kind model.Kind, id model.RecordID) (*model.ContentRecord, error) {
	row := r.db.QueryRow(ctx, selectRecord+` WHERE kind = ? AND id = ?`, string(kind), string(id))
	record, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading record: %w", err)
	}
	return record, nil
}

func (r *DBRecordRepository) pack(fields model.Fields) ([]byte, string, error) {
	if fields == nil {
		fields = model.Fields{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, "", fmt.Errorf("error encoding fields: %w", err)
	}
	compressed, err := r.compressor.Compress(raw)
	if err != nil {
		return nil, "", fmt.Errorf("error compressing fields: %w", err)
	}
	return compressed, util.ContentHash(raw), nil
}

// Create assigns an id when the record has none and stamps both timestamps.
func (r *DBRecordRepository) Create(ctx context.Context, record *model.ContentRecord) error {
	if record.ID == "" {
		record.ID = model.RecordID(uuid.New().String())
	}
	now := r.now()
	record.CreatedAt = &now
	record.UpdatedAt = &now

	compressed, hash, err := r.pack(record.Fields)
	if err != nil {
		return err
	}
	record.FieldsHash = hash

	_, err = r.db.Exec(ctx,
		`INSERT INTO records (id, kind, fields, fields_hash, image_url, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(record.ID), string(record.Kind), compressed, hash, record.ImageURL, string(record.Owner), now, now,
	)
	if err != nil {
		return fmt.Errorf("error saving record: %w", err)
	}

	repoLogger.Debug().Str("kind", string(record.Kind)).Str("id", string(record.ID)).Msg("Record created")
	r.committed(ctx, model.OpCreated, record.Kind, record.ID, hash)
	return nil
}

// Update overwrites fields and image of an existing record. Last write wins.
func (r *DBRecordRepository) Update(ctx context.Context, record *model.ContentRecord) error {
	compressed, hash, err := r.pack(record.Fields)
	if err != nil {
		return err
	}
	now := r.now()

	res, err := r.db.Exec(ctx,
		`UPDATE records SET fields = ?, fields_hash = ?, image_url = ?, updated_at = ? WHERE kind = ? AND id = ?`,
		compressed, hash, record.ImageURL, now, string(record.Kind), string(record.ID),
	)
	if err != nil {
		return fmt.Errorf("error saving record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	record.FieldsHash = hash
	record.UpdatedAt = &now
	repoLogger.Debug().Str("kind", string(record.Kind)).Str("id", string(record.ID)).Msg("Record updated")
	r.committed(ctx, model.OpUpdated, record.Kind, record.ID, hash)
	return nil
}

func (r *DBRecordRepository) Delete(ctx context.Context, kind model.Kind, id model.RecordID) error {
	res, err := r.db.Exec(ctx, `DELETE FROM records WHERE kind = ? AND id = ?`, string(kind), string(id))
	if err != nil {
		return fmt.Errorf("error deleting record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	repoLogger.Debug().Str("kind", string(kind)).Str("id", string(id)).Msg("Record deleted")
	r.committed(ctx, model.OpDeleted, kind, id, "")
	return nil
}

func (r *DBRecordRepository) committed(ctx context.Context, op model.ChangeOp, kind model.Kind, id model.RecordID, hash string) {
	r.lists.Invalidate(ctx, kind)

	r.mu.Lock()
	if seen, ok := r.seen[kind]; ok {
		if op == model.OpDeleted {
			delete(seen, id)
		} else {
			seen[id] = hash
		}
	}
	r.mu.Unlock()

	r.notify(op, kind, id)
}
