package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chwoo19999-a11y/my-first-project/models"
	"github.com/chwoo19999-a11y/my-first-project/utils"
)

// LikesIndex names the like sidecar for Invalidate.
const LikesIndex = "user_likes"

var errReadOnly = errors.New("write attempted in read-only transaction")

// Seeder returns the initial rows of a table whose blob does not exist yet.
type Seeder func(schema Schema) []Row

// HeaderOnly seeds every table empty.
func HeaderOnly(Schema) []Row { return nil }

// Option configures a Store.
type Option func(*Store)

// WithSeeder replaces the seeder used for missing tables.
func WithSeeder(seed Seeder) Option {
	return func(s *Store) {
		if seed != nil {
			s.seed = seed
		}
	}
}

// WithSchemas replaces the table set.
func WithSchemas(schemas ...Schema) Option {
	return func(s *Store) {
		s.schemas = make(map[string]Schema, len(schemas))
		for _, sc := range schemas {
			s.schemas[sc.Name] = sc
		}
	}
}

// Store is the record store. All reads and writes run one at a time behind mu, so id
// assignment and read-modify-write cycles never interleave within the process.
type Store struct {
	mu      sync.Mutex
	backend Backend
	schemas map[string]Schema
	seed    Seeder

	tables map[string]*Table
	likes  *LikeIndex
}

// New builds a Store over backend. Tables are loaded lazily.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		seed:    HeaderOnly,
		tables:  map[string]*Table{},
	}
	WithSchemas(DefaultSchemas()...)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tx runs fn with exclusive access. Mutations are staged on copies of the touched tables and
// written in one batch when fn returns nil; the cache is only updated once the batch is durable.
func (s *Store) Tx(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := newTx(ctx, s, false)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

// Read runs fn with exclusive read-only access.
func (s *Store) Read(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(newTx(ctx, s, true))
}

// Invalidate drops cached tables so the next access re-reads the backend. With no names the whole
// cache is dropped.
func (s *Store) Invalidate(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(names) == 0 {
		s.tables = map[string]*Table{}
		s.likes = nil
		return
	}
	for _, name := range names {
		if name == LikesIndex {
			s.likes = nil
			continue
		}
		delete(s.tables, name)
	}
}

// Load returns a copy of every row of table.
func (s *Store) Load(ctx context.Context, table string) ([]Row, error) {
	var rows []Row
	err := s.Read(ctx, func(tx *Tx) error {
		var err error
		rows, err = tx.Load(table)
		return err
	})
	return rows, err
}

// Append adds row to table and persists it.
func (s *Store) Append(ctx context.Context, table string, row Row) error {
	return s.Tx(ctx, func(tx *Tx) error { return tx.Append(table, row) })
}

// Update sets field to value on every row matching pred and returns how many rows changed.
func (s *Store) Update(ctx context.Context, table string, pred Predicate, field, value string) (int, error) {
	var n int
	err := s.Tx(ctx, func(tx *Tx) error {
		var err error
		n, err = tx.Update(table, pred, field, value)
		return err
	})
	return n, err
}

// Delete removes every row matching pred and returns how many were removed.
func (s *Store) Delete(ctx context.Context, table string, pred Predicate) (int, error) {
	var n int
	err := s.Tx(ctx, func(tx *Tx) error {
		var err error
		n, err = tx.Delete(table, pred)
		return err
	})
	return n, err
}

// NextID returns max(column)+1 over table, or 1 when no row carries an id.
func (s *Store) NextID(ctx context.Context, table, column string) (int, error) {
	var id int
	err := s.Read(ctx, func(tx *Tx) error {
		var err error
		id, err = tx.NextID(table, column)
		return err
	})
	return id, err
}

// cachedTable returns the cached table, loading or seeding it on first use. Caller holds mu.
func (s *Store) cachedTable(ctx context.Context, name string) (*Table, error) {
	if t, ok := s.tables[name]; ok {
		return t, nil
	}
	schema, ok := s.schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", name)
	}

	data, err := s.backend.Read(ctx, schema.Blob())
	switch {
	case errors.Is(err, ErrBlobNotFound):
		t := &Table{Columns: append([]string(nil), schema.Columns...)}
		for _, r := range s.seed(schema) {
			t.Rows = append(t.Rows, r.Clone())
		}
		s.persistSeed(ctx, schema.Blob(), func() ([]byte, error) { return encodeCSV(t) })
		s.tables[name] = t
		return t, nil
	case err != nil:
		return nil, models.NewStorageError(fmt.Errorf("load %s: %w", name, err))
	}

	t, err := decodeCSV(data, schema)
	if err != nil {
		return nil, models.NewStorageError(err)
	}
	s.tables[name] = t
	return t, nil
}

// cachedLikes is cachedTable for the like sidecar. Caller holds mu.
func (s *Store) cachedLikes(ctx context.Context) (*LikeIndex, error) {
	if s.likes != nil {
		return s.likes, nil
	}
	data, err := s.backend.Read(ctx, likesBlob)
	switch {
	case errors.Is(err, ErrBlobNotFound):
		x := newLikeIndex()
		s.persistSeed(ctx, likesBlob, x.encode)
		s.likes = x
		return x, nil
	case err != nil:
		return nil, models.NewStorageError(fmt.Errorf("load %s: %w", LikesIndex, err))
	}
	x, err := decodeLikes(data)
	if err != nil {
		return nil, models.NewStorageError(err)
	}
	s.likes = x
	return x, nil
}

// persistSeed writes a freshly seeded blob. Failure is logged; the seed stays in memory.
func (s *Store) persistSeed(ctx context.Context, blob string, encode func() ([]byte, error)) {
	data, err := encode()
	if err == nil {
		err = s.backend.WriteBatch(ctx, map[string][]byte{blob: data})
	}
	if err != nil {
		utils.Logger.Warn("seed write failed", zap.String("blob", blob), zap.Error(err))
		return
	}
	utils.Logger.Info("seeded missing blob", zap.String("blob", blob))
}

// Tx is a unit of work on the store. It is only valid inside the Tx or Read callback.
type Tx struct {
	ctx      context.Context
	s        *Store
	readOnly bool

	staged map[string]*Table
	likes  *LikeIndex
}

func newTx(ctx context.Context, s *Store, readOnly bool) *Tx {
	return &Tx{ctx: ctx, s: s, readOnly: readOnly, staged: map[string]*Table{}}
}

func (tx *Tx) view(name string) (*Table, error) {
	if t, ok := tx.staged[name]; ok {
		return t, nil
	}
	return tx.s.cachedTable(tx.ctx, name)
}

func (tx *Tx) stage(name string) (*Table, error) {
	if tx.readOnly {
		return nil, errReadOnly
	}
	if t, ok := tx.staged[name]; ok {
		return t, nil
	}
	t, err := tx.s.cachedTable(tx.ctx, name)
	if err != nil {
		return nil, err
	}
	c := t.clone()
	tx.staged[name] = c
	return c, nil
}

// Load returns copies of every row of table, in file order.
func (tx *Tx) Load(table string) ([]Row, error) {
	t, err := tx.view(table)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = r.Clone()
	}
	return rows, nil
}

// Find returns a copy of the first row matching pred.
func (tx *Tx) Find(table string, pred Predicate) (Row, bool, error) {
	t, err := tx.view(table)
	if err != nil {
		return nil, false, err
	}
	for _, r := range t.Rows {
		if pred(r) {
			return r.Clone(), true, nil
		}
	}
	return nil, false, nil
}

// Count returns how many rows match pred; a nil pred counts every row.
func (tx *Tx) Count(table string, pred Predicate) (int, error) {
	t, err := tx.view(table)
	if err != nil {
		return 0, err
	}
	if pred == nil {
		return len(t.Rows), nil
	}
	n := 0
	for _, r := range t.Rows {
		if pred(r) {
			n++
		}
	}
	return n, nil
}

// Append adds a copy of row at the end of table.
func (tx *Tx) Append(table string, row Row) error {
	t, err := tx.stage(table)
	if err != nil {
		return err
	}
	t.ensureColumns(sortedKeys(row))
	t.Rows = append(t.Rows, row.Clone())
	return nil
}

// Update sets field to value on every row matching pred.
func (tx *Tx) Update(table string, pred Predicate, field, value string) (int, error) {
	return tx.UpdateFunc(table, pred, func(r Row) { r[field] = value })
}

// UpdateFunc applies fn to every row matching pred.
func (tx *Tx) UpdateFunc(table string, pred Predicate, fn func(Row)) (int, error) {
	t, err := tx.stage(table)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range t.Rows {
		if pred(r) {
			fn(r)
			t.ensureColumns(sortedKeys(r))
			n++
		}
	}
	return n, nil
}

// Delete removes every row matching pred.
func (tx *Tx) Delete(table string, pred Predicate) (int, error) {
	t, err := tx.stage(table)
	if err != nil {
		return 0, err
	}
	kept := t.Rows[:0]
	for _, r := range t.Rows {
		if !pred(r) {
			kept = append(kept, r)
		}
	}
	n := len(t.Rows) - len(kept)
	t.Rows = kept
	return n, nil
}

// NextID returns max(column)+1, or 1 when no row has a parseable id.
func (tx *Tx) NextID(table, column string) (int, error) {
	t, err := tx.view(table)
	if err != nil {
		return 0, err
	}
	maxID, found := 0, false
	for _, r := range t.Rows {
		if id, ok := r.Int(column); ok && (!found || id > maxID) {
			maxID, found = id, true
		}
	}
	if !found {
		return 1, nil
	}
	return maxID + 1, nil
}

// Likes returns the like index. In a write transaction it is a private copy whose changes are
// committed with the tables; in a read transaction it must not be modified.
func (tx *Tx) Likes() (*LikeIndex, error) {
	if tx.likes != nil {
		return tx.likes, nil
	}
	x, err := tx.s.cachedLikes(tx.ctx)
	if err != nil {
		return nil, err
	}
	if tx.readOnly {
		return x, nil
	}
	tx.likes = x.clone()
	return tx.likes, nil
}

func (tx *Tx) commit() error {
	blobs := make(map[string][]byte, len(tx.staged)+1)
	for name, t := range tx.staged {
		data, err := encodeCSV(t)
		if err != nil {
			return models.NewStorageError(fmt.Errorf("encode %s: %w", name, err))
		}
		blobs[tx.s.schemas[name].Blob()] = data
	}
	if tx.likes != nil && tx.likes.dirty {
		data, err := tx.likes.encode()
		if err != nil {
			return models.NewStorageError(fmt.Errorf("encode %s: %w", LikesIndex, err))
		}
		blobs[likesBlob] = data
	}
	if len(blobs) == 0 {
		return nil
	}

	start := time.Now()
	err := tx.s.backend.WriteBatch(tx.ctx, blobs)
	utils.StoreCommitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		utils.StoreCommits.WithLabelValues("error").Inc()
		utils.Logger.Warn("store commit failed", zap.Strings("blobs", blobNames(blobs)), zap.Error(err))
		return models.NewStorageError(err)
	}
	utils.StoreCommits.WithLabelValues("ok").Inc()

	for name, t := range tx.staged {
		tx.s.tables[name] = t
	}
	if tx.likes != nil && tx.likes.dirty {
		tx.likes.dirty = false
		tx.s.likes = tx.likes
	}
	return nil
}

func sortedKeys(r Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func blobNames(blobs map[string][]byte) []string {
	names := make([]string, 0, len(blobs))
	for name := range blobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
