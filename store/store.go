package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/adonese/apikit/apperr"
	"github.com/adonese/apikit/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 500
	batchSize    = 100
	seeLogs      = "see logs for further information"
)

// Query narrows a statement; it is applied with gorm's Scopes. Queries given
// to GetQueries must also pick the model or table.
type Query = func(*gorm.DB) *gorm.DB

// Option configures a Store.
type Option func(*StoreOptions)

// StoreOptions carries optional configuration for Store.
type StoreOptions struct {
	Logger     *logrus.Logger
	Registerer prometheus.Registerer
}

// WithLogger sets the logger used for operation traces.
func WithLogger(log *logrus.Logger) Option {
	return func(opts *StoreOptions) {
		opts.Logger = log
	}
}

// WithRegisterer registers the store metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(opts *StoreOptions) {
		opts.Registerer = reg
	}
}

// Store runs the generic record operations. Every failure comes back as an
// *apperr.Error whose status tells the handler what to answer.
type Store struct {
	db      *DB
	log     *logrus.Logger
	metrics *metrics
}

func New(db *DB, opts ...Option) *Store {
	o := StoreOptions{Logger: db.log}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	o.Logger.Info("database operations initialized")
	return &Store{db: db, log: o.Logger, metrics: newMetrics(o.Registerer)}
}

// DB exposes the underlying connection.
func (s *Store) DB() *DB {
	return s.db
}

// CountQuery counts the rows of model matching the queries.
func (s *Store) CountQuery(ctx context.Context, model any, queries ...Query) (count int64, err error) {
	defer func(start time.Time) { s.metrics.observe("count", start, err) }(time.Now())
	s.log.Debug("starting count_query operation")
	if err := s.db.WithContext(ctx).Model(model).Scopes(queries...).Count(&count).Error; err != nil {
		return 0, s.fail("count query", err)
	}
	s.log.WithField("count", count).Info("count result")
	return count, nil
}

// GetQuery loads one page of rows into dest. limit <= 0 falls back to
// DefaultLimit and a negative offset to 0.
func (s *Store) GetQuery(ctx context.Context, dest any, limit, offset int, queries ...Query) (err error) {
	defer func(start time.Time) { s.metrics.observe("get", start, err) }(time.Now())
	limit, offset = page(limit, offset)
	s.log.WithFields(logrus.Fields{"limit": limit, "offset": offset}).Debug("starting get_query operation")
	if err := s.db.WithContext(ctx).Scopes(queries...).Limit(limit).Offset(offset).Find(dest).Error; err != nil {
		return s.fail("fetch query", err)
	}
	return nil
}

// GetQueries runs every named query in one session and returns the rows of
// each, keyed by name.
func (s *Store) GetQueries(ctx context.Context, queries map[string]Query, limit, offset int) (results map[string][]map[string]any, err error) {
	defer func(start time.Time) { s.metrics.observe("get_many", start, err) }(time.Now())
	limit, offset = page(limit, offset)
	s.log.WithField("queries", lo.Keys(queries)).Debug("starting get_queries operation")

	results = make(map[string][]map[string]any, len(queries))
	err = s.db.InSession(ctx, func(tx *gorm.DB) error {
		for name, q := range queries {
			var rows []map[string]any
			if err := tx.Scopes(q).Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
				return fmt.Errorf("query %s: %w", name, err)
			}
			if rows == nil {
				rows = []map[string]any{}
			}
			results[name] = rows
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("fetch queries", err)
	}
	return results, nil
}

// InsertOne creates a single record.
func (s *Store) InsertOne(ctx context.Context, record any) (err error) {
	defer func(start time.Time) { s.metrics.observe("insert_one", start, err) }(time.Now())
	s.log.Debug("starting insert_one operation")
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return s.fail("insert record", err)
	}
	s.log.Info("record operation was successful")
	return nil
}

// InsertMany creates records, a slice or pointer to a slice, in one
// transaction.
func (s *Store) InsertMany(ctx context.Context, records any) (err error) {
	defer func(start time.Time) { s.metrics.observe("insert_many", start, err) }(time.Now())
	start := time.Now()
	var created int64
	err = s.db.InSession(ctx, func(tx *gorm.DB) error {
		res := tx.CreateInBatches(records, batchSize)
		created = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return s.fail("insert records", err)
	}
	s.log.WithFields(logrus.Fields{
		"records": created,
		"seconds": fmt.Sprintf("%.4f", time.Since(start).Seconds()),
	}).Info("record operations were successful")
	return nil
}

// UpdateOne loads the record of model's type with the given id into model
// and applies values to it. Keys must name a field or column of model; the id
// and the creation date are dropped and date_updated is refreshed by the
// model's hook.
func (s *Store) UpdateOne(ctx context.Context, model any, id string, values map[string]any) (err error) {
	defer func(start time.Time) { s.metrics.observe("update_one", start, err) }(time.Now())
	values, err = s.updatable(model, values)
	if err != nil {
		return err
	}

	err = s.db.InSession(ctx, func(tx *gorm.DB) error {
		if err := tx.First(model, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(model).Updates(values).Error; err != nil {
			return err
		}
		return tx.First(model, "id = ?", id).Error
	})
	if err != nil {
		return s.fail("update record "+id, err)
	}
	s.log.WithField("id", id).Info("record update was successful")
	return nil
}

// updatable resolves every key of values to a column of model. Keys naming
// the id or the creation date are dropped; keys matching no field are
// rejected before they reach SQL.
func (s *Store) updatable(model any, values map[string]any) (map[string]any, error) {
	stmt := &gorm.Statement{DB: s.db.DB}
	if err := stmt.Parse(model); err != nil {
		return nil, s.fail("parse model", err)
	}
	columns := make(map[string]any, len(values))
	var unknown, skipped []string
	for key, v := range values {
		field := stmt.Schema.LookUpField(key)
		switch {
		case field == nil || field.DBName == "":
			unknown = append(unknown, key)
		case lo.Contains(schema.NonUpdatable, field.DBName):
			skipped = append(skipped, key)
		default:
			columns[field.DBName] = v
		}
	}
	if len(skipped) > 0 {
		s.log.WithField("fields", skipped).Debug("skipping non-updatable fields")
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		msg := "unknown fields: " + strings.Join(unknown, ", ")
		s.log.WithField("fields", unknown).Warn("rejecting update")
		return nil, apperr.WithFields(apperr.Wrap(errors.New(msg), apperr.ErrValidation, msg), map[string]any{
			"error":  msg,
			"fields": unknown,
		})
	}
	return columns, nil
}

// DeleteOne removes the record of model's type with the given id.
func (s *Store) DeleteOne(ctx context.Context, model any, id string) (err error) {
	defer func(start time.Time) { s.metrics.observe("delete_one", start, err) }(time.Now())
	err = s.db.InSession(ctx, func(tx *gorm.DB) error {
		if err := tx.First(model, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(model).Error
	})
	if err != nil {
		return s.fail("delete record "+id, err)
	}
	s.log.WithField("id", id).Info("record deleted successfully")
	return nil
}

// fail logs err and maps it onto a status-aware error.
func (s *Store) fail(op string, err error) error {
	base := apperr.ErrDatabase
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		base = apperr.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		base = apperr.ErrIntegrity
	}
	s.log.WithError(err).WithField("operation", op).Error("database operation failed")

	msg := stripSQL(err.Error())
	if base == apperr.ErrNotFound {
		msg = op + ": no record found"
	}
	return apperr.WithFields(apperr.Wrap(err, base, msg), map[string]any{
		"error":   msg,
		"details": seeLogs,
	})
}

// stripSQL drops the statement drivers append to some errors.
func stripSQL(msg string) string {
	before, _, _ := strings.Cut(msg, "[SQL:")
	return strings.TrimSpace(before)
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
