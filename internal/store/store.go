// Package store persists survey records (raw code, parsed schema and the
// autosave history) in BadgerDB.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	surveyschema "github.com/reoring/surveyschema"
)

// ErrNotFound is returned when no survey has the requested id.
var ErrNotFound = errors.New("store: survey not found")

// Version is one autosaved snapshot of the editor text.
type Version struct {
	Code      string              `msgpack:"code" json:"code"`
	Format    surveyschema.Format `msgpack:"format" json:"format"`
	CreatedAt time.Time           `msgpack:"created_at" json:"createdAt"`
}

// Survey is a stored survey record.
type Survey struct {
	ID          string               `msgpack:"id" json:"id"`
	Title       string               `msgpack:"title" json:"title"`
	Description string               `msgpack:"description" json:"description"`
	Product     string               `msgpack:"product" json:"product"`
	CoverImage  string               `msgpack:"cover_image" json:"coverImage,omitempty"`
	Format      surveyschema.Format  `msgpack:"format" json:"format"`
	RawCode     string               `msgpack:"raw_code" json:"rawCode,omitempty"`
	Schema      *surveyschema.Schema `msgpack:"schema" json:"schema,omitempty"`
	Versions    []Version            `msgpack:"versions" json:"versions,omitempty"`
	CreatedAt   time.Time            `msgpack:"created_at" json:"createdAt"`
	UpdatedAt   time.Time            `msgpack:"updated_at" json:"updatedAt"`
}

// Store reads and writes survey records by id.
type Store interface {
	Create(ctx context.Context, s Survey) (Survey, error)
	Get(ctx context.Context, id string) (Survey, error)
	// List returns every survey, newest first.
	List(ctx context.Context) ([]Survey, error)
	Update(ctx context.Context, s Survey) (Survey, error)
	// AppendVersion records an autosave and makes it the current code.
	AppendVersion(ctx context.Context, id string, v Version, schema *surveyschema.Schema) (Survey, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Config holds configuration for a BadgerStore.
type Config struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string
	// InMemory keeps everything in RAM. Useful for tests.
	InMemory bool
	// SyncWrites fsyncs every write.
	SyncWrites bool
	// MaxVersions caps the autosave history per survey; 0 keeps all.
	MaxVersions int
	// Logger receives BadgerDB logs. nil disables them.
	Logger *slog.Logger
}

// InMemoryConfig returns configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// BadgerStore implements Store on BadgerDB with msgpack-encoded records.
//
// Thread Safety: safe for concurrent use.
type BadgerStore struct {
	db          *badger.DB
	maxVersions int
	now         func() time.Time
}

var _ Store = (*BadgerStore)(nil)

const keyPrefix = "survey/"

func surveyKey(id string) []byte { return []byte(keyPrefix + id) }

// Open opens (creating if needed) a BadgerStore.
func Open(cfg Config) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("store: path is required for a persistent database")
	}
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerStore{db: db, maxVersions: cfg.MaxVersions, now: time.Now}, nil
}

// Close releases the database.
func (s *BadgerStore) Close() error { return s.db.Close() }

func (s *BadgerStore) Create(ctx context.Context, sv Survey) (Survey, error) {
	if err := ctx.Err(); err != nil {
		return Survey{}, err
	}
	now := s.now().UTC()
	sv.ID = uuid.NewString()
	sv.CreatedAt = now
	sv.UpdatedAt = now
	if err := s.db.Update(func(txn *badger.Txn) error { return put(txn, sv) }); err != nil {
		return Survey{}, fmt.Errorf("create survey: %w", err)
	}
	return sv, nil
}

func (s *BadgerStore) Get(ctx context.Context, id string) (Survey, error) {
	if err := ctx.Err(); err != nil {
		return Survey{}, err
	}
	var sv Survey
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		sv, err = get(txn, id)
		return err
	})
	if err != nil {
		return Survey{}, err
	}
	return sv, nil
}

func (s *BadgerStore) List(ctx context.Context) ([]Survey, error) {
	var out []Survey
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var sv Survey
			if err := it.Item().Value(func(v []byte) error { return msgpack.Unmarshal(v, &sv) }); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, sv)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Update replaces the metadata of an existing survey (title, description,
// product, cover image). Code, format, schema and versions always come from
// the stored record, so an edit never undoes a concurrent autosave.
func (s *BadgerStore) Update(ctx context.Context, sv Survey) (Survey, error) {
	if err := ctx.Err(); err != nil {
		return Survey{}, err
	}
	var out Survey
	err := s.db.Update(func(txn *badger.Txn) error {
		cur, err := get(txn, sv.ID)
		if err != nil {
			return err
		}
		cur.Title = sv.Title
		cur.Description = sv.Description
		cur.Product = sv.Product
		cur.CoverImage = sv.CoverImage
		cur.UpdatedAt = s.now().UTC()
		out = cur
		return put(txn, cur)
	})
	if err != nil {
		return Survey{}, err
	}
	return out, nil
}

func (s *BadgerStore) AppendVersion(ctx context.Context, id string, v Version, schema *surveyschema.Schema) (Survey, error) {
	if err := ctx.Err(); err != nil {
		return Survey{}, err
	}
	var out Survey
	err := s.db.Update(func(txn *badger.Txn) error {
		cur, err := get(txn, id)
		if err != nil {
			return err
		}
		if v.CreatedAt.IsZero() {
			v.CreatedAt = s.now().UTC()
		}
		cur.Versions = append(cur.Versions, v)
		if s.maxVersions > 0 && len(cur.Versions) > s.maxVersions {
			cur.Versions = cur.Versions[len(cur.Versions)-s.maxVersions:]
		}
		cur.RawCode = v.Code
		cur.Format = v.Format
		if schema != nil {
			cur.Schema = schema
		}
		cur.UpdatedAt = v.CreatedAt
		out = cur
		return put(txn, cur)
	})
	if err != nil {
		return Survey{}, err
	}
	return out, nil
}

func (s *BadgerStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := get(txn, id); err != nil {
			return err
		}
		return txn.Delete(surveyKey(id))
	})
}

func get(txn *badger.Txn, id string) (Survey, error) {
	item, err := txn.Get(surveyKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Survey{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Survey{}, fmt.Errorf("get survey %s: %w", id, err)
	}
	var sv Survey
	if err := item.Value(func(v []byte) error { return msgpack.Unmarshal(v, &sv) }); err != nil {
		return Survey{}, fmt.Errorf("decode survey %s: %w", id, err)
	}
	return sv, nil
}

func put(txn *badger.Txn, sv Survey) error {
	b, err := msgpack.Marshal(sv)
	if err != nil {
		return fmt.Errorf("encode survey %s: %w", sv.ID, err)
	}
	return txn.Set(surveyKey(sv.ID), b)
}
