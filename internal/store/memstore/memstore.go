// Package memstore хранилище записей в памяти процесса с той же
// семантикой фильтров и сортировки, что у airtable. Для локального запуска и тестов.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"rfpintake/internal/store"
	"rfpintake/models"
)

type Store struct {
	mu     sync.RWMutex
	tables map[string][]store.Record

	// Now подменяется в тестах
	Now func() time.Time
}

func New() *Store {
	return &Store{
		tables: make(map[string][]store.Record),
		Now:    time.Now,
	}
}

// Seed кладёт запись как есть, с заданным id. Для тестов и начальных данных.
func (s *Store) Seed(table string, rec store.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = store.NewRecordID()
	}
	if rec.CreatedTime.IsZero() {
		rec.CreatedTime = s.Now()
	}
	rec.Fields = copyFields(rec.Fields)
	s.tables[table] = append(s.tables[table], rec)
}

func (s *Store) List(ctx context.Context, table string, q store.Query) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.Now()
	out := []store.Record{}
	for _, rec := range s.tables[table] {
		ok, err := match(q.Filter, rec.Fields, now)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, cloneRecord(rec))
		}
	}

	if len(q.Sort) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, srt := range q.Sort {
				c := compare(out[i].Fields[srt.Field], out[j].Fields[srt.Field])
				if c == 0 {
					continue
				}
				if srt.Direction == store.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	return out, nil
}

func (s *Store) Find(ctx context.Context, table, id string) (store.Record, error) {
	if err := ctx.Err(); err != nil {
		return store.Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.tables[table] {
		if rec.ID == id {
			return cloneRecord(rec), nil
		}
	}
	return store.Record{}, &store.Error{StatusCode: 404, Type: "NOT_FOUND", Message: "Could not find record " + id}
}

func (s *Store) Create(ctx context.Context, table string, fields store.Fields) (store.Record, error) {
	if err := ctx.Err(); err != nil {
		return store.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := store.Record{
		ID:          store.NewRecordID(),
		CreatedTime: s.Now(),
		Fields:      copyFields(fields),
	}
	s.tables[table] = append(s.tables[table], rec)
	return cloneRecord(rec), nil
}

func (s *Store) Update(ctx context.Context, table, id string, fields store.Fields) (store.Record, error) {
	if err := ctx.Err(); err != nil {
		return store.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.tables[table]
	for i := range recs {
		if recs[i].ID != id {
			continue
		}
		for k, v := range fields {
			recs[i].Fields[k] = v
		}
		return cloneRecord(recs[i]), nil
	}
	return store.Record{}, &store.Error{StatusCode: 404, Type: "NOT_FOUND", Message: "Could not find record " + id}
}

func match(f store.Filter, fields store.Fields, now time.Time) (bool, error) {
	switch f := f.(type) {
	case nil:
		return true, nil
	case store.Eq:
		// поле-ссылка хранит список id: совпадение с любым элементом
		switch fields[f.Field].(type) {
		case []any, []string:
			for _, v := range models.Strings(fields, f.Field) {
				if v == f.Value {
					return true, nil
				}
			}
			return false, nil
		}
		return models.String(fields, f.Field) == f.Value, nil
	case store.AfterNow:
		t, ok := parseTime(models.String(fields, f.Field))
		return ok && t.After(now), nil
	case store.And:
		for _, sub := range f {
			ok, err := match(sub, fields, now)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("unsupported filter %T", f)
	}
}

func parseTime(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, models.DateLayout} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// compare: пустые значения идут первыми, числа сравниваются как числа
func compare(a, b any) int {
	as, bs := fmt.Sprint(valueOrEmpty(a)), fmt.Sprint(valueOrEmpty(b))
	if af, err := strconv.ParseFloat(as, 64); err == nil {
		if bf, err := strconv.ParseFloat(bs, 64); err == nil {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func valueOrEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}

func copyFields(f store.Fields) store.Fields {
	out := make(store.Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func cloneRecord(r store.Record) store.Record {
	r.Fields = copyFields(r.Fields)
	return r
}
