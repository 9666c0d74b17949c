package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"rfpintake/internal/store"
)

// Storage хранит записи всех таблиц в одной таблице records,
// значения колонок лежат в JSONB fields
type Storage struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

type recordRow struct {
	ID        string         `db:"id"`
	TableName string         `db:"table_name"`
	Fields    types.JSONText `db:"fields"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r recordRow) toRecord() (store.Record, error) {
	fields := store.Fields{}
	if len(r.Fields) > 0 {
		if err := json.Unmarshal(r.Fields, &fields); err != nil {
			return store.Record{}, fmt.Errorf("decode fields of %s: %w", r.ID, err)
		}
	}
	return store.Record{ID: r.ID, CreatedTime: r.CreatedAt, Fields: fields}, nil
}

var recordColumns = []string{"id", "table_name", "fields", "created_at"}

func (s *Storage) List(ctx context.Context, table string, q store.Query) ([]store.Record, error) {
	query, args, err := s.listQuery(table, q).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}

	out := make([]store.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Storage) listQuery(table string, q store.Query) sq.SelectBuilder {
	b := s.qb.Select(recordColumns...).
		From("records").
		Where(sq.Eq{"table_name": table})
	if q.Filter != nil {
		b = b.Where(condition(q.Filter))
	}
	for _, srt := range q.Sort {
		dir := "ASC"
		if srt.Direction == store.Desc {
			dir = "DESC"
		}
		// сравнение jsonb: числа как числа, строки как строки
		b = b.OrderBy(fmt.Sprintf("fields->%s %s", pq.QuoteLiteral(srt.Field), dir))
	}
	return b.OrderBy("created_at ASC")
}

func condition(f store.Filter) sq.Sqlizer {
	switch f := f.(type) {
	case store.Eq:
		// @> работает и для строки, и для списка id в поле-ссылке
		return sq.Expr("fields->(?::text) @> to_jsonb(?::text)", f.Field, f.Value)
	case store.AfterNow:
		// не дата (например "TBD") даёт NULL, запись не проходит фильтр
		return sq.Expr("try_timestamptz(fields->>(?::text)) > NOW()", f.Field)
	case store.And:
		and := sq.And{}
		for _, sub := range f {
			and = append(and, condition(sub))
		}
		return and
	default:
		return sq.Expr("FALSE")
	}
}

func (s *Storage) Find(ctx context.Context, table, id string) (store.Record, error) {
	query, args, err := s.qb.Select(recordColumns...).
		From("records").
		Where(sq.Eq{"id": id, "table_name": table}).
		ToSql()
	if err != nil {
		return store.Record{}, fmt.Errorf("build query: %w", err)
	}

	var row recordRow
	err = s.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, notFound(id)
	}
	if err != nil {
		return store.Record{}, fmt.Errorf("find %s/%s: %w", table, id, err)
	}
	return row.toRecord()
}

func (s *Storage) Create(ctx context.Context, table string, fields store.Fields) (store.Record, error) {
	payload, err := encodeFields(fields)
	if err != nil {
		return store.Record{}, err
	}

	query, args, err := s.qb.Insert("records").
		Columns("id", "table_name", "fields").
		Values(store.NewRecordID(), table, payload).
		Suffix("RETURNING id, table_name, fields, created_at").
		ToSql()
	if err != nil {
		return store.Record{}, fmt.Errorf("build query: %w", err)
	}

	var row recordRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return store.Record{}, fmt.Errorf("create in %s: %w", table, err)
	}
	return row.toRecord()
}

// Update сливает поля с текущими (jsonb ||), как PATCH у airtable
func (s *Storage) Update(ctx context.Context, table, id string, fields store.Fields) (store.Record, error) {
	payload, err := encodeFields(fields)
	if err != nil {
		return store.Record{}, err
	}

	query, args, err := s.qb.Update("records").
		Set("fields", sq.Expr("fields || ?::jsonb", payload)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "table_name": table}).
		Suffix("RETURNING id, table_name, fields, created_at").
		ToSql()
	if err != nil {
		return store.Record{}, fmt.Errorf("build query: %w", err)
	}

	var row recordRow
	err = s.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, notFound(id)
	}
	if err != nil {
		return store.Record{}, fmt.Errorf("update %s/%s: %w", table, id, err)
	}
	return row.toRecord()
}

func encodeFields(fields store.Fields) (string, error) {
	if fields == nil {
		fields = store.Fields{}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode fields: %w", err)
	}
	return string(b), nil
}

func notFound(id string) error {
	return &store.Error{StatusCode: 404, Type: "NOT_FOUND", Message: "Could not find record " + id}
}
