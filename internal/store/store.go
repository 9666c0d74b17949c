// Package store описывает record/field API табличного хранилища,
// через которое работает шлюз. Реализации: airtable, memstore и db (postgres).
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Fields значения колонок записи
type Fields map[string]any

// Record строка таблицы
type Record struct {
	ID          string    `json:"id"`
	CreatedTime time.Time `json:"createdTime"`
	Fields      Fields    `json:"fields"`
}

type RecordStore interface {
	List(ctx context.Context, table string, q Query) ([]Record, error)
	Find(ctx context.Context, table, id string) (Record, error)
	Create(ctx context.Context, table string, fields Fields) (Record, error)
	// Update сливает переданные поля с текущими (PATCH)
	Update(ctx context.Context, table, id string, fields Fields) (Record, error)
}

// Query фильтр и сортировка выборки
type Query struct {
	Filter Filter
	Sort   []Sort
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type Sort struct {
	Field     string
	Direction Direction
}

// Filter закрытый набор условий: Eq, AfterNow, And
type Filter interface {
	isFilter()
}

// Eq поле равно значению
type Eq struct {
	Field string
	Value string
}

// AfterNow дата в поле строго позже текущего момента
type AfterNow struct {
	Field string
}

type And []Filter

func (Eq) isFilter()       {}
func (AfterNow) isFilter() {}
func (And) isFilter()      {}

var ErrNotFound = errors.New("record not found")

// Error ошибка, которую вернуло хранилище. Message отдаётся клиенту как есть.
type Error struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Type != "" {
		return e.Type
	}
	return fmt.Sprintf("store error: status %d", e.StatusCode)
}

func (e *Error) Is(target error) bool {
	return target == ErrNotFound && (e.StatusCode == 404 || e.Type == "NOT_FOUND")
}

// NewRecordID генерирует id в стиле airtable: "rec" + 14 hex-символов
func NewRecordID() string {
	return "rec" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}
