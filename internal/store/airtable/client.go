// Package airtable реализует store.RecordStore поверх REST API Airtable.
package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	atapi "github.com/mehanizm/airtable"

	"rfpintake/internal/store"
)

const DefaultAPIURL = "https://api.airtable.com/v0"

// RateLimit запросов в секунду; у airtable лимит 5
const RateLimit = 4

type Client struct {
	api    *atapi.Client
	baseID string
}

// NewClient создает клиент базы baseID. Пустой apiURL означает публичный API.
func NewClient(apiURL, baseID, apiKey string, httpClient *http.Client) (*Client, error) {
	api := atapi.NewClient(apiKey)
	if apiURL != "" {
		if err := api.SetBaseURL(strings.TrimRight(apiURL, "/")); err != nil {
			return nil, err
		}
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	api.SetCustomClient(httpClient)
	api.SetRateLimit(RateLimit)
	return &Client{api: api, baseID: baseID}, nil
}

// SetRateLimit меняет частоту запросов (в тестах поднимаем)
func (c *Client) SetRateLimit(perSecond int) {
	c.api.SetRateLimit(perSecond)
}

func (c *Client) table(name string) *atapi.Table {
	return c.api.GetTable(url.PathEscape(c.baseID), url.PathEscape(name))
}

// List читает все страницы выборки, пока airtable возвращает offset
func (c *Client) List(ctx context.Context, table string, q store.Query) ([]store.Record, error) {
	params := url.Values{}
	if q.Filter != nil {
		formula, err := Formula(q.Filter)
		if err != nil {
			return nil, err
		}
		params.Set("filterByFormula", formula)
	}
	for i, s := range q.Sort {
		params.Set(fmt.Sprintf("sort[%d][field]", i), s.Field)
		params.Set(fmt.Sprintf("sort[%d][direction]", i), string(s.Direction))
	}

	t := c.table(table)
	records := []store.Record{}
	for {
		page, err := t.GetRecordsWithParamsContext(ctx, params)
		if err != nil {
			return nil, storeError(err)
		}
		for _, r := range page.Records {
			records = append(records, toRecord(r))
		}
		if page.Offset == "" {
			return records, nil
		}
		params.Set("offset", page.Offset)
	}
}

func (c *Client) Find(ctx context.Context, table, id string) (store.Record, error) {
	rec, err := c.table(table).GetRecordContext(ctx, url.PathEscape(id))
	if err != nil {
		return store.Record{}, storeError(err)
	}
	return toRecord(rec), nil
}

func (c *Client) Create(ctx context.Context, table string, fields store.Fields) (store.Record, error) {
	res, err := c.table(table).AddRecordsContext(ctx, &atapi.Records{
		Records: []*atapi.Record{{Fields: fields}},
	})
	if err != nil {
		return store.Record{}, storeError(err)
	}
	return first(res)
}

func (c *Client) Update(ctx context.Context, table, id string, fields store.Fields) (store.Record, error) {
	res, err := c.table(table).UpdateRecordsPartialContext(ctx, &atapi.Records{
		Records: []*atapi.Record{{ID: id, Fields: fields}},
	})
	if err != nil {
		return store.Record{}, storeError(err)
	}
	return first(res)
}

func first(res *atapi.Records) (store.Record, error) {
	if res == nil || len(res.Records) == 0 {
		return store.Record{}, &store.Error{StatusCode: http.StatusOK, Type: "INVALID_RESPONSE", Message: "malformed response from data store"}
	}
	return toRecord(res.Records[0]), nil
}

func toRecord(r *atapi.Record) store.Record {
	rec := store.Record{ID: r.ID, Fields: store.Fields(r.Fields)}
	if rec.Fields == nil {
		rec.Fields = store.Fields{}
	}
	if t, err := time.Parse(time.RFC3339, r.CreatedTime); err == nil {
		rec.CreatedTime = t
	}
	return rec
}

// тело ответа библиотека кладёт в текст ошибки после этой метки
const bodyMarker = "\n\nBody: "

// storeError переводит ошибки клиента в *store.Error с сообщением airtable
func storeError(err error) error {
	var httpErr *atapi.HTTPClientError
	if !errors.As(err, &httpErr) {
		// сетевая ошибка без URL: в нём параметры запроса
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return urlErr.Err
		}
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return &store.Error{StatusCode: http.StatusOK, Type: "INVALID_RESPONSE", Message: "malformed response from data store"}
		}
		return err
	}

	var body string
	if httpErr.Err != nil {
		msg := httpErr.Err.Error()
		if i := strings.LastIndex(msg, bodyMarker); i >= 0 {
			body = msg[i+len(bodyMarker):]
		}
	}
	return parseError(httpErr.StatusCode, []byte(body))
}

// parseError разбирает оба формата ошибок airtable:
// {"error":{"type":"...","message":"..."}} и {"error":"NOT_FOUND"}
func parseError(status int, data []byte) error {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	storeErr := &store.Error{StatusCode: status}
	if err := json.Unmarshal(data, &envelope); err != nil || len(envelope.Error) == 0 {
		storeErr.Message = "Airtable API error"
		return storeErr
	}

	var detailed struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &detailed); err == nil {
		storeErr.Type = detailed.Type
		storeErr.Message = detailed.Message
		return storeErr
	}

	var code string
	if err := json.Unmarshal(envelope.Error, &code); err == nil {
		storeErr.Type = code
		storeErr.Message = code
		return storeErr
	}

	storeErr.Message = "Airtable API error"
	return storeErr
}
