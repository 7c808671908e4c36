// Package postgrest はREST-over-HTTPデータAPI (PostgREST/Supabase互換) の
// クライアントを提供する。テーブル単位のselect/insert/update/deleteと、
// スキーマ自己記述エンドポイント(OpenAPIドキュメント)の取得を含む。
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Row はデータAPIが返す1行を表す。
// 物理カラム名はデプロイごとに異なるため、型付けはマッピング適用後に行う。
type Row = map[string]any

// Filters は等価条件の集合を表す。カラム名→値で、`col=eq.value` に展開される。
type Filters map[string]string

// Order は結果の並び順を表す。
type Order struct {
	Column     string
	Descending bool
}

// Collector はデータAPI呼び出しのメトリクス収集インターフェース。
// internal/metricsのCollectorが実装する。nilの場合は記録しない。
type Collector interface {
	RecordDataStoreCall(op string, duration time.Duration, err error)
	RecordSchemaFetch(duration time.Duration, err error)
}

// Client はデータAPIのクライアント。
// すべてのリクエストにapikeyヘッダーとBearer認証を付与する。
// リトライは行わず、失敗は即座に呼び出し元へ返す。
type Client struct {
	baseURL string
	apiKey  string
	logger  *slog.Logger
	metrics Collector

	// dataClient は行操作用、schemaClient はOpenAPI取得用。
	// スキーマ取得には必ず有限のタイムアウトを課す。
	dataClient   *http.Client
	schemaClient *http.Client
}

// NewClient はClientを生成する。
// baseURLはSupabaseプロジェクトのベースURL（末尾スラッシュ不要）。
func NewClient(baseURL, apiKey string, logger *slog.Logger, dataTimeout, schemaTimeout time.Duration, metrics Collector) *Client {
	if dataTimeout <= 0 {
		dataTimeout = 10 * time.Second
	}
	if schemaTimeout <= 0 {
		schemaTimeout = 10 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		logger:       logger,
		metrics:      metrics,
		dataClient:   &http.Client{Timeout: dataTimeout},
		schemaClient: &http.Client{Timeout: schemaTimeout},
	}
}

// Select はテーブルから行を取得する。
// columnsが空の場合は全カラム(*)を選択する。orderはnil可。
func (c *Client) Select(ctx context.Context, table, columns string, filters Filters, order *Order) ([]Row, error) {
	start := time.Now()
	if columns == "" {
		columns = "*"
	}

	q := url.Values{}
	q.Set("select", columns)
	applyFilters(q, filters)
	if order != nil {
		dir := "asc"
		if order.Descending {
			dir = "desc"
		}
		q.Set("order", order.Column+"."+dir)
	}

	resp, err := c.do(ctx, http.MethodGet, c.tableURL(table, q), nil, "")
	if err != nil {
		return nil, c.record("select", start, err)
	}
	defer resp.Body.Close()

	rows, err := c.decodeRows(resp, table)
	return rows, c.record("select", start, err)
}

// Insert は1行を挿入し、挿入後の行を返す。
func (c *Client) Insert(ctx context.Context, table string, row Row) ([]Row, error) {
	start := time.Now()

	body, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("encode insert body: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.tableURL(table, nil), bytes.NewReader(body), "return=representation")
	if err != nil {
		return nil, c.record("insert", start, err)
	}
	defer resp.Body.Close()

	rows, err := c.decodeRows(resp, table)
	return rows, c.record("insert", start, err)
}

// Update はフィルタに一致する行を部分更新し、更新後の行を返す。
func (c *Client) Update(ctx context.Context, table string, filters Filters, patch Row) ([]Row, error) {
	start := time.Now()

	body, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("encode update body: %w", err)
	}

	q := url.Values{}
	applyFilters(q, filters)

	resp, err := c.do(ctx, http.MethodPatch, c.tableURL(table, q), bytes.NewReader(body), "return=representation")
	if err != nil {
		return nil, c.record("update", start, err)
	}
	defer resp.Body.Close()

	rows, err := c.decodeRows(resp, table)
	return rows, c.record("update", start, err)
}

// Delete はフィルタに一致する行を削除する。
func (c *Client) Delete(ctx context.Context, table string, filters Filters) error {
	start := time.Now()

	q := url.Values{}
	applyFilters(q, filters)

	resp, err := c.do(ctx, http.MethodDelete, c.tableURL(table, q), nil, "")
	if err != nil {
		return c.record("delete", start, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return c.record("delete", start, c.statusError(resp, table))
	}
	return c.record("delete", start, nil)
}

// OpenAPI はデータAPIのルートからスキーマ記述(OpenAPIドキュメント)を取得する。
// 専用の有限タイムアウトを持つクライアントで実行する。
func (c *Client) OpenAPI(ctx context.Context) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/v1/", nil)
	if err != nil {
		return nil, fmt.Errorf("create schema request: %w", err)
	}
	c.setHeaders(req, "")
	req.Header.Set("Accept", "application/json")

	resp, err := c.schemaClient.Do(req)
	if err != nil {
		c.recordSchema(time.Since(start), err)
		c.logger.Error("schema description fetch failed",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("fetch schema description: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("schema endpoint returned status %d", resp.StatusCode)
		c.recordSchema(time.Since(start), err)
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordSchema(time.Since(start), err)
		return nil, fmt.Errorf("read schema description: %w", err)
	}

	c.recordSchema(time.Since(start), nil)
	return body, nil
}

func (c *Client) tableURL(table string, q url.Values) string {
	u := c.baseURL + "/rest/v1/" + table
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, reqURL string, body io.Reader, prefer string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, prefer)

	resp, err := c.dataClient.Do(req)
	if err != nil {
		c.logger.Error("data api request failed",
			slog.String("method", method),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("data api request: %w", err)
	}
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request, prefer string) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
}

// decodeRows はレスポンスボディを行スライスへデコードする。
// 数値IDの精度を保つためjson.Numberを使用する。
func (c *Client) decodeRows(resp *http.Response, table string) ([]Row, error) {
	if resp.StatusCode >= 300 {
		return nil, c.statusError(resp, table)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var rows []Row
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode data api response: %w", err)
	}
	return rows, nil
}

// statusError はエラーステータスのレスポンスからエラーを組み立てる。
// ボディはログ用に先頭のみ保持する。
func (c *Client) statusError(resp *http.Response, table string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	c.logger.Error("data api returned error status",
		slog.String("table", table),
		slog.Int("http_status", resp.StatusCode),
		slog.String("body", string(body)),
	)
	return fmt.Errorf("data api %s: status %d", table, resp.StatusCode)
}

func (c *Client) record(op string, start time.Time, err error) error {
	if c.metrics != nil {
		c.metrics.RecordDataStoreCall(op, time.Since(start), err)
	}
	return err
}

func (c *Client) recordSchema(d time.Duration, err error) {
	if c.metrics != nil {
		c.metrics.RecordSchemaFetch(d, err)
	}
}

// applyFilters は等価フィルタをクエリへ展開する。
// テスト安定性のためカラム名順に適用する。
func applyFilters(q url.Values, filters Filters) {
	cols := make([]string, 0, len(filters))
	for col := range filters {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		q.Set(col, "eq."+filters[col])
	}
}
