// Package schema はデータストアのOpenAPIドキュメントを起点とした
// スキーマ検出と、論理フィールドから物理カラムへのマッピングを提供する。
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/voacom/commercial-intelligence-system/internal/model"
)

// ColumnSet は1テーブルに実在するカラム名の集合。
type ColumnSet map[string]struct{}

// Has は名前のカラムが存在するか返す。
func (s ColumnSet) Has(column string) bool {
	_, ok := s[column]
	return ok
}

// SchemaSource はOpenAPIドキュメントの取得元。*postgrest.Client が満たす。
type SchemaSource interface {
	OpenAPI(ctx context.Context) ([]byte, error)
}

// Introspector はデータストアのスキーマ記述を取得・解析し、
// テーブルごとのカラム集合をプロセス内にメモ化する。
type Introspector struct {
	source SchemaSource
	logger *slog.Logger

	mu     sync.Mutex
	tables map[string]ColumnSet
	loaded bool
}

func NewIntrospector(source SchemaSource, logger *slog.Logger) *Introspector {
	return &Introspector{
		source: source,
		logger: logger,
	}
}

// TableColumns は指定テーブルの実在カラム集合を返す。
// テーブルがスキーマに存在しない場合は空集合を返す。
// スキーマドキュメントの取得・解析に失敗した場合はSchemaUnavailableを返す。
func (in *Introspector) TableColumns(ctx context.Context, table string) (ColumnSet, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if !in.loaded {
		tables, err := in.fetch(ctx)
		if err != nil {
			return nil, model.NewSchemaUnavailableError(err)
		}
		in.tables = tables
		in.loaded = true
	}

	cols, ok := in.tables[table]
	if !ok {
		in.logger.Warn("table not present in schema document", slog.String("table", table))
		return ColumnSet{}, nil
	}
	return cols, nil
}

// Cached は有効なスキーマドキュメントがメモ化済みか返す。
func (in *Introspector) Cached() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.loaded
}

// Invalidate はメモ化済みスキーマを破棄し、次回アクセス時に再取得させる。
func (in *Introspector) Invalidate() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.loaded = false
	in.tables = nil
}

func (in *Introspector) fetch(ctx context.Context) (map[string]ColumnSet, error) {
	body, err := in.source.OpenAPI(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch schema document: %w", err)
	}

	tables, err := parseOpenAPI(body)
	if err != nil {
		return nil, err
	}

	in.logger.Info("schema document loaded", slog.Int("tables", len(tables)))
	return tables, nil
}

// parseOpenAPI はSwagger 2.0の"definitions"とOpenAPI 3.xの
// "components"/"schemas"の両形式からテーブル定義を取り出す。
// テーブル単位でマージし、両形式が混在するドキュメントでも
// 片方にしか現れないテーブルを失わない。同名のテーブルはdefinitionsを優先する。
func parseOpenAPI(body []byte) (map[string]ColumnSet, error) {
	var doc struct {
		Definitions map[string]tableSchema `json:"definitions"`
		Components  struct {
			Schemas map[string]tableSchema `json:"schemas"`
		} `json:"components"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse schema document: %w", err)
	}

	if len(doc.Definitions) == 0 && len(doc.Components.Schemas) == 0 {
		return nil, fmt.Errorf("schema document contains no table definitions")
	}

	tables := make(map[string]ColumnSet, len(doc.Definitions)+len(doc.Components.Schemas))
	add := func(defs map[string]tableSchema) {
		for name, def := range defs {
			if _, ok := tables[name]; ok {
				continue
			}
			cols := make(ColumnSet, len(def.Properties))
			for col := range def.Properties {
				cols[col] = struct{}{}
			}
			tables[name] = cols
		}
	}
	add(doc.Definitions)
	add(doc.Components.Schemas)
	return tables, nil
}

type tableSchema struct {
	Properties map[string]json.RawMessage `json:"properties"`
}
