package schema

import (
	"context"
	"sort"

	"github.com/voacom/commercial-intelligence-system/internal/model"
)

// FieldSpec は1つの論理フィールドの定義。Candidatesは優先度順の
// 物理カラム候補で、先頭から順に実在するものが採用される。
// External はAPIレスポンス上のキー名。カラム未解決時の読み出しでは
// このキーが行データへのフォールバックアクセスに使われる。
type FieldSpec struct {
	Logical    string
	External   string
	Candidates []string
}

// EntitySpec は1テーブル分の論理フィールド定義。
type EntitySpec struct {
	Table  string
	Fields []FieldSpec
}

// Resolution は論理フィールドの解決結果。Resolvedがfalseのときは
// 候補のどれもテーブルに存在しなかったことを示す。
type Resolution struct {
	Column   string
	Resolved bool
}

// Mapping は1テーブルの解決済みマッピング。
type Mapping struct {
	Table   string
	fields  map[string]Resolution
	columns ColumnSet
}

// Column は論理フィールドの物理カラム名を返す。
func (m *Mapping) Column(logical string) (string, bool) {
	r, ok := m.fields[logical]
	if !ok || !r.Resolved {
		return "", false
	}
	return r.Column, true
}

// Resolved は論理フィールドがカラムに解決できたか返す。
func (m *Mapping) Resolved(logical string) bool {
	r, ok := m.fields[logical]
	return ok && r.Resolved
}

// Mapper はイントロスペクション結果に基づきエンティティ定義を
// 実スキーマへ解決する。
type Mapper struct {
	introspector *Introspector
}

func NewMapper(introspector *Introspector) *Mapper {
	return &Mapper{introspector: introspector}
}

// Resolve はエンティティの各論理フィールドについて、候補リストを
// 先頭から走査し最初に実在したカラムを採用する。どの候補も存在
// しないフィールドは未解決としてマッピングに残る。
func (mp *Mapper) Resolve(ctx context.Context, spec EntitySpec) (*Mapping, error) {
	cols, err := mp.introspector.TableColumns(ctx, spec.Table)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]Resolution, len(spec.Fields))
	for _, f := range spec.Fields {
		fields[f.Logical] = resolveField(f, cols)
	}

	return &Mapping{Table: spec.Table, fields: fields, columns: cols}, nil
}

func resolveField(f FieldSpec, cols ColumnSet) Resolution {
	for _, cand := range f.Candidates {
		if cols.Has(cand) {
			return Resolution{Column: cand, Resolved: true}
		}
	}
	return Resolution{}
}

// RowToExternal は物理行を外部キー名の行に変換する。解決済み
// フィールドは物理カラムから読む。未解決フィールドは外部キー名
// そのもので行を引くフォールバックを試みる。どちらにも値がない
// フィールドは出力に含めない。
func (m *Mapping) RowToExternal(spec EntitySpec, row map[string]any) map[string]any {
	out := make(map[string]any, len(spec.Fields))
	for _, f := range spec.Fields {
		if col, ok := m.Column(f.Logical); ok {
			if v, present := row[col]; present {
				out[f.External] = v
			}
			continue
		}
		if v, present := row[f.External]; present {
			out[f.External] = v
		}
	}
	return out
}

// ExternalToRow は論理フィールド名の値集合を物理行に変換する。
// 未解決フィールドに値が指定された場合はMissingRequiredColumnを返す。
func (m *Mapping) ExternalToRow(values map[string]any) (map[string]any, error) {
	row := make(map[string]any, len(values))
	var missing []string
	for logical, v := range values {
		col, ok := m.Column(logical)
		if !ok {
			missing = append(missing, logical)
			continue
		}
		row[col] = v
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, model.NewMissingRequiredColumnError(m.Table, missing)
	}
	return row, nil
}

// ProjectsSpec はプロジェクトテーブルの論理フィールド定義。
// 候補リストはよく使われる命名規約を優先度順に並べたもの。
func ProjectsSpec() EntitySpec {
	return EntitySpec{
		Table: "projects",
		Fields: []FieldSpec{
			{Logical: "id", External: "id", Candidates: []string{"id"}},
			{Logical: "user", External: "user_id", Candidates: []string{"user_id", "owner_id", "created_by", "author_id", "uid"}},
			{Logical: "type", External: "type", Candidates: []string{"type", "kind", "category"}},
			{Logical: "title", External: "name", Candidates: []string{"name", "title"}},
			{Logical: "content", External: "settings", Candidates: []string{"settings", "content", "data", "payload"}},
			{Logical: "created_at", External: "created_at", Candidates: []string{"created_at", "createdAt", "created_time"}},
			{Logical: "updated_at", External: "updated_at", Candidates: []string{"updated_at", "updatedAt", "updated_time", "modified_at"}},
		},
	}
}

// UsersSpec はユーザーテーブルの論理フィールド定義。ユーザー
// テーブルは認証の土台なので候補による揺らぎを許さず、固定の
// カラム名をそのまま使う。
func UsersSpec() EntitySpec {
	return EntitySpec{
		Table: "users",
		Fields: []FieldSpec{
			{Logical: "id", External: "id", Candidates: []string{"id"}},
			{Logical: "email", External: "email", Candidates: []string{"email"}},
			{Logical: "name", External: "name", Candidates: []string{"name"}},
			{Logical: "role", External: "role", Candidates: []string{"role"}},
			{Logical: "company_id", External: "company_id", Candidates: []string{"company_id"}},
			{Logical: "password_hash", External: "password_hash", Candidates: []string{"password_hash", "hashed_password"}},
			{Logical: "created_at", External: "created_at", Candidates: []string{"created_at", "createdAt"}},
		},
	}
}
