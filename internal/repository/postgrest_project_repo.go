package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/voacom/commercial-intelligence-system/internal/model"
	"github.com/voacom/commercial-intelligence-system/internal/postgrest"
	"github.com/voacom/commercial-intelligence-system/internal/schema"
)

// PostgrestProjectRepo はデータAPI経由でprojectsテーブルを操作する
// リポジトリ。物理カラム名はデプロイごとに異なるため、全操作は
// スキーママッピングを解決してから行を組み立てる。
type PostgrestProjectRepo struct {
	client *postgrest.Client
	mapper *schema.Mapper
	now    func() time.Time
}

// NewPostgrestProjectRepo はPostgrestProjectRepoを生成する。
func NewPostgrestProjectRepo(client *postgrest.Client, mapper *schema.Mapper) *PostgrestProjectRepo {
	return &PostgrestProjectRepo{
		client: client,
		mapper: mapper,
		now:    time.Now,
	}
}

// List は指定ユーザーが所有するプロジェクトを返す。
// 更新日時カラムが解決済みであれば新しい順に並ぶ。
func (r *PostgrestProjectRepo) List(ctx context.Context, userID string) ([]model.Project, error) {
	spec := schema.ProjectsSpec()
	mapping, err := r.mapper.Resolve(ctx, spec)
	if err != nil {
		return nil, err
	}

	userCol, err := r.userColumn(mapping)
	if err != nil {
		return nil, err
	}

	var order *postgrest.Order
	if col, ok := mapping.Column("updated_at"); ok {
		order = &postgrest.Order{Column: col, Descending: true}
	}

	rows, err := r.client.Select(ctx, spec.Table, "", postgrest.Filters{
		userCol: userID,
	}, order)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects := make([]model.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, projectFromExternal(mapping.RowToExternal(spec, row)))
	}
	return projects, nil
}

// Create はプロジェクトを作成し、保存された形を返す。
// 必須フィールドのいずれかがカラムに解決できないテーブルには
// 作成できず、SchemaMismatchを返す。
func (r *PostgrestProjectRepo) Create(ctx context.Context, project *model.Project) (*model.Project, error) {
	spec := schema.ProjectsSpec()
	mapping, err := r.mapper.Resolve(ctx, spec)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, logical := range []string{"user", "type", "title", "content"} {
		if !mapping.Resolved(logical) {
			missing = append(missing, logical)
		}
	}
	if len(missing) > 0 {
		return nil, model.NewSchemaMismatchError(spec.Table, missing)
	}

	content := project.Content
	if content == nil {
		content = map[string]any{}
	}

	values := map[string]any{
		"user":    project.UserID,
		"type":    project.Type,
		"title":   project.Title,
		"content": content,
	}
	stamp := r.now().UTC().Format(time.RFC3339)
	if mapping.Resolved("created_at") {
		values["created_at"] = stamp
	}
	if mapping.Resolved("updated_at") {
		values["updated_at"] = stamp
	}

	row, err := mapping.ExternalToRow(values)
	if err != nil {
		return nil, err
	}

	rows, err := r.client.Insert(ctx, spec.Table, row)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert returned no rows")
	}

	created := projectFromExternal(mapping.RowToExternal(spec, rows[0]))
	return &created, nil
}

// Update は所有権を確認したうえでプロジェクトを部分更新する。
// パッチが空でも、updated_atカラムが解決済みであればスタンプは行う。
func (r *PostgrestProjectRepo) Update(ctx context.Context, userID, projectID string, patch model.ProjectPatch) (*model.Project, error) {
	spec := schema.ProjectsSpec()
	mapping, err := r.mapper.Resolve(ctx, spec)
	if err != nil {
		return nil, err
	}

	if err := r.checkOwnership(ctx, mapping, userID, projectID, "modify"); err != nil {
		return nil, err
	}

	values := map[string]any{}
	if patch.Title != nil {
		values["title"] = *patch.Title
	}
	if patch.Content != nil {
		values["content"] = patch.Content
	}
	if mapping.Resolved("updated_at") {
		values["updated_at"] = r.now().UTC().Format(time.RFC3339)
	}

	row, err := mapping.ExternalToRow(values)
	if err != nil {
		return nil, err
	}

	idCol := r.idColumn(mapping)
	rows, err := r.client.Update(ctx, spec.Table, postgrest.Filters{idCol: projectID}, row)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	if len(rows) == 0 {
		return nil, model.NewNotFoundError("project")
	}

	updated := projectFromExternal(mapping.RowToExternal(spec, rows[0]))
	return &updated, nil
}

// Delete は所有権を確認したうえでプロジェクトを削除する。
func (r *PostgrestProjectRepo) Delete(ctx context.Context, userID, projectID string) error {
	spec := schema.ProjectsSpec()
	mapping, err := r.mapper.Resolve(ctx, spec)
	if err != nil {
		return err
	}

	if err := r.checkOwnership(ctx, mapping, userID, projectID, "delete"); err != nil {
		return err
	}

	idCol := r.idColumn(mapping)
	if err := r.client.Delete(ctx, spec.Table, postgrest.Filters{idCol: projectID}); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// checkOwnership は対象プロジェクトを1行読み、存在と所有者を確認する。
// 確認と変更は別リクエストになるため厳密には競合しうるが、
// 同一ユーザーの操作間の競合はここでは問題にしない。
func (r *PostgrestProjectRepo) checkOwnership(ctx context.Context, mapping *schema.Mapping, userID, projectID, action string) error {
	userCol, err := r.userColumn(mapping)
	if err != nil {
		return err
	}
	idCol := r.idColumn(mapping)

	rows, err := r.client.Select(ctx, mapping.Table, "", postgrest.Filters{idCol: projectID}, nil)
	if err != nil {
		return fmt.Errorf("failed to check project ownership: %w", err)
	}
	if len(rows) == 0 {
		return model.NewNotFoundError("project")
	}

	owner := stringify(rows[0][userCol])
	if owner != userID {
		return model.NewForbiddenError(action)
	}
	return nil
}

// userColumn は所有者カラム名を返す。解決できなかったテーブルでは
// 所有権の確認自体が成立しないため、推測で問い合わせずSchemaMismatchを返す。
func (r *PostgrestProjectRepo) userColumn(mapping *schema.Mapping) (string, error) {
	col, ok := mapping.Column("user")
	if !ok {
		return "", model.NewSchemaMismatchError(mapping.Table, []string{"user"})
	}
	return col, nil
}

func (r *PostgrestProjectRepo) idColumn(mapping *schema.Mapping) string {
	if col, ok := mapping.Column("id"); ok {
		return col
	}
	return "id"
}
