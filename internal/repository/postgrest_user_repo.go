package repository

import (
	"context"
	"fmt"

	"github.com/voacom/commercial-intelligence-system/internal/model"
	"github.com/voacom/commercial-intelligence-system/internal/postgrest"
	"github.com/voacom/commercial-intelligence-system/internal/schema"
)

// PostgrestUserRepo はデータAPI経由でusersテーブルを読むリポジトリ。
type PostgrestUserRepo struct {
	client *postgrest.Client
	mapper *schema.Mapper
}

// NewPostgrestUserRepo はPostgrestUserRepoを生成する。
func NewPostgrestUserRepo(client *postgrest.Client, mapper *schema.Mapper) *PostgrestUserRepo {
	return &PostgrestUserRepo{client: client, mapper: mapper}
}

// FindByEmail は指定メールアドレスのユーザーを取得する。
// 見つからない場合はnilを返す。
func (r *PostgrestUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	spec := schema.UsersSpec()
	mapping, err := r.mapper.Resolve(ctx, spec)
	if err != nil {
		return nil, err
	}

	emailCol, ok := mapping.Column("email")
	if !ok {
		return nil, fmt.Errorf("users table has no email column")
	}

	rows, err := r.client.Select(ctx, spec.Table, "", postgrest.Filters{emailCol: email}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	user := userFromExternal(mapping.RowToExternal(spec, rows[0]))
	return &user, nil
}
