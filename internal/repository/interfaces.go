// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/voacom/commercial-intelligence-system/internal/model"
)

// UserRepository はユーザーデータの読み出しインターフェース。
// アカウントの作成・更新はスコープ外のため読み出し専用。
type UserRepository interface {
	// FindByEmail は指定メールアドレスのユーザーを取得する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// ProjectRepository はデザインプロジェクトの永続化インターフェース。
// 全操作は呼び出しユーザーのスコープで行われ、他ユーザーの
// プロジェクトはNotFound/Forbiddenとして扱う。
type ProjectRepository interface {
	// List は指定ユーザーが所有するプロジェクトを返す。
	// 更新日時カラムが解決済みであれば新しい順に並ぶ。
	List(ctx context.Context, userID string) ([]model.Project, error)

	// Create はプロジェクトを作成し、保存された形を返す。
	Create(ctx context.Context, project *model.Project) (*model.Project, error)

	// Update は所有権を確認したうえでプロジェクトを部分更新する。
	// 存在しなければNotFound、他ユーザー所有であればForbiddenを返す。
	Update(ctx context.Context, userID, projectID string, patch model.ProjectPatch) (*model.Project, error)

	// Delete は所有権を確認したうえでプロジェクトを削除する。
	Delete(ctx context.Context, userID, projectID string) error
}
