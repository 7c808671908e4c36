// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// バッキングテーブルのusersレコードを正規化した値であり、
// アカウント管理フローはスコープ外のためイミュータブルとして扱う。
type User struct {
	ID        string
	Email     string
	Name      string
	Role      string
	CompanyID string
	CreatedAt time.Time

	// PasswordHash は保存済みのソルト付きハッシュ。平文は一切保持しない。
	// APIレスポンスには含めないこと（ハンドラー側のDTOで除外する）。
	PasswordHash string
}

// DefaultRole は役割が未設定のユーザーに割り当てるデフォルト値。
const DefaultRole = "member"

// Project はユーザーが所有するデザインプロジェクトを表す。
// バッキングテーブルの物理カラム名はデプロイごとに異なるため、
// この構造体は常にカラムマッピング適用後の外部形状を保持する。
type Project struct {
	ID        string
	UserID    string
	Type      string
	Title     string
	Content   map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProjectPatch はプロジェクトの部分更新を表す。
// nilのフィールドは変更せず、既存の値を維持する。
type ProjectPatch struct {
	Title   *string
	Content map[string]any
}

// IsEmpty はパッチが1つもフィールドを含まないことを返す。
// 空パッチでもupdated_atカラムが解決済みであればスタンプは行われる。
func (p ProjectPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil
}
