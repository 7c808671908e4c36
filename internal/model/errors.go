package model

import (
	"errors"
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// Codeは安定したエラー種別であり、境界層がHTTPステータスへ写像するために使う。
// スキーマ関連のエラーは欠落した論理フィールド名をFieldsに列挙する
// （オペレーター向けの詳細であり、エンドユーザー向けではない）。
type APIError struct {
	Code     string   // エラーコード
	Message  string   // エラーメッセージ
	Category string   // カテゴリ: auth, validation, schema, system
	Action   string   // 対処方法（schemaカテゴリはオペレーター向け）
	Fields   []string // スキーマエラー時の欠落論理フィールド名
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード。
// 境界層はこれらを素通しで安定的に扱うこと（汎用エラーへ握りつぶさない）。
const (
	ErrCodeSchemaUnavailable     = "SCHEMA_UNAVAILABLE"
	ErrCodeSchemaMismatch        = "SCHEMA_MISMATCH"
	ErrCodeMissingRequiredColumn = "MISSING_REQUIRED_COLUMN"
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeInvalidCredentials    = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized          = "UNAUTHORIZED"
)

// NewSchemaUnavailableError はスキーマ記述の取得失敗エラーを生成する。
// 取得失敗は「テーブルにカラムが無い」状態とは区別され、
// 空のマッピングへ静かにフォールバックしてはならない。
func NewSchemaUnavailableError(cause error) *APIError {
	msg := "schema description is unavailable"
	if cause != nil {
		msg = fmt.Sprintf("schema description is unavailable: %v", cause)
	}
	return &APIError{
		Code:     ErrCodeSchemaUnavailable,
		Message:  msg,
		Category: "schema",
		Action:   "Check that the data API is reachable and the service key is valid.",
	}
}

// NewSchemaMismatchError はテーブルに必須カラムが欠けているエラーを生成する。
func NewSchemaMismatchError(table string, missing []string) *APIError {
	return &APIError{
		Code:     ErrCodeSchemaMismatch,
		Message:  fmt.Sprintf("%s missing columns: %s", table, strings.Join(missing, ", ")),
		Category: "schema",
		Action:   "Add the listed columns to the table, or rename existing ones to a recognized name.",
		Fields:   missing,
	}
}

// NewMissingRequiredColumnError は書き込みに必要な論理フィールドが
// 物理カラムへ解決できなかったエラーを生成する。マッパーがカラムを
// 発明することは決してない。
func NewMissingRequiredColumnError(table string, missing []string) *APIError {
	return &APIError{
		Code:     ErrCodeMissingRequiredColumn,
		Message:  fmt.Sprintf("%s has no physical column for: %s", table, strings.Join(missing, ", ")),
		Category: "schema",
		Action:   "Add a column the listed fields can map to before writing.",
		Fields:   missing,
	}
}

// NewNotFoundError は対象リソースが存在しないエラーを生成する。
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("%s not found", resource),
		Category: "validation",
		Action:   "Check the requested ID.",
	}
}

// NewForbiddenError は認証済みだが所有者でない呼び出しのエラーを生成する。
func NewForbiddenError(action string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("not authorized to %s this project", action),
		Category: "auth",
		Action:   "Projects can only be changed by their owner.",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// ユーザー列挙を防ぐため、識別子が存在しない場合とパスワード不一致の場合で
// 同一のレスポンスを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Incorrect username or password",
		Category: "auth",
		Action:   "Check the username and password.",
	}
}

// NewUnauthorizedError はトークンの欠落・不正・期限切れのエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Could not validate credentials",
		Category: "auth",
		Action:   "Log in again to obtain a new token.",
	}
}

// AsAPIError はエラーチェーンから*APIErrorを取り出す。
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// ErrorCode はエラーチェーンからエラーコードを取り出す。
// APIErrorでない場合は空文字列を返す。
func ErrorCode(err error) string {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Code
	}
	return ""
}
