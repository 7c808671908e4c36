package repository

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/voacom/commercial-intelligence-system/internal/model"
)

// stringify はデータストアが返す値をID比較用の文字列に正規化する。
// 数値IDのテーブルではjson.Numberやfloat64で返ってくるため、
// 所有権の比較は常に文字列同士で行う。
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// parseTime はRFC3339系のタイムスタンプ文字列をtime.Timeに変換する。
// 解釈できない値はゼロ値として扱う。
func parseTime(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseContent はcontent相当の値をマップに正規化する。
// JSONB列はマップで、text列はJSON文字列で返ってくることがある。
func parseContent(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(t), &m); err == nil {
			return m
		}
		return nil
	default:
		return nil
	}
}

// projectFromExternal は外部キー名の行をProjectに変換する。
func projectFromExternal(row map[string]any) model.Project {
	return model.Project{
		ID:        stringify(row["id"]),
		UserID:    stringify(row["user_id"]),
		Type:      stringify(row["type"]),
		Title:     stringify(row["name"]),
		Content:   parseContent(row["settings"]),
		CreatedAt: parseTime(row["created_at"]),
		UpdatedAt: parseTime(row["updated_at"]),
	}
}

// userFromExternal は外部キー名の行をUserに変換する。
func userFromExternal(row map[string]any) model.User {
	role := stringify(row["role"])
	if role == "" {
		role = model.DefaultRole
	}
	return model.User{
		ID:           stringify(row["id"]),
		Email:        stringify(row["email"]),
		Name:         stringify(row["name"]),
		Role:         role,
		CompanyID:    stringify(row["company_id"]),
		CreatedAt:    parseTime(row["created_at"]),
		PasswordHash: stringify(row["password_hash"]),
	}
}
