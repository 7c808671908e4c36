package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/voacom/commercial-intelligence-system/internal/auth"
	"github.com/voacom/commercial-intelligence-system/internal/middleware"
	"github.com/voacom/commercial-intelligence-system/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Login は認証情報を検証しアクセストークンを発行する。
	Login(ctx context.Context, email, password string) (*auth.Token, error)
}

// AuthHandler は認証のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// loginRequest はJSONログインリクエストのボディ。
// usernameにはメールアドレスを指定する。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// userResponse はユーザー情報のAPIレスポンス。
// パスワードハッシュは決して含めない。
type userResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name,omitempty"`
	Role      string     `json:"role"`
	CompanyID string     `json:"company_id,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func newUserResponse(user *model.User) userResponse {
	resp := userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CompanyID: user.CompanyID,
	}
	if !user.CreatedAt.IsZero() {
		t := user.CreatedAt
		resp.CreatedAt = &t
	}
	return resp
}

// Token はOAuth2パスワードフォームでログインしアクセストークンを発行する。
// POST /token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeBadRequest(w, "failed to parse form body")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	h.login(w, r, username, password)
}

// Login はJSONボディでログインしアクセストークンを発行する。
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "failed to parse request body")
		return
	}
	h.login(w, r, req.Username, req.Password)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, username, password string) {
	token, err := h.service.Login(r.Context(), username, password)
	if err != nil {
		if model.ErrorCode(err) == model.ErrCodeInvalidCredentials {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// Me は認証済みユーザー自身の情報を返す。
// GET /users/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}
