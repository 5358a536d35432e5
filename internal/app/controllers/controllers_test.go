package controllers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cantinaverde/cantina/internal/app/controllers"
	"github.com/cantinaverde/cantina/internal/app/models"
	"github.com/cantinaverde/cantina/internal/app/models/dto"
	"github.com/cantinaverde/cantina/internal/app/repositories"
	"github.com/cantinaverde/cantina/internal/app/routes"
	"github.com/cantinaverde/cantina/internal/app/services"
	"github.com/cantinaverde/cantina/internal/middleware"
	"github.com/cantinaverde/cantina/internal/pkg/apperrors"
	"github.com/cantinaverde/cantina/internal/pkg/auth"
	"github.com/cantinaverde/cantina/internal/pkg/websocket"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const (
	rowID     = "6f1c2b9d-8a11-4a53-9f0e-0b6f1c1e4a7e"
	studentID = "0b1f5a52-3c4d-4e7f-8a9b-1c2d3e4f5a6b"
	password  = "123456"
)

type tableStore struct {
	inserts int
}

func (s *tableStore) List(context.Context, *repositories.Table, repositories.ListOptions) ([]models.Record, error) {
	return []models.Record{{"id": rowID, "nome": "Arroz"}}, nil
}

func (s *tableStore) GetByID(_ context.Context, _ *repositories.Table, id string) (models.Record, error) {
	if id != rowID {
		return nil, apperrors.ErrResourceNotFound
	}
	return models.Record{"id": id}, nil
}

func (s *tableStore) Insert(_ context.Context, _ *repositories.Table, data models.Record, _ repositories.WriteOptions) (models.Record, error) {
	s.inserts++
	out := data.Clone()
	out["id"] = rowID
	return out, nil
}

func (s *tableStore) Update(_ context.Context, _ *repositories.Table, id string, data models.Record, _ repositories.WriteOptions) (models.Record, error) {
	out := data.Clone()
	out["id"] = id
	return out, nil
}

func (s *tableStore) Delete(context.Context, *repositories.Table, string) error { return nil }

type userStore struct {
	user *models.User
}

func (s *userStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (s *userStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (s *userStore) DeleteUser(context.Context, string) error { return nil }

type stockStore struct{}

func (stockStore) ApplyMovement(_ context.Context, m models.StockMovement) (*models.StockAdjustment, error) {
	if m.ProdutoID != rowID {
		return nil, apperrors.NewResourceNotFoundError("product not found")
	}
	return &models.StockAdjustment{Movement: m, NovoEstoque: 15}, nil
}

type studentStore struct{}

func (studentStore) FindByCode(_ context.Context, column, code string) (*models.StudentLookup, error) {
	if column == "matricula" && code == "202400000001" {
		return &models.StudentLookup{ID: studentID, Nome: "Ana", Matricula: code, TurmaNome: "1A"}, nil
	}
	return nil, nil
}

func (studentStore) IsScholarship(context.Context, string) (bool, error) { return false, nil }

type releaseStore struct{}

func (releaseStore) History(context.Context, int) ([]models.ReleaseHistoryEntry, error) {
	return nil, nil
}

func (releaseStore) LastReleaseAt(context.Context, string) (*time.Time, error) { return nil, nil }

func (releaseStore) ActiveMenu(context.Context) (*models.ActiveMenu, error) {
	return &models.ActiveMenu{ID: rowID, Nome: "Almoço", TipoRefeicao: models.MealLunch}, nil
}

type reportStore struct{}

func (reportStore) Counts(context.Context, time.Time, time.Time) (repositories.DashboardCounts, error) {
	return repositories.DashboardCounts{}, nil
}

func (reportStore) ReleaseTimes(context.Context, time.Time) ([]time.Time, error) { return nil, nil }

func (reportStore) LowStock(context.Context) ([]models.ProductAlert, error) { return nil, nil }

func (reportStore) ExpiringBefore(context.Context, string) ([]models.ProductAlert, error) {
	return nil, nil
}

type testEnv struct {
	router *gin.Engine
	jwt    *auth.JWTService
	tables *tableStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	users := &userStore{user: &models.User{ID: "u-admin", Email: "admin@cantina.com", Role: models.RoleAdminNormal, PasswordHash: &hash}}
	tables := &tableStore{}
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "test-secret", TokenExp: time.Hour, TokenIssuer: "test"})
	log := zerolog.Nop()
	hub := websocket.NewHub(log)

	router := gin.New()
	routes.SetupSwagger(router)
	routes.SetupRouter(router,
		controllers.NewAuthController(services.NewAuthService(users, jwtService, log), log),
		controllers.NewTableController(services.NewTableService(tables, users, hub, log), log),
		controllers.NewRPCController(services.NewStockService(stockStore{}, hub, log), log),
		controllers.NewFunctionController(
			services.NewStudentService(studentStore{}, log),
			services.NewReleaseService(releaseStore{}, studentStore{}, time.Hour, log),
			services.NewReportService(reportStore{}, 7, log),
			log,
		),
		websocket.NewHandler(hub, nil, log),
		middleware.NewAuthMiddleware(jwtService),
		func(c *gin.Context) { c.Next() },
	)
	return &testEnv{router: router, jwt: jwtService, tables: tables}
}

func (e *testEnv) token(t *testing.T, role models.RoleType) string {
	t.Helper()
	token, _, err := e.jwt.GenerateToken("u-"+string(role), string(role)+"@cantina.com", string(role))
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorCode {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body %q: %v", w.Body.String(), err)
	}
	if resp.Success {
		t.Errorf("success = true in error body")
	}
	return resp.Error.Code
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/auth/login", "", `{"email":"admin@cantina.com","password":"123456"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp dto.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if resp.Token == "" || resp.User.Role != models.RoleAdminNormal {
		t.Errorf("response = %+v", resp)
	}

	me := env.do(t, http.MethodGet, "/auth/me", resp.Token, "")
	if me.Code != http.StatusOK {
		t.Errorf("GET /auth/me status = %d, body = %s", me.Code, me.Body.String())
	}
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   dto.ErrorCode
	}{
		{"wrong password", `{"email":"admin@cantina.com","password":"nope"}`, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{"unknown user", `{"email":"ghost@cantina.com","password":"123456"}`, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{"missing password", `{"email":"admin@cantina.com"}`, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/auth/login", "", tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
			if code := errorCode(t, w); code != tt.code {
				t.Errorf("code = %s, want %s", code, tt.code)
			}
		})
	}
}

func TestTables_RequireToken(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/produtos", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}

	// Query-string tokens are only for the WebSocket handshake
	for _, path := range []string{"/api/produtos", "/auth/me"} {
		w = env.do(t, http.MethodGet, path+"?token="+env.token(t, models.RoleSuperAdmin), "", "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s with query token: status = %d, want 401", path, w.Code)
		}
	}
	w = env.do(t, http.MethodPost, "/rpc/update_produto_estoque?token="+env.token(t, models.RoleSuperAdmin), "", `{}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("POST /rpc with query token: status = %d, want 401", w.Code)
	}
}

func TestTables_CRUD(t *testing.T) {
	env := newTestEnv(t)
	super := env.token(t, models.RoleSuperAdmin)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"list", http.MethodGet, "/api/produtos?nome=eq.Arroz", "", http.StatusOK},
		{"get", http.MethodGet, "/api/produtos/" + rowID, "", http.StatusOK},
		{"get malformed id", http.MethodGet, "/api/produtos/42", "", http.StatusNotFound},
		{"create", http.MethodPost, "/api/produtos", `{"nome":"Feijão"}`, http.StatusCreated},
		{"create empty", http.MethodPost, "/api/produtos", `{}`, http.StatusBadRequest},
		{"create unknown column", http.MethodPost, "/api/produtos", `{"preco":3}`, http.StatusBadRequest},
		{"update", http.MethodPut, "/api/produtos/" + rowID, `{"nome":"Feijão"}`, http.StatusOK},
		{"update array body", http.MethodPut, "/api/produtos/" + rowID, `[{"nome":"x"}]`, http.StatusBadRequest},
		{"delete", http.MethodDelete, "/api/produtos/" + rowID, "", http.StatusNoContent},
		{"unknown table", http.MethodGet, "/api/pg_shadow", "", http.StatusNotFound},
		{"malformed json", http.MethodPost, "/api/produtos", `{"nome":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, super, tt.body)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestTables_ListTotalCount(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/produtos", env.token(t, models.RoleUser), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-Total-Count"); got != "1" {
		t.Errorf("X-Total-Count = %q, want 1", got)
	}
}

func TestTables_CreateShapeFollowsBody(t *testing.T) {
	env := newTestEnv(t)
	super := env.token(t, models.RoleSuperAdmin)

	w := env.do(t, http.MethodPost, "/api/produtos", super, `{"nome":"Arroz"}`)
	var obj map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &obj); err != nil {
		t.Fatalf("object body: %v (%s)", err, w.Body.String())
	}
	if obj["id"] != rowID {
		t.Errorf("created row = %v", obj)
	}

	w = env.do(t, http.MethodPost, "/api/produtos", super, `[{"nome":"Arroz"},{"nome":"Feijão"}]`)
	var rows []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatalf("array body: %v (%s)", err, w.Body.String())
	}
	if len(rows) != 2 {
		t.Errorf("len(rows) = %d, want 2", len(rows))
	}

	w = env.do(t, http.MethodPost, "/api/produtos", super, `[{"nome":"Arroz"}]`)
	obj = nil
	if err := json.Unmarshal(w.Body.Bytes(), &obj); err != nil {
		t.Fatalf("one-element array body: %v (%s)", err, w.Body.String())
	}
	if w.Code != http.StatusCreated || obj["id"] != rowID {
		t.Errorf("one-element array = %d %v", w.Code, obj)
	}
	if env.tables.inserts != 4 {
		t.Errorf("inserts = %d, want 4", env.tables.inserts)
	}
}

func TestTables_Permissions(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, models.RoleAdminNormal)
	user := env.token(t, models.RoleUser)

	tests := []struct {
		name   string
		token  string
		method string
		path   string
		body   string
		status int
	}{
		{"admin lists users", admin, http.MethodGet, "/api/users", "", http.StatusForbidden},
		{"admin deletes student", admin, http.MethodDelete, "/api/alunos/" + rowID, "", http.StatusForbidden},
		{"user toggles menu", user, http.MethodPut, "/api/cardapios/" + rowID, `{"ativo":false}`, http.StatusOK},
		{"user renames menu", user, http.MethodPut, "/api/cardapios/" + rowID, `{"nome":"x"}`, http.StatusForbidden},
		{"user toggles and renames menu", user, http.MethodPut, "/api/cardapios/" + rowID, `{"ativo":true,"nome":"x"}`, http.StatusForbidden},
		{"user reads products", user, http.MethodGet, "/api/produtos", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, tt.token, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
			if tt.status == http.StatusForbidden {
				if code := errorCode(t, w); code != dto.ErrorCodeForbidden {
					t.Errorf("code = %s, want %s", code, dto.ErrorCodeForbidden)
				}
			}
		})
	}
}

func TestRPC_UpdateStock(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, models.RoleAdminNormal)
	user := env.token(t, models.RoleUser)

	tests := []struct {
		name   string
		token  string
		path   string
		body   string
		status int
	}{
		{"admin entrada", admin, "/rpc/update_produto_estoque", `{"produto_id":"` + rowID + `","tipo":"entrada","quantidade":5}`, http.StatusOK},
		{"legacy field names", admin, "/rpc/update_produto_estoque", `{"produto_id":"` + rowID + `","tipo_movimentacao":"saida","nova_quantidade":2}`, http.StatusOK},
		{"user denied", user, "/rpc/update_produto_estoque", `{"produto_id":"` + rowID + `","tipo":"entrada","quantidade":5}`, http.StatusForbidden},
		{"missing fields", admin, "/rpc/update_produto_estoque", `{"tipo":"entrada"}`, http.StatusBadRequest},
		{"bad tipo", admin, "/rpc/update_produto_estoque", `{"produto_id":"` + rowID + `","tipo":"ajuste","quantidade":5}`, http.StatusBadRequest},
		{"unknown product", admin, "/rpc/update_produto_estoque", `{"produto_id":"` + studentID + `","tipo":"entrada","quantidade":5}`, http.StatusNotFound},
		{"unknown procedure", admin, "/rpc/drop_everything", `{}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, tt.token, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
			if tt.status == http.StatusOK {
				var resp dto.OkResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || !resp.Ok {
					t.Errorf("body = %s", w.Body.String())
				}
			}
		})
	}
}

func TestFunctions(t *testing.T) {
	env := newTestEnv(t)
	user := env.token(t, models.RoleUser)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		want   string
	}{
		{"lookup by matricula", "/functions/buscar_aluno", `{"codigo":"202400000001"}`, http.StatusOK, `"nome":"Ana"`},
		{"lookup numeric code", "/functions/buscar_aluno", `{"codigo":202400000001}`, http.StatusOK, `"nome":"Ana"`},
		{"lookup not found", "/functions/buscar_aluno", `{"codigo":"12345"}`, http.StatusOK, `"aluno":null`},
		{"lookup missing code", "/functions/buscar_aluno", `{}`, http.StatusBadRequest, ""},
		{"history", "/functions/liberacoes_history", `{"limit":10}`, http.StatusOK, `"liberacoes":[]`},
		{"history without body", "/functions/liberacoes_history", "", http.StatusOK, `"liberacoes":[]`},
		{"check release", "/functions/verificar_liberacao", `{"aluno_id":"` + studentID + `"}`, http.StatusOK, `"requer_confirmacao_bolsista":true`},
		{"check release bad id", "/functions/verificar_liberacao", `{"aluno_id":"abc"}`, http.StatusBadRequest, ""},
		{"dashboard", "/functions/dashboard_stats", "", http.StatusOK, `"liberacoes_hoje":0`},
		{"alerts", "/functions/estoque_alertas", `{"dias":3}`, http.StatusOK, `"estoque_baixo":[]`},
		{"unknown function", "/functions/nope", `{}`, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, user, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
			if tt.want != "" && !bytes.Contains(w.Body.Bytes(), []byte(tt.want)) {
				t.Errorf("body %s does not contain %s", w.Body.String(), tt.want)
			}
		})
	}
}

func TestPublicRoutes(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/ping", "/metrics", "/swagger/doc.json"} {
		w := env.do(t, http.MethodGet, path, "", "")
		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d", path, w.Code)
		}
	}
}

func TestSwaggerDocumentCoversRoutes(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/swagger/doc.json", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /swagger/doc.json status = %d", w.Code)
	}
	var doc struct {
		Paths map[string]map[string]interface{} `json:"paths"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("doc.json is not valid JSON: %v", err)
	}

	undocumented := map[string]bool{"/ping": true, "/metrics": true, "/realtime": true}
	for _, r := range env.router.Routes() {
		if undocumented[r.Path] || strings.HasPrefix(r.Path, "/swagger") {
			continue
		}
		method := strings.ToLower(r.Method)
		path := swaggerPath(r.Path)

		if prefix, ok := strings.CutSuffix(path, "{name}"); ok {
			// dispatch routes are documented once per function name
			found := false
			for p, ops := range doc.Paths {
				if strings.HasPrefix(p, prefix) && ops[method] != nil {
					found = true
				}
			}
			if !found {
				t.Errorf("%s %s: no documented operation under %s", r.Method, r.Path, prefix)
			}
			continue
		}
		if doc.Paths[path][method] == nil {
			t.Errorf("%s %s is not documented as %s %s", r.Method, r.Path, method, path)
		}
	}
}

// swaggerPath turns /api/:table/:id into /api/{table}/{id}
func swaggerPath(ginPath string) string {
	parts := strings.Split(ginPath, "/")
	for i, p := range parts {
		if strings.HasPrefix(p, ":") {
			parts[i] = "{" + p[1:] + "}"
		}
	}
	return strings.Join(parts, "/")
}
