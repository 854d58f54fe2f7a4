package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"nodegate/internal/core/domain"
	"nodegate/internal/core/services"
	"nodegate/internal/infrastructure/middleware"
	"nodegate/internal/infrastructure/proxy"
	"nodegate/internal/infrastructure/repositories/file"
	"nodegate/internal/infrastructure/ws"
	"nodegate/pkg/config"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"
)

func newTestRouter(t *testing.T) (*gin.Engine, Deps) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	logger := zaptest.NewLogger(t).Sugar()

	cfg := config.DefaultConfig()
	cfg.Storage.DataDir = dir
	cfg.Monitoring.PrometheusEnabled = false
	cfg.RateLimiting.Enabled = false

	nodeRepo := file.NewFileNodeRepository(dir)
	userRepo := file.NewFileUserRepository(dir)
	assignRepo := file.NewFileAssignmentRepository(dir)
	security := file.NewFileAuditRepository(dir, "securityaudit.json")
	events := file.NewFileAuditRepository(dir, "serverstatus.json")
	commands := file.NewFileAuditRepository(dir, "command-history.json")

	audit := services.NewAuditService(security, events, commands, logger)
	tokens := services.NewTokenService("test-secret", time.Hour)
	auth := services.NewAuthService(userRepo, tokens, audit)
	access := services.NewAccessService(nodeRepo, assignRepo, audit, cfg.Upstream.EnforceEnabled)
	nodes := services.NewNodeService(nodeRepo, assignRepo, audit)
	users := services.NewUserService(userRepo, assignRepo, audit)
	forwarder := proxy.NewForwarder("shared-secret", 5*time.Second, 2*time.Second, nil, logger)
	status := ws.NewStatusServer(logger)

	deps := Deps{
		Config:    cfg,
		Logger:    logger,
		Tokens:    tokens,
		Auth:      auth,
		Nodes:     nodes,
		Users:     users,
		Access:    access,
		Audit:     audit,
		Forwarder: forwarder,
		Status:    status,
	}
	return NewRouter(deps), deps
}

func doJSON(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func loginAs(t *testing.T, router *gin.Engine, username, password string) string {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/api/login", "", `{"username":"`+username+`","password":"`+password+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d, body = %s", username, w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Token
}

func bootstrapAdmin(t *testing.T, deps Deps) {
	t.Helper()
	if err := deps.Auth.EnsureDefaultAdmin(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestLogin(t *testing.T) {
	router, deps := newTestRouter(t)
	bootstrapAdmin(t, deps)

	w := doJSON(router, http.MethodPost, "/api/login", "", `{"username":"admin","password":"admin"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		Role    string `json:"role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Token == "" || resp.Role != "admin" {
		t.Errorf("resp = %+v", resp)
	}

	w = doJSON(router, http.MethodPost, "/api/login", "", `{"username":"admin","password":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid credentials") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestNodesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t)
	w := doJSON(router, http.MethodGet, "/api/nodes", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAdminNodeLifecycle(t *testing.T) {
	router, deps := newTestRouter(t)
	bootstrapAdmin(t, deps)
	admin := loginAs(t, router, "admin", "admin")

	w := doJSON(router, http.MethodPost, "/api/nodes", admin, `{"name":"edge-1","apiUrl":"http://edge-1:9000","wsUrl":"ws://edge-1:9000"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var node domain.Node
	if err := json.Unmarshal(w.Body.Bytes(), &node); err != nil {
		t.Fatal(err)
	}
	if !regexp.MustCompile(`^node_\d+$`).MatchString(string(node.ID)) {
		t.Errorf("node id = %q", node.ID)
	}

	w = doJSON(router, http.MethodGet, "/api/nodes", admin, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var listed []domain.Node
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 || listed[0].ID != node.ID {
		t.Errorf("listed = %v", listed)
	}

	w = doJSON(router, http.MethodDelete, "/api/nodes/"+string(node.ID), admin, "")
	if w.Code != http.StatusOK {
		t.Errorf("delete status = %d, body = %s", w.Code, w.Body.String())
	}
	w = doJSON(router, http.MethodDelete, "/api/nodes/"+string(node.ID), admin, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestUserSeesOnlyAssignedNodes(t *testing.T) {
	router, deps := newTestRouter(t)
	bootstrapAdmin(t, deps)
	admin := loginAs(t, router, "admin", "admin")

	doJSON(router, http.MethodPost, "/api/nodes", admin, `{"name":"edge-1","apiUrl":"http://edge-1:9000","wsUrl":"ws://edge-1:9000"}`)

	w := doJSON(router, http.MethodPost, "/api/users", admin, `{"username":"alice","password":"pw","role":"user"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create user status = %d, body = %s", w.Code, w.Body.String())
	}

	alice := loginAs(t, router, "alice", "pw")
	w = doJSON(router, http.MethodGet, "/api/nodes", alice, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("unassigned user sees %s, want []", w.Body.String())
	}

	// Users cannot reach the admin surface.
	w = doJSON(router, http.MethodGet, "/api/users", alice, "")
	if w.Code != http.StatusForbidden {
		t.Errorf("user /api/users status = %d, want 403", w.Code)
	}
}

func TestProxyAuthorization(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"upstream":"` + r.URL.Path + `"}`))
	}))
	defer upstream.Close()

	router, deps := newTestRouter(t)
	bootstrapAdmin(t, deps)
	admin := loginAs(t, router, "admin", "admin")

	w := doJSON(router, http.MethodPost, "/api/nodes", admin, `{"name":"edge-1","apiUrl":"`+upstream.URL+`","wsUrl":"`+upstream.URL+`"}`)
	var node domain.Node
	if err := json.Unmarshal(w.Body.Bytes(), &node); err != nil {
		t.Fatal(err)
	}
	doJSON(router, http.MethodPost, "/api/users", admin, `{"username":"alice","password":"pw","role":"user"}`)
	alice := loginAs(t, router, "alice", "pw")

	// Not assigned yet.
	w = doJSON(router, http.MethodGet, "/api/nodes/"+string(node.ID)+"/proxy/status", alice, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("unassigned proxy status = %d, want 403", w.Code)
	}

	w = doJSON(router, http.MethodPut, "/api/users/alice/assign-nodes", admin,
		`{"assignedNodes":[{"nodeId":"`+string(node.ID)+`","permission":"read"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("assign status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(router, http.MethodGet, "/api/nodes/"+string(node.ID)+"/proxy/status", alice, "")
	if w.Code != http.StatusOK {
		t.Fatalf("assigned proxy status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"/status"`) {
		t.Errorf("proxied body = %s", w.Body.String())
	}

	// Unknown node is a 404 regardless of role.
	w = doJSON(router, http.MethodGet, "/api/nodes/node_999/proxy/status", admin, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown node status = %d, want 404", w.Code)
	}
}

func TestCommandRecordsHistory(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":"done"}`))
	}))
	defer upstream.Close()

	router, deps := newTestRouter(t)
	bootstrapAdmin(t, deps)
	admin := loginAs(t, router, "admin", "admin")

	w := doJSON(router, http.MethodPost, "/api/nodes", admin, `{"name":"edge-1","apiUrl":"`+upstream.URL+`","wsUrl":"`+upstream.URL+`"}`)
	var node domain.Node
	if err := json.Unmarshal(w.Body.Bytes(), &node); err != nil {
		t.Fatal(err)
	}

	w = doJSON(router, http.MethodPost, "/api/command/"+string(node.ID), admin, `{"cmd":"restart"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("command status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(router, http.MethodGet, "/api/command-history", admin, "")
	if w.Code != http.StatusOK {
		t.Fatalf("history status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"restart"`) {
		t.Errorf("history = %s", w.Body.String())
	}
}

func TestCommandAgainstOfflineNode(t *testing.T) {
	router, deps := newTestRouter(t)
	bootstrapAdmin(t, deps)
	admin := loginAs(t, router, "admin", "admin")

	w := doJSON(router, http.MethodPost, "/api/nodes", admin, `{"name":"edge-1","apiUrl":"http://127.0.0.1:1","wsUrl":"ws://127.0.0.1:1"}`)
	var node domain.Node
	if err := json.Unmarshal(w.Body.Bytes(), &node); err != nil {
		t.Fatal(err)
	}

	w = doJSON(router, http.MethodPost, "/api/command/"+string(node.ID), admin, `{"cmd":"restart"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("command status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Node offline") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestSecurityAuditLogExposesFailedLogins(t *testing.T) {
	router, deps := newTestRouter(t)
	bootstrapAdmin(t, deps)

	doJSON(router, http.MethodPost, "/api/login", "", `{"username":"admin","password":"wrong"}`)

	admin := loginAs(t, router, "admin", "admin")
	w := doJSON(router, http.MethodGet, "/api/security-audit-logs", admin, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Failed login attempt") {
		t.Errorf("audit log = %s", w.Body.String())
	}
}

func TestServerStatus(t *testing.T) {
	router, deps := newTestRouter(t)
	bootstrapAdmin(t, deps)
	admin := loginAs(t, router, "admin", "admin")

	w := doJSON(router, http.MethodGet, "/api/server-status", admin, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Status string `json:"status"`
		Uptime struct {
			Days int `json:"days"`
		} `json:"uptime"`
		DashboardClients *int `json:"dashboardClients"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.DashboardClients == nil || *resp.DashboardClients != 0 {
		t.Errorf("dashboardClients = %v, want 0", resp.DashboardClients)
	}
}

func TestDashboardBroadcastOnNodeChange(t *testing.T) {
	router, deps := newTestRouter(t)
	bootstrapAdmin(t, deps)
	admin := loginAs(t, router, "admin", "admin")

	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	var greeting ws.StatusMessage
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	if err := conn.ReadJSON(&greeting); err != nil {
		t.Fatal(err)
	}
	if greeting.Type != "status" {
		t.Fatalf("greeting = %+v", greeting)
	}

	w := doJSON(router, http.MethodPost, "/api/nodes", admin, `{"name":"edge-1","apiUrl":"http://edge-1:9000","wsUrl":"ws://edge-1:9000"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	var update ws.StatusMessage
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatal(err)
	}
	if update.Type != "nodes" {
		t.Errorf("update = %+v", update)
	}
}

// failingJournalAudit fails every journal read, for exercising the
// error handler path.
type failingJournalAudit struct{}

func (failingJournalAudit) Security(context.Context, domain.AuditLevel, string, map[string]interface{}) {
}
func (failingJournalAudit) Event(context.Context, domain.AuditLevel, string, map[string]interface{}) {
}
func (failingJournalAudit) Command(context.Context, map[string]interface{}) {}

func (failingJournalAudit) SecurityLog(context.Context) ([]domain.AuditRecord, error) {
	return nil, errors.New("store down")
}
func (failingJournalAudit) EventLog(context.Context) ([]domain.AuditRecord, error) {
	return nil, errors.New("store down")
}
func (failingJournalAudit) CommandLog(context.Context) ([]domain.AuditRecord, error) {
	return nil, errors.New("store down")
}

func TestJournalFailureReturnsInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t).Sugar()

	engine := gin.New()
	engine.Use(middleware.ErrorHandlerMiddleware(logger))
	adminHandler := NewAdminHandler(failingJournalAudit{}, nil)
	engine.GET("/api/server-logs", adminHandler.ServerLogs)

	w := doJSON(engine, http.MethodGet, "/api/server-logs", "", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "INTERNAL_ERROR") {
		t.Errorf("body = %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Internal server error") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("/health status = %d", w.Code)
	}
	w = doJSON(router, http.MethodGet, "/ready", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("/ready status = %d", w.Code)
	}
}
