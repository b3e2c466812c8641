package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowstudio/config"
	chatService "flowstudio/internal/chat/service"
	docModel "flowstudio/internal/document/model"
	docService "flowstudio/internal/document/service"
	"flowstudio/internal/llm"
	"flowstudio/internal/testutil"
	workflowModel "flowstudio/internal/workflow/model"
	workflowService "flowstudio/internal/workflow/service"
	"flowstudio/store"
	"flowstudio/store/memory"
)

const testSecret = "router-test-secret"

type stubProvider struct {
	prompts []string
	err     error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Generate(_ context.Context, prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if p.err != nil {
		return "", p.err
	}
	return "ANSWER", nil
}

type testServer struct {
	handler  http.Handler
	provider *stubProvider
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWith(t, &stubProvider{}, func(*config.Config) {})
}

func newTestServerWith(t *testing.T, provider *stubProvider, configure func(*config.Config)) *testServer {
	db, err := memory.New()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Auth.JWTSecret = testSecret
	configure(cfg)

	docs := docService.NewDocumentService(db.Documents())
	services := Services{
		Documents: docs,
		Workflows: workflowService.NewWorkflowService(db.Workflows(), docs, llm.NewGenerator(provider)),
		Chats:     chatService.NewChatService(db.ChatLogs()),
	}
	return &testServer{handler: Setup(cfg, services), provider: provider}
}

func token(t *testing.T, userID string) string {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"aud": "authenticated",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, userID string, req *http.Request) *httptest.ResponseRecorder {
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) postJSON(t *testing.T, userID, path string, body interface{}) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, userID, req)
}

func (s *testServer) upload(t *testing.T, userID, filename string, data []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/workflow/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(t, userID, req)
}

func executeBody(fileID, query string) workflowModel.ExecuteRequest {
	return workflowModel.ExecuteRequest{
		Nodes: []workflowModel.Node{
			{ID: "1", Type: "userQuery"},
			{
				ID:   "2",
				Type: workflowModel.KnowledgeBaseType,
				Data: map[string]interface{}{"config": map[string]interface{}{"fileId": fileID}},
			},
			{ID: "3", Type: "output"},
		},
		Edges: []workflowModel.Edge{{ID: "e1", Source: "1", Target: "2"}, {ID: "e2", Source: "2", Target: "3"}},
		Query: query,
	}
}

func TestStatus(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, "", httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"Backend running"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, "", httptest.NewRequest(http.MethodGet, "/", nil))

	rec := s.do(t, "", httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "flowstudio_http_requests_total")
}

func TestDomainRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/workflow/list", "/workflow/abc", "/chat/w1"} {
		rec := s.do(t, "", httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec := s.postJSON(t, "", "/workflow/execute", executeBody("x", "q"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPreflight(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, "", httptest.NewRequest(http.MethodOptions, "/workflow/execute", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUploadThenExecute(t *testing.T) {
	s := newTestServer(t)

	rec := s.upload(t, "alice", "guide.pdf", testutil.BuildPDF("X is the unknown.", "Y is known."))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var uploaded docModel.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	require.NotEmpty(t, uploaded.FileID)
	assert.Equal(t, "guide.pdf", uploaded.FileName)

	rec = s.postJSON(t, "alice", "/workflow/execute", executeBody(uploaded.FileID, "What is X?"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"answer":"ANSWER"}`, rec.Body.String())

	require.Len(t, s.provider.prompts, 1)
	assert.Contains(t, s.provider.prompts[0], "X is the unknown.")
	assert.Contains(t, s.provider.prompts[0], "What is X?")
}

func TestExecuteWithOtherUsersDocument(t *testing.T) {
	s := newTestServer(t)

	rec := s.upload(t, "alice", "private.pdf", testutil.BuildPDF("secret"))
	require.Equal(t, http.StatusOK, rec.Code)
	var uploaded docModel.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))

	rec = s.postJSON(t, "bob", "/workflow/execute", executeBody(uploaded.FileID, "leak it"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"answer":"Document not found."}`, rec.Body.String())
	assert.Empty(t, s.provider.prompts)
}

func TestExecuteWithoutKnowledgeBase(t *testing.T) {
	s := newTestServer(t)

	body := map[string]interface{}{
		"nodes": []map[string]interface{}{{"id": "1", "type": "userQuery", "position": map[string]float64{"x": 0, "y": 0}, "data": map[string]interface{}{}}},
		"edges": []interface{}{},
		"query": "anything",
	}
	rec := s.postJSON(t, "alice", "/workflow/execute", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"answer":"No document uploaded for this workflow."}`, rec.Body.String())
}

func TestUploadRejectsInvalidPDF(t *testing.T) {
	s := newTestServer(t)
	rec := s.upload(t, "alice", "notes.pdf", []byte("just some text"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUploadRequiresFileField(t *testing.T) {
	s := newTestServer(t)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/workflow/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := s.do(t, "alice", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveListAndGetWorkflow(t *testing.T) {
	s := newTestServer(t)

	graph := map[string]interface{}{"nodes": []interface{}{}, "edges": []interface{}{}}
	rec := s.postJSON(t, "alice", "/workflow/save", map[string]interface{}{"name": "first", "data": graph})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var first store.Workflow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, "alice", first.OwnerID)
	assert.JSONEq(t, `{"nodes":[],"edges":[]}`, first.Data)

	rec = s.postJSON(t, "alice", "/workflow/save", map[string]interface{}{"name": "first", "data": graph})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, "alice", httptest.NewRequest(http.MethodGet, "/workflow/list", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []store.Workflow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rec = s.do(t, "alice", httptest.NewRequest(http.MethodGet, "/workflow/"+first.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, "bob", httptest.NewRequest(http.MethodGet, "/workflow/"+first.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, "bob", httptest.NewRequest(http.MethodGet, "/workflow/list", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSaveWorkflowStoresDataAsSent(t *testing.T) {
	s := newTestServer(t)

	rec := s.postJSON(t, "alice", "/workflow/save", map[string]interface{}{"name": "", "data": nil})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var saved store.Workflow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.Equal(t, "", saved.Name)
	assert.Equal(t, "null", saved.Data)

	rec = s.postJSON(t, "alice", "/workflow/save", map[string]interface{}{"name": "numbers", "data": []int{1, 2, 3}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.Equal(t, "[1,2,3]", saved.Data)

	req := httptest.NewRequest(http.MethodPost, "/workflow/save", strings.NewReader("{not json"))
	rec = s.do(t, "alice", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatSaveThenHistory(t *testing.T) {
	s := newTestServer(t)

	rec := s.postJSON(t, "alice", "/chat/save", map[string]string{"workflow_id": "w1", "query": "Q", "answer": "A"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.postJSON(t, "alice", "/chat/save", map[string]string{"workflow_id": "w1", "query": "Q2", "answer": "A2"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, "alice", httptest.NewRequest(http.MethodGet, "/chat/w1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var history []store.ChatLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, "Q", history[0].Query)
	assert.Equal(t, "A", history[0].Answer)
	assert.Equal(t, "Q2", history[1].Query)

	rec = s.do(t, "bob", httptest.NewRequest(http.MethodGet, "/chat/w1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestChatSaveRequiresWorkflowID(t *testing.T) {
	s := newTestServer(t)
	rec := s.postJSON(t, "alice", "/chat/save", map[string]string{"query": "Q", "answer": "A"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteIgnoresEdgesAndBlankIDs(t *testing.T) {
	s := newTestServer(t)

	rec := s.upload(t, "alice", "guide.pdf", testutil.BuildPDF("X is the unknown."))
	require.Equal(t, http.StatusOK, rec.Code)
	var uploaded docModel.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))

	body := map[string]interface{}{
		"nodes": []map[string]interface{}{
			{"id": "", "type": "", "position": map[string]float64{"x": 0, "y": 0}, "data": map[string]interface{}{}},
			{"id": "", "type": "knowledgeBase", "data": map[string]interface{}{"config": map[string]string{"fileId": uploaded.FileID}}},
		},
		"edges": []map[string]string{
			{"id": "", "source": "1", "target": "2"},
			{"id": "e2", "source": "", "target": "missing"},
		},
		"query": "What is X?",
	}
	rec = s.postJSON(t, "alice", "/workflow/execute", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"answer":"ANSWER"}`, rec.Body.String())
}

func TestExecuteGenerationFailure(t *testing.T) {
	provider := &stubProvider{err: errors.New("quota exceeded")}
	s := newTestServerWith(t, provider, func(*config.Config) {})

	rec := s.upload(t, "alice", "guide.pdf", testutil.BuildPDF("X is the unknown."))
	require.Equal(t, http.StatusOK, rec.Code)
	var uploaded docModel.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))

	rec = s.postJSON(t, "alice", "/workflow/execute", executeBody(uploaded.FileID, "What is X?"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Len(t, provider.prompts, 1)
}

func TestUploadOverSizeLimit(t *testing.T) {
	s := newTestServerWith(t, &stubProvider{}, func(cfg *config.Config) {
		cfg.Server.UploadMaxBytes = 300
	})

	data := testutil.BuildPDF(strings.Repeat("long page text ", 40), "second page")
	require.Greater(t, len(data), 300)

	rec := s.upload(t, "alice", "big.pdf", data)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
