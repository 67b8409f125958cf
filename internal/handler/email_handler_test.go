package handler_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailmind/internal/ai"
	"mailmind/internal/gmail"
	"mailmind/internal/handler"
	"mailmind/internal/logger"
	"mailmind/internal/middleware"
	"mailmind/internal/model"
	"mailmind/internal/repository/memory"
	"mailmind/internal/service"
	"mailmind/internal/sse"
	"mailmind/internal/store"
)

type staticUser struct {
	user *model.User
}

func (s staticUser) GetCurrentUser(c echo.Context) (*model.User, error) {
	if s.user == nil {
		return nil, handler.ErrNotAuthenticated
	}
	return s.user, nil
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

type testServer struct {
	echo *echo.Echo
	jobs *sse.JobTracker
}

func inboxMessages(n int) []model.Message {
	out := make([]model.Message, n)
	for i := range out {
		out[i] = model.Message{
			ID:         fmt.Sprintf("m%d", i+1),
			Sender:     "boss@example.com",
			SenderName: "Boss",
			Subject:    fmt.Sprintf("Report %d", i+1),
			Body:       "This is urgent, please respond today.",
			ReceivedAt: time.Now().Add(-time.Hour),
		}
	}
	return out
}

func newTestServer(t *testing.T, user *model.User, apiKey string, aiClient service.AIClient, msgs ...model.Message) *testServer {
	t.Helper()
	appLogger := logger.NewWithWriter(io.Discard)

	mail := gmail.NewMockGmailClient(msgs...)
	classifier := service.NewClassificationService(aiClient, service.ClassificationOptions{
		APIKey: apiKey,
		Sleep:  noSleep,
	}, appLogger)
	inbox := service.NewInboxService(
		store.NewRegistry(),
		memory.NewInMemoryProcessedRepository(),
		classifier,
		func(ctx context.Context, accessToken string) (service.MailClient, error) {
			return mail, nil
		},
		service.InboxOptions{Sleep: noSleep},
		appLogger,
	)

	e := echo.New()
	sseManager := sse.NewSSEManager(appLogger)
	jobs := sse.NewJobTracker(sseManager, appLogger)
	t.Cleanup(jobs.Stop)

	users := staticUser{user: user}
	h := handler.NewEmailHandler(inbox, users, jobs, sseManager, e.Logger)

	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware(users))
	api.GET("/stats", h.GetStats)
	api.POST("/classify", h.PreviewClassification)
	api.GET("/emails", h.GetEmails)
	api.GET("/emails/export", h.ExportEmails)
	api.POST("/emails/refresh", h.RefreshEmails)
	api.POST("/emails/classify-all", h.ClassifyAll)
	api.POST("/emails/processed", h.MarkAllProcessed)
	api.GET("/emails/:id", h.GetEmail)
	api.POST("/emails/:id/classify", h.ClassifyEmail)
	api.POST("/emails/:id/reply", h.SelectReply)
	api.POST("/emails/:id/processed", h.MarkProcessed)

	return &testServer{echo: e, jobs: jobs}
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

// refresh loads the inbox and waits for the background job.
func (s *testServer) refresh(t *testing.T) {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/emails/refresh", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	s.jobs.Wait()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

var signedIn = &model.User{ID: "user-1", Email: "me@example.com", AccessToken: "token"}

func TestUnauthorized(t *testing.T) {
	s := newTestServer(t, nil, "", nil)

	rec := s.do(http.MethodGet, "/api/emails", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshAndList(t *testing.T) {
	s := newTestServer(t, signedIn, "", nil, inboxMessages(12)...)
	s.refresh(t)

	rec := s.do(http.MethodGet, "/api/emails", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(12), body["count"])
	assert.Equal(t, false, body["ai_enabled"])

	first := body["emails"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "m1", first["id"])
	assert.Equal(t, "heuristic", first["classification"].(map[string]interface{})["source"])

	rec = s.do(http.MethodGet, "/api/emails?filter=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/emails?filter=high&search=report%2012", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["count"])
}

func TestRefreshNeedsValidToken(t *testing.T) {
	expired := &model.User{ID: "user-2", AccessToken: "token", TokenExpiry: time.Now().Add(-time.Minute)}
	s := newTestServer(t, expired, "", nil)

	rec := s.do(http.MethodPost, "/api/emails/refresh", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetEmail(t *testing.T) {
	s := newTestServer(t, signedIn, "", nil, inboxMessages(2)...)
	s.refresh(t)

	rec := s.do(http.MethodGet, "/api/emails/m2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Report 2", decode(t, rec)["subject"])

	rec = s.do(http.MethodGet, "/api/emails/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSelectReplyAndProcessed(t *testing.T) {
	s := newTestServer(t, signedIn, "", nil, inboxMessages(3)...)
	s.refresh(t)

	rec := s.do(http.MethodPost, "/api/emails/m1/reply", `{"reply_id": 2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	reply := decode(t, rec)["selectedReply"].(map[string]interface{})
	assert.Equal(t, float64(2), reply["id"])

	rec = s.do(http.MethodPost, "/api/emails/m1/reply", `{"reply_id": 9}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/api/emails/m1/reply", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/emails/m2/processed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode(t, rec)["selectedReply"])

	rec = s.do(http.MethodPost, "/api/emails/processed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["marked"])

	rec = s.do(http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode(t, rec)
	assert.Equal(t, float64(3), stats["processed"])
	assert.Equal(t, float64(3), stats["total"])
}

func TestClassifyEmail(t *testing.T) {
	failing := ai.NewMockAIClient()
	failing.ClassifyMessageFunc = func(ctx context.Context, msg model.Message, apiKey string) (model.Classification, error) {
		return model.Classification{}, &model.RemoteClassificationError{Kind: model.RemoteErrorStatus, StatusCode: 429, RawBody: "slow down"}
	}
	s := newTestServer(t, signedIn, "key", failing, inboxMessages(1)...)
	s.refresh(t)

	rec := s.do(http.MethodPost, "/api/emails/m1/classify", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "429")

	rec = s.do(http.MethodGet, "/api/emails/m1", "")
	source := decode(t, rec)["classification"].(map[string]interface{})["source"]
	assert.Equal(t, "heuristic", source)
}

func TestClassifyAllWithoutKey(t *testing.T) {
	s := newTestServer(t, signedIn, "", nil, inboxMessages(2)...)
	s.refresh(t)

	rec := s.do(http.MethodPost, "/api/emails/classify-all", "")

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
}

func TestClassifyAll(t *testing.T) {
	s := newTestServer(t, signedIn, "key", ai.NewMockAIClient(), inboxMessages(4)...)
	s.refresh(t)

	rec := s.do(http.MethodPost, "/api/emails/classify-all", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(4), body["pending"])
	assert.Equal(t, "classify_all", body["job"].(map[string]interface{})["kind"])
	s.jobs.Wait()

	rec = s.do(http.MethodGet, "/api/emails?filter=ai", "")
	assert.Equal(t, float64(4), decode(t, rec)["count"])

	rec = s.do(http.MethodPost, "/api/emails/classify-all", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestExportEmails(t *testing.T) {
	msgs := inboxMessages(3)
	msgs[0].Body = "fyi, newsletter"
	s := newTestServer(t, signedIn, "", nil, msgs...)
	s.refresh(t)

	rec := s.do(http.MethodGet, "/api/emails/export?filter=action", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get(echo.HeaderContentType))
	assert.Regexp(t, `attachment; filename="mailmind_filtered_action_\d{4}-\d{2}-\d{2}\.csv"`, rec.Header().Get(echo.HeaderContentDisposition))

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "m2", rows[1][0])
	assert.Equal(t, "Not Processed", rows[1][11])
}

func TestPreviewClassification(t *testing.T) {
	s := newTestServer(t, signedIn, "", nil)

	rec := s.do(http.MethodPost, "/api/classify", `{"subject": "Sync", "body": "Can we schedule a meeting next week?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Meeting Request", body["intent"])
	assert.Len(t, body["replies"], 3)

	rec = s.do(http.MethodPost, "/api/classify", `{"subject": "empty"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
