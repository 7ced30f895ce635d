package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuysCode/giovannibot/backend/internal/model/chat"
	"github.com/BuysCode/giovannibot/backend/internal/service/ai"
	chatservice "github.com/BuysCode/giovannibot/backend/internal/service/chat"
)

type completerFunc func(ctx context.Context, topic, userMessage string) (string, error)

func (f completerFunc) Complete(ctx context.Context, topic, userMessage string) (string, error) {
	return f(ctx, topic, userMessage)
}

func setupRouter(completer chatservice.Completer) (*chi.Mux, *chatservice.Service) {
	chatSvc := chatservice.NewService(completer)
	handler := New(chatSvc, nil)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func createSession(t *testing.T, r http.Handler, region string) chat.Snapshot {
	t.Helper()
	resp := do(t, r, http.MethodPost, "/sessions", map[string]string{"region": region})
	require.Equal(t, http.StatusCreated, resp.Code)

	var snap chat.Snapshot
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &snap))
	return snap
}

func TestCreateSessionNormalizesRegion(t *testing.T) {
	r, _ := setupRouter(completerFunc(func(context.Context, string, string) (string, error) { return "", nil }))

	snap := createSession(t, r, "lazio")
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "Lazio", snap.Topic)
	assert.Equal(t, chat.StatusIdle, snap.Status)
	assert.Empty(t, snap.Turns)
}

func TestCreateSessionWithoutBodyUsesDefault(t *testing.T) {
	r, _ := setupRouter(completerFunc(func(context.Context, string, string) (string, error) { return "", nil }))

	resp := do(t, r, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.Code)

	var snap chat.Snapshot
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &snap))
	assert.Equal(t, "Lazio", snap.Topic)
}

func TestCreateSessionRejectsBadBody(t *testing.T) {
	r, _ := setupRouter(completerFunc(func(context.Context, string, string) (string, error) { return "", nil }))

	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewReader([]byte(`{"region":`)))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSubmitAndWaitRoundTrip(t *testing.T) {
	r, _ := setupRouter(completerFunc(func(_ context.Context, topic, msg string) (string, error) {
		if topic == "Toscana" && msg == "Qual a capital?" {
			return "Risposta di prova", nil
		}
		return "unexpected", nil
	}))
	snap := createSession(t, r, "toscana")

	resp := do(t, r, http.MethodPost, "/sessions/"+snap.ID+"/messages", map[string]any{"text": "Qual a capital?", "wait": true})
	require.Equal(t, http.StatusOK, resp.Code)

	var got submitResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.True(t, got.Accepted)
	require.Len(t, got.Session.Turns, 2)
	assert.Equal(t, chat.RoleUser, got.Session.Turns[0].Role)
	assert.Equal(t, "Qual a capital?", got.Session.Turns[0].Content)
	assert.Equal(t, chat.RoleAssistant, got.Session.Turns[1].Role)
	assert.Equal(t, "Risposta di prova", got.Session.Turns[1].Content)
	assert.Equal(t, chat.StatusIdle, got.Session.Status)
}

func TestSubmitFailureShowsApologyOnly(t *testing.T) {
	r, _ := setupRouter(completerFunc(func(context.Context, string, string) (string, error) {
		return "", &ai.CompletionError{Kind: ai.ErrAuthentication, StatusCode: http.StatusUnauthorized}
	}))
	snap := createSession(t, r, "Lazio")

	resp := do(t, r, http.MethodPost, "/sessions/"+snap.ID+"/messages", map[string]any{"text": "Ciao", "wait": true})
	require.Equal(t, http.StatusOK, resp.Code)

	var got submitResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	require.Len(t, got.Session.Turns, 2)
	assert.Equal(t, chatservice.ApologyMessage, got.Session.Turns[1].Content)
	assert.NotContains(t, resp.Body.String(), "API key")
}

func TestSubmitWithoutWaitIsAccepted(t *testing.T) {
	release := make(chan struct{})
	r, chatSvc := setupRouter(completerFunc(func(context.Context, string, string) (string, error) {
		<-release
		return "ok", nil
	}))
	snap := createSession(t, r, "Veneto")

	resp := do(t, r, http.MethodPost, "/sessions/"+snap.ID+"/messages", map[string]any{"text": "ciao"})
	require.Equal(t, http.StatusAccepted, resp.Code)

	var got submitResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, chat.StatusSending, got.Session.Status)

	// A second message while sending is silently ignored.
	resp = do(t, r, http.MethodPost, "/sessions/"+snap.ID+"/messages", map[string]any{"text": "ancora"})
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.False(t, got.Accepted)
	assert.Len(t, got.Session.Turns, 1)

	session, err := chatSvc.GetSession(context.Background(), snap.ID)
	require.NoError(t, err)
	updates, cancel := session.Subscribe()
	defer cancel()
	close(release)
	for s := range updates {
		if s.Status == chat.StatusIdle {
			break
		}
	}
}

func TestSubmitBlankIsNoOp(t *testing.T) {
	r, _ := setupRouter(completerFunc(func(context.Context, string, string) (string, error) { return "ok", nil }))
	snap := createSession(t, r, "Lazio")

	resp := do(t, r, http.MethodPost, "/sessions/"+snap.ID+"/messages", map[string]any{"text": "   ", "wait": true})
	require.Equal(t, http.StatusOK, resp.Code)

	var got submitResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.False(t, got.Accepted)
	assert.Empty(t, got.Session.Turns)
}

func TestChangeRegionResetsTranscript(t *testing.T) {
	r, _ := setupRouter(completerFunc(func(context.Context, string, string) (string, error) { return "ok", nil }))
	snap := createSession(t, r, "Lazio")
	do(t, r, http.MethodPost, "/sessions/"+snap.ID+"/messages", map[string]any{"text": "ciao", "wait": true})

	for i := 0; i < 2; i++ {
		resp := do(t, r, http.MethodPut, "/sessions/"+snap.ID+"/region", map[string]string{"region": "SICILIA"})
		require.Equal(t, http.StatusOK, resp.Code)

		var got chat.Snapshot
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
		assert.Equal(t, "Sicilia", got.Topic)
		assert.Empty(t, got.Turns)
		assert.Equal(t, chat.StatusIdle, got.Status)
	}
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	r, _ := setupRouter(completerFunc(func(context.Context, string, string) (string, error) { return "ok", nil }))

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/sessions/missing", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodDelete, "/sessions/missing", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPut, "/sessions/missing/region", map[string]string{"region": "Lazio"}).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPost, "/sessions/missing/messages", map[string]string{"text": "ciao"}).Code)
}

func TestDeleteSession(t *testing.T) {
	r, chatSvc := setupRouter(completerFunc(func(context.Context, string, string) (string, error) { return "ok", nil }))
	snap := createSession(t, r, "Lazio")

	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, "/sessions/"+snap.ID, nil).Code)
	assert.Zero(t, chatSvc.Count())
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/sessions/"+snap.ID, nil).Code)
}
