package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	aiMocks "github.com/reanayou-arch/Horror-Studio-Bot/internal/ai/mocks"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/bot"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/handler"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/middleware"
	repoMocks "github.com/reanayou-arch/Horror-Studio-Bot/internal/repository/mocks"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/service"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/session"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/transport"
)

const (
	testAuthorID = int64(111)
	testSecret   = "test-secret-for-handler-tests"
)

// nopTransport считает исходящие действия, больше ничего не делает.
type nopTransport struct {
	mu    sync.Mutex
	calls int
}

func (n *nopTransport) SendText(context.Context, int64, string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	return nil
}

func (n *nopTransport) PresentChoices(context.Context, int64, string, []transport.Choice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	return nil
}

func (n *nopTransport) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

func newTestRouter(t *testing.T) (*gin.Engine, *bot.Dispatcher, *nopTransport) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	tr := &nopTransport{}
	sessions := session.NewMemoryStore(log)
	storyRepo := new(repoMocks.StoryRepository)
	characterRepo := new(repoMocks.CharacterRepository)
	messageRepo := new(repoMocks.MessageRepository)
	txManager := new(repoMocks.TxManager)
	generator := new(aiMocks.Client)

	prompts := service.NewPromptBuilder("llama-3.1-8b-instant", 3000, log)
	authoringSvc := service.NewAuthoringService(testAuthorID, sessions, storyRepo, characterRepo, txManager, 2000, log)
	storySvc := service.NewStoryService(sessions, storyRepo, messageRepo, log)
	conversationSvc := service.NewConversationService(
		sessions, storyRepo, characterRepo, messageRepo,
		generator, prompts, 20, 2000, 5*time.Second, log,
	)
	dispatcher := bot.NewDispatcher(tr, authoringSvc, storySvc, conversationSvc, testAuthorID, 10*time.Second, log)

	verifier, err := middleware.NewJWTVerifier(testSecret, log)
	require.NoError(t, err)

	router := gin.New()
	handler.NewBotHandler(dispatcher, verifier, log).RegisterRoutes(router)
	return router, dispatcher, tr
}

func signServiceToken(t *testing.T) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "telegram-adapter",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestHealthEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestPostEventRequiresToken(t *testing.T) {
	router, _, _ := newTestRouter(t)

	body := `{"type":"user_started","user_id":111}`
	req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPostEventAccepted(t *testing.T) {
	router, dispatcher, tr := newTestRouter(t)

	body := `{"type":"user_started","user_id":111}`
	req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signServiceToken(t))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// 202 сразу: обработка асинхронная, ответ уходит через транспорт
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "event_id")

	dispatcher.Wait()
	assert.Equal(t, 1, tr.count())
}

func TestPostEventRejectsBadPayload(t *testing.T) {
	router, _, _ := newTestRouter(t)
	token := signServiceToken(t)

	cases := []struct {
		name string
		body string
	}{
		{"Not JSON", `not json`},
		{"Missing user_id", `{"type":"text_received"}`},
		{"Unknown event type", `{"type":"poke","user_id":5}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
