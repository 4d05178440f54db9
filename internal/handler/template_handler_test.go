package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tallyrus/pergi-api/internal/config"
	"github.com/tallyrus/pergi-api/internal/handler"
	"github.com/tallyrus/pergi-api/internal/middleware"
	"github.com/tallyrus/pergi-api/internal/models"
	"github.com/tallyrus/pergi-api/internal/repository"
	"github.com/tallyrus/pergi-api/internal/router"
	"github.com/tallyrus/pergi-api/internal/service"
	"github.com/tallyrus/pergi-api/pkg/ai"
)

func newTestValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

type echoStreamer struct{}

func (echoStreamer) ChatStream(_ context.Context, history []ai.Turn, onDelta func(string)) (string, error) {
	reply := "echo: " + history[len(history)-1].Content
	if onDelta != nil {
		onDelta(reply)
	}
	return reply, nil
}

func setupTemplateApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Template{}))

	logger := zerolog.New(io.Discard)
	templateRepo := repository.NewTemplateRepository(db)

	templateService := service.NewTemplateService(templateRepo, newTestValidator(), nil, time.Minute, logger)
	conversationService := service.NewConversationService(templateRepo, echoStreamer{}, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "pergi-test"}, router.Dependencies{
		TemplateHandler: handler.NewTemplateHandler(templateService, conversationService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals(middleware.UserIDKey, "user-1")
			return c.Next()
		},
	})
	return app
}

func TestTemplateCreateMissingFieldsReturnsEmptyFields(t *testing.T) {
	app := setupTemplateApp(t)

	req := httptest.NewRequest("POST", "/api/templates", bytes.NewBufferString(`{"description":"no title"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body struct {
		Success     bool     `json:"success"`
		Message     string   `json:"message"`
		EmptyFields []string `json:"emptyFields"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.False(t, body.Success)
	require.ElementsMatch(t, []string{"title", "template"}, body.EmptyFields)
}

func TestTemplateCreateAndGet(t *testing.T) {
	app := setupTemplateApp(t)

	payload := `{"title":"Essay helper","template":[{"type":"header","context":"H"},{"type":"selector","context":["a","b"]}]}`
	req := httptest.NewRequest("POST", "/api/templates", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		Data struct {
			ID     uint            `json:"id"`
			Public bool            `json:"public"`
			Blocks json.RawMessage `json:"template"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.False(t, created.Data.Public)

	getReq := httptest.NewRequest("GET", "/api/templates/1", nil)
	getResp, err := app.Test(getReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, getResp.StatusCode)
}

func TestTemplateConverseAndReset(t *testing.T) {
	app := setupTemplateApp(t)

	payload := `{"title":"Essay helper","template":[{"type":"header","context":"H"}]}`
	req := httptest.NewRequest("POST", "/api/templates", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	converseReq := httptest.NewRequest("POST", "/api/templates/1/converse", bytes.NewBufferString(`{"input":"hello"}`))
	converseReq.Header.Set("Content-Type", "application/json")
	converseResp, err := app.Test(converseReq, 5000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, converseResp.StatusCode)

	var conversation struct {
		Data struct {
			Convos []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"convos"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(converseResp.Body).Decode(&conversation))
	require.Len(t, conversation.Data.Convos, 2)
	require.Equal(t, "echo: hello", conversation.Data.Convos[1].Content)

	resetReq := httptest.NewRequest("DELETE", "/api/templates/1/convos", nil)
	resetResp, err := app.Test(resetReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resetResp.StatusCode)
}

func TestTemplateGetUnknownReturns404(t *testing.T) {
	app := setupTemplateApp(t)

	req := httptest.NewRequest("GET", "/api/templates/42", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
