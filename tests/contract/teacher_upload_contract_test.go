package contract_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/tallyrus/pergi-api/internal/dto"
	"github.com/tallyrus/pergi-api/internal/handler"
	"github.com/tallyrus/pergi-api/internal/middleware"
	"github.com/tallyrus/pergi-api/internal/models"
	"github.com/tallyrus/pergi-api/internal/service"
)

type stubSubmissionService struct{}

func (stubSubmissionService) UploadBatch(_ context.Context, _ uint, _ string, files []service.SubmissionFile, isHandwriting bool) (dto.TeacherUploadResponse, error) {
	submissions := make([]dto.SubmissionResponse, 0, len(files))
	for _, file := range files {
		submissions = append(submissions, dto.SubmissionResponse{
			ID:            "sub-" + file.Filename,
			StudentName:   file.Filename,
			StudentEmail:  "teacher_upload@example.com",
			PDFURL:        "https://cdn.example.com/" + file.Filename,
			DateSubmitted: time.Now().UTC(),
			Status:        models.SubmissionStatusGrading,
			IsHandwriting: isHandwriting,
			Feedback:      nil,
		})
	}
	return dto.TeacherUploadResponse{Message: "Files uploaded and grading started", Submissions: submissions}, nil
}

func TestTeacherUploadContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "teacher_upload.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	filesHandler := handler.NewFilesHandler(stubSubmissionService{}, stubRubricService{}, 25, zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/files", func(c *fiber.Ctx) error {
		c.Locals(middleware.UserIDKey, "teacher-1")
		return c.Next()
	})
	filesHandler.Register(group)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, filename := range []string{"jane.pdf", "bob.pdf"} {
		part, err := writer.CreateFormFile("files", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("essay body"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload-teacher/1", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var decoded interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	require.NoError(t, schema.Validate(decoded))
}
