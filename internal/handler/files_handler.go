package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/tallyrus/pergi-api/internal/dto"
	"github.com/tallyrus/pergi-api/internal/middleware"
	"github.com/tallyrus/pergi-api/internal/service"
	"github.com/tallyrus/pergi-api/internal/utils"
)

// FilesHandler exposes submission and rubric document upload routes.
type FilesHandler struct {
	submissions    service.SubmissionService
	rubrics        service.RubricService
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewFilesHandler constructs a files handler. maxUploadMB bounds the size of
// each uploaded file.
func NewFilesHandler(submissions service.SubmissionService, rubrics service.RubricService, maxUploadMB int, logger zerolog.Logger) *FilesHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 25
	}
	return &FilesHandler{
		submissions:    submissions,
		rubrics:        rubrics,
		maxUploadBytes: int64(maxUploadMB) << 20,
		logger:         logger.With().Str("component", "files_handler").Logger(),
	}
}

// Register wires upload routes.
func (h *FilesHandler) Register(router fiber.Router) {
	router.Post("/upload-teacher/:assignmentId", h.uploadTeacher)
	router.Post("/upload-rubric/:assignmentId", h.uploadRubric)
}

func (h *FilesHandler) uploadTeacher(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "assignmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "multipart form required")
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "at least one file is required")
	}

	isHandwriting, _ := strconv.ParseBool(c.FormValue("isHandwriting"))

	files, err := h.readFiles(headers)
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
		}
		return utils.SendError(c, fiber.StatusBadRequest, "failed to read uploaded files")
	}

	ctx := middleware.ContextWithCorrelation(c.Context(), middleware.GetCorrelationID(c))
	result, err := h.submissions.UploadBatch(ctx, assignmentID, middleware.UserID(c), files, isHandwriting)
	if err != nil {
		return h.mapUploadError(c, err, "failed to upload submissions")
	}
	return utils.SendSuccess(c, "files uploaded", result)
}

func (h *FilesHandler) uploadRubric(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "assignmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "multipart form required")
	}

	headers := form.File["file"]
	if len(headers) != 1 {
		return utils.SendError(c, fiber.StatusBadRequest, "exactly one rubric file is required")
	}

	files, err := h.readFiles(headers)
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
		}
		return utils.SendError(c, fiber.StatusBadRequest, "failed to read uploaded file")
	}

	rubric, err := h.rubrics.ParseUpload(c.Context(), assignmentID, middleware.UserID(c), files[0].Filename, files[0].Data)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRubricUploadInFlight):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		case errors.Is(err, service.ErrNotPDF), errors.Is(err, service.ErrMalformedRubric):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			return h.mapUploadError(c, err, "failed to parse rubric upload")
		}
	}
	return utils.SendSuccess(c, "rubric extracted", dto.RubricUploadResponse{Rubric: rubric})
}

var errFileTooLarge = errors.New("uploaded file exceeds the size limit")

func (h *FilesHandler) readFiles(headers []*multipart.FileHeader) ([]service.SubmissionFile, error) {
	files := make([]service.SubmissionFile, 0, len(headers))
	for _, header := range headers {
		if header.Size > h.maxUploadBytes {
			return nil, errFileTooLarge
		}
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
		_ = file.Close()
		if err != nil {
			return nil, err
		}
		if int64(len(data)) > h.maxUploadBytes {
			return nil, errFileTooLarge
		}
		files = append(files, service.SubmissionFile{Filename: header.Filename, Data: data})
	}
	return files, nil
}

func (h *FilesHandler) mapUploadError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound), errors.Is(err, service.ErrClassroomNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotClassTeacher):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUnsupportedFileType):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
