package handlers

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/maheshrc27/composer-api/internal/models"
	"github.com/maheshrc27/composer-api/internal/queue"
	"github.com/maheshrc27/composer-api/internal/service"
	"github.com/maheshrc27/composer-api/internal/transfer"
)

type ComposerHandler struct {
	s           service.ComposerService
	validate    *validator.Validate
	AsynqClient *asynq.Client
}

func NewComposerHandler(service service.ComposerService, asynqClient *asynq.Client) *ComposerHandler {
	return &ComposerHandler{
		s:           service,
		validate:    validator.New(),
		AsynqClient: asynqClient,
	}
}

func (h *ComposerHandler) GetSession(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")

	view, err := h.s.Session(userID, platform)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(view)
}

// GenerateRows expands the posted strategy into a fresh row list. The
// previous list, including any edits, is replaced wholesale.
func (h *ComposerHandler) GenerateRows(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")

	var input transfer.StrategyInput
	if err := c.BodyParser(&input); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}
	if err := h.validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	strategy := &models.Strategy{
		PromptTemplate:         input.PromptTemplate,
		CustomStrategyTemplate: input.CustomStrategyTemplate,
		StartDate:              input.StartDate,
		EndDate:                input.EndDate,
		Frequency:              input.Frequency,
		CronExpr:               input.CronExpr,
		TimeSlot:               input.TimeSlot,
		PostType:               input.PostType,
		CarouselImageCount:     input.CarouselImageCount,
	}

	view, err := h.s.GenerateRows(userID, platform, strategy)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(view)
}

func (h *ComposerHandler) AddRow(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")

	row, err := h.s.AddRow(userID, platform)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(row)
}

func (h *ComposerHandler) EditCell(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")

	var input transfer.EditCellInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}
	if err := h.validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	row, err := h.s.EditCell(userID, platform, input.RowID, input.Field, input.Value)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(row)
}

func (h *ComposerHandler) ToggleSelect(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")
	rowID := c.Params("rowId")

	selected, err := h.s.ToggleSelect(userID, platform, rowID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"selected": selected})
}

func (h *ComposerHandler) SelectAll(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")

	selected, err := h.s.SelectAll(userID, platform)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"selected": selected})
}

func (h *ComposerHandler) Reorder(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")

	var input transfer.ReorderInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}
	if err := h.validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.s.Reorder(userID, platform, input.SourceID, input.TargetID); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *ComposerHandler) BulkDelete(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")

	var input transfer.RowSelectionInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}
	if err := h.validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.s.BulkDelete(userID, platform, input.RowIDs); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *ComposerHandler) DuplicateRow(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")
	rowID := c.Params("rowId")

	row, err := h.s.DuplicateRow(userID, platform, rowID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(row)
}

func (h *ComposerHandler) UploadMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")
	rowID := c.Params("rowId")

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file selected",
		})
	}

	row, err := h.s.UploadMedia(c.Context(), userID, platform, rowID, file)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(row)
}

func (h *ComposerHandler) UploadCarousel(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")
	rowID := c.Params("rowId")

	form, err := c.MultipartForm()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	files := form.File["files"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No files selected",
		})
	}

	row, err := h.s.UploadCarousel(c.Context(), userID, platform, rowID, files)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(row)
}

func (h *ComposerHandler) UploadThumbnail(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")
	rowID := c.Params("rowId")

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file selected",
		})
	}

	row, err := h.s.UploadThumbnail(c.Context(), userID, platform, rowID, file)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(row)
}

// GenerateCaptions runs in the request, one provider call per row, and
// reports aggregate counts.
func (h *ComposerHandler) GenerateCaptions(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")

	var input transfer.RowSelectionInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}
	if err := h.validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	report, err := h.s.GenerateCaptions(c.Context(), userID, platform, input.RowIDs)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(report)
}

// GenerateImages enqueues a background task; the session's generation
// report carries the outcome once the worker finishes.
func (h *ComposerHandler) GenerateImages(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")

	var input transfer.RowSelectionInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}
	if err := h.validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	err := queue.EnqueueImageGeneration(h.AsynqClient, queue.GenerateImagesPayload{
		UserID:   userID,
		Platform: platform,
		RowIDs:   input.RowIDs,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error queuing image generation",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Image generation started",
	})
}
