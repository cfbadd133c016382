package detectionHandler

import (
	"DebrisDetector/internal/api/detection"
	"DebrisDetector/internal/entity"
	contextPkg "DebrisDetector/pkg/context"
	"DebrisDetector/pkg/detector"
	"DebrisDetector/pkg/handlerUtil"
	"DebrisDetector/pkg/log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func (h *DetectionHandler) SelectFile(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	file, err := ctx.FormFile(detector.FileField)
	if err != nil {
		file, err = ctx.FormFile("image")
	}
	if err != nil {
		return errHandler.Handle(ctx, requestID, detection.ErrNoFileSelected, ctx.Path(), "form_file")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"file_name":  file.Filename,
		"file_size":  file.Size,
	}).Debug("Processing file upload")

	data, _, err := h.utils.ReadImageFile(file)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_image_file")
	}

	h.detectionService.SelectFile(file.Filename, data)

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, detection.NewStateResponse(h.detectionService.State()))
}

func (h *DetectionHandler) Submit(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	c := contextPkg.FromFiberCtx(ctx)
	if err := h.detectionService.Submit(c); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "submit")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusAccepted, detection.NewStateResponse(h.detectionService.State()))
}

func (h *DetectionHandler) Reset(ctx *fiber.Ctx) error {
	h.detectionService.Reset()

	return handlerUtil.New(h.log).HandleSuccess(ctx, fiber.StatusOK, detection.NewStateResponse(h.detectionService.State()))
}

func (h *DetectionHandler) GetState(ctx *fiber.Ctx) error {
	return handlerUtil.New(h.log).HandleSuccess(ctx, fiber.StatusOK, detection.NewStateResponse(h.detectionService.State()))
}

func (h *DetectionHandler) GetAnnotatedImage(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)

	succeeded, ok := h.detectionService.State().(entity.Succeeded)
	if !ok {
		return handlerUtil.New(h.log).Handle(ctx, requestID, detection.ErrNoAnnotatedImage, ctx.Path(), "annotated_image")
	}

	ctx.Set(fiber.HeaderContentType, succeeded.Result.AnnotatedType)
	ctx.Set(fiber.HeaderCacheControl, "no-store")
	return ctx.Status(fiber.StatusOK).Send(succeeded.Result.AnnotatedImage)
}

func (h *DetectionHandler) handleStateWebSocket(c *websocket.Conn) {
	h.log.Info("State stream client connected")
	defer h.log.Info("State stream client disconnected")

	states, unsubscribe := h.detectionService.Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Errorf("State stream read error: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case state, ok := <-states:
			if !ok {
				return
			}

			if err := c.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
				h.log.Errorf("Error setting write deadline: %v", err)
				return
			}

			if err := c.WriteJSON(detection.NewStateResponse(state)); err != nil {
				h.log.Errorf("Error writing state: %v", err)
				return
			}
		}
	}
}
