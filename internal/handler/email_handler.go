package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"mailmind/internal/heuristic"
	"mailmind/internal/model"
	"mailmind/internal/service"
	"mailmind/internal/sse"
	"mailmind/internal/store"
)

type EmailHandler struct {
	inboxService service.InboxService
	users        UserResolver
	jobs         *sse.JobTracker
	sseManager   *sse.SSEManager
	logger       echo.Logger
	now          func() time.Time
}

func NewEmailHandler(
	inboxService service.InboxService,
	users UserResolver,
	jobs *sse.JobTracker,
	sseManager *sse.SSEManager,
	logger echo.Logger,
) *EmailHandler {
	return &EmailHandler{
		inboxService: inboxService,
		users:        users,
		jobs:         jobs,
		sseManager:   sseManager,
		logger:       logger,
		now:          time.Now,
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error": "Unauthorized",
	})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{
		"error": message,
	})
}

// GetEmails lists the working set in fetch order.
func (h *EmailHandler) GetEmails(c echo.Context) error {
	user, err := h.users.GetCurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}
	filter, err := store.ParseFilter(c.QueryParam("filter"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	search := c.QueryParam("search")

	emails := h.inboxService.Query(c.Request().Context(), user.ID, filter, search)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"emails":     emails,
		"count":      len(emails),
		"filter":     filter,
		"ai_enabled": h.inboxService.AIEnabled(),
	})
}

func (h *EmailHandler) GetEmail(c echo.Context) error {
	user, err := h.users.GetCurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	entry, err := h.inboxService.Get(c.Request().Context(), user.ID, c.Param("id"))
	if err != nil {
		return errorJSON(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, entry)
}

// RefreshEmails starts a background fetch of the inbox. Batches show up in
// GetEmails as they complete and progress is streamed as fetch_progress.
func (h *EmailHandler) RefreshEmails(c echo.Context) error {
	user, err := h.users.GetCurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}
	if !user.HasValidToken(h.now()) {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Google session expired, please sign in again",
		})
	}

	job, err := h.jobs.Start(user.ID, sse.JobRefresh, func(ctx context.Context, progress service.ProgressFunc) (any, error) {
		return h.inboxService.Refresh(ctx, user, progress)
	})
	if err != nil {
		return errorJSON(c, h.logger, err)
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"job": job,
	})
}

// ClassifyEmail reclassifies one message with the AI provider, or with the
// heuristics when no key is configured.
func (h *EmailHandler) ClassifyEmail(c echo.Context) error {
	user, err := h.users.GetCurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	entry, err := h.inboxService.ClassifyOne(c.Request().Context(), user.ID, c.Param("id"))
	if err != nil {
		return errorJSON(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, entry)
}

// ClassifyAll starts batch AI classification of every pending message.
func (h *EmailHandler) ClassifyAll(c echo.Context) error {
	user, err := h.users.GetCurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	pending, err := h.inboxService.CheckClassifyAll(c.Request().Context(), user.ID)
	if err != nil {
		return errorJSON(c, h.logger, err)
	}

	job, err := h.jobs.Start(user.ID, sse.JobClassifyAll, func(ctx context.Context, progress service.ProgressFunc) (any, error) {
		return h.inboxService.ClassifyAll(ctx, user.ID, progress)
	})
	if err != nil {
		return errorJSON(c, h.logger, err)
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"job":     job,
		"pending": pending,
	})
}

// SelectReply records the chosen reply draft as the message's action.
func (h *EmailHandler) SelectReply(c echo.Context) error {
	user, err := h.users.GetCurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	var req struct {
		ReplyID int `json:"reply_id"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.ReplyID == 0 {
		return badRequest(c, "reply_id is required")
	}

	record, err := h.inboxService.SelectReply(c.Request().Context(), user.ID, c.Param("id"), req.ReplyID)
	if err != nil {
		return errorJSON(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, record)
}

func (h *EmailHandler) MarkProcessed(c echo.Context) error {
	user, err := h.users.GetCurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	record, err := h.inboxService.MarkProcessed(c.Request().Context(), user.ID, c.Param("id"))
	if err != nil {
		return errorJSON(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, record)
}

func (h *EmailHandler) MarkAllProcessed(c echo.Context) error {
	user, err := h.users.GetCurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	marked, err := h.inboxService.MarkAllProcessed(c.Request().Context(), user.ID)
	if err != nil {
		return errorJSON(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, map[string]int{
		"marked": marked,
	})
}

// ExportEmails streams the filtered working set as CSV.
func (h *EmailHandler) ExportEmails(c echo.Context) error {
	user, err := h.users.GetCurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}
	filter, err := store.ParseFilter(c.QueryParam("filter"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	search := c.QueryParam("search")

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", exportFilename(filter, h.now())))
	res.WriteHeader(http.StatusOK)

	rows, err := h.inboxService.Export(c.Request().Context(), user.ID, filter, search, res)
	if err != nil {
		h.logger.Error("Failed to export emails:", err)
		return nil
	}
	h.logger.Infof("exported %d rows for %s", rows, user.ID)
	return nil
}

func exportFilename(filter store.Filter, now time.Time) string {
	date := now.UTC().Format("2006-01-02")
	if filter == store.FilterAll {
		return "mailmind_export_" + date + ".csv"
	}
	return fmt.Sprintf("mailmind_filtered_%s_%s.csv", filter, date)
}

func (h *EmailHandler) GetStats(c echo.Context) error {
	user, err := h.users.GetCurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}
	return c.JSON(http.StatusOK, h.inboxService.Stats(c.Request().Context(), user.ID))
}

// PreviewClassification runs the heuristics over ad-hoc text without
// touching the working set.
func (h *EmailHandler) PreviewClassification(c echo.Context) error {
	var req struct {
		SenderName string `json:"sender_name"`
		Subject    string `json:"subject"`
		Body       string `json:"body"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Body == "" {
		return badRequest(c, "Email body is required")
	}

	now := h.now()
	msg := model.Message{
		SenderName: req.SenderName,
		Subject:    req.Subject,
		Body:       req.Body,
		ReceivedAt: now,
	}
	return c.JSON(http.StatusOK, heuristic.Fallback(msg, now))
}

// Events streams fetch_progress, ai_progress and job_done events.
func (h *EmailHandler) Events(c echo.Context) error {
	user, err := h.users.GetCurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")

	clientChannel := h.sseManager.AddClient(user.ID)
	defer h.sseManager.RemoveClient(user.ID, clientChannel)

	initJSON, _ := json.Marshal(sse.Event{
		Type: "connection",
		Data: map[string]string{"userId": user.ID},
		Time: h.now().Unix(),
	})
	fmt.Fprintf(c.Response(), "data: %s\n\n", initJSON)
	c.Response().Flush()

	for {
		select {
		case eventData, open := <-clientChannel:
			if !open {
				return nil
			}
			fmt.Fprintf(c.Response(), "data: %s\n\n", eventData)
			c.Response().Flush()
		case <-c.Request().Context().Done():
			return nil
		}
	}
}
