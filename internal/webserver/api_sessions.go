package webserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/talkincode/botgate/internal/domain"
)

func (s *WebServer) registerSessionRoutes() {
	s.root.GET("/api/sessions", s.listSessions)
	s.root.POST("/api/sessions", s.createSession)
	s.root.GET("/api/sessions/:id", s.getSession)
	s.root.DELETE("/api/sessions/:id", s.deleteSession)
	s.root.POST("/api/sessions/:id/restart", s.restartSession)
	s.root.GET("/api/sessions/:id/messages", s.getSessionMessages)
	s.root.POST("/api/sessions/:id/send", s.sendMessage)
	s.root.POST("/api/sessions/:id/bulk", s.sendBulk)
}

func (s *WebServer) listSessions(c echo.Context) error {
	return ok(c, map[string]interface{}{"sessions": s.app.Registry().List()})
}

func (s *WebServer) createSession(c echo.Context) error {
	var payload struct {
		ID string `json:"id"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	if payload.ID == "" {
		return fail(c, http.StatusBadRequest, "MISSING_FIELDS", "id is required", nil)
	}

	reg := s.app.Registry()
	if err := reg.Create(payload.ID); err != nil {
		if errors.Is(err, domain.ErrDuplicateSession) {
			reg.OperLog("error", fmt.Sprintf("Session %q already exists", payload.ID))
			return fail(c, http.StatusConflict, "DUPLICATE_SESSION", "Session already exists", nil)
		}
		zap.L().Warn("create session failed", zap.String("session", payload.ID), zap.Error(err))
		reg.OperLog("error", fmt.Sprintf("Failed to create session %q: %v", payload.ID, err))
		return fail(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to create session", err.Error())
	}
	reg.OperLog("success", fmt.Sprintf("Session %q created. Connecting...", payload.ID))
	s.hub.Broadcast("sessionCreated", map[string]string{"id": payload.ID})
	return ok(c, map[string]interface{}{"id": payload.ID})
}

func (s *WebServer) getSession(c echo.Context) error {
	sess, err := s.app.Registry().Get(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found", nil)
	}
	return ok(c, map[string]interface{}{
		"id":            sess.ID,
		"status":        sess.Status(),
		"qr_code":       sess.QRCode(),
		"message_count": len(sess.Log()),
	})
}

func (s *WebServer) deleteSession(c echo.Context) error {
	id := c.Param("id")
	reg := s.app.Registry()
	if err := reg.Delete(id); err != nil {
		reg.OperLog("error", fmt.Sprintf("Failed to delete session %q: %v", id, err))
		return fail(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found", nil)
	}
	reg.OperLog("info", fmt.Sprintf("Session %q deleted", id))
	s.hub.Broadcast("sessionDeleted", map[string]string{"id": id})
	return ok(c, map[string]interface{}{"deleted": id})
}

func (s *WebServer) restartSession(c echo.Context) error {
	id := c.Param("id")
	reg := s.app.Registry()
	if err := reg.Restart(id); err != nil {
		reg.OperLog("error", fmt.Sprintf("Failed to restart session %q: %v", id, err))
		return fail(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found", nil)
	}
	return ok(c, map[string]interface{}{"restarting": id})
}

// getSessionMessages replays the session's current message log to the
// requester in insertion order.
func (s *WebServer) getSessionMessages(c echo.Context) error {
	sess, err := s.app.Registry().Get(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found", nil)
	}
	return ok(c, map[string]interface{}{"messages": sess.Log()})
}

func (s *WebServer) sendMessage(c echo.Context) error {
	id := c.Param("id")
	var payload struct {
		To   string `json:"to"`
		Body string `json:"body"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	if payload.To == "" || payload.Body == "" {
		return fail(c, http.StatusBadRequest, "MISSING_FIELDS", "to and body are required", nil)
	}

	reg := s.app.Registry()
	err := reg.SendMessage(c.Request().Context(), id, payload.To, payload.Body)
	switch {
	case err == nil:
		reg.OperLog("success", "Message sent successfully!")
		return ok(c, map[string]interface{}{"sent": true})
	case errors.Is(err, domain.ErrUnknownSession):
		return fail(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found", nil)
	case errors.Is(err, domain.ErrSessionNotConnected):
		reg.OperLog("error", fmt.Sprintf("Session %q is not connected!", id))
		return fail(c, http.StatusConflict, "NOT_CONNECTED", "Session is not connected", nil)
	case errors.Is(err, domain.ErrInvalidRecipient):
		reg.OperLog("error", "Invalid phone number format. Use: 1234567890 or 1234567890@c.us")
		return fail(c, http.StatusBadRequest, "INVALID_RECIPIENT", "Invalid phone number format", nil)
	default:
		reg.OperLog("error", fmt.Sprintf("Failed to send message: %v", err))
		return fail(c, http.StatusInternalServerError, "SEND_FAILED", "Failed to send message", err.Error())
	}
}

// sendBulk starts a paced bulk delivery in the background and returns
// immediately; progress and the final tally reach observers as log
// events, followed by a bulkComplete signal.
func (s *WebServer) sendBulk(c echo.Context) error {
	id := c.Param("id")
	var payload struct {
		Recipients []string `json:"recipients"`
		Body       string   `json:"body"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	if len(payload.Recipients) == 0 || payload.Body == "" {
		return fail(c, http.StatusBadRequest, "MISSING_FIELDS", "recipients and body are required", nil)
	}

	reg := s.app.Registry()
	sess, err := reg.Get(id)
	if err != nil {
		return fail(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found", nil)
	}
	if sess.Status() != domain.StatusConnected {
		reg.OperLog("error", fmt.Sprintf("Session %q is not connected!", id))
		return fail(c, http.StatusConflict, "NOT_CONNECTED", "Session is not connected", nil)
	}

	reg.OperLog("info", fmt.Sprintf("Bulk send started: %d recipients", len(payload.Recipients)))
	go func() {
		result, err := s.bulk.Send(context.Background(), id, payload.Recipients, payload.Body)
		if err != nil {
			reg.OperLog("error", fmt.Sprintf("Bulk send aborted: %v", err))
			return
		}
		s.hub.Broadcast(eventBulkComplete, result)
	}()
	return ok(c, map[string]interface{}{"started": true, "recipients": len(payload.Recipients)})
}
