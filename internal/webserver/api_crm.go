package webserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/talkincode/botgate/internal/domain"
)

func (s *WebServer) registerCrmRoutes() {
	s.root.GET("/api/crm", s.getCrm)
	s.root.POST("/api/crm/refresh", s.refreshCrm)
	s.root.POST("/api/sessions/:id/leads/:leadId/send", s.sendToLead)
}

// getCrm returns the cached CRM snapshot: the raw lead and pipeline
// lists plus the stage-grouped view.
func (s *WebServer) getCrm(c echo.Context) error {
	leads, pipelines, organized := s.app.CrmCache().Snapshot(c.Request().Context())
	return ok(c, map[string]interface{}{
		"leads":          leads,
		"pipelines":      pipelines,
		"organizedLeads": organized,
	})
}

func (s *WebServer) refreshCrm(c echo.Context) error {
	s.app.CrmCache().Refresh(c.Request().Context())
	s.app.Registry().OperLog("info", "CRM data refreshed")
	return s.getCrm(c)
}

// sendToLead resolves the lead's phone through the CRM adapter and then
// behaves exactly like a manual send.
func (s *WebServer) sendToLead(c echo.Context) error {
	id := c.Param("id")
	leadID := c.Param("leadId")
	var payload struct {
		Body string `json:"body"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	if payload.Body == "" {
		return fail(c, http.StatusBadRequest, "MISSING_FIELDS", "body is required", nil)
	}

	lead, err := s.app.CrmCache().Adapter().ResolveLeadPhone(c.Request().Context(), leadID)
	if err != nil {
		return fail(c, http.StatusNotFound, "LEAD_NOT_FOUND", "Lead not found or has no phone", err.Error())
	}

	reg := s.app.Registry()
	err = reg.SendMessage(c.Request().Context(), id, lead.ContactPhone(), payload.Body)
	switch {
	case err == nil:
		reg.OperLog("success", fmt.Sprintf("Message sent to lead %s", lead.DisplayName()))
		return ok(c, map[string]interface{}{"sent": true, "lead": lead.DisplayName()})
	case errors.Is(err, domain.ErrUnknownSession):
		return fail(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found", nil)
	case errors.Is(err, domain.ErrSessionNotConnected):
		return fail(c, http.StatusConflict, "NOT_CONNECTED", "Session is not connected", nil)
	case errors.Is(err, domain.ErrInvalidRecipient):
		return fail(c, http.StatusBadRequest, "INVALID_RECIPIENT", "Lead phone is not a valid recipient", nil)
	default:
		reg.OperLog("error", fmt.Sprintf("Failed to send message to lead: %v", err))
		return fail(c, http.StatusInternalServerError, "SEND_FAILED", "Failed to send message", err.Error())
	}
}
