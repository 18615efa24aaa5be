package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	enrolldomain "github.com/smallbiznis/academy/internal/enrollment/domain"
	wizarddomain "github.com/smallbiznis/academy/internal/wizard/domain"
)

type openWizardRequest struct {
	OfferingID string `json:"offering_id"`
}

type selectSessionRequest struct {
	SessionID string `json:"session_id"`
}

type answerRequest struct {
	Answers map[string]any `json:"answers"`
}

type acceptTermsRequest struct {
	Accepted *bool `json:"accepted"`
}

// respondWizard writes the view with its notices next to it. The wizard step
// is exposed to the request logger.
func respondWizard(c *gin.Context, view wizarddomain.View) {
	c.Set("wizard_step", view.Step.String())
	c.JSON(http.StatusOK, gin.H{"data": view, "notices": view.Notices})
}

func abortWizard(c *gin.Context, view wizarddomain.View, err error) {
	if len(view.Notices) > 0 {
		c.Set(noticesKey, view.Notices)
	}
	AbortWithError(c, err)
}

func wizardID(c *gin.Context) string {
	return strings.TrimSpace(c.Param("id"))
}

func (s *Server) OpenWizard(c *gin.Context) {
	var req openWizardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	view, err := s.wizards.Open(c.Request.Context(), wizarddomain.OpenRequest{
		OfferingID: strings.TrimSpace(req.OfferingID),
		Lang:       s.localizer.Resolve(c.GetHeader("Accept-Language")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondWizard(c, view)
}

func (s *Server) GetWizard(c *gin.Context) {
	s.handleWizard(c, s.wizards.Get)
}

func (s *Server) CloseWizard(c *gin.Context) {
	if err := s.wizards.Close(c.Request.Context(), wizardID(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) SelectWizardType(c *gin.Context) {
	var req wizarddomain.SelectTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	s.handleWizard(c, func(ctx context.Context, id string) (wizarddomain.View, error) {
		return s.wizards.SelectType(ctx, id, req)
	})
}

func (s *Server) SelectWizardSession(c *gin.Context) {
	var req selectSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.SessionID) == "" {
		AbortWithError(c, newValidationError("session_id", "required", "session_id is required"))
		return
	}

	s.handleWizard(c, func(ctx context.Context, id string) (wizarddomain.View, error) {
		return s.wizards.SelectSession(ctx, id, req.SessionID)
	})
}

func (s *Server) AnswerWizard(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Answers == nil {
		AbortWithError(c, newValidationError("answers", "required", "answers are required"))
		return
	}

	s.handleWizard(c, func(ctx context.Context, id string) (wizarddomain.View, error) {
		return s.wizards.Answer(ctx, id, req.Answers)
	})
}

func (s *Server) UpdateWizardPersonalInfo(c *gin.Context) {
	var patch enrolldomain.PersonalInfoPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	s.handleWizard(c, func(ctx context.Context, id string) (wizarddomain.View, error) {
		return s.wizards.UpdatePersonalInfo(ctx, id, patch)
	})
}

func (s *Server) AcceptWizardTerms(c *gin.Context) {
	var req acceptTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Accepted == nil {
		AbortWithError(c, newValidationError("accepted", "required", "accepted is required"))
		return
	}

	s.handleWizard(c, func(ctx context.Context, id string) (wizarddomain.View, error) {
		return s.wizards.AcceptTerms(ctx, id, *req.Accepted)
	})
}

func (s *Server) AdvanceWizard(c *gin.Context) {
	s.handleWizard(c, s.wizards.Advance)
}

func (s *Server) BackWizard(c *gin.Context) {
	s.handleWizard(c, s.wizards.Back)
}

func (s *Server) NextWizardSection(c *gin.Context) {
	s.handleWizard(c, s.wizards.NextSection)
}

func (s *Server) PrevWizardSection(c *gin.Context) {
	s.handleWizard(c, s.wizards.PrevSection)
}

func (s *Server) SkipWizardNeedsAnalysis(c *gin.Context) {
	s.handleWizard(c, s.wizards.SkipNeedsAnalysis)
}

func (s *Server) SubmitWizard(c *gin.Context) {
	s.handleWizard(c, s.wizards.Submit)
}

func (s *Server) handleWizard(c *gin.Context, fn func(context.Context, string) (wizarddomain.View, error)) {
	view, err := fn(c.Request.Context(), wizardID(c))
	if err != nil {
		abortWizard(c, view, err)
		return
	}

	respondWizard(c, view)
}
