package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	offeringdomain "github.com/smallbiznis/academy/internal/offering/domain"
	sessiondomain "github.com/smallbiznis/academy/internal/session/domain"
)

func (s *Server) GetPublicOffering(c *gin.Context) {
	offering, err := s.offerings.GetBySlug(c.Request.Context(), strings.TrimSpace(c.Param("slug")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": offering.SummaryIn(s.localizer.Resolve(c.GetHeader("Accept-Language")))})
}

func (s *Server) ListPublicSessions(c *gin.Context) {
	ctx := c.Request.Context()
	offering, err := s.offerings.GetBySlug(ctx, strings.TrimSpace(c.Param("slug")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	sessions, err := s.sessions.ListAvailable(ctx, offering.ID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sessiondomain.GroupByMonth(sessions, time.UTC)})
}

func (s *Server) CreateOffering(c *gin.Context) {
	var req offeringdomain.CreateOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.offerings.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateSession(c *gin.Context) {
	var req sessiondomain.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.sessions.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
