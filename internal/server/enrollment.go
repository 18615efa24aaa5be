package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	enrolldomain "github.com/smallbiznis/academy/internal/enrollment/domain"
)

func (s *Server) ListEnrollmentRequests(c *gin.Context) {
	var query enrolldomain.ListRequestsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	query.OfferingID = strings.TrimSpace(query.OfferingID)
	query.Status = strings.TrimSpace(query.Status)

	resp, err := s.enrollments.ListRequests(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetEnrollmentRequest(c *gin.Context) {
	resp, err := s.enrollments.GetRequest(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
