package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/splitsecure/go-webauthn-rp/service"
)

// CeremonyHandlers contains HTTP handlers for the ceremony endpoints.
type CeremonyHandlers struct {
	ceremonies *service.CeremonyService
}

// NewCeremonyHandlers creates new ceremony handlers.
func NewCeremonyHandlers(ceremonies *service.CeremonyService) *CeremonyHandlers {
	return &CeremonyHandlers{
		ceremonies: ceremonies,
	}
}

// RegisterOptions handles POST /register/options.
func (h *CeremonyHandlers) RegisterOptions(c *gin.Context) {
	var req service.BeginRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Code: "malformed_request", Message: "Invalid request"})
		return
	}
	if req.UserID == "" || req.UserName == "" {
		c.JSON(http.StatusBadRequest, errorBody{Code: "malformed_request", Message: "user_id and user_name are required"})
		return
	}

	options, err := h.ceremonies.BeginRegistration(c.Request.Context(), &req)
	if err != nil {
		m := mapError(err)
		c.JSON(m.status, m.body)
		return
	}

	c.JSON(http.StatusOK, options)
}

// RegisterVerify handles POST /register/verify.
func (h *CeremonyHandlers) RegisterVerify(c *gin.Context) {
	var req service.FinishRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Code: "malformed_request", Message: "Invalid request"})
		return
	}

	result, err := h.ceremonies.FinishRegistration(c.Request.Context(), &req)
	if err != nil {
		m := mapError(err)
		c.JSON(m.status, m.body)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AuthOptions handles POST /auth/options.
func (h *CeremonyHandlers) AuthOptions(c *gin.Context) {
	var req service.BeginAuthenticationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Code: "malformed_request", Message: "Invalid request"})
		return
	}

	options, err := h.ceremonies.BeginAuthentication(c.Request.Context(), &req)
	if err != nil {
		m := mapError(err)
		c.JSON(m.status, m.body)
		return
	}

	c.JSON(http.StatusOK, options)
}

// AuthVerify handles POST /auth/verify.
func (h *CeremonyHandlers) AuthVerify(c *gin.Context) {
	var req service.FinishAuthenticationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Code: "malformed_request", Message: "Invalid request"})
		return
	}

	result, err := h.ceremonies.FinishAuthentication(c.Request.Context(), &req)
	if err != nil {
		m := mapError(err)
		c.JSON(m.status, m.body)
		return
	}

	c.JSON(http.StatusOK, result)
}
