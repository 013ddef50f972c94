package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"loan-portal/internal/domain"
)

type applyLoanRequest struct {
	Amount *float64 `json:"amount" binding:"required,gt=0"`
}

type loanStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending under-review approved rejected"`
}

func (h *Handler) applyLoan(c *gin.Context) {
	identity, ok := h.mustIdentity(c)
	if !ok {
		return
	}

	var req applyLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	loan, err := h.loans.Apply(c.Request.Context(), identity.AccountID, *req.Amount)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, loanToResponse(*loan))
}

func (h *Handler) myLoans(c *gin.Context) {
	identity, ok := h.mustIdentity(c)
	if !ok {
		return
	}
	loans, err := h.loans.ListMine(c.Request.Context(), identity.AccountID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	resp := make([]LoanResponse, len(loans))
	for i := range loans {
		resp[i] = loanToResponse(loans[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) adminLoans(c *gin.Context) {
	loans, err := h.loans.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	resp := make([]LoanResponse, len(loans))
	for i := range loans {
		resp[i] = loanToResponse(loans[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) adminUpdateLoanStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req loanStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	loan, err := h.loans.UpdateStatus(c.Request.Context(), id, domain.LoanStatus(req.Status))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, loanToResponse(*loan))
}

func (h *Handler) adminStats(c *gin.Context) {
	stats, err := h.loans.Stats(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, StatsResponse{
		TotalUsers:      stats.TotalUsers,
		PendingLoans:    stats.PendingLoans,
		TotalLoanAmount: stats.TotalLoanAmount,
	})
}

func (h *Handler) adminUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(users[i])
	}
	c.JSON(http.StatusOK, resp)
}
