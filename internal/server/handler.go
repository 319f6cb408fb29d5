package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hance08/dtl/internal/constants"
	"github.com/hance08/dtl/internal/metadata"
	"github.com/hance08/dtl/internal/model"
	"github.com/hance08/dtl/internal/service"
	"github.com/hance08/dtl/internal/store"
	"go.uber.org/zap"
)

// unknownSenderMessage is the body clients match on for a sender outside
// the allow-list.
const unknownSenderMessage = "Unknown sender address"

func (s *Server) listAccounts(c *gin.Context) {
	accounts, err := s.deps.Service.Account.GetAllAccounts(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func (s *Server) seed(c *gin.Context) {
	accounts, err := s.deps.Service.Account.Seed(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   constants.StatusSeeded,
		"accounts": accounts,
	})
}

func (s *Server) submitTransfer(c *gin.Context) {
	var req service.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transfer: " + err.Error()})
		return
	}

	receipt, err := s.deps.Service.Submitter.SubmitTransfer(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownSender):
			c.JSON(http.StatusBadRequest, gin.H{"error": unknownSenderMessage})
		case errors.Is(err, service.ErrInvalidTransfer):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			s.fail(c, http.StatusInternalServerError, err)
		}
		return
	}

	c.JSON(http.StatusOK, receipt)
}

func (s *Server) listTransfers(c *gin.Context) {
	filter := model.TransferFilter{
		Account: c.Query("account"),
		Status:  model.TransferStatus(c.Query("status")),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		filter.Limit = limit
	}

	transfers, err := s.deps.Service.Transfer.ListTransfers(c.Request.Context(), filter)
	if err != nil {
		if errors.Is(err, service.ErrInvalidFilter) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, transfers)
}

func (s *Server) getTransfer(c *gin.Context) {
	t, err := s.deps.Service.Transfer.GetTransfer(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "transfer not found"})
			return
		}
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) getTransferMetadata(c *gin.Context) {
	t, doc, err := s.deps.Service.Transfer.GetTransferMetadata(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "transfer not found"})
		case errors.Is(err, service.ErrNoMetadata):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, metadata.ErrUnavailable):
			s.fail(c, http.StatusBadGateway, err)
		default:
			s.fail(c, http.StatusInternalServerError, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transfer_id":        t.ID,
		"metadata_reference": t.MetadataRef,
		"document":           doc,
	})
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error()})
}
