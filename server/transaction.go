package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	superpay "github.com/superpage/superpay-go"
	"github.com/superpage/superpay-go/db"
	dbmodel "github.com/superpage/superpay-go/db/model"
	"github.com/superpage/superpay-go/server/model"
)

// HandleCreateTransaction records a completed tip addressed to a creator.
// The same amount rules apply here as at request time, so a malformed
// client cannot record a tip the flow would have rejected.
func (s *Server) HandleCreateTransaction(c *gin.Context) {
	var req model.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.Error("invalid amount"))
		return
	}
	if err := superpay.ValidateAmount(amount); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(err.Error()))
		return
	}

	recipient, err := s.store.GetUserByUsername(req.To)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, model.Error("recipient not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, model.Error("lookup failed"))
		return
	}

	tx := &dbmodel.Transaction{
		ToUserID: recipient.ID,
		Amount:   amount.String(),
		Message:  req.Message,
	}
	if err := s.store.CreateTransaction(tx); err != nil {
		c.JSON(http.StatusInternalServerError, model.Error("failed to record transaction"))
		return
	}

	c.JSON(http.StatusCreated, model.Success(tx))
}

// HandleMyTransactions lists tips addressed to the current user, most
// recent first.
func (s *Server) HandleMyTransactions(c *gin.Context) {
	claims := sessionClaims(c)
	txs, err := s.store.ListTransactionsTo(claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.Error("failed to list transactions"))
		return
	}
	c.JSON(http.StatusOK, model.Success(txs))
}
