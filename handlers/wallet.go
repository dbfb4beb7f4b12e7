package handlers

import (
	"firefight-platform/middleware"
	"firefight-platform/models"
	"firefight-platform/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type depositRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"reference_id" validate:"required,max=128"`
}

type withdrawRequest struct {
	Amount decimal.Decimal `json:"amount"`
	UpiID  string          `json:"upi_id" validate:"omitempty,max=320"`
}

type processRequest struct {
	Notes string `json:"notes"`
}

func SetupWalletRoutes(api, admin fiber.Router, users *services.UserService, ledger *services.LedgerService, withdrawals *services.WithdrawalService) {
	api.Get("/wallet", func(c *fiber.Ctx) error {
		u, err := users.Get(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"balance":        u.WalletBalance,
			"kyc_status":     u.KycStatus,
			"upi_id":         u.UpiID,
			"min_withdrawal": withdrawals.MinAmount,
			"can_withdraw":   u.KycStatus == models.KycStatusApproved,
		})
	})

	api.Get("/wallet/transactions", func(c *fiber.Ctx) error {
		page, size := queryPage(c)
		txs, total, err := ledger.History(c.UserContext(), middleware.UserID(c), services.HistoryFilter{
			Type:   models.TransactionType(c.Query("type")),
			Status: models.TransactionStatus(c.Query("status")),
			Page:   page,
			Size:   size,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": txs, "total": total, "page": page, "size": size})
	})

	// Deposits are confirmed by the payment provider before reaching us.
	api.Post("/wallet/deposit", func(c *fiber.Ctx) error {
		var req depositRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		tx, err := ledger.Credit(c.UserContext(), middleware.UserID(c), req.Amount, models.TxDeposit, req.ReferenceID)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(tx)
	})

	api.Post("/wallet/withdraw", func(c *fiber.Ctx) error {
		var req withdrawRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		tx, err := withdrawals.Request(c.UserContext(), middleware.UserID(c), req.Amount, req.UpiID)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(tx)
	})

	api.Get("/wallet/withdrawals", func(c *fiber.Ctx) error {
		ws, err := withdrawals.ForUser(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": ws})
	})

	// 🔒 Admin
	process := func(approve bool) fiber.Handler {
		return func(c *fiber.Ctx) error {
			var req processRequest
			if len(c.Body()) > 0 {
				if err := parseBody(c, &req); err != nil {
					return respondError(c, err)
				}
			}
			tx, err := withdrawals.Process(c.UserContext(), c.Params("id"), middleware.UserID(c), approve, req.Notes)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(tx)
		}
	}
	admin.Post("/withdrawals/:id/approve", process(true))
	admin.Post("/withdrawals/:id/reject", process(false))

	admin.Get("/ledger/:userId/reconcile", func(c *fiber.Ctx) error {
		r, err := ledger.Reconcile(c.UserContext(), c.Params("userId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(r)
	})
}
