package handlers

import (
	"firefight-platform/middleware"
	"firefight-platform/models"
	"firefight-platform/services"

	"github.com/gofiber/fiber/v2"
)

type kycReviewRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

// kycDocumentView never exposes the full document number.
type kycDocumentView struct {
	models.KycDocument
	DocumentNumber string `json:"document_number"`
}

func viewKyc(d models.KycDocument) kycDocumentView {
	return kycDocumentView{KycDocument: d, DocumentNumber: d.MaskedNumber()}
}

func SetupKycRoutes(api, admin fiber.Router, kyc *services.KycService) {
	// multipart: document_type, document_number, image
	api.Post("/kyc", func(c *fiber.Ctx) error {
		image, file, err := formImage(c, "image")
		if err != nil {
			return respondError(c, err)
		}
		if file != nil {
			defer file.Close()
		}
		doc, err := kyc.Submit(c.UserContext(), services.KycSubmission{
			UserID:         middleware.UserID(c),
			DocumentType:   models.DocumentType(c.FormValue("document_type")),
			DocumentNumber: c.FormValue("document_number"),
			Image:          image,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(viewKyc(*doc))
	})

	api.Get("/kyc", func(c *fiber.Ctx) error {
		docs, err := kyc.ListForUser(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		views := make([]kycDocumentView, 0, len(docs))
		for _, d := range docs {
			views = append(views, viewKyc(d))
		}
		return c.JSON(fiber.Map{"data": views})
	})

	// 🔒 Admin
	admin.Post("/kyc/:id/review", func(c *fiber.Ctx) error {
		var req kycReviewRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		doc, err := kyc.Review(c.UserContext(), c.Params("id"), middleware.UserID(c), req.Approve, req.Reason)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(doc)
	})
}
