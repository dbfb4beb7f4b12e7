package handlers

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"reflect"
	"strconv"
	"strings"

	"firefight-platform/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			name = strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var kindStatus = map[services.Kind]int{
	services.KindValidation: fiber.StatusBadRequest,
	services.KindNotFound:   fiber.StatusNotFound,
	services.KindConflict:   fiber.StatusConflict,
	services.KindResource:   fiber.StatusUnprocessableEntity,
	services.KindForbidden:  fiber.StatusForbidden,
}

// respondError maps a service error to {"error", "code"} with the status of
// its kind. Anything unrecognised is logged and hidden behind a 500.
func respondError(c *fiber.Ctx, err error) error {
	var (
		domain   *services.Error
		invalid  *services.ValidationError
		missing  *services.NotFoundError
		badInput validator.ValidationErrors
	)
	switch {
	case errors.As(err, &domain):
		return c.Status(kindStatus[domain.Kind]).JSON(fiber.Map{"error": err.Error(), "code": domain.Code})
	case errors.As(err, &invalid):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "code": "VALIDATION_ERROR"})
	case errors.As(err, &missing):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error(), "code": "NOT_FOUND"})
	case errors.As(err, &badInput):
		fe := badInput[0]
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("%s: failed %q validation", fe.Field(), fe.Tag()),
			"code":  "VALIDATION_ERROR",
		})
	}
	log.Printf("❌ [API] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
		"code":  "INTERNAL",
	})
}

// parseBody decodes the request body into out and validates its tags.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return &services.ValidationError{Field: "body", Reason: "malformed request body"}
	}
	return validate.Struct(out)
}

// formImage opens an optional multipart image. The caller closes it.
func formImage(c *fiber.Ctx, field string) (*services.FileUpload, multipart.File, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", field, err)
	}
	return &services.FileUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Body:        f,
	}, f, nil
}

func queryPage(c *fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	size, _ := strconv.Atoi(c.Query("size", "20"))
	return page, size
}
