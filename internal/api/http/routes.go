package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/spray-advisory/internal/advisor"
	"github.com/i474232898/spray-advisory/internal/compliance"
	"github.com/i474232898/spray-advisory/internal/registry"
)

var validate = validator.New()

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, engine *advisor.Engine) {
	v1 := app.Group("/api/v1")

	v1.Get("/products", func(c *fiber.Ctx) error {
		var req searchQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		products := engine.SearchProducts(c.UserContext(), req.Query, req.Limit)
		return c.JSON(fiber.Map{
			"query":    req.Query,
			"count":    len(products),
			"products": products,
		})
	})

	v1.Get("/products/:regno", func(c *fiber.Ctx) error {
		regNo := c.Params("regno")
		product, ok := engine.GetProduct(c.UserContext(), regNo)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no product with registration number "+regNo)
		}
		label, _ := engine.Label(c.UserContext(), regNo)
		return c.JSON(productResponse{Product: product, Label: label, Disclaimer: compliance.Disclaimer})
	})

	v1.Get("/weather/forecast", func(c *fiber.Ctx) error {
		q := postcodeQuery{PostalCode: c.Query("postcode")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		days := engine.Forecast(c.UserContext(), q.PostalCode)
		return c.JSON(fiber.Map{
			"postcode":  q.PostalCode,
			"forecasts": days,
		})
	})

	v1.Post("/compliance", func(c *fiber.Ctx) error {
		var req complianceRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		res := engine.CheckCompliance(c.UserContext(), req.ProductID, req.ApplicationContext)
		return c.JSON(complianceResponse{Result: res, Disclaimer: compliance.Disclaimer})
	})

	v1.Get("/permits", func(c *fiber.Ctx) error {
		q := permitQuery{ProductID: c.Query("product"), State: c.Query("state")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		res := engine.CheckPermit(c.UserContext(), q.ProductID, q.State)
		return c.JSON(permitResponse{PermitResult: res, Disclaimer: compliance.Disclaimer})
	})

	v1.Get("/recommendation", func(c *fiber.Ctx) error {
		q := postcodeQuery{PostalCode: c.Query("postcode")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return c.JSON(engine.Recommend(c.UserContext(), q.PostalCode, c.Query("hint")))
	})
}

// searchQuery holds query parameters for product search.
type searchQuery struct {
	Query string `validate:"required,max=100"`
	Limit int    `validate:"min=1,max=100"`
}

func (s *searchQuery) bind(c *fiber.Ctx) error {
	s.Query = c.Query("q")
	s.Limit = registry.DefaultLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("limit must be an integer")
		}
		s.Limit = n
	}
	return validate.Struct(s)
}

type postcodeQuery struct {
	PostalCode string `validate:"required,alphanum,max=10"`
}

type permitQuery struct {
	ProductID string `validate:"required"`
	State     string `validate:"required,alpha,max=3"`
}

type complianceRequest struct {
	ProductID string `json:"productId" validate:"required"`
	compliance.ApplicationContext
}

type complianceResponse struct {
	compliance.Result
	Disclaimer string `json:"disclaimer"`
}

type permitResponse struct {
	compliance.PermitResult
	Disclaimer string `json:"disclaimer"`
}

type productResponse struct {
	Product    registry.Product `json:"product"`
	Label      compliance.Label `json:"label"`
	Disclaimer string           `json:"disclaimer"`
}
