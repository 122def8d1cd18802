package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/settings"
)

func registerSettingsRoutes(r fiber.Router, svc *settings.Service) {
	if svc == nil {
		return
	}
	g := r.Group("/settings")

	g.Post("/", func(c *fiber.Ctx) error {
		st, err := svc.Create(c.UserContext())
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(st)
	})

	g.Get("/:id", func(c *fiber.Ctx) error {
		st, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(st)
	})

	g.Patch("/:id", func(c *fiber.Ctx) error {
		var p settings.Patch
		if err := c.BodyParser(&p); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validateStruct(p); err != nil {
			return err
		}
		st, err := svc.Apply(c.UserContext(), c.Params("id"), p)
		if err != nil {
			return err
		}
		return c.JSON(st)
	})

	g.Post("/:id/imperial", func(c *fiber.Ctx) error {
		st, err := svc.SwitchToImperial(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(st)
	})

	g.Post("/:id/metric", func(c *fiber.Ctx) error {
		st, err := svc.SwitchToMetric(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(st)
	})
}
