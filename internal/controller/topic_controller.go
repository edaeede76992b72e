package controller

import (
	"idea-clustering-be/internal/dto"
	"idea-clustering-be/internal/pkg/apperrors"
	"idea-clustering-be/internal/pkg/serverutils"
	"idea-clustering-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ITopicController interface {
	RegisterRoutes(r fiber.Router)
	Drilldown(ctx *fiber.Ctx) error
}

type topicController struct {
	topicService service.ITopicService
}

func NewTopicController(topicService service.ITopicService) ITopicController {
	return &topicController{
		topicService: topicService,
	}
}

func (c *topicController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/topic/v1")
	h.Post("drilldown", c.Drilldown)
}

func (c *topicController) Drilldown(ctx *fiber.Ctx) error {
	var req dto.DrilldownRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperrors.NewValidation("invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.topicService.Drilldown(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success drill down topic", res))
}
