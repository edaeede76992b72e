package controller

import (
	"idea-clustering-be/internal/dto"
	"idea-clustering-be/internal/pkg/apperrors"
	"idea-clustering-be/internal/pkg/serverutils"
	"idea-clustering-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDiscussionController interface {
	RegisterRoutes(r fiber.Router)
	SubmitIdea(ctx *fiber.Ctx) error
	ListClusters(ctx *fiber.Ctx) error
	Regroup(ctx *fiber.Ctx) error
}

type discussionController struct {
	ideaService  service.IIdeaService
	topicService service.ITopicService
}

func NewDiscussionController(ideaService service.IIdeaService, topicService service.ITopicService) IDiscussionController {
	return &discussionController{
		ideaService:  ideaService,
		topicService: topicService,
	}
}

func (c *discussionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/discussion/v1")
	h.Post(":id/ideas", serverutils.SubmitterMiddleware, c.SubmitIdea)
	h.Get(":id/clusters", c.ListClusters)
	h.Post(":id/regroup", c.Regroup)
}

func (c *discussionController) SubmitIdea(ctx *fiber.Ctx) error {
	discussionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperrors.NewValidation("invalid discussion id")
	}

	var userId, sessionId *uuid.UUID
	if v, ok := ctx.Locals("user_id").(uuid.UUID); ok {
		userId = &v
	} else if v, ok := ctx.Locals("session_id").(uuid.UUID); ok {
		sessionId = &v
	}

	var req dto.SubmitIdeaRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperrors.NewValidation("invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.ideaService.Submit(ctx.Context(), discussionId, userId, sessionId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.CreatedResponse("Idea accepted for clustering", res))
}

func (c *discussionController) ListClusters(ctx *fiber.Ctx) error {
	discussionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperrors.NewValidation("invalid discussion id")
	}

	res, err := c.topicService.ListClusters(ctx.Context(), discussionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list clusters", res))
}

func (c *discussionController) Regroup(ctx *fiber.Ctx) error {
	discussionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperrors.NewValidation("invalid discussion id")
	}

	res, err := c.topicService.Regroup(ctx.Context(), discussionId)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Discussion regrouped", res))
}
