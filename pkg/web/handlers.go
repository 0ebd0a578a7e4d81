// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import (
	"net/http"
	"time"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/services"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	workflowService *services.Workflow
	authService     *services.Auth
}

func NewAPIHandlers(workflowService *services.Workflow, authService *services.Auth) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		authService:     authService,
	}
}

// Routes mounts the workflow API on router. Workflow routes run guard first
// when it is not nil.
func (h *APIHandlers) Routes(router fiber.Router, guard fiber.Handler) {
	if guard == nil {
		guard = func(c fiber.Ctx) error { return c.Next() }
	}

	router.Post("/auth/login", h.Login)
	router.Post("/auth/register", h.Register)
	router.Get("/kinds", h.Kinds)

	router.Get("/workflows", guard, h.GetWorkflows)
	router.Post("/workflows", guard, h.CreateWorkflow)
	router.Get("/workflows/logs/all", guard, h.RecentLogs)
	router.Get("/workflows/logs/:id", guard, h.WorkflowLogs)
	router.Delete("/workflows/:id", guard, h.DeleteWorkflow)
	router.Post("/trigger/:id", guard, h.TriggerWorkflow)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context(), currentUser(c), c.Query("searchQuery"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(models.WorkflowList{Workflows: workflows})
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	created, err := h.workflowService.Create(c.Context(), currentUser(c), c.Body())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	err := h.workflowService.Delete(c.Context(), currentUser(c), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) TriggerWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	logs, err := h.workflowService.Trigger(c.Context(), currentUser(c), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(TriggerResponse{
		Message:      "Workflow triggered",
		WorkflowLogs: logs,
	})
}

func (h *APIHandlers) RecentLogs(c fiber.Ctx) error {
	logs, err := h.workflowService.RecentLogs(c.Context(), currentUser(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(models.WorkflowLogList{WorkflowLogs: logs})
}

func (h *APIHandlers) WorkflowLogs(c fiber.Ctx) error {
	logs, err := h.workflowService.Logs(c.Context(), currentUser(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(models.WorkflowLogList{WorkflowLogs: logs})
}

func (h *APIHandlers) Login(c fiber.Ctx) error {
	var creds models.Credentials
	if err := c.Bind().JSON(&creds); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	token, err := h.authService.Login(c.Context(), creds)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(models.TokenResponse{Token: token})
}

func (h *APIHandlers) Register(c fiber.Ctx) error {
	var creds models.Credentials
	if err := c.Bind().JSON(&creds); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.authService.Register(c.Context(), creds); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(MessageResponse{Message: "User registered"})
}

func (h *APIHandlers) Kinds(c fiber.Ctx) error {
	return c.JSON(KindsResponse{Kinds: models.DescribeKinds()})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "flowdeck API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "flowdeck API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
