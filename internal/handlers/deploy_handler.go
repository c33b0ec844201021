package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"billing-functions-api/internal/models"
	"billing-functions-api/internal/services"
)

// DeployHandler handles function deployment requests
type DeployHandler struct {
	deployService services.DeployService
}

// NewDeployHandler creates a new deploy handler
func NewDeployHandler(deployService services.DeployService) *DeployHandler {
	return &DeployHandler{
		deployService: deployService,
	}
}

// Handle is the Lambda entry point
func (h *DeployHandler) Handle(ctx context.Context, event models.DeployEvent) (*models.DeployResponse, error) {
	log := invocationLog(ctx, "deploy").WithFields(logrus.Fields{
		"function_name": event.FunctionName,
		"bucket":        event.Bucket,
		"s3_key":        event.S3Key,
	})
	log.Info("Deploy invoked")

	resp, err := h.deployService.Deploy(ctx, &event)
	if err != nil {
		log.WithError(err).Error("Deploy failed")
		return nil, err
	}

	log.WithField("function_arn", resp.Data.FunctionArn).Info("Deploy succeeded")
	return resp, nil
}

// Deploy handles POST /invoke/deploy
func (h *DeployHandler) Deploy(c *gin.Context) {
	var event models.DeployEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	requestLog(c, "deploy").WithField("function_name", event.FunctionName).Info("Deploy requested")

	resp, err := h.deployService.Deploy(c.Request.Context(), &event)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
