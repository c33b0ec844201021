package main

import (
	"context"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"billing-functions-api/internal/handlers"
	"billing-functions-api/internal/models"
	"billing-functions-api/pkg/lambda"
)

func handler(ctx context.Context) (*models.BillingResponse, error) {
	container, err := lambda.GetConnectionManager().GetContainer(ctx)
	if err != nil {
		return nil, err
	}
	return handlers.NewBillingHandler(container.BillingService).Handle(ctx)
}

func main() {
	cm := lambda.GetConnectionManager()
	awslambda.StartWithOptions(handler, awslambda.WithEnableSIGTERM(cm.Shutdown))
}
