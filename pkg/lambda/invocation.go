package lambda

import (
	"context"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestID returns the AWS request id of the invocation. Outside Lambda a
// random id is generated so log lines can still be correlated.
func RequestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.New().String()
}

// Logger returns a log entry tagged with the invocation's request id and function name
func Logger(ctx context.Context) *logrus.Entry {
	fields := logrus.Fields{"request_id": RequestID(ctx)}
	if lambdacontext.FunctionName != "" {
		fields["function_name"] = lambdacontext.FunctionName
	}
	return logrus.WithFields(fields)
}
