package eks

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/smithy-go"
)

// API is the subset of AWS used by the adapter.
type API interface {
	// DescribeStack returns the stack or an error for which isStackMissing
	// holds.
	DescribeStack(ctx context.Context, name string) (*cftypes.Stack, error)
	CreateStack(ctx context.Context, input *cloudformation.CreateStackInput) error
	UpdateStack(ctx context.Context, input *cloudformation.UpdateStackInput) error
	DeleteStack(ctx context.Context, name string) error

	// HeadObject checks that an object exists and is readable.
	HeadObject(ctx context.Context, bucket, key string) error

	ListHostedZones(ctx context.Context) ([]r53types.HostedZone, error)
	ChangeRecord(ctx context.Context, zoneID string, change r53types.Change) error

	// PresignCallerIdentity presigns sts:GetCallerIdentity carrying the
	// x-k8s-aws-id header for cluster.
	PresignCallerIdentity(ctx context.Context, cluster string) (string, error)
}

// isStackMissing reports whether err is CloudFormation's answer for a stack
// that does not exist.
func isStackMissing(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ValidationError" &&
		strings.Contains(apiErr.ErrorMessage(), "does not exist")
}

// isNoUpdates reports whether an UpdateStack call found nothing to change.
func isNoUpdates(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && strings.Contains(apiErr.ErrorMessage(), "No updates are to be performed")
}

func stackMissing(name string) error {
	return &smithy.GenericAPIError{Code: "ValidationError", Message: "Stack with id " + name + " does not exist"}
}
