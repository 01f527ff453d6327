package eks

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/imamik/k8shub/internal/config"
)

const clusterIDHeader = "x-k8s-aws-id"

// session implements API with aws-sdk-go-v2 clients.
type session struct {
	stacks  *cloudformation.Client
	dns     *route53.Client
	objects *s3.Client
	presign *sts.PresignClient
}

// NewSession builds clients authenticated with the static keys in creds.
func NewSession(ctx context.Context, creds *config.EKSCredentials) (API, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(creds.AccessID, creds.AccessKey, "")),
		awsconfig.WithRegion(creds.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &session{
		stacks:  cloudformation.NewFromConfig(cfg),
		dns:     route53.NewFromConfig(cfg),
		objects: s3.NewFromConfig(cfg),
		presign: sts.NewPresignClient(sts.NewFromConfig(cfg)),
	}, nil
}

func (s *session) DescribeStack(ctx context.Context, name string) (*cftypes.Stack, error) {
	out, err := s.stacks.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(name)})
	if err != nil {
		return nil, err
	}
	if len(out.Stacks) == 0 {
		return nil, stackMissing(name)
	}
	return &out.Stacks[0], nil
}

func (s *session) CreateStack(ctx context.Context, input *cloudformation.CreateStackInput) error {
	_, err := s.stacks.CreateStack(ctx, input)
	return err
}

func (s *session) UpdateStack(ctx context.Context, input *cloudformation.UpdateStackInput) error {
	_, err := s.stacks.UpdateStack(ctx, input)
	return err
}

func (s *session) DeleteStack(ctx context.Context, name string) error {
	_, err := s.stacks.DeleteStack(ctx, &cloudformation.DeleteStackInput{StackName: aws.String(name)})
	return err
}

func (s *session) HeadObject(ctx context.Context, bucket, key string) error {
	_, err := s.objects.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	return err
}

func (s *session) ListHostedZones(ctx context.Context) ([]r53types.HostedZone, error) {
	var zones []r53types.HostedZone
	paginator := route53.NewListHostedZonesPaginator(s.dns, &route53.ListHostedZonesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		zones = append(zones, page.HostedZones...)
	}
	return zones, nil
}

func (s *session) ChangeRecord(ctx context.Context, zoneID string, change r53types.Change) error {
	_, err := s.dns.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
		ChangeBatch:  &r53types.ChangeBatch{Changes: []r53types.Change{change}},
	})
	return err
}

func (s *session) PresignCallerIdentity(ctx context.Context, cluster string) (string, error) {
	req, err := s.presign.PresignGetCallerIdentity(ctx, &sts.GetCallerIdentityInput{}, func(o *sts.PresignOptions) {
		o.ClientOptions = append(o.ClientOptions, func(o *sts.Options) {
			o.APIOptions = append(o.APIOptions, smithyhttp.AddHeaderValue(clusterIDHeader, cluster))
		})
	})
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
