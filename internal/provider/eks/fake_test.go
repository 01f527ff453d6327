package eks

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/smithy-go"
)

// fakeAPI is an in-memory API. Every stack read advances the stack through
// the statuses queued in progress; the last one sticks.
type fakeAPI struct {
	mu sync.Mutex

	stacks   map[string]*cftypes.Stack
	progress []cftypes.StackStatus
	noUpdate bool
	objects  map[string]bool
	zones    []r53types.HostedZone

	created []*cloudformation.CreateStackInput
	updated []*cloudformation.UpdateStackInput
	deleted []string
	changes []r53types.Change
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		stacks:  map[string]*cftypes.Stack{},
		objects: map[string]bool{"hub-clusters-creator-eu-west-2/eks/v0.0.1/aws-cluster.yaml": true},
		zones: []r53types.HostedZone{
			{Id: aws.String("/hostedzone/Z1"), Name: aws.String("example.com.")},
			{Id: aws.String("/hostedzone/Z2"), Name: aws.String("sub.example.com.")},
		},
	}
}

func (f *fakeAPI) DescribeStack(_ context.Context, name string) (*cftypes.Stack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stack, ok := f.stacks[name]
	if !ok {
		return nil, stackMissing(name)
	}
	if len(f.progress) > 0 {
		stack.StackStatus = f.progress[0]
		if len(f.progress) > 1 {
			f.progress = f.progress[1:]
		}
	}
	if stack.StackStatus == cftypes.StackStatusDeleteComplete {
		delete(f.stacks, name)
	}
	copied := *stack
	return &copied, nil
}

func (f *fakeAPI) CreateStack(_ context.Context, input *cloudformation.CreateStackInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, input)
	f.stacks[*input.StackName] = &cftypes.Stack{
		StackName:   input.StackName,
		StackId:     aws.String("arn:aws:cloudformation:eu-west-2:123:stack/" + *input.StackName),
		StackStatus: cftypes.StackStatusCreateInProgress,
		Outputs: []cftypes.Output{
			{OutputKey: aws.String("EKSEndpoint"), OutputValue: aws.String("ABC.gr7.eu-west-2.eks.amazonaws.com")},
			{OutputKey: aws.String("EKSCA"), OutputValue: aws.String("Y2E=")},
		},
	}
	if len(f.progress) == 0 {
		f.progress = []cftypes.StackStatus{cftypes.StackStatusCreateInProgress, cftypes.StackStatusCreateComplete}
	}
	return nil
}

func (f *fakeAPI) UpdateStack(_ context.Context, input *cloudformation.UpdateStackInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, input)
	if f.noUpdate {
		return &smithy.GenericAPIError{Code: "ValidationError", Message: "No updates are to be performed."}
	}
	f.progress = []cftypes.StackStatus{cftypes.StackStatusUpdateInProgress, cftypes.StackStatusUpdateComplete}
	return nil
}

func (f *fakeAPI) DeleteStack(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, name)
	f.progress = []cftypes.StackStatus{cftypes.StackStatusDeleteInProgress, cftypes.StackStatusDeleteComplete}
	return nil
}

func (f *fakeAPI) HeadObject(_ context.Context, bucket, key string) error {
	if !f.objects[bucket+"/"+key] {
		return &smithy.GenericAPIError{Code: "NotFound", Message: "Not Found"}
	}
	return nil
}

func (f *fakeAPI) ListHostedZones(context.Context) ([]r53types.HostedZone, error) {
	return f.zones, nil
}

func (f *fakeAPI) ChangeRecord(_ context.Context, zoneID string, change r53types.Change) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if zoneID != "/hostedzone/Z1" {
		return errors.New("unexpected zone " + zoneID)
	}
	f.changes = append(f.changes, change)
	return nil
}

func (f *fakeAPI) PresignCallerIdentity(_ context.Context, cluster string) (string, error) {
	return "https://sts.amazonaws.com/?Action=GetCallerIdentity&Version=2011-06-15&X-Amz-Signature=abc&cluster=" + cluster, nil
}
