package eks

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"

	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/reconcile"
	"github.com/imamik/k8shub/internal/util/labels"
	"github.com/imamik/k8shub/internal/util/naming"
)

const (
	templateName       = "aws-cluster"
	stackTimeoutMins   = 20
	remoteAccessCIDR   = "0.0.0.0/0"
	outputEndpoint     = "EKSEndpoint"
	outputCA           = "EKSCA"
	privateSubnetBits  = 3 // /19 inside a /16
	publicSubnetBits   = 4 // /20 inside a /16
	publicSubnetOffset = 8 // public subnets start in the upper half
)

var capabilities = []cftypes.Capability{cftypes.CapabilityCapabilityIam, cftypes.CapabilityCapabilityNamedIam}

// templateKey is the object key of the cluster template in the bucket.
func templateKey(version string) string {
	return strings.TrimSuffix(version, "/") + "/" + templateName + ".yaml"
}

func templateURL(bucket, version string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, templateKey(version))
}

// subnets returns the private and public subnet CIDRs, deriving empty ones
// from the VPC CIDR.
func subnets(c *config.Cluster) (private, public [3]string, err error) {
	private, public = c.PrivateSubnets(), c.PublicSubnets()
	for i := range 3 {
		if private[i] == "" {
			if private[i], err = config.CIDRSubnet(c.Network, privateSubnetBits, i); err != nil {
				return private, public, fmt.Errorf("failed to derive private subnet %d: %w", i+1, err)
			}
		}
		if public[i] == "" {
			if public[i], err = config.CIDRSubnet(c.Network, publicSubnetBits, publicSubnetOffset+i); err != nil {
				return private, public, fmt.Errorf("failed to derive public subnet %d: %w", i+1, err)
			}
		}
	}
	return private, public, nil
}

// stackParameters maps c onto the parameters of the cluster template.
func stackParameters(name string, c *config.Cluster, creds *config.EKSCredentials) ([]cftypes.Parameter, error) {
	private, public, err := subnets(c)
	if err != nil {
		return nil, err
	}

	values := []struct{ key, value string }{
		{"ClusterName", name},
		{"AvailabilityZones", strings.Join(c.Zones(), ",")},
		{"BucketName", creds.Bucket},
		{"BucketVersion", creds.TemplateVersion},
		{"ClusterAutoScaler", "Enabled"},
		{"KeyPairName", c.SSHKeypair},
		{"KubernetesVersion", c.Version},
		{"NodeGroupName", naming.NodeGroup(name)},
		{"NodeInstanceType", c.MachineType},
		{"NodeVolumeSize", strconv.Itoa(c.DiskSizeGB)},
		{"NumberOfAZs", strconv.Itoa(len(c.Zones()))},
		{"NumberOfNodes", strconv.Itoa(c.Size)},
		{"PrivateSubnet1CIDR", private[0]},
		{"PrivateSubnet2CIDR", private[1]},
		{"PrivateSubnet3CIDR", private[2]},
		{"PublicSubnet1CIDR", public[0]},
		{"PublicSubnet2CIDR", public[1]},
		{"PublicSubnet3CIDR", public[2]},
		{"RemoteAccessCIDR", remoteAccessCIDR},
		{"VPCCIDR", c.Network},
	}

	params := make([]cftypes.Parameter, 0, len(values))
	for _, v := range values {
		params = append(params, cftypes.Parameter{
			ParameterKey:   aws.String(v.key),
			ParameterValue: aws.String(v.value),
		})
	}
	return params, nil
}

func createStackInput(name, url string, params []cftypes.Parameter) *cloudformation.CreateStackInput {
	return &cloudformation.CreateStackInput{
		StackName:        aws.String(naming.Stack(name)),
		TemplateURL:      aws.String(url),
		Parameters:       params,
		Capabilities:     capabilities,
		OnFailure:        cftypes.OnFailureDoNothing,
		TimeoutInMinutes: aws.Int32(stackTimeoutMins),
		Tags:             stackTags(name),
	}
}

func stackTags(name string) []cftypes.Tag {
	var tags []cftypes.Tag
	labels.NewLabelBuilder(name).WithProvider("eks").Each(func(k, v string) {
		tags = append(tags, cftypes.Tag{Key: aws.String(k), Value: aws.String(v)})
	})
	return tags
}

func updateStackInput(name, url string, params []cftypes.Parameter) *cloudformation.UpdateStackInput {
	return &cloudformation.UpdateStackInput{
		StackName:    aws.String(naming.Stack(name)),
		TemplateURL:  aws.String(url),
		Parameters:   params,
		Capabilities: capabilities,
	}
}

// stackStatus maps a CloudFormation stack status onto an operation status.
// Rollbacks count as failures even when they complete.
func stackStatus(status cftypes.StackStatus) reconcile.Status {
	s := string(status)
	switch {
	case strings.Contains(s, "ROLLBACK"), strings.HasSuffix(s, "_FAILED"):
		if strings.HasSuffix(s, "_IN_PROGRESS") {
			return reconcile.StatusRunning
		}
		return reconcile.StatusFailed
	case strings.HasSuffix(s, "_COMPLETE"):
		return reconcile.StatusDone
	default:
		return reconcile.StatusRunning
	}
}

func stackOperation(stack *cftypes.Stack) *reconcile.Operation {
	op := &reconcile.Operation{
		ID:     aws.ToString(stack.StackName),
		Target: aws.ToString(stack.StackId),
		Status: stackStatus(stack.StackStatus),
	}
	if op.Status == reconcile.StatusFailed {
		op.Message = fmt.Sprintf("%s: %s", stack.StackStatus, aws.ToString(stack.StackStatusReason))
	}
	return op
}

func outputs(stack *cftypes.Stack) map[string]string {
	out := make(map[string]string, len(stack.Outputs))
	for _, o := range stack.Outputs {
		out[aws.ToString(o.OutputKey)] = aws.ToString(o.OutputValue)
	}
	return out
}
