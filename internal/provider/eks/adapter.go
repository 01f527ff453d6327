package eks

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	appsv1 "k8s.io/api/apps/v1"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8shub/internal/clustererr"
	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/k8sclient"
	"github.com/imamik/k8shub/internal/metrics"
	"github.com/imamik/k8shub/internal/provider"
	"github.com/imamik/k8shub/internal/reconcile"
	"github.com/imamik/k8shub/internal/util/naming"
	"github.com/imamik/k8shub/internal/util/retry"
)

const (
	tokenPrefix = "k8s-aws-v1."
	dnsTTL      = 60
)

// Adapter provisions EKS clusters in one account and region.
type Adapter struct {
	api      API
	creds    *config.EKSCredentials
	timeouts *config.Timeouts
}

var _ provider.Adapter = (*Adapter)(nil)

// New returns an Adapter using api.
func New(api API, creds *config.EKSCredentials, timeouts *config.Timeouts) *Adapter {
	return &Adapter{api: api, creds: creds, timeouts: timeouts}
}

// Name implements provider.Adapter.
func (a *Adapter) Name() provider.Name { return provider.EKS }

// CreateInfrastructure implements provider.Adapter. An existing stack is
// updated with the current parameters.
func (a *Adapter) CreateInfrastructure(ctx context.Context, name string, c *config.Cluster) (*provider.Endpoint, error) {
	stackName := naming.Stack(name)
	logger := log.FromContext(ctx).WithValues("provider", provider.EKS, "cluster", name, "stack", stackName)

	params, err := stackParameters(name, c, a.creds)
	if err != nil {
		return nil, clustererr.Infrastructure("provision stack", stackName, err)
	}
	url := templateURL(a.creds.Bucket, a.creds.TemplateVersion)

	current, err := a.describe(ctx, stackName)
	if err != nil {
		return nil, clustererr.Infrastructure("provision stack", stackName, err)
	}

	if current != nil && stackStatus(current.StackStatus) == reconcile.StatusRunning {
		logger.Info("stack operation already underway, waiting for completion", "status", current.StackStatus)
		if err := a.waitStack(ctx, stackName); err != nil {
			return nil, clustererr.Infrastructure("provision stack", stackName, err)
		}
	}

	action := "created"
	switch {
	case current == nil:
		logger.Info("creating stack", "template", url)
		err = a.api.CreateStack(ctx, createStackInput(name, url, params))
	default:
		logger.Info("updating stack", "template", url)
		action = "updated"
		err = a.api.UpdateStack(ctx, updateStackInput(name, url, params))
		if isNoUpdates(err) {
			logger.V(1).Info("stack is up to date")
			action, err = string(reconcile.ActionExists), nil
		}
	}
	if err != nil {
		metrics.RecordEnsure("stack", "failed")
		return nil, clustererr.Infrastructure("provision stack", stackName, err)
	}

	if action != string(reconcile.ActionExists) {
		if err := a.waitStack(ctx, stackName); err != nil {
			metrics.RecordEnsure("stack", "failed")
			return nil, clustererr.Infrastructure("provision stack", stackName, err)
		}
	}
	metrics.RecordEnsure("stack", action)

	stack, err := a.api.DescribeStack(ctx, stackName)
	if err != nil {
		return nil, clustererr.Infrastructure("read stack outputs", stackName, err)
	}
	ep, err := endpointOf(outputs(stack))
	if err != nil {
		return nil, clustererr.Infrastructure("read stack outputs", stackName, err)
	}
	ep.Locations = c.Zones()
	logger.Info("stack ready", "action", action, "endpoint", ep.Host)
	return ep, nil
}

func (a *Adapter) describe(ctx context.Context, stackName string) (*cftypes.Stack, error) {
	stack, err := a.api.DescribeStack(ctx, stackName)
	if isStackMissing(err) {
		return nil, nil
	}
	return stack, err
}

func (a *Adapter) waitStack(ctx context.Context, stackName string) error {
	pending := &reconcile.Operation{ID: stackName, Status: reconcile.StatusRunning}
	_, err := reconcile.Wait(ctx, pending, a.refreshStack, a.timeouts.Stack("stack "+stackName))
	return err
}

func (a *Adapter) refreshStack(ctx context.Context, op *reconcile.Operation) (*reconcile.Operation, error) {
	stack, err := a.api.DescribeStack(ctx, op.ID)
	if err != nil {
		return nil, err
	}
	return stackOperation(stack), nil
}

// endpointOf reads the API server address and CA from the stack outputs.
func endpointOf(out map[string]string) (*provider.Endpoint, error) {
	host := out[outputEndpoint]
	if host == "" {
		return nil, fmt.Errorf("stack has no %s output", outputEndpoint)
	}
	if !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	ep := &provider.Endpoint{Host: host}
	if ca := out[outputCA]; ca != "" {
		data, err := base64.StdEncoding.DecodeString(ca)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s output: %w", outputCA, err)
		}
		ep.CAData = data
	}
	return ep, nil
}

// Credential implements provider.Adapter with an IAM authenticator token:
// the presigned GetCallerIdentity URL, base64url encoded without padding.
func (a *Adapter) Credential(ctx context.Context, name string, _ *provider.Endpoint) (*provider.Credential, error) {
	url, err := a.api.PresignCallerIdentity(ctx, name)
	if err != nil {
		return nil, clustererr.Infrastructure("obtain credential", name, err)
	}
	return &provider.Credential{BearerToken: token(url)}, nil
}

func token(presignedURL string) string {
	return tokenPrefix + base64.RawURLEncoding.EncodeToString([]byte(presignedURL))
}

// InitializeNetworking lets the worker nodes join: the aws-auth ConfigMap
// maps their instance role. An existing aws-auth is never overwritten.
func (a *Adapter) InitializeNetworking(ctx context.Context, kube k8sclient.Client, name string, _ *config.Cluster, _ *provider.Endpoint) error {
	auth, err := awsAuth(naming.InstanceRole(a.creds.AccountID, name))
	if err != nil {
		return clustererr.Initializer("build aws-auth", authConfigMap, err)
	}

	exists, err := kube.Exists(ctx, auth)
	if err != nil {
		return clustererr.Initializer("check aws-auth", auth.String(), err)
	}
	if exists {
		log.FromContext(ctx).V(1).Info("aws-auth already present, skipping")
		return nil
	}

	if err := kube.Create(ctx, auth); err != nil {
		return clustererr.Initializer("apply aws-auth", auth.String(), err)
	}

	resource := "daemonset " + systemNamespace + "/" + nodeDaemonSet
	_, err = retry.Await(ctx, func(ctx context.Context) (bool, *appsv1.DaemonSet, error) {
		ds, err := kube.GetDaemonSet(ctx, systemNamespace, nodeDaemonSet)
		if err != nil {
			return false, nil, err
		}
		return ds.Status.NumberReady > 0, ds, nil
	}, a.timeouts.Resource(resource))
	if err != nil {
		return clustererr.Initializer("wait for nodes", resource, err)
	}
	log.FromContext(ctx).Info("worker nodes joined", "cluster", name)
	return nil
}

// UpsertRecord implements provider.Adapter.
func (a *Adapter) UpsertRecord(ctx context.Context, record provider.Record) error {
	zoneID, err := a.hostedZone(ctx, record.Zone)
	if err != nil {
		return err
	}

	change := r53types.Change{
		Action: r53types.ChangeActionUpsert,
		ResourceRecordSet: &r53types.ResourceRecordSet{
			Name:            aws.String(record.FQDN()),
			Type:            r53types.RRType(record.Type()),
			TTL:             aws.Int64(dnsTTL),
			ResourceRecords: []r53types.ResourceRecord{{Value: aws.String(record.Address)}},
		},
	}
	if err := a.api.ChangeRecord(ctx, zoneID, change); err != nil {
		return fmt.Errorf("failed to update record %s: %w", record.FQDN(), err)
	}
	log.FromContext(ctx).Info("dns record updated", "record", record.FQDN(), "type", record.Type(), "address", record.Address)
	return nil
}

// hostedZone finds the id of the hosted zone named "<domain>.".
func (a *Adapter) hostedZone(ctx context.Context, domain string) (string, error) {
	zones, err := a.api.ListHostedZones(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list hosted zones: %w", err)
	}
	want := strings.TrimSuffix(domain, ".") + "."
	for _, z := range zones {
		if aws.ToString(z.Name) == want {
			return aws.ToString(z.Id), nil
		}
	}
	return "", fmt.Errorf("no hosted zone found for %q", domain)
}

// Destroy implements provider.Adapter.
func (a *Adapter) Destroy(ctx context.Context, name string) error {
	stackName := naming.Stack(name)
	err := (&reconcile.DeleteOperation{
		Name: stackName,
		Kind: "stack",
		Exists: func(ctx context.Context) (bool, error) {
			stack, err := a.describe(ctx, stackName)
			return stack != nil && stack.StackStatus != cftypes.StackStatusDeleteComplete, err
		},
		Delete: func(ctx context.Context) (*reconcile.Operation, error) {
			if err := a.api.DeleteStack(ctx, stackName); err != nil {
				return nil, err
			}
			return &reconcile.Operation{ID: stackName, Status: reconcile.StatusRunning}, nil
		},
		Refresh: a.refreshDeletion,
		Poll:    a.timeouts.Stack("deletion of stack " + stackName),
	}).Execute(ctx)
	return clustererr.Infrastructure("destroy stack", stackName, err)
}

// refreshDeletion reports DONE once the stack is gone.
func (a *Adapter) refreshDeletion(ctx context.Context, op *reconcile.Operation) (*reconcile.Operation, error) {
	stack, err := a.describe(ctx, op.ID)
	if err != nil {
		return nil, err
	}
	next := *op
	switch {
	case stack == nil || stack.StackStatus == cftypes.StackStatusDeleteComplete:
		next.Status = reconcile.StatusDone
	case stack.StackStatus == cftypes.StackStatusDeleteFailed:
		next.Status = reconcile.StatusFailed
		next.Message = aws.ToString(stack.StackStatusReason)
		if next.Message == "" {
			next.Message = string(stack.StackStatus)
		}
	default:
		next.Status = reconcile.StatusRunning
	}
	return &next, nil
}
