package bootstrap

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/yaml"

	"github.com/imamik/k8shub/internal/clustererr"
	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/k8sclient"
	"github.com/imamik/k8shub/internal/util/retry"
)

const passwordLength = 12

// Outcome is what a bootstrapped cluster hands back.
type Outcome struct {
	// DashboardAddress is the IP or hostname the dashboard is published on.
	DashboardAddress string
	GrafanaPassword  string
	GrafanaAPIKey    string
	// Token authenticates the sysadmin service account.
	Token string
}

// Driver bootstraps clusters. It holds no per-cluster state.
type Driver struct {
	timeouts *config.Timeouts
}

// New creates a Driver polling with the given timeouts.
func New(timeouts *config.Timeouts) *Driver {
	if timeouts == nil {
		timeouts = config.LoadTimeouts()
	}
	return &Driver{timeouts: timeouts}
}

// Run bootstraps the cluster behind kube. When values carry no dashboard
// password, the one an earlier run deployed is reused, or a new one is
// generated; either way it is written back into values.
func (d *Driver) Run(ctx context.Context, kube k8sclient.Client, values config.Values) (*Outcome, error) {
	logger := log.FromContext(ctx).WithName("bootstrap")
	ctx = log.IntoContext(ctx, logger)

	c, err := config.Decode(values)
	if err != nil {
		return nil, clustererr.Initializer("decode", "cluster values", err)
	}

	logger.Info("waiting for the kubernetes API server")
	if err := d.waitForAPIServer(ctx, kube); err != nil {
		return nil, clustererr.Initializer("wait", "api server", err)
	}

	if c.GrafanaPassword == "" {
		password, err := dashboardPassword(ctx, kube)
		if err != nil {
			return nil, clustererr.Initializer("resolve", "grafana password", err)
		}
		c.GrafanaPassword = password
		values["grafana_password"] = password
	}

	logger.Info("applying cluster identities")
	objects, err := identities()
	if err != nil {
		return nil, clustererr.Initializer("render", "identities", err)
	}
	if c.EnablePodSecurityPolicies {
		logger.Info("binding the unprivileged pod security policy")
		psp, err := podSecurity()
		if err != nil {
			return nil, clustererr.Initializer("render", PSPBinding, err)
		}
		objects = append(objects, psp...)
	}
	if err := k8sclient.EnsureAll(ctx, kube, objects...); err != nil {
		return nil, clustererr.Initializer("ensure", "identities", err)
	}

	if err := d.runInstaller(ctx, kube, c); err != nil {
		return nil, err
	}

	key, err := apiKey(ctx, kube)
	if err != nil {
		return nil, err
	}

	address, err := d.dashboardAddress(ctx, kube)
	if err != nil {
		return nil, clustererr.Initializer("wait", LoggingNamespace+"/"+DashboardName, err)
	}
	logger.Info("dashboard published", "address", address)

	token, err := d.adminToken(ctx, kube)
	if err != nil {
		return nil, clustererr.Initializer("read", SystemNamespace+"/"+AdminToken, err)
	}

	return &Outcome{
		DashboardAddress: address,
		GrafanaPassword:  c.GrafanaPassword,
		GrafanaAPIKey:    key,
		Token:            token,
	}, nil
}

// waitForAPIServer lists nodes until the API server answers. Every failure
// counts against the attempt budget.
func (d *Driver) waitForAPIServer(ctx context.Context, kube k8sclient.Client) error {
	_, err := retry.Await(ctx, func(ctx context.Context) (bool, struct{}, error) {
		if _, err := kube.ListNodes(ctx); err != nil {
			log.FromContext(ctx).V(1).Info("api server not ready", "error", err.Error())
			return false, struct{}{}, err
		}
		return true, struct{}{}, nil
	}, d.timeouts.APIServer("api server"))
	return err
}

// runInstaller hands the chart bundle to the installer job and waits for it
// to succeed.
func (d *Driver) runInstaller(ctx context.Context, kube k8sclient.Client, c *config.Cluster) error {
	logger := log.FromContext(ctx)
	resource := SystemNamespace + "/" + JobName

	dashboard, err := renderDashboard(newDashboardValues(c))
	if err != nil {
		return clustererr.Initializer("render", resource, err)
	}
	cm, err := bundle(dashboard)
	if err != nil {
		return clustererr.Initializer("render", resource, err)
	}
	job, err := installer(c.BootstrapImage)
	if err != nil {
		return clustererr.Initializer("render", resource, err)
	}

	logger.Info("starting the bootstrap job", "image", c.BootstrapImage)
	if err := k8sclient.EnsureAll(ctx, kube, cm, job); err != nil {
		return clustererr.Initializer("ensure", resource, err)
	}

	_, err = retry.Await(ctx, func(ctx context.Context) (bool, struct{}, error) {
		job, err := kube.GetJob(ctx, SystemNamespace, JobName)
		if err != nil {
			return false, struct{}{}, err
		}
		return job.Status.Succeeded > 0, struct{}{}, nil
	}, d.timeouts.Job("job "+resource))
	if err != nil {
		return clustererr.Initializer("wait", resource, err)
	}
	logger.Info("bootstrap job completed")
	return nil
}

// dashboardPassword returns the password rendered into an existing bundle,
// or a fresh one when the installer was never handed a bundle.
func dashboardPassword(ctx context.Context, kube k8sclient.Client) (string, error) {
	cm, err := kube.GetConfigMap(ctx, SystemNamespace, JobName)
	switch {
	case apierrors.IsNotFound(err):
		return generatePassword(passwordLength)
	case err != nil:
		return "", err
	}

	var bundled struct {
		Grafana struct {
			AdminPassword string `json:"adminPassword"`
		} `json:"grafana"`
	}
	if err := yaml.Unmarshal([]byte(cm.Data[bundleDashboardKey]), &bundled); err != nil {
		return "", fmt.Errorf("failed to parse %s in configmap %s/%s: %w", bundleDashboardKey, SystemNamespace, JobName, err)
	}
	if bundled.Grafana.AdminPassword == "" {
		return generatePassword(passwordLength)
	}
	log.FromContext(ctx).V(1).Info("reusing the deployed dashboard password")
	return bundled.Grafana.AdminPassword, nil
}

// apiKey reads the dashboard API key published by the installer. The job has
// finished at this point, so a missing secret is final.
func apiKey(ctx context.Context, kube k8sclient.Client) (string, error) {
	resource := LoggingNamespace + "/" + APIKeySecret
	secret, err := kube.GetSecret(ctx, LoggingNamespace, APIKeySecret)
	if apierrors.IsNotFound(err) {
		return "", clustererr.Initializer("read", resource, fmt.Errorf("secret not found: %w", err))
	}
	if err != nil {
		return "", clustererr.Initializer("read", resource, err)
	}
	key, ok := secret.Data[APIKeyField]
	if !ok || len(key) == 0 {
		return "", clustererr.Initializer("read", resource, fmt.Errorf("secret has no %q entry", APIKeyField))
	}
	return string(key), nil
}

// dashboardAddress waits until the dashboard is reachable. A NodePort
// service is published through its ingress, anything else through the
// service load balancer.
func (d *Driver) dashboardAddress(ctx context.Context, kube k8sclient.Client) (string, error) {
	svc, err := retry.Await(ctx, func(ctx context.Context) (bool, *corev1.Service, error) {
		svc, err := kube.GetService(ctx, LoggingNamespace, DashboardName)
		if apierrors.IsNotFound(err) {
			return false, nil, nil
		}
		if err != nil {
			return false, nil, err
		}
		return true, svc, nil
	}, d.timeouts.Resource("service "+LoggingNamespace+"/"+DashboardName))
	if err != nil {
		return "", err
	}

	if svc.Spec.Type == corev1.ServiceTypeNodePort {
		log.FromContext(ctx).Info("waiting for the dashboard ingress")
		return retry.Await(ctx, func(ctx context.Context) (bool, string, error) {
			ing, err := kube.GetIngress(ctx, LoggingNamespace, DashboardName)
			if apierrors.IsNotFound(err) {
				return false, "", nil
			}
			if err != nil {
				return false, "", err
			}
			address := ingressAddress(ing.Status.LoadBalancer.Ingress)
			return address != "", address, nil
		}, d.timeouts.Resource("ingress "+LoggingNamespace+"/"+DashboardName))
	}

	log.FromContext(ctx).Info("waiting for the dashboard load balancer")
	return retry.Await(ctx, func(ctx context.Context) (bool, string, error) {
		svc, err := kube.GetService(ctx, LoggingNamespace, DashboardName)
		if err != nil {
			return false, "", err
		}
		address := serviceAddress(svc.Status.LoadBalancer.Ingress)
		return address != "", address, nil
	}, d.timeouts.Resource("service "+LoggingNamespace+"/"+DashboardName))
}

// ingressAddress returns the first ingress point, IP first.
func ingressAddress(points []networkingv1.IngressLoadBalancerIngress) string {
	if len(points) == 0 {
		return ""
	}
	if points[0].IP != "" {
		return points[0].IP
	}
	return points[0].Hostname
}

// serviceAddress returns the first load balancer point, hostname first.
func serviceAddress(points []corev1.LoadBalancerIngress) string {
	if len(points) == 0 {
		return ""
	}
	if points[0].Hostname != "" {
		return points[0].Hostname
	}
	return points[0].IP
}

// adminToken waits for the token controller to populate sysadmin-token.
func (d *Driver) adminToken(ctx context.Context, kube k8sclient.Client) (string, error) {
	return retry.Await(ctx, func(ctx context.Context) (bool, string, error) {
		secret, err := kube.GetSecret(ctx, SystemNamespace, AdminToken)
		if err != nil {
			return false, "", err
		}
		token := secret.Data[corev1.ServiceAccountTokenKey]
		return len(token) > 0, string(token), nil
	}, d.timeouts.Resource("secret "+SystemNamespace+"/"+AdminToken))
}
