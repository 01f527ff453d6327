package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"sigs.k8s.io/yaml"

	"github.com/imamik/k8shub/internal/clustererr"
	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/k8sclient"
	"github.com/imamik/k8shub/internal/k8sclient/k8sfake"
	"github.com/imamik/k8shub/internal/util/ptr"
	"github.com/imamik/k8shub/internal/util/retry"
)

func testValues(serviceType string) config.Values {
	return config.Values{
		"name":                 "hub-1",
		"domain":               "example.com",
		"grafana_hostname":     "grafana",
		"grafana_password":     "",
		"grafana_version":      "6.2.5",
		"grafana_disk_size":    10,
		"grafana_service_type": serviceType,
		"bootstrap_image":      DefaultImage,
	}
}

// readyCluster returns a fake cluster in which the installer has already
// published everything the driver collects.
func readyCluster(serviceType corev1.ServiceType) *k8sfake.Client {
	kube := k8sfake.New()
	kube.Nodes = []corev1.Node{{}}
	kube.Jobs[k8sfake.Key(SystemNamespace, JobName)] = &batchv1.Job{
		Status: batchv1.JobStatus{Succeeded: 1},
	}
	kube.Secrets[k8sfake.Key(LoggingNamespace, APIKeySecret)] = &corev1.Secret{
		Data: map[string][]byte{APIKeyField: []byte("api-key")},
	}
	kube.Secrets[k8sfake.Key(SystemNamespace, AdminToken)] = &corev1.Secret{
		Data: map[string][]byte{corev1.ServiceAccountTokenKey: []byte("sa-token")},
	}
	kube.Services[k8sfake.Key(LoggingNamespace, DashboardName)] = &corev1.Service{
		Spec: corev1.ServiceSpec{Type: serviceType},
		Status: corev1.ServiceStatus{LoadBalancer: corev1.LoadBalancerStatus{
			Ingress: []corev1.LoadBalancerIngress{{Hostname: "lb.example.com"}},
		}},
	}
	kube.Ingresses[k8sfake.Key(LoggingNamespace, DashboardName)] = &networkingv1.Ingress{
		Status: networkingv1.IngressStatus{LoadBalancer: networkingv1.IngressLoadBalancerStatus{
			Ingress: []networkingv1.IngressLoadBalancerIngress{{IP: "35.1.2.3"}},
		}},
	}
	return kube
}

func TestRun_NodePortPublishesThroughIngress(t *testing.T) {
	t.Parallel()
	kube := readyCluster(corev1.ServiceTypeNodePort)
	values := testValues("NodePort")

	out, err := New(config.TestTimeouts()).Run(context.Background(), kube, values)
	require.NoError(t, err)

	assert.Equal(t, "35.1.2.3", out.DashboardAddress)
	assert.Equal(t, "api-key", out.GrafanaAPIKey)
	assert.Equal(t, "sa-token", out.Token)
	assert.Len(t, out.GrafanaPassword, passwordLength)
	assert.Equal(t, out.GrafanaPassword, values["grafana_password"], "generated password is written back")

	assert.Equal(t, []string{
		"ServiceAccount sysadmin",
		"Namespace hub-agent",
		"ServiceAccount robot",
		"Secret sysadmin-token",
		"ClusterRoleBinding cluster:admin",
		"ConfigMap bootstrap",
		"Job bootstrap",
	}, kube.CreatedKinds())

	_, _, ingresses, _ := kube.Calls()
	assert.Equal(t, 1, ingresses)
}

func TestRun_LoadBalancerUsesServiceHostname(t *testing.T) {
	t.Parallel()
	kube := readyCluster(corev1.ServiceTypeLoadBalancer)

	out, err := New(config.TestTimeouts()).Run(context.Background(), kube, testValues("LoadBalancer"))
	require.NoError(t, err)

	assert.Equal(t, "lb.example.com", out.DashboardAddress)
	_, _, ingresses, _ := kube.Calls()
	assert.Zero(t, ingresses)
}

func TestRun_KeepsConfiguredPassword(t *testing.T) {
	t.Parallel()
	values := testValues("NodePort")
	values["grafana_password"] = "s3cret"

	out, err := New(config.TestTimeouts()).Run(context.Background(), readyCluster(corev1.ServiceTypeNodePort), values)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", out.GrafanaPassword)
	assert.Equal(t, "s3cret", values["grafana_password"])
}

func TestRun_PodSecurityPolicies(t *testing.T) {
	t.Parallel()
	kube := readyCluster(corev1.ServiceTypeNodePort)
	values := testValues("NodePort")
	values["enable_pod_security_policies"] = true

	_, err := New(config.TestTimeouts()).Run(context.Background(), kube, values)
	require.NoError(t, err)

	kinds := kube.CreatedKinds()
	assert.Contains(t, kinds, "ClusterRole default:psp")
	assert.Contains(t, kinds, "ClusterRoleBinding default:psp")
}

func TestRun_IsIdempotent(t *testing.T) {
	t.Parallel()
	kube := readyCluster(corev1.ServiceTypeNodePort)
	driver := New(config.TestTimeouts())

	firstValues := testValues("NodePort")
	first, err := driver.Run(context.Background(), kube, firstValues)
	require.NoError(t, err)
	created := len(kube.Created)

	secondValues := testValues("NodePort")
	second, err := driver.Run(context.Background(), kube, secondValues)
	require.NoError(t, err)
	assert.Len(t, kube.Created, created, "second run creates nothing")

	assert.Equal(t, first, second)
	assert.Equal(t, firstValues["grafana_password"], secondValues["grafana_password"],
		"the password deployed by the first run is reported again")
}

func TestRun_ReusesDeployedPassword(t *testing.T) {
	t.Parallel()
	kube := readyCluster(corev1.ServiceTypeNodePort)
	dashboard, err := renderDashboard(dashboardValues{Hostname: "grafana.example.com", Password: "deployed-pw", ServiceType: "NodePort"})
	require.NoError(t, err)
	kube.ConfigMaps[k8sfake.Key(SystemNamespace, JobName)] = &corev1.ConfigMap{
		Data: map[string]string{bundleDashboardKey: dashboard},
	}

	values := testValues("NodePort")
	out, err := New(config.TestTimeouts()).Run(context.Background(), kube, values)
	require.NoError(t, err)

	assert.Equal(t, "deployed-pw", out.GrafanaPassword)
	assert.Equal(t, "deployed-pw", values["grafana_password"])
}

func TestRun_UndecodableValues(t *testing.T) {
	t.Parallel()
	values := testValues("NodePort")
	values["grafana_disk_size"] = "ten"

	_, err := New(config.TestTimeouts()).Run(context.Background(), readyCluster(corev1.ServiceTypeNodePort), values)
	require.Error(t, err)
	assert.Equal(t, clustererr.KindInitializer, clustererr.Classify(err))
}

func TestRun_WaitsForAPIServer(t *testing.T) {
	t.Parallel()
	kube := readyCluster(corev1.ServiceTypeNodePort)
	kube.NodeErrors = 3

	_, err := New(config.TestTimeouts()).Run(context.Background(), kube, testValues("NodePort"))
	require.NoError(t, err)
	nodes, _, _, _ := kube.Calls()
	assert.Equal(t, 4, nodes)
}

func TestRun_APIServerNeverAnswers(t *testing.T) {
	t.Parallel()
	kube := readyCluster(corev1.ServiceTypeNodePort)
	kube.NodeErrors = 1 << 20

	_, err := New(config.TestTimeouts()).Run(context.Background(), kube, testValues("NodePort"))
	require.Error(t, err)
	assert.True(t, clustererr.IsInitializer(err))
	assert.Empty(t, kube.Created, "nothing is applied before the API server answers")
}

func TestRun_WaitsForJob(t *testing.T) {
	t.Parallel()
	kube := readyCluster(corev1.ServiceTypeNodePort)
	kube.JobHook = func(n int) (*batchv1.Job, error) {
		if n < 3 {
			return &batchv1.Job{}, nil
		}
		return &batchv1.Job{Status: batchv1.JobStatus{Succeeded: 1}}, nil
	}

	_, err := New(config.TestTimeouts()).Run(context.Background(), kube, testValues("NodePort"))
	require.NoError(t, err)
	_, jobs, _, _ := kube.Calls()
	assert.Equal(t, 3, jobs)
}

func TestRun_JobTimeout(t *testing.T) {
	t.Parallel()
	kube := readyCluster(corev1.ServiceTypeNodePort)
	kube.JobHook = func(int) (*batchv1.Job, error) { return &batchv1.Job{}, nil }
	timeouts := config.TestTimeouts()
	timeouts.JobTimeout = 20 * timeouts.JobInterval

	_, err := New(timeouts).Run(context.Background(), kube, testValues("NodePort"))
	require.Error(t, err)
	assert.True(t, clustererr.IsInitializer(err))
	assert.True(t, retry.IsTimeout(err))
	assert.Equal(t, clustererr.KindTimeout, clustererr.Classify(err))
}

func TestRun_MissingAPIKeyIsTerminal(t *testing.T) {
	t.Parallel()
	kube := readyCluster(corev1.ServiceTypeNodePort)
	delete(kube.Secrets, k8sfake.Key(LoggingNamespace, APIKeySecret))

	_, err := New(config.TestTimeouts()).Run(context.Background(), kube, testValues("NodePort"))
	require.Error(t, err)

	var initErr *clustererr.InitializerError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, "loki/grafana-api-key", initErr.Resource)
	assert.False(t, retry.IsTimeout(err))

	_, _, ingresses, _ := kube.Calls()
	assert.Zero(t, ingresses, "dashboard is not awaited once the key is missing")
}

func TestRun_APIKeyWithoutEntry(t *testing.T) {
	t.Parallel()
	kube := readyCluster(corev1.ServiceTypeNodePort)
	kube.Secrets[k8sfake.Key(LoggingNamespace, APIKeySecret)] = &corev1.Secret{}

	_, err := New(config.TestTimeouts()).Run(context.Background(), kube, testValues("NodePort"))
	require.Error(t, err)
	assert.True(t, clustererr.IsInitializer(err))
	assert.Contains(t, err.Error(), `no "key" entry`)
}

func TestRun_IngressPending(t *testing.T) {
	t.Parallel()
	kube := readyCluster(corev1.ServiceTypeNodePort)
	kube.IngressHook = func(n int) (*networkingv1.Ingress, error) {
		ing := &networkingv1.Ingress{}
		if n >= 4 {
			ing.Status.LoadBalancer.Ingress = []networkingv1.IngressLoadBalancerIngress{{Hostname: "ingress.example.com"}}
		}
		return ing, nil
	}

	out, err := New(config.TestTimeouts()).Run(context.Background(), kube, testValues("NodePort"))
	require.NoError(t, err)
	assert.Equal(t, "ingress.example.com", out.DashboardAddress, "hostname is the fallback without an IP")
}

func TestRun_ServiceIPFallback(t *testing.T) {
	t.Parallel()
	kube := readyCluster(corev1.ServiceTypeLoadBalancer)
	kube.Services[k8sfake.Key(LoggingNamespace, DashboardName)].Status.LoadBalancer.Ingress =
		[]corev1.LoadBalancerIngress{{IP: "52.0.0.1"}}

	out, err := New(config.TestTimeouts()).Run(context.Background(), kube, testValues("LoadBalancer"))
	require.NoError(t, err)
	assert.Equal(t, "52.0.0.1", out.DashboardAddress)
}

func TestRun_CreateFailure(t *testing.T) {
	t.Parallel()
	kube := readyCluster(corev1.ServiceTypeNodePort)
	kube.CreateErr = map[string]error{"Job": errors.New("forbidden")}

	_, err := New(config.TestTimeouts()).Run(context.Background(), kube, testValues("NodePort"))
	require.Error(t, err)
	assert.True(t, clustererr.IsInitializer(err))
	assert.Contains(t, err.Error(), "forbidden")
}

func TestInstallerJob(t *testing.T) {
	t.Parallel()
	d, err := installer("")
	require.NoError(t, err)

	var job batchv1.Job
	require.NoError(t, yaml.Unmarshal(d.Body, &job))
	assert.Equal(t, int32(20), ptr.Deref(job.Spec.BackoffLimit, 0))
	assert.True(t, ptr.Deref(job.Spec.Template.Spec.AutomountServiceAccountToken, false))

	pod := job.Spec.Template.Spec
	assert.Equal(t, AdminAccount, pod.ServiceAccountName)
	assert.Equal(t, corev1.RestartPolicyOnFailure, pod.RestartPolicy)
	require.Len(t, pod.Containers, 1)
	assert.Equal(t, DefaultImage, pod.Containers[0].Image)
	assert.Equal(t, []corev1.EnvVar{{Name: "CONFIG_DIR", Value: "/config"}}, pod.Containers[0].Env)
	assert.Equal(t, "/config/bundles", pod.Containers[0].VolumeMounts[0].MountPath)
	assert.Equal(t, JobName, pod.Volumes[0].ConfigMap.Name)
}

func TestRenderDashboard(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		values   dashboardValues
		contains []string
		excludes []string
	}{
		{
			name: "defaults",
			values: dashboardValues{
				Hostname: "grafana.example.com", DiskSize: 10, ServiceType: "NodePort",
			},
			contains: []string{"tag: \"latest\"", "size: 10Gi", "root_url: http://grafana.example.com", "enabled: true"},
			excludes: []string{"adminPassword", "auth.github"},
		},
		{
			name: "github sign in",
			values: dashboardValues{
				Hostname: "grafana.example.com", Password: "pw", Version: "6.2.5", DiskSize: 5, ServiceType: "LoadBalancer",
				GitHubClientID: "id", GitHubClientSecret: "secret", GitHubOrganization: "appvia",
			},
			contains: []string{"adminPassword: \"pw\"", "tag: \"6.2.5\"", "auth.github", "allowed_organizations: \"appvia\""},
		},
		{
			name: "github without organisation",
			values: dashboardValues{
				Hostname: "grafana.example.com", DiskSize: 5, ServiceType: "NodePort", GitHubClientID: "id",
			},
			contains: []string{"auth.github"},
			excludes: []string{"allowed_organizations"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := renderDashboard(tt.values)
			require.NoError(t, err)

			var parsed map[string]any
			require.NoError(t, yaml.Unmarshal([]byte(out), &parsed), out)
			assert.Contains(t, parsed, "grafana")

			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestRenderDashboard_IngressFollowsServiceType(t *testing.T) {
	t.Parallel()
	ingressEnabled := func(serviceType string) bool {
		out, err := renderDashboard(dashboardValues{Hostname: "g.example.com", DiskSize: 1, ServiceType: serviceType})
		require.NoError(t, err)
		var parsed struct {
			Grafana struct {
				Ingress struct {
					Enabled bool `json:"enabled"`
				} `json:"ingress"`
			} `json:"grafana"`
		}
		require.NoError(t, yaml.Unmarshal([]byte(out), &parsed))
		return parsed.Grafana.Ingress.Enabled
	}
	assert.True(t, ingressEnabled("NodePort"))
	assert.False(t, ingressEnabled("LoadBalancer"))
}

func TestGeneratePassword(t *testing.T) {
	t.Parallel()
	a, err := generatePassword(passwordLength)
	require.NoError(t, err)
	b, err := generatePassword(passwordLength)
	require.NoError(t, err)

	assert.Len(t, a, passwordLength)
	assert.NotEqual(t, a, b)
	assert.Empty(t, strings.Trim(a, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"))
}

func TestIdentities(t *testing.T) {
	t.Parallel()
	objects, err := identities()
	require.NoError(t, err)

	byName := map[string]k8sclient.ResourceDescriptor{}
	for _, d := range objects {
		byName[d.Kind+" "+d.Name] = d
	}

	var secret corev1.Secret
	require.NoError(t, yaml.Unmarshal(byName["Secret sysadmin-token"].Body, &secret))
	assert.Equal(t, corev1.SecretTypeServiceAccountToken, secret.Type)
	assert.Equal(t, AdminAccount, secret.Annotations[corev1.ServiceAccountNameKey])

	binding := byName["ClusterRoleBinding cluster:admin"]
	assert.Contains(t, string(binding.Body), "cluster-admin")
	assert.Contains(t, string(binding.Body), "robot")
}
