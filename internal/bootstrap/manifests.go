package bootstrap

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/k8sclient"
	"github.com/imamik/k8shub/internal/util/ptr"
)

// Names of the objects the driver writes and reads.
const (
	SystemNamespace = "kube-system"
	AgentNamespace  = "hub-agent"

	AdminAccount = "sysadmin"
	RobotAccount = "robot"
	AdminToken   = "sysadmin-token"
	AdminBinding = "cluster:admin"
	PSPBinding   = "default:psp"

	JobName = "bootstrap"

	LoggingNamespace = "loki"
	DashboardName    = "loki-grafana"
	APIKeySecret     = "grafana-api-key"
	APIKeyField      = "key"

	// DefaultImage runs the chart installer when bootstrap_image is empty.
	DefaultImage = "quay.io/appvia/hub-bootstrap:latest"

	unprivilegedPolicy = "gce.unprivileged-addon"
	bundleVolume       = "bundle"
	bundleMountPath    = "/config/bundles"
	jobBackoffLimit    = int32(20)
	bundleDashboardKey = "grafana.yaml"
)

// Chart list and repositories handed to the installer, one entry per line.
const (
	charts = "loki/loki-stack,loki,--name loki --values " + bundleMountPath + "/grafana.yaml\n" +
		"stable/prometheus,kube-system,--name prometheus\n"
	repositories = "loki,https://grafana.github.io/loki/charts\n"
)

//go:embed templates/*.yaml
var templatesFS embed.FS

var funcs = sprig.TxtFuncMap()

// dashboardValues feeds templates/grafana.yaml.
type dashboardValues struct {
	Hostname           string
	Password           string
	Version            string
	DiskSize           int
	ServiceType        string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubOrganization string
}

func newDashboardValues(c *config.Cluster) dashboardValues {
	serviceType := c.GrafanaServiceType
	if serviceType == "" {
		serviceType = string(corev1.ServiceTypeNodePort)
	}
	return dashboardValues{
		Hostname:           c.DashboardFQDN(),
		Password:           c.GrafanaPassword,
		Version:            c.GrafanaVersion,
		DiskSize:           c.GrafanaDiskSize,
		ServiceType:        serviceType,
		GitHubClientID:     c.GitHubClientID,
		GitHubClientSecret: c.GitHubClientSecret,
		GitHubOrganization: c.GitHubOrganization,
	}
}

// renderDashboard renders the helm values of the logging stack.
func renderDashboard(v dashboardValues) (string, error) {
	const name = "grafana.yaml"
	content, err := templatesFS.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", name, err)
	}

	tmpl, err := template.New(name).Funcs(funcs).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// generatePassword returns a random alphanumeric password of length n.
func generatePassword(n int) (string, error) {
	tmpl, err := template.New("password").Funcs(funcs).Parse(fmt.Sprintf("{{ randAlphaNum %d }}", n))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, nil); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return buf.String(), nil
}

// identities returns the service accounts, their namespace, the token secret
// and the admin binding, in creation order.
func identities() ([]k8sclient.ResourceDescriptor, error) {
	return describeAll(
		&corev1.ServiceAccount{
			TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "ServiceAccount"},
			ObjectMeta: metav1.ObjectMeta{Name: AdminAccount, Namespace: SystemNamespace},
		},
		&corev1.Namespace{
			TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Namespace"},
			ObjectMeta: metav1.ObjectMeta{Name: AgentNamespace},
		},
		&corev1.ServiceAccount{
			TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "ServiceAccount"},
			ObjectMeta: metav1.ObjectMeta{Name: RobotAccount, Namespace: AgentNamespace},
		},
		&corev1.Secret{
			TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Secret"},
			ObjectMeta: metav1.ObjectMeta{
				Name:        AdminToken,
				Namespace:   SystemNamespace,
				Annotations: map[string]string{corev1.ServiceAccountNameKey: AdminAccount},
			},
			Type: corev1.SecretTypeServiceAccountToken,
		},
		&rbacv1.ClusterRoleBinding{
			TypeMeta:   metav1.TypeMeta{APIVersion: rbacv1.SchemeGroupVersion.String(), Kind: "ClusterRoleBinding"},
			ObjectMeta: metav1.ObjectMeta{Name: AdminBinding},
			RoleRef: rbacv1.RoleRef{
				APIGroup: rbacv1.GroupName,
				Kind:     "ClusterRole",
				Name:     "cluster-admin",
			},
			Subjects: []rbacv1.Subject{
				{Kind: rbacv1.ServiceAccountKind, Name: AdminAccount, Namespace: SystemNamespace},
				{Kind: rbacv1.ServiceAccountKind, Name: RobotAccount, Namespace: AgentNamespace},
			},
		},
	)
}

// podSecurity binds the unprivileged policy to every authenticated user and
// service account.
func podSecurity() ([]k8sclient.ResourceDescriptor, error) {
	return describeAll(
		&rbacv1.ClusterRole{
			TypeMeta:   metav1.TypeMeta{APIVersion: rbacv1.SchemeGroupVersion.String(), Kind: "ClusterRole"},
			ObjectMeta: metav1.ObjectMeta{Name: PSPBinding},
			Rules: []rbacv1.PolicyRule{{
				APIGroups:     []string{"policy"},
				Resources:     []string{"podsecuritypolicies"},
				ResourceNames: []string{unprivilegedPolicy},
				Verbs:         []string{"use"},
			}},
		},
		&rbacv1.ClusterRoleBinding{
			TypeMeta:   metav1.TypeMeta{APIVersion: rbacv1.SchemeGroupVersion.String(), Kind: "ClusterRoleBinding"},
			ObjectMeta: metav1.ObjectMeta{Name: PSPBinding},
			RoleRef: rbacv1.RoleRef{
				APIGroup: rbacv1.GroupName,
				Kind:     "ClusterRole",
				Name:     PSPBinding,
			},
			Subjects: []rbacv1.Subject{
				{APIGroup: rbacv1.GroupName, Kind: rbacv1.GroupKind, Name: "system:authenticated"},
				{APIGroup: rbacv1.GroupName, Kind: rbacv1.GroupKind, Name: "system:serviceaccounts"},
			},
		},
	)
}

// bundle is the installer configuration mounted into the job.
func bundle(dashboard string) (k8sclient.ResourceDescriptor, error) {
	return k8sclient.Describe(&corev1.ConfigMap{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "ConfigMap"},
		ObjectMeta: metav1.ObjectMeta{Name: JobName, Namespace: SystemNamespace},
		Data: map[string]string{
			"charts":           charts,
			"repositories":     repositories,
			bundleDashboardKey: dashboard,
		},
	})
}

// installer is the job running the chart installer as sysadmin.
func installer(image string) (k8sclient.ResourceDescriptor, error) {
	if image == "" {
		image = DefaultImage
	}
	return k8sclient.Describe(&batchv1.Job{
		TypeMeta:   metav1.TypeMeta{APIVersion: batchv1.SchemeGroupVersion.String(), Kind: "Job"},
		ObjectMeta: metav1.ObjectMeta{Name: JobName, Namespace: SystemNamespace},
		Spec: batchv1.JobSpec{
			BackoffLimit: ptr.To(jobBackoffLimit),
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					ServiceAccountName:           AdminAccount,
					AutomountServiceAccountToken: ptr.Bool(true),
					RestartPolicy:                corev1.RestartPolicyOnFailure,
					Containers: []corev1.Container{{
						Name:            JobName,
						Image:           image,
						ImagePullPolicy: corev1.PullAlways,
						Env:             []corev1.EnvVar{{Name: "CONFIG_DIR", Value: "/config"}},
						VolumeMounts:    []corev1.VolumeMount{{Name: bundleVolume, MountPath: bundleMountPath}},
					}},
					Volumes: []corev1.Volume{{
						Name: bundleVolume,
						VolumeSource: corev1.VolumeSource{
							ConfigMap: &corev1.ConfigMapVolumeSource{
								LocalObjectReference: corev1.LocalObjectReference{Name: JobName},
							},
						},
					}},
				},
			},
		},
	})
}

func describeAll(objects ...runtime.Object) ([]k8sclient.ResourceDescriptor, error) {
	out := make([]k8sclient.ResourceDescriptor, 0, len(objects))
	for _, obj := range objects {
		d, err := k8sclient.Describe(obj)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
