package k8sclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes/fake"
	"k8s.io/client-go/restmapper"
)

func setupTestClient(t *testing.T, objects ...runtime.Object) (Client, *dynamicfake.FakeDynamicClient) {
	t.Helper()

	//nolint:staticcheck // SA1019: NewSimpleClientset is sufficient for our testing needs
	clientset := fake.NewSimpleClientset(objects...)
	scheme := runtime.NewScheme()
	_ = corev1.AddToScheme(scheme)
	dynamicClient := dynamicfake.NewSimpleDynamicClient(scheme)

	return NewFromClients(clientset, dynamicClient, createTestMapper()), dynamicClient
}

// createTestMapper creates a REST mapper covering the kinds bootstrap writes.
func createTestMapper() meta.RESTMapper {
	group := func(name, version string, resources ...metav1.APIResource) *restmapper.APIGroupResources {
		gv := version
		if name != "" {
			gv = name + "/" + version
		}
		return &restmapper.APIGroupResources{
			Group: metav1.APIGroup{
				Name:             name,
				Versions:         []metav1.GroupVersionForDiscovery{{GroupVersion: gv, Version: version}},
				PreferredVersion: metav1.GroupVersionForDiscovery{GroupVersion: gv, Version: version},
			},
			VersionedResources: map[string][]metav1.APIResource{version: resources},
		}
	}

	return restmapper.NewDiscoveryRESTMapper([]*restmapper.APIGroupResources{
		group("", "v1",
			metav1.APIResource{Name: "configmaps", Namespaced: true, Kind: "ConfigMap"},
			metav1.APIResource{Name: "secrets", Namespaced: true, Kind: "Secret"},
			metav1.APIResource{Name: "namespaces", Namespaced: false, Kind: "Namespace"},
			metav1.APIResource{Name: "serviceaccounts", Namespaced: true, Kind: "ServiceAccount"},
		),
		group("batch", "v1",
			metav1.APIResource{Name: "jobs", Namespaced: true, Kind: "Job"},
		),
		group("rbac.authorization.k8s.io", "v1",
			metav1.APIResource{Name: "clusterrolebindings", Namespaced: false, Kind: "ClusterRoleBinding"},
		),
	})
}

func configMapDescriptor(t *testing.T) ResourceDescriptor {
	t.Helper()
	d, err := Describe(&corev1.ConfigMap{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "ConfigMap"},
		ObjectMeta: metav1.ObjectMeta{Name: "bootstrap", Namespace: "kube-system"},
		Data:       map[string]string{"charts": "loki/loki-stack"},
	})
	require.NoError(t, err)
	return d
}

func TestExistsAndCreate_Namespaced(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, dyn := setupTestClient(t)
	d := configMapDescriptor(t)

	exists, err := c.Exists(ctx, d)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, c.Create(ctx, d))

	exists, err = c.Exists(ctx, d)
	require.NoError(t, err)
	assert.True(t, exists)

	obj, err := dyn.Resource(schema.GroupVersionResource{Version: "v1", Resource: "configmaps"}).
		Namespace("kube-system").Get(ctx, "bootstrap", metav1.GetOptions{})
	require.NoError(t, err)
	data, _, _ := unstructuredString(obj.Object, "data", "charts")
	assert.Equal(t, "loki/loki-stack", data)
}

func TestCreate_AlreadyExistsIsNotAnError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, _ := setupTestClient(t)
	d := configMapDescriptor(t)

	require.NoError(t, c.Create(ctx, d))
	require.NoError(t, c.Create(ctx, d))
}

func TestExistsAndCreate_ClusterScoped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, _ := setupTestClient(t)

	d, err := Describe(&rbacv1.ClusterRoleBinding{
		TypeMeta:   metav1.TypeMeta{APIVersion: "rbac.authorization.k8s.io/v1", Kind: "ClusterRoleBinding"},
		ObjectMeta: metav1.ObjectMeta{Name: "cluster:admin"},
		RoleRef:    rbacv1.RoleRef{APIGroup: "rbac.authorization.k8s.io", Kind: "ClusterRole", Name: "cluster-admin"},
	})
	require.NoError(t, err)

	require.NoError(t, c.Create(ctx, d))
	exists, err := c.Exists(ctx, d)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExists_UnknownKind(t *testing.T) {
	t.Parallel()
	c, _ := setupTestClient(t)

	_, err := c.Exists(context.Background(), ResourceDescriptor{
		Name: "x", Kind: "Widget", APIVersion: "example.com/v1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get REST mapping")
}

func TestEnsure_IsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, dyn := setupTestClient(t)
	d := configMapDescriptor(t)

	_, err := Ensure(ctx, c, d)
	require.NoError(t, err)
	action, err := Ensure(ctx, c, d)
	require.NoError(t, err)
	assert.Equal(t, "exists", string(action))

	creates := 0
	for _, a := range dyn.Actions() {
		if a.GetVerb() == "create" {
			creates++
		}
	}
	assert.Equal(t, 1, creates)
}

func TestTypedReads(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c, _ := setupTestClient(t,
		&corev1.Node{ObjectMeta: metav1.ObjectMeta{Name: "node-1"}},
		&batchv1.Job{
			ObjectMeta: metav1.ObjectMeta{Name: "bootstrap", Namespace: "kube-system"},
			Status:     batchv1.JobStatus{Succeeded: 1},
		},
		&corev1.Secret{
			ObjectMeta: metav1.ObjectMeta{Name: "grafana-api-key", Namespace: "loki"},
			Data:       map[string][]byte{"key": []byte("abc")},
		},
	)

	nodes, err := c.ListNodes(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 1)

	job, err := c.GetJob(ctx, "kube-system", "bootstrap")
	require.NoError(t, err)
	assert.Equal(t, int32(1), job.Status.Succeeded)

	secret, err := c.GetSecret(ctx, "loki", "grafana-api-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), secret.Data["key"])

	_, err = c.GetService(ctx, "loki", "loki-grafana")
	require.Error(t, err)
	assert.True(t, apierrors.IsNotFound(err), "not found must survive wrapping")
}

func TestConfigREST(t *testing.T) {
	t.Parallel()

	rc := Config{
		Host:        "https://10.0.0.1",
		CAData:      []byte("ca"),
		BearerToken: "token",
	}.REST()

	assert.Equal(t, "https://10.0.0.1", rc.Host)
	assert.Equal(t, "token", rc.BearerToken)
	assert.Equal(t, []byte("ca"), rc.TLSClientConfig.CAData)
	assert.NotZero(t, rc.Timeout)
}

func TestNew_RequiresHost(t *testing.T) {
	t.Parallel()
	_, err := New(Config{})
	require.Error(t, err)
}

func unstructuredString(obj map[string]any, fields ...string) (string, bool, error) {
	var cur any = obj
	for _, f := range fields {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false, nil
		}
		cur = m[f]
	}
	s, ok := cur.(string)
	return s, ok, nil
}
