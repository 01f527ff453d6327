package k8sclient

import (
	"context"
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
)

// FieldManager identifies k8shub as the creator of objects it writes.
const FieldManager = "k8shub"

// Client provides the Kubernetes operations needed to bootstrap a cluster.
type Client interface {
	// Exists reports whether the object described by d is present.
	Exists(ctx context.Context, d ResourceDescriptor) (bool, error)

	// Create creates the object described by d. An object that appeared
	// concurrently is not an error.
	Create(ctx context.Context, d ResourceDescriptor) error

	ListNodes(ctx context.Context) ([]corev1.Node, error)
	GetJob(ctx context.Context, namespace, name string) (*batchv1.Job, error)
	GetService(ctx context.Context, namespace, name string) (*corev1.Service, error)
	GetIngress(ctx context.Context, namespace, name string) (*networkingv1.Ingress, error)
	GetSecret(ctx context.Context, namespace, name string) (*corev1.Secret, error)
	GetConfigMap(ctx context.Context, namespace, name string) (*corev1.ConfigMap, error)
	GetDaemonSet(ctx context.Context, namespace, name string) (*appsv1.DaemonSet, error)
}

// Config holds what is needed to reach a cluster API server.
type Config struct {
	Host           string
	CAData         []byte
	BearerToken    string
	ClientCertData []byte
	ClientKeyData  []byte
	Timeout        time.Duration
}

// REST converts c into a client-go REST config.
func (c Config) REST() *rest.Config {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &rest.Config{
		Host:        c.Host,
		BearerToken: c.BearerToken,
		Timeout:     timeout,
		TLSClientConfig: rest.TLSClientConfig{
			CAData:   c.CAData,
			CertData: c.ClientCertData,
			KeyData:  c.ClientKeyData,
		},
	}
}

// client implements the Client interface using k8s.io/client-go.
type client struct {
	clientset     kubernetes.Interface
	dynamicClient dynamic.Interface
	mapper        meta.RESTMapper
}

// New creates a Client for the API server described by cfg.
func New(cfg Config) (Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("api server host is required")
	}
	return NewForConfig(cfg.REST())
}

// NewForConfig creates a Client from a REST config.
//
// REST mappings are discovered lazily so the client can be built before the
// API server answers.
func NewForConfig(restConfig *rest.Config) (Client, error) {
	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}

	dynamicClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	discoveryClient, err := discovery.NewDiscoveryClientForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery client: %w", err)
	}
	mapper := restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(discoveryClient))

	return &client{
		clientset:     clientset,
		dynamicClient: dynamicClient,
		mapper:        mapper,
	}, nil
}

// NewFromClients creates a Client from pre-configured clients.
// This is useful for testing with fake clients.
func NewFromClients(
	clientset kubernetes.Interface,
	dynamicClient dynamic.Interface,
	mapper meta.RESTMapper,
) Client {
	return &client{
		clientset:     clientset,
		dynamicClient: dynamicClient,
		mapper:        mapper,
	}
}
