// Package k8sfake provides an in-memory k8sclient.Client for tests.
package k8sfake

import (
	"context"
	"fmt"
	"sync"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/imamik/k8shub/internal/k8sclient"
)

// Client is a scripted in-memory cluster. Created descriptors are recorded in
// order; typed reads come from the maps, keyed "namespace/name", unless a
// hook overrides them.
type Client struct {
	mu sync.Mutex

	objects map[string]k8sclient.ResourceDescriptor
	Created []k8sclient.ResourceDescriptor

	Nodes      []corev1.Node
	Jobs       map[string]*batchv1.Job
	Services   map[string]*corev1.Service
	Ingresses  map[string]*networkingv1.Ingress
	Secrets    map[string]*corev1.Secret
	ConfigMaps map[string]*corev1.ConfigMap
	DaemonSets map[string]*appsv1.DaemonSet

	// NodeErrors fails the first N ListNodes calls.
	NodeErrors int
	// OnCreate runs after every successful Create.
	OnCreate func(d k8sclient.ResourceDescriptor)
	// JobHook, when set, replaces the stored job on the n-th read (1-based).
	JobHook func(n int) (*batchv1.Job, error)
	// IngressHook and ServiceHook work like JobHook.
	IngressHook func(n int) (*networkingv1.Ingress, error)
	ServiceHook func(n int) (*corev1.Service, error)
	// CreateErr is returned by Create for the named kind.
	CreateErr map[string]error

	nodeCalls, jobCalls, ingressCalls, serviceCalls int
}

var _ k8sclient.Client = (*Client)(nil)

// New returns an empty fake cluster.
func New() *Client {
	return &Client{
		objects:    map[string]k8sclient.ResourceDescriptor{},
		Jobs:       map[string]*batchv1.Job{},
		Services:   map[string]*corev1.Service{},
		Ingresses:  map[string]*networkingv1.Ingress{},
		Secrets:    map[string]*corev1.Secret{},
		ConfigMaps: map[string]*corev1.ConfigMap{},
		DaemonSets: map[string]*appsv1.DaemonSet{},
	}
}

// Key builds the map key used for namespaced objects.
func Key(namespace, name string) string {
	return namespace + "/" + name
}

func descriptorKey(d k8sclient.ResourceDescriptor) string {
	return d.APIVersion + "/" + d.Kind + "/" + d.Namespace + "/" + d.Name
}

func (c *Client) Exists(_ context.Context, d k8sclient.ResourceDescriptor) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.objects[descriptorKey(d)]
	return ok, nil
}

func (c *Client) Create(_ context.Context, d k8sclient.ResourceDescriptor) error {
	c.mu.Lock()
	if err := c.CreateErr[d.Kind]; err != nil {
		c.mu.Unlock()
		return err
	}
	obj, err := d.Object()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.objects[descriptorKey(d)] = d
	if d.Kind == "ConfigMap" {
		// Created ConfigMaps are readable like on a real cluster.
		var cm corev1.ConfigMap
		if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.Object, &cm); err != nil {
			c.mu.Unlock()
			return err
		}
		c.ConfigMaps[Key(d.Namespace, d.Name)] = &cm
	}
	c.Created = append(c.Created, d)
	hook := c.OnCreate
	c.mu.Unlock()

	if hook != nil {
		hook(d)
	}
	return nil
}

// Seed marks d as already present without recording a create.
func (c *Client) Seed(d k8sclient.ResourceDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[descriptorKey(d)] = d
}

// CreatedKinds lists "Kind name" for every create in order.
func (c *Client) CreatedKinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.Created))
	for _, d := range c.Created {
		out = append(out, d.Kind+" "+d.Name)
	}
	return out
}

func (c *Client) ListNodes(context.Context) ([]corev1.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodeCalls++
	if c.nodeCalls <= c.NodeErrors {
		return nil, fmt.Errorf("connection refused")
	}
	return c.Nodes, nil
}

func (c *Client) GetJob(_ context.Context, namespace, name string) (*batchv1.Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobCalls++
	if c.JobHook != nil {
		return c.JobHook(c.jobCalls)
	}
	return lookup(c.Jobs, "jobs", namespace, name)
}

func (c *Client) GetService(_ context.Context, namespace, name string) (*corev1.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serviceCalls++
	if c.ServiceHook != nil {
		return c.ServiceHook(c.serviceCalls)
	}
	return lookup(c.Services, "services", namespace, name)
}

func (c *Client) GetIngress(_ context.Context, namespace, name string) (*networkingv1.Ingress, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ingressCalls++
	if c.IngressHook != nil {
		return c.IngressHook(c.ingressCalls)
	}
	return lookup(c.Ingresses, "ingresses", namespace, name)
}

func (c *Client) GetSecret(_ context.Context, namespace, name string) (*corev1.Secret, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lookup(c.Secrets, "secrets", namespace, name)
}

func (c *Client) GetConfigMap(_ context.Context, namespace, name string) (*corev1.ConfigMap, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lookup(c.ConfigMaps, "configmaps", namespace, name)
}

func (c *Client) GetDaemonSet(_ context.Context, namespace, name string) (*appsv1.DaemonSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lookup(c.DaemonSets, "daemonsets", namespace, name)
}

// Calls reports how often the polled reads ran.
func (c *Client) Calls() (nodes, jobs, ingresses, services int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nodeCalls, c.jobCalls, c.ingressCalls, c.serviceCalls
}

func lookup[T any](m map[string]*T, resource, namespace, name string) (*T, error) {
	if obj, ok := m[Key(namespace, name)]; ok {
		return obj, nil
	}
	return nil, fmt.Errorf("get %s/%s: %w", namespace, name,
		apierrors.NewNotFound(schema.GroupResource{Resource: resource}, name))
}
