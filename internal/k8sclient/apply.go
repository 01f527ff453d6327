package k8sclient

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/dynamic"
)

// Exists looks the object up through the dynamic client.
func (c *client) Exists(ctx context.Context, d ResourceDescriptor) (bool, error) {
	resource, err := c.resourceFor(d)
	if err != nil {
		return false, err
	}

	_, err = resource.Get(ctx, d.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", d, err)
	}
	return true, nil
}

// Create creates the object from its manifest.
func (c *client) Create(ctx context.Context, d ResourceDescriptor) error {
	obj, err := d.Object()
	if err != nil {
		return err
	}

	resource, err := c.resourceFor(d)
	if err != nil {
		return err
	}

	_, err = resource.Create(ctx, obj, metav1.CreateOptions{FieldManager: FieldManager})
	if apierrors.IsAlreadyExists(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", d, err)
	}
	return nil
}

// resourceFor maps the descriptor onto a (possibly namespaced) resource
// interface. A stale discovery cache is reset once on a missing mapping.
func (c *client) resourceFor(d ResourceDescriptor) (dynamic.ResourceInterface, error) {
	gvk, err := d.GroupVersionKind()
	if err != nil {
		return nil, err
	}

	mapping, err := c.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if meta.IsNoMatchError(err) {
		if resettable, ok := c.mapper.(meta.ResettableRESTMapper); ok {
			resettable.Reset()
			mapping, err = c.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get REST mapping for %v: %w", gvk, err)
	}

	resource := c.dynamicClient.Resource(mapping.Resource)
	if mapping.Scope.Name() != meta.RESTScopeNameNamespace {
		return resource, nil
	}

	namespace := d.Namespace
	if namespace == "" {
		namespace = "default"
	}
	return resource.Namespace(namespace), nil
}
