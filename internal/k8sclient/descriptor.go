package k8sclient

import (
	"bytes"
	"fmt"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"sigs.k8s.io/yaml"
)

// ResourceDescriptor identifies a Kubernetes object and carries the manifest
// used to create it. Descriptors are values and never mutated.
type ResourceDescriptor struct {
	Name       string
	Kind       string
	Namespace  string
	APIVersion string
	Body       []byte
}

func (d ResourceDescriptor) String() string {
	if d.Namespace == "" {
		return fmt.Sprintf("%s %s", d.Kind, d.Name)
	}
	return fmt.Sprintf("%s %s/%s", d.Kind, d.Namespace, d.Name)
}

// GroupVersionKind parses the descriptor's APIVersion and Kind.
func (d ResourceDescriptor) GroupVersionKind() (schema.GroupVersionKind, error) {
	gv, err := schema.ParseGroupVersion(d.APIVersion)
	if err != nil {
		return schema.GroupVersionKind{}, fmt.Errorf("invalid apiVersion %q: %w", d.APIVersion, err)
	}
	return gv.WithKind(d.Kind), nil
}

// Object decodes the manifest body. The identity in the body must match the
// descriptor.
func (d ResourceDescriptor) Object() (*unstructured.Unstructured, error) {
	decoder := utilyaml.NewYAMLOrJSONDecoder(bytes.NewReader(d.Body), 4096)

	var obj unstructured.Unstructured
	if err := decoder.Decode(&obj); err != nil {
		return nil, fmt.Errorf("failed to decode manifest for %s: %w", d, err)
	}
	if obj.GetKind() != d.Kind || obj.GetName() != d.Name {
		return nil, fmt.Errorf("manifest describes %s %s, expected %s", obj.GetKind(), obj.GetName(), d)
	}
	if d.Namespace != "" && obj.GetNamespace() == "" {
		obj.SetNamespace(d.Namespace)
	}
	return &obj, nil
}

// Describe builds a descriptor from a typed object. The object must carry its
// TypeMeta.
func Describe(obj runtime.Object) (ResourceDescriptor, error) {
	gvk := obj.GetObjectKind().GroupVersionKind()
	if gvk.Kind == "" {
		return ResourceDescriptor{}, fmt.Errorf("object has no kind set")
	}

	accessor, err := meta.Accessor(obj)
	if err != nil {
		return ResourceDescriptor{}, fmt.Errorf("failed to access object metadata: %w", err)
	}

	body, err := yaml.Marshal(obj)
	if err != nil {
		return ResourceDescriptor{}, fmt.Errorf("failed to marshal %s %s: %w", gvk.Kind, accessor.GetName(), err)
	}

	return ResourceDescriptor{
		Name:       accessor.GetName(),
		Kind:       gvk.Kind,
		Namespace:  accessor.GetNamespace(),
		APIVersion: gvk.GroupVersion().String(),
		Body:       body,
	}, nil
}
