package eks

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"github.com/imamik/k8shub/internal/k8sclient"
)

const (
	systemNamespace = "kube-system"
	authConfigMap   = "aws-auth"
	nodeDaemonSet   = "aws-node"
)

// roleMapping is one entry of the aws-auth mapRoles list.
type roleMapping struct {
	RoleARN  string   `json:"rolearn"`
	Username string   `json:"username"`
	Groups   []string `json:"groups"`
}

// awsAuth maps the worker instance role onto the node groups.
func awsAuth(instanceRole string) (k8sclient.ResourceDescriptor, error) {
	roles, err := yaml.Marshal([]roleMapping{{
		RoleARN:  instanceRole,
		Username: "system:node:{{EC2PrivateDNSName}}",
		Groups:   []string{"system:bootstrappers", "system:nodes"},
	}})
	if err != nil {
		return k8sclient.ResourceDescriptor{}, fmt.Errorf("failed to marshal mapRoles: %w", err)
	}

	return k8sclient.Describe(&corev1.ConfigMap{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "ConfigMap"},
		ObjectMeta: metav1.ObjectMeta{Name: authConfigMap, Namespace: systemNamespace},
		Data:       map[string]string{"mapRoles": string(roles)},
	})
}
