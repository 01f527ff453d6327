package aks

import (
	"fmt"

	"k8s.io/client-go/tools/clientcmd"

	"github.com/imamik/k8shub/internal/provider"
)

// adminAccess extracts the API server endpoint and the admin client
// certificate from a kubeconfig returned by ListClusterAdminCredentials.
func adminAccess(data []byte) (*provider.Endpoint, *provider.Credential, error) {
	cfg, err := clientcmd.Load(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse admin kubeconfig: %w", err)
	}

	contextName := cfg.CurrentContext
	if contextName == "" {
		for name := range cfg.Contexts {
			contextName = name
			break
		}
	}
	kctx, ok := cfg.Contexts[contextName]
	if !ok {
		return nil, nil, fmt.Errorf("admin kubeconfig has no context %q", contextName)
	}
	cluster, ok := cfg.Clusters[kctx.Cluster]
	if !ok {
		return nil, nil, fmt.Errorf("admin kubeconfig has no cluster %q", kctx.Cluster)
	}
	user, ok := cfg.AuthInfos[kctx.AuthInfo]
	if !ok {
		return nil, nil, fmt.Errorf("admin kubeconfig has no user %q", kctx.AuthInfo)
	}
	if len(user.ClientCertificateData) == 0 || len(user.ClientKeyData) == 0 {
		return nil, nil, fmt.Errorf("admin kubeconfig user %q carries no client certificate", kctx.AuthInfo)
	}

	ep := &provider.Endpoint{Host: cluster.Server, CAData: cluster.CertificateAuthorityData}
	cred := &provider.Credential{
		ClientCertData: user.ClientCertificateData,
		ClientKeyData:  user.ClientKeyData,
		BearerToken:    user.Token,
	}
	return ep, cred, nil
}
