package config

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/imamik/k8shub/internal/clustererr"
)

// GKECredentials authenticate against one GCP project and region.
type GKECredentials struct {
	Account string // Service account key (JSON)
	Project string
	Region  string
}

// AKSCredentials authenticate a service principal in one subscription.
type AKSCredentials struct {
	ClientID     string
	ClientSecret string
	Region       string
	Subscription string
	Tenant       string
}

// EKSCredentials authenticate an IAM user in one account and region. Bucket
// and TemplateVersion locate the CloudFormation templates.
type EKSCredentials struct {
	AccountID       string
	AccessID        string
	AccessKey       string
	Region          string
	Bucket          string
	TemplateVersion string
}

// Credentials holds the credentials of one or more providers.
type Credentials struct {
	GKE *GKECredentials
	AKS *AKSCredentials
	EKS *EKSCredentials
}

const (
	defaultTemplateBucket  = "hub-clusters-creator-eu-west-2"
	defaultTemplateVersion = "eks/v0.0.1"
)

// LoadCredentials reads the credentials for provider from the environment.
//
// Environment Variables:
//   - gke: K8SHUB_GKE_ACCOUNT (key JSON) or GOOGLE_APPLICATION_CREDENTIALS (key file),
//     K8SHUB_GKE_PROJECT or GOOGLE_CLOUD_PROJECT, K8SHUB_GKE_REGION
//   - aks: AZURE_CLIENT_ID, AZURE_CLIENT_SECRET, AZURE_TENANT_ID, AZURE_SUBSCRIPTION_ID, K8SHUB_AKS_REGION
//   - eks: AWS_ACCOUNT_ID, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_REGION,
//     K8SHUB_EKS_TEMPLATE_BUCKET, K8SHUB_EKS_TEMPLATE_VERSION
func LoadCredentials(provider string) (*Credentials, error) {
	switch provider {
	case "gke":
		account := os.Getenv("K8SHUB_GKE_ACCOUNT")
		if account == "" {
			if path := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); path != "" {
				// #nosec G304
				data, err := os.ReadFile(path)
				if err != nil {
					return nil, fmt.Errorf("failed to read service account key: %w", err)
				}
				account = string(data)
			}
		}
		creds := &GKECredentials{
			Account: account,
			Project: firstEnv("K8SHUB_GKE_PROJECT", "GOOGLE_CLOUD_PROJECT"),
			Region:  os.Getenv("K8SHUB_GKE_REGION"),
		}
		return &Credentials{GKE: creds}, creds.Validate()
	case "aks":
		creds := &AKSCredentials{
			ClientID:     os.Getenv("AZURE_CLIENT_ID"),
			ClientSecret: os.Getenv("AZURE_CLIENT_SECRET"),
			Region:       firstEnv("K8SHUB_AKS_REGION", "AZURE_REGION"),
			Subscription: os.Getenv("AZURE_SUBSCRIPTION_ID"),
			Tenant:       os.Getenv("AZURE_TENANT_ID"),
		}
		return &Credentials{AKS: creds}, creds.Validate()
	case "eks":
		creds := &EKSCredentials{
			AccountID:       os.Getenv("AWS_ACCOUNT_ID"),
			AccessID:        os.Getenv("AWS_ACCESS_KEY_ID"),
			AccessKey:       os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Region:          firstEnv("AWS_REGION", "AWS_DEFAULT_REGION"),
			Bucket:          envOr("K8SHUB_EKS_TEMPLATE_BUCKET", defaultTemplateBucket),
			TemplateVersion: envOr("K8SHUB_EKS_TEMPLATE_VERSION", defaultTemplateVersion),
		}
		return &Credentials{EKS: creds}, creds.Validate()
	default:
		return nil, clustererr.Configuration("provider", provider, "unknown provider %q", provider)
	}
}

// Validate checks that every field is set.
func (c *GKECredentials) Validate() error {
	return requireFields("gke", map[string]string{
		"account": c.Account,
		"project": c.Project,
		"region":  c.Region,
	})
}

// Validate checks that every field is set.
func (c *AKSCredentials) Validate() error {
	return requireFields("aks", map[string]string{
		"client_id":     c.ClientID,
		"client_secret": c.ClientSecret,
		"region":        c.Region,
		"subscription":  c.Subscription,
		"tenant":        c.Tenant,
	})
}

// Validate checks that every field is set.
func (c *EKSCredentials) Validate() error {
	return requireFields("eks", map[string]string{
		"account_id": c.AccountID,
		"access_id":  c.AccessID,
		"access_key": c.AccessKey,
		"region":     c.Region,
	})
}

func requireFields(provider string, fields map[string]string) error {
	var missing []string
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return clustererr.Configuration("credentials."+missing[0], nil,
		"%s provider requires %s", provider, strings.Join(missing, ", "))
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
