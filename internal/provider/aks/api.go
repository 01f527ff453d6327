package aks

import (
	"context"
	"errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/dns/armdns"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
)

// API is the subset of Azure Resource Manager used by the adapter. Reads of
// a missing resource return an *azcore.ResponseError with status 404.
type API interface {
	GetResourceGroup(ctx context.Context, name string) (*armresources.ResourceGroup, error)
	CreateResourceGroup(ctx context.Context, name string, group armresources.ResourceGroup) error
	// DeleteResourceGroup deletes the group and waits for the deletion.
	DeleteResourceGroup(ctx context.Context, name string) error

	GetManagedCluster(ctx context.Context, group, name string) (*armcontainerservice.ManagedCluster, error)
	// BeginCreateManagedCluster starts the create or update without waiting
	// for it; progress is observed through the provisioning state.
	BeginCreateManagedCluster(ctx context.Context, group, name string, cluster armcontainerservice.ManagedCluster) error
	AdminKubeconfig(ctx context.Context, group, name string) ([]byte, error)

	ListZones(ctx context.Context) ([]*armdns.Zone, error)
	UpsertRecordSet(ctx context.Context, group, zone, name string, recordType armdns.RecordType, set armdns.RecordSet) error
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

func notFound(code string) error {
	return &azcore.ResponseError{StatusCode: http.StatusNotFound, ErrorCode: code}
}
