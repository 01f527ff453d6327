package config

import (
	"os"
	"strconv"
	"time"

	"github.com/imamik/k8shub/internal/util/retry"
)

// Timeouts holds the poll parameters of every wait in a provisioning run.
// These values can be customized via environment variables.
type Timeouts struct {
	OperationInterval time.Duration // Cloud operation poll interval
	OperationTimeout  time.Duration // Cloud operation deadline
	OperationRetries  int           // Transient errors tolerated per operation

	APIServerInterval time.Duration // Delay between "list nodes" checks
	APIServerAttempts int           // Checks before the API server is declared unreachable

	JobInterval time.Duration // Bootstrap job status poll interval
	JobTimeout  time.Duration // Bootstrap job deadline

	ResourceInterval time.Duration // Kubernetes object status poll interval (ingress, service, daemonset)
	ResourceTimeout  time.Duration // Kubernetes object status deadline
	ResourceRetries  int           // Transient errors tolerated per Kubernetes wait

	ResourceGroupInterval time.Duration // AKS resource group visibility poll
	ResourceGroupAttempts int

	DeploymentInterval time.Duration // AKS managed cluster provisioning state poll
	DeploymentAttempts int

	StackTimeout time.Duration // CloudFormation stack deadline

	DNSRetries      int           // Retries of a DNS upsert
	DNSInitialDelay time.Duration // First backoff delay of a DNS upsert
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - K8SHUB_OPERATION_INTERVAL (default: 10s)
//   - K8SHUB_OPERATION_TIMEOUT (default: 15m)
//   - K8SHUB_OPERATION_RETRIES (default: 10)
//   - K8SHUB_APISERVER_INTERVAL (default: 5s)
//   - K8SHUB_APISERVER_ATTEMPTS (default: 60)
//   - K8SHUB_JOB_INTERVAL (default: 10s)
//   - K8SHUB_JOB_TIMEOUT (default: 500s)
//   - K8SHUB_RESOURCE_INTERVAL (default: 5s)
//   - K8SHUB_RESOURCE_TIMEOUT (default: 5m)
//   - K8SHUB_RESOURCE_RETRIES (default: 50)
//   - K8SHUB_RESOURCE_GROUP_INTERVAL (default: 10s)
//   - K8SHUB_RESOURCE_GROUP_ATTEMPTS (default: 20)
//   - K8SHUB_DEPLOYMENT_INTERVAL (default: 30s)
//   - K8SHUB_DEPLOYMENT_ATTEMPTS (default: 20)
//   - K8SHUB_STACK_TIMEOUT (default: 20m)
//   - K8SHUB_DNS_RETRIES (default: 5)
//   - K8SHUB_DNS_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		OperationInterval:     parseDuration("K8SHUB_OPERATION_INTERVAL", 10*time.Second),
		OperationTimeout:      parseDuration("K8SHUB_OPERATION_TIMEOUT", 900*time.Second),
		OperationRetries:      parseInt("K8SHUB_OPERATION_RETRIES", 10),
		APIServerInterval:     parseDuration("K8SHUB_APISERVER_INTERVAL", 5*time.Second),
		APIServerAttempts:     parseInt("K8SHUB_APISERVER_ATTEMPTS", 60),
		JobInterval:           parseDuration("K8SHUB_JOB_INTERVAL", 10*time.Second),
		JobTimeout:            parseDuration("K8SHUB_JOB_TIMEOUT", 500*time.Second),
		ResourceInterval:      parseDuration("K8SHUB_RESOURCE_INTERVAL", 5*time.Second),
		ResourceTimeout:       parseDuration("K8SHUB_RESOURCE_TIMEOUT", 5*time.Minute),
		ResourceRetries:       parseInt("K8SHUB_RESOURCE_RETRIES", 50),
		ResourceGroupInterval: parseDuration("K8SHUB_RESOURCE_GROUP_INTERVAL", 10*time.Second),
		ResourceGroupAttempts: parseInt("K8SHUB_RESOURCE_GROUP_ATTEMPTS", 20),
		DeploymentInterval:    parseDuration("K8SHUB_DEPLOYMENT_INTERVAL", 30*time.Second),
		DeploymentAttempts:    parseInt("K8SHUB_DEPLOYMENT_ATTEMPTS", 20),
		StackTimeout:          parseDuration("K8SHUB_STACK_TIMEOUT", 20*time.Minute),
		DNSRetries:            parseInt("K8SHUB_DNS_RETRIES", 5),
		DNSInitialDelay:       parseDuration("K8SHUB_DNS_INITIAL_DELAY", 1*time.Second),
	}
}

// TestTimeouts returns millisecond scale timeouts for unit tests.
func TestTimeouts() *Timeouts {
	return &Timeouts{
		OperationInterval:     time.Millisecond,
		OperationTimeout:      time.Second,
		OperationRetries:      3,
		APIServerInterval:     time.Millisecond,
		APIServerAttempts:     100,
		JobInterval:           time.Millisecond,
		JobTimeout:            time.Second,
		ResourceInterval:      time.Millisecond,
		ResourceTimeout:       time.Second,
		ResourceRetries:       5,
		ResourceGroupInterval: time.Millisecond,
		ResourceGroupAttempts: 100,
		DeploymentInterval:    time.Millisecond,
		DeploymentAttempts:    100,
		StackTimeout:          time.Second,
		DNSRetries:            2,
		DNSInitialDelay:       time.Millisecond,
	}
}

// Operation returns poll options for a cloud operation on resource.
func (t *Timeouts) Operation(resource string) retry.PollOptions {
	return retry.PollOptions{
		Resource:            resource,
		Interval:            t.OperationInterval,
		Timeout:             t.OperationTimeout,
		MaxTransientRetries: t.OperationRetries,
	}
}

// APIServer returns poll options for the API server readiness gate. Every
// failed check counts against the attempt budget.
func (t *Timeouts) APIServer(resource string) retry.PollOptions {
	return attempts(resource, t.APIServerInterval, t.APIServerAttempts)
}

// Job returns poll options for the bootstrap job.
func (t *Timeouts) Job(resource string) retry.PollOptions {
	return retry.PollOptions{
		Resource:            resource,
		Interval:            t.JobInterval,
		Timeout:             t.JobTimeout,
		MaxTransientRetries: t.ResourceRetries,
	}
}

// Resource returns poll options for a Kubernetes object status.
func (t *Timeouts) Resource(resource string) retry.PollOptions {
	return retry.PollOptions{
		Resource:            resource,
		Interval:            t.ResourceInterval,
		Timeout:             t.ResourceTimeout,
		MaxTransientRetries: t.ResourceRetries,
	}
}

// ResourceGroup returns poll options for AKS resource group visibility.
func (t *Timeouts) ResourceGroup(resource string) retry.PollOptions {
	return attempts(resource, t.ResourceGroupInterval, t.ResourceGroupAttempts)
}

// Deployment returns poll options for the AKS provisioning state wait.
func (t *Timeouts) Deployment(resource string) retry.PollOptions {
	return attempts(resource, t.DeploymentInterval, t.DeploymentAttempts)
}

// Stack returns poll options for a CloudFormation stack.
func (t *Timeouts) Stack(resource string) retry.PollOptions {
	return retry.PollOptions{
		Resource:            resource,
		Interval:            t.OperationInterval,
		Timeout:             t.StackTimeout,
		MaxTransientRetries: t.OperationRetries,
	}
}

// DNS returns backoff options for a DNS upsert.
func (t *Timeouts) DNS() []retry.Option {
	return []retry.Option{
		retry.WithMaxRetries(t.DNSRetries),
		retry.WithInitialDelay(t.DNSInitialDelay),
	}
}

func attempts(resource string, interval time.Duration, n int) retry.PollOptions {
	return retry.PollOptions{
		Resource:            resource,
		Interval:            interval,
		Timeout:             interval * time.Duration(n),
		MaxTransientRetries: n,
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
