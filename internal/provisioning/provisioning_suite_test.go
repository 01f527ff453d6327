package provisioning

import (
	"context"
	"encoding/json"
	"testing"

	g "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/imamik/k8shub/internal/bootstrap"
	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/provider"
)

// TestProvisioningSuite runs the end-to-end provisioning specs against
// scripted providers and fake clusters. Ginkgo is imported under a name
// because its Context would shadow the pipeline Context.
func TestProvisioningSuite(t *testing.T) {
	RegisterFailHandler(g.Fail)
	g.RunSpecs(t, "Provisioning Suite")
}

var _ = g.BeforeSuite(func() {
	logf.SetLogger(zap.New(zap.WriteTo(g.GinkgoWriter), zap.UseDevMode(true)))
})

var _ = g.Describe("Provisioning a cluster", func() {
	var (
		ctx     context.Context
		gke     *fakeAdapter
		kubes   *fakeKubes
		agent   *Agent
		schemas *config.Schemas
	)

	g.BeforeEach(func() {
		ctx = logf.IntoContext(context.Background(), logf.Log.WithName("e2e"))
		gke = newFakeAdapter(provider.GKE)
		kubes = newFakeKubes(nil)

		var err error
		schemas, err = config.LoadSchemas()
		Expect(err).NotTo(HaveOccurred())

		timeouts := config.TestTimeouts()
		agent = NewAgent(schemas, map[provider.Name]provider.Adapter{provider.GKE: gke},
			WithTimeouts(timeouts),
			WithKubeFactory(kubes.factory),
			WithBootstrapper(bootstrap.New(timeouts)),
		)
	})

	g.Context("with a minimal GKE request", func() {
		g.It("returns a result document pointing at the dashboard", func() {
			res, err := agent.Provision(ctx, provider.GKE, testRequest("hub-e2e"))
			Expect(err).NotTo(HaveOccurred())

			raw, err := json.Marshal(res)
			Expect(err).NotTo(HaveOccurred())

			var doc map[string]any
			Expect(json.Unmarshal(raw, &doc)).To(Succeed())
			Expect(doc).To(HaveKeyWithValue("provider", "gke"))
			Expect(doc).To(HaveKey("cluster"))
			Expect(doc["cluster"]).To(HaveKeyWithValue("service_account_name", bootstrap.AdminAccount))
			Expect(doc["cluster"]).To(HaveKeyWithValue("kubeapi", "https://hub-e2e-kubeapi.example.com"))

			services, ok := doc["services"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(services["dashboard"]).To(HaveKeyWithValue("url", ContainSubstring("lb.example.com")))
			Expect(services["grafana"]).To(HaveKeyWithValue("hostname", "grafana.example.com"))
		})

		g.It("creates the bootstrap objects once and reports the same result on reruns", func() {
			first, err := agent.Provision(ctx, provider.GKE, testRequest("hub-e2e"))
			Expect(err).NotTo(HaveOccurred())
			kube := kubes.get("https://hub-e2e.example.test")
			Expect(kube).NotTo(BeNil())
			created := kube.CreatedKinds()

			second, err := agent.Provision(ctx, provider.GKE, testRequest("hub-e2e"))
			Expect(err).NotTo(HaveOccurred())
			Expect(kube.CreatedKinds()).To(Equal(created))
			Expect(created).To(ContainElement("Job " + bootstrap.JobName))
			Expect(gke.createCalls).To(Equal(1))

			Expect(second.Services.Grafana.Password).To(Equal(first.Services.Grafana.Password))
			Expect(second).To(Equal(first))
		})
	})

	g.Context("with an invalid request", func() {
		g.It("fails before touching the provider", func() {
			req := testRequest("hub-e2e")
			req["grafana_service_type"] = "ClusterIP"

			_, err := agent.Provision(ctx, provider.GKE, req)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("grafana_service_type"))
			Expect(gke.validateCalls).To(BeZero())
			Expect(gke.createCalls).To(BeZero())
		})
	})
})
