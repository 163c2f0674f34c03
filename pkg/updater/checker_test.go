package updater_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/listingpacket/pkg/logger"
	"github.com/kpauljoseph/listingpacket/pkg/updater"
)

func TestUpdater(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Updater Suite")
}

var _ = Describe("CompareVersions", func() {
	DescribeTable("ordering release numbers",
		func(a, b string, expected int) {
			Expect(updater.CompareVersions(a, b)).To(Equal(expected))
		},
		Entry("older patch", "1.2.3", "1.2.4", -1),
		Entry("equal", "1.2.3", "1.2.3", 0),
		Entry("numeric not lexical", "1.10.0", "1.9.0", 1),
		Entry("missing component", "1.2", "1.2.0", 0),
		Entry("pre-release suffix ignored", "2.0.0-rc1", "2.0.0", 0),
	)
})

var _ = Describe("Checker", func() {
	var (
		release updater.GitHubRelease
		server  *httptest.Server
		hits    int
		agent   string
		log     *logger.Logger
	)

	BeforeEach(func() {
		hits = 0
		release = updater.GitHubRelease{TagName: "v1.3.0", Body: "Faster packets", HTMLURL: "https://example.com/releases/v1.3.0"}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			agent = r.Header.Get("User-Agent")
			json.NewEncoder(w).Encode(release)
		}))
		log = logger.New(logger.WithOutput(GinkgoWriter), logger.WithFlags(0))
	})

	AfterEach(func() {
		server.Close()
	})

	It("should report a newer release", func() {
		c := updater.NewChecker(server.URL, log, updater.WithCurrentVersion("v1.2.9"))
		info, err := c.CheckForUpdates(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsAvailable).To(BeTrue())
		Expect(info.LatestVersion).To(Equal("1.3.0"))
		Expect(info.DownloadURL).To(Equal(release.HTMLURL))
		Expect(agent).To(Equal("ListingPacket-Updater"))
	})

	It("should not offer pre-releases", func() {
		release.Prerelease = true
		c := updater.NewChecker(server.URL, log, updater.WithCurrentVersion("1.0.0"))
		info, err := c.CheckForUpdates(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsAvailable).To(BeFalse())
	})

	It("should rate limit repeated checks", func() {
		c := updater.NewChecker(server.URL, log, updater.WithCurrentVersion("1.0.0"))
		_, err := c.CheckForUpdates(context.Background())
		Expect(err).NotTo(HaveOccurred())
		info, err := c.CheckForUpdates(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(info).To(BeNil())
		Expect(hits).To(Equal(1))
	})

	It("should skip development builds", func() {
		c := updater.NewChecker(server.URL, log, updater.WithCurrentVersion("VERSION_PLACEHOLDER"))
		info, err := c.CheckForUpdates(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(info).To(BeNil())
		Expect(hits).To(BeZero())
	})

	It("should surface server errors", func() {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer failing.Close()

		c := updater.NewChecker(failing.URL, log, updater.WithCurrentVersion("1.0.0"))
		_, err := c.CheckForUpdates(context.Background())
		Expect(err).To(MatchError(ContainSubstring("status 403")))
	})
})
