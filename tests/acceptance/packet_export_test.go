package acceptance_test

import (
	"context"
	"image/color"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/listingpacket/internal/address"
	"github.com/kpauljoseph/listingpacket/internal/capability"
	"github.com/kpauljoseph/listingpacket/internal/config"
	"github.com/kpauljoseph/listingpacket/internal/fixtures"
	"github.com/kpauljoseph/listingpacket/internal/intake"
	"github.com/kpauljoseph/listingpacket/internal/packet"
	"github.com/kpauljoseph/listingpacket/internal/scanner"
	"github.com/kpauljoseph/listingpacket/internal/workflow"
	"github.com/kpauljoseph/listingpacket/pkg/logger"
	"github.com/kpauljoseph/listingpacket/pkg/models"
	"github.com/kpauljoseph/listingpacket/tests/acceptance"
)

var _ = Describe("Listing Packet End-to-End", func() {
	var (
		tempDir   string
		sourceDir string
		cfg       *config.Config
		service   *workflow.Service
		dirs      *scanner.DirectoryScanner
		ctx       context.Context

		disclosure []byte
		plat       []byte
		zipFirst   []byte
		zipSecond  []byte
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		tempDir, err = os.MkdirTemp("", "listingpacket-acceptance-*")
		Expect(err).NotTo(HaveOccurred())
		sourceDir = filepath.Join(tempDir, "listing")

		cfg = config.Default()
		cfg.AssetsDir = filepath.Join(tempDir, "templates")
		cfg.FontsDir = filepath.Join(tempDir, "fonts")
		cfg.OutputDir = filepath.Join(tempDir, "out")
		Expect(os.MkdirAll(cfg.AssetsDir, 0755)).To(Succeed())
		for _, name := range []string{cfg.Cover.Background, cfg.Social.NewListing, cfg.Social.UnderContract, cfg.Social.Sold} {
			Expect(os.WriteFile(cfg.Asset(name), fixtures.PNG(108, 135, color.NRGBA{0x17, 0x33, 0x48, 0xff}), 0644)).To(Succeed())
		}

		log := logger.New(logger.WithOutput(GinkgoWriter), logger.WithPrefix("[acceptance] "), logger.WithFlags(0))
		service = workflow.NewService(cfg, capability.Detect(cfg, log), log)
		dirs = scanner.New(log)

		disclosure = fixtures.PDF("Seller Disclosure 1", "Seller Disclosure 2")
		plat = fixtures.JPEG(300, 200)
		zipFirst = fixtures.PDF("Inspection Report")
		zipSecond = fixtures.PDF("Radon Test")

		Expect(acceptance.WriteSources(sourceDir,
			models.SourceFile{Name: "01-disclosure.pdf", Data: disclosure},
			models.SourceFile{Name: "02-plat.jpg", Data: plat},
			models.SourceFile{Name: "03-inspection.zip", Data: fixtures.ZIP(
				fixtures.Entry{Name: "reports/inspection.pdf", Data: zipFirst},
				fixtures.Entry{Name: "__MACOSX/reports/._inspection.pdf", Data: []byte("resource fork")},
				fixtures.Entry{Name: "radon.pdf", Data: zipSecond},
			)},
			models.SourceFile{Name: "04-broken.pdf", Data: fixtures.Corrupt()},
			models.SourceFile{Name: "notes.txt", Data: []byte("call seller")},
		)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(tempDir)).To(Succeed())
	})

	Context("Combining a listing folder", Label("happy-path"), func() {
		It("should keep every usable page in folder order", func() {
			By("Scanning the listing folder")
			files, err := dirs.FindSources(ctx, sourceDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(HaveLen(4))

			By("Exporting without cover, posts or compression")
			res, err := service.Export(ctx, workflow.Request{Files: files})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Packet.Pages).To(Equal(5))
			Expect(res.FilesCombined).To(Equal(4))
			Expect(res.Packet.Skipped).To(HaveLen(1))
			Expect(res.Packet.Skipped[0].Name).To(Equal("04-broken.pdf"))

			By("Saving the packet")
			paths, err := service.Save(cfg.OutputDir, res)
			Expect(err).NotTo(HaveOccurred())
			Expect(paths).To(ConsistOf(filepath.Join(cfg.OutputDir, "Listing Packet.pdf")))

			saved, err := os.ReadFile(paths[0])
			Expect(err).NotTo(HaveOccurred())

			By("Comparing rendered pages against the sources")
			platPDF, err := intake.ImageToPDF(plat)
			Expect(err).NotTo(HaveOccurred())
			want, err := acceptance.ConcatHashes(disclosure, platPDF, zipFirst, zipSecond)
			Expect(err).NotTo(HaveOccurred())

			got, err := acceptance.PageHashes(saved)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		})

		It("should report which files were used", func() {
			files, err := dirs.FindSources(ctx, sourceDir)
			Expect(err).NotTo(HaveOccurred())

			res, err := service.Export(ctx, workflow.Request{Files: files})
			Expect(err).NotTo(HaveOccurred())

			statuses := map[string]models.IntakeStatus{}
			for _, e := range res.Intake {
				statuses[e.Name] = e.Status
			}
			Expect(statuses).To(HaveKeyWithValue("01-disclosure.pdf", models.StatusAccepted))
			Expect(statuses).To(HaveKeyWithValue("02-plat.jpg", models.StatusConverted))
			Expect(statuses).To(HaveKeyWithValue("03-inspection.zip", models.StatusExtracted))
		})
	})

	Context("Full listing export", Label("happy-path"), func() {
		It("should add a cover page and social posts for the property", func() {
			street, cityState := address.Parse("120 Main Street, Woodstock, VT")
			Expect(street).To(Equal("120 Main Street"))
			Expect(cityState).To(Equal("Woodstock, VT"))

			res, err := service.Export(ctx, workflow.Request{
				Files:        []models.SourceFile{{Name: "01-disclosure.pdf", Data: disclosure}},
				Photo:        fixtures.JPEG(800, 600),
				Street:       street,
				CityState:    cityState,
				IncludeCover: true,
				CreatePosts:  true,
				Compress:     true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.CoverIncluded).To(BeTrue())
			Expect(res.Packet.Pages).To(Equal(3))

			dims, err := packet.PageDims(res.Packet.PDF)
			Expect(err).NotTo(HaveOccurred())
			Expect(dims[0].Width).To(BeNumerically("~", 612, 0.5))
			Expect(dims[0].Height).To(BeNumerically("~", 792, 0.5))

			paths, err := service.Save(cfg.OutputDir, res)
			Expect(err).NotTo(HaveOccurred())
			Expect(paths).To(Equal([]string{
				filepath.Join(cfg.OutputDir, "120 Main Street - Packet.pdf"),
				filepath.Join(cfg.OutputDir, "120 Main Street - New Listing - Instagram.png"),
				filepath.Join(cfg.OutputDir, "120 Main Street - Under Contract - Instagram.png"),
				filepath.Join(cfg.OutputDir, "120 Main Street - Sold - Instagram.png"),
			}))
		})

		It("should fail when every document is unreadable", func() {
			_, err := service.Export(ctx, workflow.Request{Files: []models.SourceFile{
				{Name: "a.pdf", Data: fixtures.Corrupt()},
				{Name: "b.pdf", Data: fixtures.Corrupt()},
			}})
			Expect(err).To(MatchError(packet.ErrNoDocuments))
		})
	})

	Context("Social posts only", func() {
		It("should save three posts and no packet", func() {
			res, err := service.SocialOnly(ctx, workflow.SocialRequest{
				Photo: fixtures.JPEG(400, 400), Street: "120 Main Street", CityState: "Woodstock, VT",
			})
			Expect(err).NotTo(HaveOccurred())

			paths, err := service.Save(cfg.OutputDir, res)
			Expect(err).NotTo(HaveOccurred())
			Expect(paths).To(HaveLen(3))
			for _, p := range paths {
				Expect(filepath.Ext(p)).To(Equal(".png"))
				Expect(p).To(BeAnExistingFile())
			}
		})
	})
})
