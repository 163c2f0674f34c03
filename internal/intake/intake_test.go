package intake_test

import (
	"bytes"
	"context"
	"image/color"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/kpauljoseph/listingpacket/internal/capability"
	"github.com/kpauljoseph/listingpacket/internal/fixtures"
	"github.com/kpauljoseph/listingpacket/internal/intake"
	"github.com/kpauljoseph/listingpacket/pkg/logger"
	"github.com/kpauljoseph/listingpacket/pkg/models"
)

func TestIntake(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Intake Suite")
}

var _ = Describe("Classifier", func() {
	var (
		classifier *intake.Classifier
		ctx        context.Context
	)

	BeforeEach(func() {
		log := logger.New(logger.WithOutput(GinkgoWriter), logger.WithPrefix("[intake-test] "), logger.WithFlags(0))
		log.SetVerbose(true)
		classifier = intake.NewClassifier(capability.All(), log)
		ctx = context.Background()
	})

	It("should keep selection order across kinds", func() {
		files := []models.SourceFile{
			{Name: "disclosure.PDF", Data: fixtures.PDF("a")},
			{Name: "docs.zip", Data: fixtures.ZIP(
				fixtures.Entry{Name: "inner/one.pdf", Data: fixtures.PDF("b")},
				fixtures.Entry{Name: "two.Pdf", Data: fixtures.PDF("c")},
			)},
			{Name: "floorplan.jpeg", Data: fixtures.JPEG(300, 200)},
		}

		batch, err := classifier.Classify(ctx, files)
		Expect(err).NotTo(HaveOccurred())

		var names []string
		for _, d := range batch.Documents {
			names = append(names, d.Name)
		}
		Expect(names).To(Equal([]string{"disclosure.PDF", "one.pdf", "two.Pdf", "floorplan.pdf"}))
		Expect(batch.Documents[1].Origin).To(Equal("docs.zip"))

		Expect(batch.Report).To(HaveLen(3))
		Expect(batch.Report[0].Status).To(Equal(models.StatusAccepted))
		Expect(batch.Report[1].Status).To(Equal(models.StatusExtracted))
		Expect(batch.Report[1].Detail).To(Equal("extracted 2 PDFs"))
		Expect(batch.Report[2].Status).To(Equal(models.StatusConverted))
		Expect(batch.Skipped()).To(BeEmpty())
	})

	It("should report and skip what it cannot use", func() {
		files := []models.SourceFile{
			{Name: "notes.txt", Data: []byte("hello")},
			{Name: "broken.zip", Data: []byte("PK not really")},
			{Name: "empty.zip", Data: fixtures.ZIP(fixtures.Entry{Name: "readme.txt", Data: []byte("x")})},
			{Name: "photo.jpg", Data: []byte("not a jpeg")},
			{Name: "keep.pdf", Data: fixtures.PDF("a")},
		}

		batch, err := classifier.Classify(ctx, files)
		Expect(err).NotTo(HaveOccurred())
		Expect(batch.Documents).To(HaveLen(1))
		Expect(batch.Skipped()).To(HaveLen(4))
		Expect(batch.Report[2].Detail).To(Equal("archive contains no PDF files"))
	})

	It("should return ErrNoUsableFiles when nothing remains", func() {
		batch, err := classifier.Classify(ctx, []models.SourceFile{{Name: "a.docx", Data: []byte("x")}})
		Expect(err).To(MatchError(intake.ErrNoUsableFiles))
		Expect(batch.Report).To(HaveLen(1))
	})

	It("should skip images when conversion is unavailable", func() {
		c := intake.NewClassifier(capability.Set{}, logger.Discard())
		_, err := c.Classify(ctx, []models.SourceFile{{Name: "a.jpg", Data: fixtures.JPEG(10, 10)}})
		Expect(err).To(MatchError(intake.ErrNoUsableFiles))
	})

	It("should skip archives whose members exceed the configured size", func() {
		c := intake.NewClassifier(capability.All(), logger.Discard(), intake.WithMaxMemberBytes(64))
		batch, err := c.Classify(ctx, []models.SourceFile{
			{Name: "bundle.zip", Data: fixtures.ZIP(fixtures.Entry{Name: "a.pdf", Data: fixtures.PDF("a")})},
			{Name: "b.pdf", Data: fixtures.PDF("b")},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(batch.Documents).To(HaveLen(1))
		Expect(batch.Report[0].Status).To(Equal(models.StatusSkipped))
		Expect(batch.Report[0].Detail).To(ContainSubstring("byte limit"))
	})

	It("should stop when the context is cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := classifier.Classify(cancelled, []models.SourceFile{{Name: "a.pdf", Data: fixtures.PDF("a")}})
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("ExtractPDFs", func() {
	It("should ignore directories, resource forks and hidden files", func() {
		archive := fixtures.ZIP(
			fixtures.Entry{Name: "folder/", Data: nil},
			fixtures.Entry{Name: "__MACOSX/._a.pdf", Data: []byte("fork")},
			fixtures.Entry{Name: "folder/.hidden.pdf", Data: fixtures.PDF("h")},
			fixtures.Entry{Name: "folder/a.pdf", Data: fixtures.PDF("a")},
			fixtures.Entry{Name: "b.pdf", Data: fixtures.PDF("b")},
		)

		docs, err := intake.ExtractPDFs("x.zip", archive, intake.DefaultMaxMemberBytes)
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(2))
		Expect(docs[0].Name).To(Equal("a.pdf"))
		Expect(docs[1].Name).To(Equal("b.pdf"))
	})

	It("should refuse a member larger than the limit", func() {
		archive := fixtures.ZIP(fixtures.Entry{Name: "big.pdf", Data: fixtures.PDF("big")})

		_, err := intake.ExtractPDFs("x.zip", archive, 64)
		Expect(err).To(MatchError(ContainSubstring("byte limit")))
	})

	It("should fail on a corrupt archive", func() {
		_, err := intake.ExtractPDFs("x.zip", []byte("nope"), intake.DefaultMaxMemberBytes)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ImageToPDF", func() {
	DescribeTable("page size follows pixel size",
		func(w, h int) {
			data, err := intake.ImageToPDF(fixtures.JPEG(w, h))
			Expect(err).NotTo(HaveOccurred())

			count, err := api.PageCount(bytes.NewReader(data), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))

			dims, err := api.PageDims(bytes.NewReader(data), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(dims[0].Width).To(BeNumerically("~", float64(w), 0.01))
			Expect(dims[0].Height).To(BeNumerically("~", float64(h), 0.01))
		},
		Entry("landscape", 640, 480),
		Entry("portrait", 300, 500),
		Entry("square", 64, 64),
	)

	It("should flatten transparent images", func() {
		data, err := intake.ImageToPDF(fixtures.PNG(20, 10, color.NRGBA{0, 0, 0, 0}))
		Expect(err).NotTo(HaveOccurred())
		Expect(data).NotTo(BeEmpty())
	})

	It("should rename image files to pdf", func() {
		Expect(intake.PDFName("Front Photo.JPEG")).To(Equal("Front Photo.pdf"))
	})
})
