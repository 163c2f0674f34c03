package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/listingpacket/internal/capability"
	"github.com/kpauljoseph/listingpacket/internal/packet"
	"github.com/kpauljoseph/listingpacket/internal/social"
	"github.com/kpauljoseph/listingpacket/internal/web"
	"github.com/kpauljoseph/listingpacket/internal/workflow"
	"github.com/kpauljoseph/listingpacket/pkg/logger"
	"github.com/kpauljoseph/listingpacket/pkg/models"
)

func TestWeb(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Web Suite")
}

type fakeExporter struct {
	requests []workflow.Request
	social   []workflow.SocialRequest
	err      error
}

func (f *fakeExporter) Export(_ context.Context, req workflow.Request) (*workflow.Result, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &workflow.Result{
		PacketName: "120 Main Street - Packet.pdf",
		Packet:     &packet.Result{PDF: []byte("%PDF-fake"), Combined: len(req.Files)},
		Intake:     []models.IntakeEntry{{Name: "a.pdf", Status: models.StatusAccepted}},
		Posts:      []social.Post{{Type: models.Sold, Filename: "120 Main Street - Sold - Instagram.png", PNG: []byte("png")}},
		Summary:    "Packet Summary: <combined>",
	}, nil
}

func (f *fakeExporter) SocialOnly(_ context.Context, req workflow.SocialRequest) (*workflow.Result, error) {
	f.social = append(f.social, req)
	if f.err != nil {
		return nil, f.err
	}
	return &workflow.Result{
		Posts:   []social.Post{{Type: models.NewListing, Filename: "x - New Listing - Instagram.png", PNG: []byte("png")}},
		Summary: "Social Posts Created",
	}, nil
}

func (f *fakeExporter) Save(string, *workflow.Result) ([]string, error) {
	return nil, nil
}

func multipartBody(fields map[string]string, files map[string][]models.SourceFile) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		Expect(mw.WriteField(k, v)).To(Succeed())
	}
	for field, list := range files {
		for _, f := range list {
			w, err := mw.CreateFormFile(field, f.Name)
			Expect(err).NotTo(HaveOccurred())
			_, err = w.Write(f.Data)
			Expect(err).NotTo(HaveOccurred())
		}
	}
	Expect(mw.Close()).To(Succeed())
	return &buf, mw.FormDataContentType()
}

var _ = Describe("Server", func() {
	var (
		exporter *fakeExporter
		server   *httptest.Server
		client   *http.Client
	)

	newClient := func() *http.Client {
		jar, err := cookiejar.New(nil)
		Expect(err).NotTo(HaveOccurred())
		return &http.Client{Jar: jar}
	}

	body := func(resp *http.Response) string {
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return string(data)
	}

	BeforeEach(func() {
		exporter = &fakeExporter{}
		log := logger.New(logger.WithOutput(GinkgoWriter), logger.WithPrefix("[web-test] "), logger.WithFlags(0))
		server = httptest.NewServer(web.NewServer(exporter, capability.All(), 10, log).Handler())
		client = newClient()
	})

	AfterEach(func() {
		server.Close()
	})

	It("should report health", func() {
		resp, err := client.Get(server.URL + "/healthz")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var payload map[string]string
		Expect(json.NewDecoder(resp.Body).Decode(&payload)).To(Succeed())
		resp.Body.Close()
		Expect(payload["status"]).To(Equal("ok"))
	})

	It("should render the form", func() {
		resp, err := client.Get(server.URL + "/")
		Expect(err).NotTo(HaveOccurred())
		html := body(resp)
		Expect(html).To(ContainSubstring("Listing Packet Combiner"))
		Expect(html).To(ContainSubstring(`action="/packet"`))
		Expect(html).NotTo(ContainSubstring("Files ready for download"))
	})

	It("should create a packet and serve its downloads to the same session only", func() {
		reqBody, contentType := multipartBody(
			map[string]string{"street": "120 Main Street", "city_state": "Woodstock, VT", "include_cover": "on", "compress": "on"},
			map[string][]models.SourceFile{
				"files": {{Name: "a.pdf", Data: []byte("one")}, {Name: "b.zip", Data: []byte("two")}},
				"photo": {{Name: "front.jpg", Data: []byte("jpg")}},
			},
		)
		resp, err := client.Post(server.URL+"/packet", contentType, reqBody)
		Expect(err).NotTo(HaveOccurred())
		html := body(resp)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(html).To(ContainSubstring("Files ready for download"))
		Expect(html).To(ContainSubstring("/download/packet"))
		Expect(html).To(ContainSubstring("/download/sold"))
		Expect(html).To(ContainSubstring("Packet Summary: &lt;combined&gt;"))

		Expect(exporter.requests).To(HaveLen(1))
		got := exporter.requests[0]
		Expect(got.Files).To(HaveLen(2))
		Expect(got.Files[1].Name).To(Equal("b.zip"))
		Expect(string(got.Photo)).To(Equal("jpg"))
		Expect(got.IncludeCover).To(BeTrue())
		Expect(got.CreatePosts).To(BeFalse())
		Expect(got.Compress).To(BeTrue())

		resp, err = client.Get(server.URL + "/download/packet")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Header.Get("Content-Type")).To(Equal("application/pdf"))
		Expect(resp.Header.Get("Content-Disposition")).To(ContainSubstring("120 Main Street - Packet.pdf"))
		Expect(body(resp)).To(Equal("%PDF-fake"))

		resp, err = newClient().Get(server.URL + "/download/packet")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		resp.Body.Close()
	})

	It("should create social posts only", func() {
		reqBody, contentType := multipartBody(
			map[string]string{"street": "9 Oak", "city_state": "Salem, OR"},
			map[string][]models.SourceFile{"photo": {{Name: "p.jpg", Data: []byte("jpg")}}},
		)
		resp, err := client.Post(server.URL+"/social", contentType, reqBody)
		Expect(err).NotTo(HaveOccurred())
		html := body(resp)
		Expect(html).To(ContainSubstring("/download/new-listing"))
		Expect(html).NotTo(ContainSubstring("/download/packet"))
		Expect(exporter.social).To(HaveLen(1))
		Expect(exporter.social[0].Street).To(Equal("9 Oak"))
	})

	It("should show workflow errors on the page", func() {
		exporter.err = workflow.ErrAddressRequired
		reqBody, contentType := multipartBody(nil, map[string][]models.SourceFile{"files": {{Name: "a.pdf", Data: []byte("x")}}})

		resp, err := client.Post(server.URL+"/packet", contentType, reqBody)
		Expect(err).NotTo(HaveOccurred())
		Expect(body(resp)).To(ContainSubstring("please enter both street address"))
	})

	It("should return a status code to non-browser clients", func() {
		exporter.err = workflow.ErrAddressRequired
		reqBody, contentType := multipartBody(nil, nil)

		req, err := http.NewRequest(http.MethodPost, server.URL+"/packet", reqBody)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("should clear results on reset", func() {
		reqBody, contentType := multipartBody(nil, map[string][]models.SourceFile{"files": {{Name: "a.pdf", Data: []byte("x")}}})
		resp, err := client.Post(server.URL+"/packet", contentType, reqBody)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()

		resp, err = client.Post(server.URL+"/reset", "application/x-www-form-urlencoded", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(body(resp)).NotTo(ContainSubstring("Files ready for download"))

		resp, err = client.Get(server.URL + "/download/packet")
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})
})
