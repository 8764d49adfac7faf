package ticket

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

// multipartUpload builds a multipart body carrying the named files under the
// given form field.
func multipartUpload(field string, files map[string]string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile(field, name)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte(content))
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(writer.Close()).To(Succeed())
	return body, writer.FormDataContentType()
}

var _ = Describe("Server", func() {
	var (
		store    *mockStore
		storage  *mockStorage
		engine   *mockEngine
		service  *Service
		server   *Server
		ghServer *ghttp.Server
		client   *http.Client
	)

	BeforeEach(func() {
		store = newMockStore()
		storage = newMockStorage()
		engine = newMockEngine()
		service = NewServiceWithDeps(store, storage, engine, false, 0,
			&mockIDGenerator{}, &mockTimeSource{})
		server = NewServerWithMux(service, 20, http.NewServeMux())

		ghServer = ghttp.NewServer()
		ghServer.RouteToHandler("GET", "/", server.ServeHTTP)
		ghServer.RouteToHandler("POST", "/upload", server.ServeHTTP)
		ghServer.RouteToHandler("GET", "/healthz", server.ServeHTTP)
		ghServer.RouteToHandler("GET", regexp.MustCompile(`^/files/`), server.ServeHTTP)
		ghServer.RouteToHandler("GET", regexp.MustCompile(`^/classify/`), server.ServeHTTP)
		ghServer.RouteToHandler("POST", regexp.MustCompile(`^/classify/`), server.ServeHTTP)

		// Redirects are part of the contract under test; don't follow them
		client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	})

	AfterEach(func() {
		if ghServer != nil {
			ghServer.Close()
		}
	})

	upload := func(files map[string]string) *http.Response {
		body, contentType := multipartUpload("receipt", files)
		resp, err := client.Post(ghServer.URL()+"/upload", contentType, body)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		return resp
	}

	getBody := func(path string) (*http.Response, string) {
		resp, err := client.Get(ghServer.URL() + path)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp, string(data)
	}

	Describe("index", func() {
		When("no tickets exist", func() {
			It("should render the empty listing", func() {
				resp, body := getBody("/")
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("text/html"))
				Expect(body).To(ContainSubstring("No receipts yet"))
			})
		})

		When("a scanned ticket exists", func() {
			BeforeEach(func() {
				engine.text = "ABC"
				Expect(upload(map[string]string{"receipt1.jpg": "jpeg bytes"}).StatusCode).
					To(Equal(http.StatusSeeOther))
			})

			It("should list the name with its extracted text", func() {
				_, body := getBody("/")
				Expect(body).To(ContainSubstring("receipt1.jpg"))
				Expect(body).To(ContainSubstring("ABC"))
			})
		})

		When("a scan failed", func() {
			BeforeEach(func() {
				engine.err = errors.New("engine exploded")
				upload(map[string]string{"receipt1.jpg": "jpeg bytes"})
			})

			It("should show the error instead of text", func() {
				_, body := getBody("/")
				Expect(body).To(ContainSubstring("engine exploded"))
			})
		})
	})

	Describe("upload", func() {
		When("a single file is submitted", func() {
			It("should redirect to the index", func() {
				resp := upload(map[string]string{"receipt1.jpg": "jpeg bytes"})
				Expect(resp.StatusCode).To(Equal(http.StatusSeeOther))
				Expect(resp.Header.Get("Location")).To(Equal("/"))
			})

			It("should create the ticket and store the blob", func() {
				upload(map[string]string{"receipt1.jpg": "jpeg bytes"})
				t, err := store.GetTicket("receipt1.jpg")
				Expect(err).NotTo(HaveOccurred())
				Expect(storage.files[t.StorageKey]).To(Equal([]byte("jpeg bytes")))
			})
		})

		When("several files are submitted together", func() {
			It("should give them one batch with positions", func() {
				upload(map[string]string{"a.jpg": "x", "b.jpg": "y"})

				a, err := store.GetTicket("a.jpg")
				Expect(err).NotTo(HaveOccurred())
				b, err := store.GetTicket("b.jpg")
				Expect(err).NotTo(HaveOccurred())
				Expect(a.BatchID).To(Equal(b.BatchID))
				Expect(a.BatchTotal).To(Equal(2))
				Expect([]int{a.BatchSeq, b.BatchSeq}).To(ConsistOf(1, 2))
			})
		})

		When("the same name is uploaded twice", func() {
			BeforeEach(func() {
				upload(map[string]string{"receipt1.jpg": "first bytes"})
				upload(map[string]string{"receipt1.jpg": "second bytes"})
			})

			It("should keep a single ticket for the name", func() {
				Expect(store.tickets).To(HaveLen(1))
			})

			It("should serve the second file's bytes", func() {
				resp, body := getBody("/files/receipt1.jpg")
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(body).To(Equal("second bytes"))
			})
		})

		When("no file field is present", func() {
			It("should return a client error and store nothing", func() {
				form := url.Values{"unrelated": {"x"}}
				resp, err := client.Post(ghServer.URL()+"/upload",
					"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(storage.files).To(BeEmpty())
				Expect(store.tickets).To(BeEmpty())
			})
		})

		When("the multipart form has no usable filename", func() {
			It("should return a client error", func() {
				body := &bytes.Buffer{}
				writer := multipart.NewWriter(body)
				Expect(writer.WriteField("receipt", "not a file")).To(Succeed())
				Expect(writer.Close()).To(Succeed())

				resp, err := client.Post(ghServer.URL()+"/upload", writer.FormDataContentType(), body)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("files", func() {
		It("should 404 for an unknown name", func() {
			resp, _ := getBody("/files/missing.jpg")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("should serve stored bytes with the ticket's content type", func() {
			upload(map[string]string{"receipt1.jpg": "jpeg bytes"})
			resp, body := getBody("/files/receipt1.jpg")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("image/jpeg"))
			Expect(body).To(Equal("jpeg bytes"))
		})
	})

	Describe("classify", func() {
		BeforeEach(func() {
			upload(map[string]string{"receipt1.jpg": "jpeg bytes"})
		})

		It("should render the form for a scanned ticket", func() {
			resp, body := getBody("/classify/receipt1.jpg")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(ContainSubstring("job_name"))
		})

		It("should redirect for an unknown ticket", func() {
			resp, _ := getBody("/classify/missing.jpg")
			Expect(resp.StatusCode).To(Equal(http.StatusSeeOther))
		})

		It("should redirect while the scan is still running", func() {
			store.tickets["receipt1.jpg"].Status = StatusProcessing
			resp, _ := getBody("/classify/receipt1.jpg")
			Expect(resp.StatusCode).To(Equal(http.StatusSeeOther))
		})

		It("should record the submitted job details", func() {
			form := url.Values{"job_name": {"Pine Ave Renovation"}, "total": {"1,234.56"}}
			resp, err := client.PostForm(ghServer.URL()+"/classify/receipt1.jpg", form)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusSeeOther))

			t, err := store.GetTicket("receipt1.jpg")
			Expect(err).NotTo(HaveOccurred())
			Expect(t.JobName).To(Equal("Pine Ave Renovation"))
			Expect(*t.Total).To(Equal(1234.56))
		})
	})

	Describe("healthz", func() {
		It("should report ok", func() {
			resp, body := getBody("/healthz")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var health map[string]string
			Expect(json.Unmarshal([]byte(body), &health)).To(Succeed())
			Expect(health["status"]).To(Equal("ok"))
		})
	})
})
