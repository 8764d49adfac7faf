package recognize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Ollama", func() {
	var (
		server  *httptest.Server
		handler http.HandlerFunc
		engine  *Ollama
		text    string
		err     error
	)

	BeforeEach(func() {
		handler = nil
	})

	JustBeforeEach(func() {
		server = httptest.NewServer(handler)
		DeferCleanup(server.Close)

		engine, err = NewOllama(server.URL, "llava")
		Expect(err).NotTo(HaveOccurred())

		text, err = engine.Recognize(context.Background(), encodePNG(4, 4), "image/png")
	})

	When("the model responds", func() {
		var received ollamaChatRequest

		BeforeEach(func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/api/chat"))
				Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())
				json.NewEncoder(w).Encode(ollamaChatResponse{
					Message: ollamaMessage{Role: "assistant", Content: "```\nSUNBELT RENTALS\nTOTAL 240.00\n```"},
					Done:    true,
				})
			}
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns the transcription without the fence", func() {
			Expect(text).To(Equal("SUNBELT RENTALS\nTOTAL 240.00"))
		})

		It("sends the model name and a base64 image", func() {
			Expect(received.Model).To(Equal("llava"))
			Expect(received.Stream).To(BeFalse())
			Expect(received.Images).To(HaveLen(1))
			Expect(received.Images[0]).NotTo(BeEmpty())
		})
	})

	When("the API returns a server error", func() {
		BeforeEach(func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model not loaded", http.StatusInternalServerError)
			}
		})

		It("returns the error with the status", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("status 500"))
			Expect(err.Error()).To(ContainSubstring("model not loaded"))
		})
	})

	When("the response is not JSON", func() {
		BeforeEach(func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>proxy error</html>"))
			}
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("NewOllama", func() {
	It("defaults the base URL and model", func() {
		engine, err := NewOllama("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(engine.baseURL).To(Equal("http://localhost:11434"))
		Expect(engine.model).To(Equal("llava"))
	})
})
