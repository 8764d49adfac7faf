package ticket

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		baseDir string
		storage *LocalStorage
	)

	BeforeEach(func() {
		baseDir = filepath.Join(GinkgoT().TempDir(), "receipts")
		var err error
		storage, err = NewLocalStorage(baseDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewLocalStorage", func() {
		It("should create the storage directory", func() {
			info, err := os.Stat(baseDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})
	})

	Describe("Save and Get", func() {
		It("should round-trip the stored bytes", func() {
			key, err := storage.Save("aabb_receipt1.jpg", []byte("image bytes"))
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("aabb_receipt1.jpg"))

			data, err := storage.Get(key)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("image bytes")))
		})

		It("should replace the bytes when saving the same key again", func() {
			_, err := storage.Save("k", []byte("first"))
			Expect(err).NotTo(HaveOccurred())
			_, err = storage.Save("k", []byte("second"))
			Expect(err).NotTo(HaveOccurred())

			data, err := storage.Get("k")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("second")))
		})

		It("should return an error for a missing key", func() {
			_, err := storage.Get("missing")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Delete", func() {
		It("should remove the blob", func() {
			_, err := storage.Save("k", []byte("x"))
			Expect(err).NotTo(HaveOccurred())

			Expect(storage.Delete("k")).To(Succeed())
			Expect(storage.Exists("k")).To(BeFalse())
		})

		It("should return an error for a missing key", func() {
			Expect(storage.Delete("missing")).NotTo(Succeed())
		})
	})

	Describe("Exists", func() {
		It("should report presence of a stored blob", func() {
			Expect(storage.Exists("k")).To(BeFalse())
			_, err := storage.Save("k", []byte("x"))
			Expect(err).NotTo(HaveOccurred())
			Expect(storage.Exists("k")).To(BeTrue())
		})
	})

	Describe("List", func() {
		It("should return every regular file, ignoring subdirectories", func() {
			_, err := storage.Save("a.jpg", []byte("x"))
			Expect(err).NotTo(HaveOccurred())
			_, err = storage.Save("a.json", []byte("{}"))
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Mkdir(filepath.Join(baseDir, "sub"), 0755)).To(Succeed())

			keys, err := storage.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(keys).To(ConsistOf("a.jpg", "a.json"))
		})
	})
})
