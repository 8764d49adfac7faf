package recognize

import (
	"bytes"
	"image"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("preprocessForOCR", func() {
	var (
		input  []byte
		output []byte
		err    error
	)

	JustBeforeEach(func() {
		output, err = preprocessForOCR(input)
	})

	When("the image fits within bounds", func() {
		BeforeEach(func() {
			input = encodePNG(100, 60)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps the dimensions", func() {
			img, decodeErr := png.Decode(bytes.NewReader(output))
			Expect(decodeErr).NotTo(HaveOccurred())
			Expect(img.Bounds().Dx()).To(Equal(100))
			Expect(img.Bounds().Dy()).To(Equal(60))
		})

		It("converts to grayscale", func() {
			img, decodeErr := png.Decode(bytes.NewReader(output))
			Expect(decodeErr).NotTo(HaveOccurred())
			_, isGray := img.(*image.Gray)
			Expect(isGray).To(BeTrue())
		})
	})

	When("the image exceeds the bound", func() {
		BeforeEach(func() {
			input = encodePNG(maxOCRDimension*2, maxOCRDimension)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("scales the longer side down to the bound", func() {
			img, decodeErr := png.Decode(bytes.NewReader(output))
			Expect(decodeErr).NotTo(HaveOccurred())
			Expect(img.Bounds().Dx()).To(Equal(maxOCRDimension))
			Expect(img.Bounds().Dy()).To(Equal(maxOCRDimension / 2))
		})
	})

	When("the input is not an image", func() {
		BeforeEach(func() {
			input = []byte("nope")
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("fitWithin", func() {
	It("leaves small images alone", func() {
		w, h := fitWithin(800, 600, 2000)
		Expect(w).To(Equal(800))
		Expect(h).To(Equal(600))
	})

	It("scales a wide image by its width", func() {
		w, h := fitWithin(4000, 3000, 2000)
		Expect(w).To(Equal(2000))
		Expect(h).To(Equal(1500))
	})

	It("scales a tall image by its height", func() {
		w, h := fitWithin(3000, 4000, 2000)
		Expect(w).To(Equal(1500))
		Expect(h).To(Equal(2000))
	})

	It("never scales a side to zero", func() {
		w, h := fitWithin(10000, 1, 2000)
		Expect(w).To(Equal(2000))
		Expect(h).To(Equal(1))
	})
})
