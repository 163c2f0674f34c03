package address_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/listingpacket/internal/address"
)

func TestAddress(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Address Suite")
}

var _ = Describe("Address", func() {
	DescribeTable("Parse",
		func(input, street, cityState string) {
			s, c := address.Parse(input)
			Expect(s).To(Equal(street))
			Expect(c).To(Equal(cityState))
		},
		Entry("three parts", "120 Main Street, Woodstock, VT", "120 Main Street", "Woodstock, VT"),
		Entry("four parts drops the rest", "1 Elm St, Stowe, VT, 05672", "1 Elm St", "Stowe, VT"),
		Entry("two parts", "120 Main Street, Woodstock VT", "120 Main Street", "Woodstock VT"),
		Entry("no commas", "120 Main Street Woodstock", "120 Main Street", "Woodstock"),
		Entry("collapses inner whitespace", "  9   Oak   Lane  ", "9 Oak", "Lane"),
		Entry("single word", "Farmhouse", "Farmhouse", ""),
		Entry("empty", "", "", ""),
		Entry("trims parts", " 5 Pine Rd ,  Quechee , VT ", "5 Pine Rd", "Quechee, VT"),
	)

	It("should keep the first segment as the street whenever there are commas", func() {
		for _, in := range []string{"A, B", "A,B,C", "A , B , C , D", "Lot 4,Route 7"} {
			s, _ := address.Parse(in)
			Expect(s).NotTo(BeEmpty())
		}
		s, _ := address.Parse("Lot 4,Route 7")
		Expect(s).To(Equal("Lot 4"))
	})

	Context("naming", func() {
		It("should name the packet after the street", func() {
			Expect(address.PacketFilename("120 Main Street")).To(Equal("120 Main Street - Packet.pdf"))
		})

		It("should fall back to a generic packet name", func() {
			Expect(address.PacketFilename("   ")).To(Equal("Listing Packet.pdf"))
		})

		It("should strip unsafe characters from social post names", func() {
			Expect(address.SocialFilename("12 Main St. #4/B", "Sold")).To(Equal("12 Main St 4B - Sold - Instagram.png"))
		})

		It("should join street and city", func() {
			Expect(address.Join("1 Elm St", "Stowe, VT")).To(Equal("1 Elm St, Stowe, VT"))
			Expect(address.Join("", "Stowe, VT")).To(Equal("Stowe, VT"))
			Expect(address.Join("1 Elm St", "")).To(Equal("1 Elm St"))
		})
	})
})
