package naming

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestPhysical(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already clean", "customer_id", "customer_id"},
		{"upper case", "CustomerID", "customerid"},
		{"spaces and punctuation", "  Order -- Line.Item ", "order_line_item"},
		{"underscores collapse", "a___b", "a_b"},
		{"leading and trailing underscores", "__a__", "a"},
		{"digits kept", "Address 2", "address_2"},
		{"hangul only", "고객", PhysicalFallback},
		{"mixed hangul", "고객 ID", "id"},
		{"empty", "", PhysicalFallback},
		{"only symbols", "!@#$%", PhysicalFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Physical(tt.in))
		})
	}
}

func TestPhysical_IsASCII(t *testing.T) {
	for _, in := range []string{"Ünïcödé", "İstanbul", "straße", "名前", "ｆｕｌｌ"} {
		out := Physical(in)
		assert.NotEmpty(t, out)
		for _, r := range out {
			assert.True(t, (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_',
				"unexpected rune %q in %q", r, out)
		}
	}
}

func TestExportToken(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"case preserved", "OrderItem", "OrderItem"},
		{"hangul kept", "고객", "고객"},
		{"hangul with spaces", "주문 상세", "주문_상세"},
		{"compatibility jamo", "ㄱㅏ", "ㄱㅏ"},
		{"punctuation collapses", "user--id..", "user_id"},
		{"other scripts replaced", "名前 name", "name"},
		{"empty", "", ExportFallback},
		{"only symbols", "()[]", ExportFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExportToken(tt.in))
		})
	}
}

func TestExportToken_ComposesDecomposedHangul(t *testing.T) {
	// "한" as conjoining jamo U+1112 U+1161 U+11AB.
	decomposed := "\u1112\u1161\u11ab"
	assert.Equal(t, "한", ExportToken(decomposed))
}

func TestPoliciesAreTotal(t *testing.T) {
	inputs := []string{"", " ", "_", "___", "\t\n", "💥", string([]byte{0xff, 0xfe}), "-"}
	for _, in := range inputs {
		p := Physical(in)
		e := ExportToken(in)
		assert.NotEmpty(t, p, "Physical(%q)", in)
		assert.NotEmpty(t, e, "ExportToken(%q)", in)
		assert.True(t, utf8.ValidString(e))
	}
}

func TestPoliciesDiffer(t *testing.T) {
	assert.Equal(t, "customer_name", Physical("Customer Name"))
	assert.Equal(t, "Customer_Name", ExportToken("Customer Name"))
}
