package call

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		typ   Type
		want  string
		valid bool
	}{
		{"feature code", "*25", TypeURI, "tel:*25", true},
		{"international with spaces", "+91 123 456 7890", TypeURI, "tel:+911234567890", true},
		{"dashes", "123-456-7890", TypeURI, "tel:1234567890", true},
		{"non-breaking spaces", "+1\u00a0555\u00a0010", TypeTel, "tel:+1555010", true},
		{"vertical tab and form feed", "555\v010\f0000", TypeTel, "tel:5550100000", true},
		{"mixed whitespace", "\t+44 20\n7946\r\n0958 ", TypeURI, "tel:+442079460958", true},
		{"tel prefix", "tel:5001", TypeTel, "tel:5001", true},
		{"hash", "#31#5001", TypeTel, "tel:#31#5001", true},
		{"special characters", "select#$@^^", TypeURI, "", false},
		{"plus in the middle", "+1@8883332505", TypeURI, "", false},
		{"inner plus", "1+2", TypeURI, "", false},
		{"letters", "abc", TypeURI, "", false},
		{"empty", "", TypeURI, "", false},
		{"only separators", " - - ", TypeURI, "", false},
		{"unknown type", "5001", Type("sip"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, ok := Normalize(tt.raw, tt.typ)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, addr.Address)
			if ok {
				assert.Equal(t, tt.typ, addr.Type)
			}
		})
	}
}

func TestAddressNumber(t *testing.T) {
	addr, ok := Normalize("+1 555", TypeTel)
	assert.True(t, ok)
	assert.Equal(t, "+1555", addr.Number())
	assert.Equal(t, "tel:+1555", addr.String())
}

func TestParseCallerInfo(t *testing.T) {
	tests := []struct {
		value string
		want  CallerInfo
	}{
		{`"Alice Smith" <sip:5001@example.com>;tag=abc`, CallerInfo{Name: "Alice Smith", Number: "5001", URI: "sip:5001@example.com"}},
		{`Bob <tel:+15551234567>`, CallerInfo{Name: "Bob", Number: "+15551234567", URI: "tel:+15551234567"}},
		{`sip:5002@example.com`, CallerInfo{Number: "5002", URI: "sip:5002@example.com"}},
		{`<tel:+4930123;phone-context=example>`, CallerInfo{Number: "+4930123", URI: "tel:+4930123;phone-context=example"}},
		{``, CallerInfo{}},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCallerInfo(tt.value))
		})
	}
	assert.True(t, ParseCallerInfo("").Empty())
}
