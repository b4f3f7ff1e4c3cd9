package pipeline

import "testing"

func TestSplitAddress(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		street  string
		county  string
		state   string
		zip     string
		outcome AddressOutcome
	}{
		{name: "two lines", raw: "123 MAIN ST\n\n  QUEENS, NY  12345-6789", street: "123 MAIN ST", county: "QUEENS", state: "NY", zip: "12345-6789", outcome: AddressOK},
		{name: "single line", raw: "123 MAIN ST", street: "123 MAIN ST", county: "<nil>", state: "<nil>", zip: "<nil>", outcome: AddressMalformed},
		{name: "no comma", raw: "123 MAIN ST\n\nQUEENS NY  12345", street: "123 MAIN ST", county: "QUEENS NY  12345", state: "<nil>", zip: "<nil>", outcome: AddressMalformed},
		{name: "single space before zip", raw: "123 MAIN ST\n\nQUEENS, NY 12345", street: "123 MAIN ST", county: "QUEENS", state: "<nil>", zip: "<nil>", outcome: AddressMalformed},
		{name: "empty", raw: "", street: "", county: "<nil>", state: "<nil>", zip: "<nil>", outcome: AddressMalformed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			addr := SplitAddress(tc.raw)
			if deref(addr.Street) != tc.street || deref(addr.County) != tc.county ||
				deref(addr.State) != tc.state || deref(addr.ZipCode) != tc.zip || addr.Outcome != tc.outcome {
				t.Fatalf("got street=%q county=%q state=%q zip=%q outcome=%s",
					deref(addr.Street), deref(addr.County), deref(addr.State), deref(addr.ZipCode), addr.Outcome)
			}
		})
	}
}
