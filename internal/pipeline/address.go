package pipeline

import "strings"

type AddressOutcome string

const (
	AddressOK AddressOutcome = "ok"
	// AddressMalformed means the locality line is missing or is not "County, ST  ZIP".
	AddressMalformed AddressOutcome = "malformed"
)

type Address struct {
	Street  *string
	County  *string
	State   *string
	ZipCode *string
	Outcome AddressOutcome
}

// SplitAddress splits a two-line address: the street line, a blank line, then the
// locality "County, ST  ZIP". The state and zip are the second and fourth single-space
// tokens after the comma; any other shape leaves them absent.
func SplitAddress(raw string) Address {
	segments := strings.Split(raw, "\n\n")
	street := segments[0]
	addr := Address{Street: &street, Outcome: AddressMalformed}
	if len(segments) < 2 {
		return addr
	}

	parts := strings.Split(segments[1], ",")
	county := strings.TrimSpace(parts[0])
	addr.County = &county
	if len(parts) < 2 {
		return addr
	}

	tokens := strings.Split(parts[1], " ")
	if len(tokens) != 4 || tokens[0] != "" || tokens[2] != "" || tokens[1] == "" || tokens[3] == "" {
		return addr
	}
	state, zip := tokens[1], tokens[3]
	addr.State = &state
	addr.ZipCode = &zip
	addr.Outcome = AddressOK
	return addr
}
