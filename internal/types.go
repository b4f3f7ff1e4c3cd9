package internal

// Raw column names, in layout order.
const (
	ColClaimNumber    = "ClaimNumber"
	ColCrossReference = "CrossReference"
	ColName           = "Name"
	ColBirthDate      = "BirthDate"
	ColDeathDate      = "DeathDate"
	ColSex            = "Sex"
	ColAddress        = "Address"
)

// Final column names, in output order.
const (
	ColCode1         = "Code1"
	ColCode2         = "Code2"
	ColStreetAddress = "StreetAddress"
	ColCounty        = "County"
	ColState         = "State"
	ColZipCode       = "ZipCode"
)

var RawColumns = []string{
	ColClaimNumber, ColCrossReference, ColName, ColBirthDate, ColDeathDate, ColSex, ColAddress,
}

var OutputColumns = []string{
	ColName, ColBirthDate, ColSex, ColCode1, ColCode2, ColStreetAddress, ColCounty, ColState, ColZipCode,
}

// Record is one layout occurrence as captured, before any cleaning.
type Record struct {
	ClaimNumberRaw string
	CrossReference string
	Name           string
	BirthDate      string
	DeathDate      string
	Sex            string
	AddressRaw     string

	// Source names the document the record was read from. It never reaches the output files.
	Source string
}

// Row is a cleaned record. A nil field is absent.
type Row struct {
	Index         int
	Name          *string
	BirthDate     *string
	Sex           *string
	Code1         *string
	Code2         *string
	StreetAddress *string
	County        *string
	State         *string
	ZipCode       *string
}

// Values returns the row's fields in OutputColumns order.
func (r Row) Values() []*string {
	return []*string{r.Name, r.BirthDate, r.Sex, r.Code1, r.Code2, r.StreetAddress, r.County, r.State, r.ZipCode}
}

type DocumentStatus string

const (
	DocumentMatched     DocumentStatus = "matched"
	DocumentNoMatch     DocumentStatus = "no_match"
	DocumentUnsupported DocumentStatus = "skipped"
)

type DocumentRow struct {
	Path        string
	Hash        string
	Size        int64
	Status      DocumentStatus
	Records     int
	LayoutScore float64
}

type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
