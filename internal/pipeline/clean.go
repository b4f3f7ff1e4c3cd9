package pipeline

import (
	"strings"

	"go.uber.org/zap"

	"nydb/internal"
	"nydb/internal/util"
)

// codeDenylist is removed from the claim number in this order.
var codeDenylist = []string{"ROLL", "ROL", "Details", "NO SIRVE", "PASO", "CAMRA", "NO SIRVIO", "CASA", "RETRY"}

const (
	code1Len      = 10
	code2Len      = 8
	code1SplitLen = code1Len + code2Len
)

type CleanStats struct {
	Input            int
	Deceased         int
	AddressMalformed int
	CodesRepaired    int
	CodesOutOfShape  int
	Output           int
}

// splitRecord is a record after column splitting, before absent-marking and filtering.
type splitRecord struct {
	Index          int
	Source         string
	CrossReference string
	Name           string
	BirthDate      string
	DeathDate      string
	Sex            string
	Code1          *string
	Code2          *string
	Address        Address
}

type Cleaner struct {
	logger *zap.Logger
}

func NewCleaner(logger *zap.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean runs every pass in order and returns the final rows.
func (c *Cleaner) Clean(table Table) ([]internal.Row, CleanStats) {
	stats := CleanStats{Input: len(table.Records)}

	records := TrimFields(table.Records)
	records = RemoveCodeFragments(records)
	split := SplitColumns(records)
	for _, rec := range split {
		if rec.Address.Outcome != AddressMalformed {
			continue
		}
		stats.AddressMalformed++
		c.logger.Warn("address does not match the locality layout",
			zap.String("document", rec.Source), zap.Int("index", rec.Index), zap.String("name", rec.Name))
	}

	rows := FilterLiving(split)
	stats.Deceased = len(split) - len(rows)

	rows, stats.CodesRepaired, stats.CodesOutOfShape = RepairCodes(rows)
	if stats.CodesOutOfShape > 0 {
		c.logger.Info("codes still out of shape after repair", zap.Int("rows", stats.CodesOutOfShape))
	}

	stats.Output = len(rows)
	return rows, stats
}

// TrimFields strips leading and trailing whitespace from every field.
func TrimFields(records []internal.Record) []internal.Record {
	out := make([]internal.Record, 0, len(records))
	for _, r := range records {
		out = append(out, internal.Record{
			ClaimNumberRaw: strings.TrimSpace(r.ClaimNumberRaw),
			CrossReference: strings.TrimSpace(r.CrossReference),
			Name:           strings.TrimSpace(r.Name),
			BirthDate:      strings.TrimSpace(r.BirthDate),
			DeathDate:      strings.TrimSpace(r.DeathDate),
			Sex:            strings.TrimSpace(r.Sex),
			AddressRaw:     strings.TrimSpace(r.AddressRaw),
			Source:         r.Source,
		})
	}
	return out
}

// RemoveCodeFragments deletes every denylist token from the claim number. The denylist
// is applied until nothing changes, so tokens exposed by an earlier deletion go too.
func RemoveCodeFragments(records []internal.Record) []internal.Record {
	out := make([]internal.Record, 0, len(records))
	for _, r := range records {
		r.ClaimNumberRaw = stripDenylist(r.ClaimNumberRaw)
		out = append(out, r)
	}
	return out
}

func stripDenylist(value string) string {
	for {
		before := value
		for _, token := range codeDenylist {
			value = strings.ReplaceAll(value, token, "")
		}
		if value == before {
			return value
		}
	}
}

// SplitColumns splits the claim number into Code1/Code2 and the address into its parts.
// Index is the record's position in the input.
func SplitColumns(records []internal.Record) []splitRecord {
	out := make([]splitRecord, 0, len(records))
	for i, r := range records {
		rec := splitRecord{
			Index:          i,
			Source:         r.Source,
			CrossReference: r.CrossReference,
			Name:           r.Name,
			BirthDate:      r.BirthDate,
			DeathDate:      r.DeathDate,
			Sex:            r.Sex,
			Address:        SplitAddress(r.AddressRaw),
		}
		codes := strings.Fields(r.ClaimNumberRaw)
		if len(codes) > 0 {
			rec.Code1 = util.StringPtr(codes[0])
		}
		if len(codes) > 1 {
			rec.Code2 = util.StringPtr(codes[1])
		}
		out = append(out, rec)
	}
	return out
}

// FilterLiving marks empty values absent, drops every record with a death date and
// leaves the cross reference and death date behind.
func FilterLiving(records []splitRecord) []internal.Row {
	out := make([]internal.Row, 0, len(records))
	for _, r := range records {
		if util.NonEmpty(r.DeathDate) != nil {
			continue
		}
		out = append(out, internal.Row{
			Index:         r.Index,
			Name:          util.NonEmpty(r.Name),
			BirthDate:     util.NonEmpty(r.BirthDate),
			Sex:           util.NonEmpty(r.Sex),
			Code1:         absent(r.Code1),
			Code2:         absent(r.Code2),
			StreetAddress: absent(r.Address.Street),
			County:        absent(r.Address.County),
			State:         absent(r.Address.State),
			ZipCode:       absent(r.Address.ZipCode),
		})
	}
	return out
}

func absent(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

// RepairCodes re-splits codes whose lengths are off. When Code1 carries both codes glued
// together its tail becomes Code2; overlong codes are truncated. Rows already in shape
// are untouched. It returns the rows, how many changed and how many are still off.
func RepairCodes(rows []internal.Row) ([]internal.Row, int, int) {
	out := make([]internal.Row, 0, len(rows))
	repaired, residual := 0, 0
	for _, row := range rows {
		if codesInShape(row) {
			out = append(out, row)
			continue
		}

		fixed := row
		if row.Code1 != nil {
			code1 := []rune(*row.Code1)
			if len(code1) >= code1SplitLen {
				fixed.Code2 = util.StringPtr(string(code1[code1Len:code1SplitLen]))
			}
			if len(code1) > code1Len {
				fixed.Code1 = util.StringPtr(string(code1[:code1Len]))
			}
		}
		if fixed.Code2 != nil {
			if code2 := []rune(*fixed.Code2); len(code2) > code2Len {
				fixed.Code2 = util.StringPtr(string(code2[:code2Len]))
			}
		}

		if util.Deref(fixed.Code1) != util.Deref(row.Code1) || util.Deref(fixed.Code2) != util.Deref(row.Code2) {
			repaired++
		}
		if !codesInShape(fixed) {
			residual++
		}
		out = append(out, fixed)
	}
	return out, repaired, residual
}

func codesInShape(row internal.Row) bool {
	return row.Code1 != nil && row.Code2 != nil &&
		len([]rune(*row.Code1)) == code1Len && len([]rune(*row.Code2)) == code2Len
}
