package coverage

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// PAFRecord holds the twelve mandatory columns of one PAF alignment line.
// Optional SAM-like tags after column 12 are ignored.
type PAFRecord struct {
	Query       string
	QueryLen    int
	QueryStart  int
	QueryEnd    int
	Strand      byte
	Target      string
	TargetLen   int
	TargetStart int
	TargetEnd   int
	Matches     int
	AlignLen    int
	MapQ        int
}

// ParsePAF parses one PAF line.
func ParsePAF(line string) (PAFRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 12 {
		return PAFRecord{}, errors.Errorf("PAF line has %d columns, want at least 12", len(fields))
	}

	var (
		rec PAFRecord
		err error
	)

	rec.Query = fields[0]
	rec.Target = fields[5]
	if len(fields[4]) != 1 || (fields[4][0] != '+' && fields[4][0] != '-') {
		return PAFRecord{}, errors.Errorf("invalid PAF strand %q", fields[4])
	}
	rec.Strand = fields[4][0]

	ints := []struct {
		idx int
		dst *int
	}{
		{1, &rec.QueryLen},
		{2, &rec.QueryStart},
		{3, &rec.QueryEnd},
		{6, &rec.TargetLen},
		{7, &rec.TargetStart},
		{8, &rec.TargetEnd},
		{9, &rec.Matches},
		{10, &rec.AlignLen},
		{11, &rec.MapQ},
	}
	for _, field := range ints {
		*field.dst, err = strconv.Atoi(fields[field.idx])
		if err != nil {
			return PAFRecord{}, errors.Wrapf(err, "invalid PAF column %d", field.idx+1)
		}
	}

	if rec.TargetStart > rec.TargetEnd {
		return PAFRecord{}, errors.Errorf("PAF target interval [%d, %d) is inverted", rec.TargetStart, rec.TargetEnd)
	}

	return rec, nil
}
