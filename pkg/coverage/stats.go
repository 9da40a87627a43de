package coverage

// Row is one line of the per-sample coverage table.
type Row struct {
	Sample   string  `csv:"Sample"`
	Contig   string  `csv:"Contig"`
	Count    int64   `csv:"Count"`
	RPM      float64 `csv:"RPM"`
	RPKM     float64 `csv:"RPKM"`
	RPK      float64 `csv:"RPK"`
	TPM      float64 `csv:"TPM"`
	Hitrate  float64 `csv:"Hitrate"`
	Variance float64 `csv:"Variance"`
}

// SampleCoverage turns the raw per-contig counts of one sample into the
// normalised coverage statistics:
//
//	RPM  = count / (library size / 1e6)
//	RPKM = RPM / (contig length / 1e3)
//	RPK  = count / (contig length / 1e3)
//	TPM  = RPK / (sum of all RPK / 1e6)
//
// Hitrate and variance are carried over from the variance table. Contigs
// absent from the variance rows get zeroes.
func SampleCoverage(sample string, libSize int64, counts []ContigCount, variances []ContigVariance) []Row {
	byContig := make(map[string]ContigVariance, len(variances))
	for _, v := range variances {
		byContig[v.Contig] = v
	}

	rpmScale := float64(libSize) / 1e6

	rows := make([]Row, 0, len(counts))
	allRPK := 0.0
	for _, count := range counts {
		row := Row{
			Sample: sample,
			Contig: count.Contig,
			Count:  count.Count,
		}
		if v, ok := byContig[count.Contig]; ok {
			row.Hitrate = v.Hitrate
			row.Variance = v.Variance
		}

		lenKB := float64(count.Length) / 1e3
		if rpmScale > 0 {
			row.RPM = float64(count.Count) / rpmScale
		}
		if lenKB > 0 {
			row.RPKM = row.RPM / lenKB
			row.RPK = float64(count.Count) / lenKB
		}
		allRPK += row.RPK

		rows = append(rows, row)
	}

	rpkScale := allRPK / 1e6
	if rpkScale > 0 {
		for i := range rows {
			rows[i].TPM = rows[i].RPK / rpkScale
		}
	}

	return rows
}
