package testutil

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"marketpipe/internal/dataset"
	"marketpipe/pkg/contracts/domain"
)

var (
	fixtureExchanges = []string{"NYQ", "NMS", "NGM"}
	fixtureSectors   = []string{"Technology", "Healthcare", "Energy", "Utilities"}
)

// Constituents generates n deterministic S&P-like rows for the given seed.
// Roughly one row in ten leaves Ebitda empty.
func Constituents(seed int64, n int) []domain.Constituent {
	faker := gofakeit.New(seed)
	out := make([]domain.Constituent, n)
	for i := range out {
		price := faker.Float64Range(5, 900)
		marketcap := int64(faker.Number(1_000_000, 3_000_000_000))
		growth := faker.Float64Range(-0.5, 0.8)
		employees := int64(faker.Number(50, 500_000))
		weight := faker.Float64Range(0, 0.07)

		c := domain.Constituent{
			Exchange:            faker.RandomString(fixtureExchanges),
			Symbol:              faker.LetterN(4),
			Shortname:           truncate(faker.Company(), 20),
			Longname:            truncate(faker.Company(), 20),
			Sector:              faker.RandomString(fixtureSectors),
			Industry:            truncate(faker.JobDescriptor(), 20),
			Currentprice:        &price,
			Marketcap:           &marketcap,
			Revenuegrowth:       &growth,
			City:                truncate(faker.City(), 20),
			State:               faker.StateAbr(),
			Country:             "United States",
			Fulltimeemployees:   &employees,
			Longbusinesssummary: truncate(faker.Sentence(12), 255),
			Weight:              &weight,
		}
		if faker.Number(0, 9) > 0 {
			ebitda := faker.Float64Range(-1e8, 1e10)
			c.Ebitda = &ebitda
		}
		out[i] = c
	}
	return out
}

// RawFrame builds a frame with the raw contract columns from constituents
func RawFrame(t testing.TB, constituents []domain.Constituent) *dataset.Frame {
	t.Helper()
	rows := make([][]any, len(constituents))
	for i, c := range constituents {
		rows[i] = c.Values()
	}
	frame, err := dataset.FromRows(ContractFrameColumns(domain.RawColumns), rows)
	if err != nil {
		t.Fatalf("build raw frame: %v", err)
	}
	return frame
}

// ContractFrameColumns maps contract columns onto frame columns
func ContractFrameColumns(columns []domain.ContractColumn) []dataset.Column {
	out := make([]dataset.Column, len(columns))
	for i, c := range columns {
		kind := dataset.KindString
		switch c.Type {
		case domain.ColumnFloat:
			kind = dataset.KindFloat
		case domain.ColumnBigInt:
			kind = dataset.KindInt
		}
		out[i] = dataset.Column{Name: c.Name, Kind: kind}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
