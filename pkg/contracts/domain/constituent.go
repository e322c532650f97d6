package domain

// Constituent represents one S&P 500 company row of the raw table.
// Numeric fields are pointers because the source file leaves gaps.
type Constituent struct {
	Exchange            string   `json:"Exchange" validate:"max=20"`
	Symbol              string   `json:"Symbol" validate:"required,max=20"`
	Shortname           string   `json:"Shortname" validate:"max=20"`
	Longname            string   `json:"Longname" validate:"max=20"`
	Sector              string   `json:"Sector" validate:"max=20"`
	Industry            string   `json:"Industry" validate:"max=20"`
	Currentprice        *float64 `json:"Currentprice"`
	Marketcap           *int64   `json:"Marketcap"`
	Ebitda              *float64 `json:"Ebitda"`
	Revenuegrowth       *float64 `json:"Revenuegrowth"`
	City                string   `json:"City" validate:"max=20"`
	State               string   `json:"State" validate:"max=20"`
	Country             string   `json:"Country" validate:"max=20"`
	Fulltimeemployees   *int64   `json:"Fulltimeemployees"`
	Longbusinesssummary string   `json:"Longbusinesssummary" validate:"max=255"`
	Weight              *float64 `json:"Weight"`
}

// Values returns the row in RawColumns order; nil pointers and empty strings become nil
func (c Constituent) Values() []any {
	return []any{
		str(c.Exchange), str(c.Symbol), str(c.Shortname), str(c.Longname),
		str(c.Sector), str(c.Industry),
		f64(c.Currentprice), i64(c.Marketcap), f64(c.Ebitda), f64(c.Revenuegrowth),
		str(c.City), str(c.State), str(c.Country),
		i64(c.Fulltimeemployees),
		str(c.Longbusinesssummary),
		f64(c.Weight),
	}
}

func str(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func f64(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func i64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
