package engine

// PathRow is one record per (path, quarter), matching spec.md's §3 data
// model. Result stores these columnar (struct-of-arrays) for cache
// locality in the hot per-path loop; Rows reassembles row objects for
// callers (aggregation, tests) that want them.
type PathRow struct {
	Path                 int     `json:"path"`
	Period               int     `json:"period"`
	Year                 int     `json:"year"`
	Quarter              int     `json:"quarter"`
	Price                float64 `json:"price"`
	Interest             float64 `json:"interest"`
	LoanSize             float64 `json:"loan_size"`
	Units                float64 `json:"units"`
	Reinvestment         float64 `json:"reinvestment"`
	InterestDeficit      float64 `json:"interest_deficit"`
	CapitalDeficit       float64 `json:"capital_deficit"`
	Surplus              float64 `json:"surplus"`
	InHoliday            bool    `json:"in_holiday"`
	FunderEarned         float64 `json:"funder_earned"`
	AnnuityIncome        float64 `json:"annuity_income"`
	HolidayQuarters      int     `json:"holiday_quarters"`
	SubPerform           bool    `json:"sub_perform"`
	InterestPaid         float64 `json:"interest_paid"`
	InterestPaidToFunder float64 `json:"interest_paid_to_funder"`
	InterestRate         float64 `json:"interest_rate"`
	UnitsSold            float64 `json:"units_sold"`
	CumUnitsSold         float64 `json:"cum_units_sold"`
	InterestDeficitDelta float64 `json:"interest_deficit_delta"`
	UnitsToPool          float64 `json:"units_to_pool"`
	CumUnitsToPool       float64 `json:"cum_units_to_pool"`
	CumInterestPaid      float64 `json:"cum_interest_paid"`
	UnitsToPrincipal     float64 `json:"units_to_principal"`
	TotalUnitsSold       float64 `json:"total_units_sold"`
	HedgeUnitsDelta      float64 `json:"hedge_units_delta"`
}

// Result is the columnar output of one path-engine run: one slice per
// column, each indexed by quarter (0..4T inclusive).
type Result struct {
	PathID int

	Period               []int
	Year                 []int
	Quarter              []int
	Price                []float64
	Interest             []float64
	LoanSize             []float64
	Units                []float64
	Reinvestment         []float64
	InterestDeficit      []float64
	CapitalDeficit       []float64
	Surplus              []float64
	InHoliday            []bool
	FunderEarned         []float64
	AnnuityIncome        []float64
	HolidayQuarters      []int
	SubPerform           []bool
	InterestPaid         []float64
	InterestPaidToFunder []float64
	InterestRate         []float64
	UnitsSold            []float64
	CumUnitsSold         []float64
	InterestDeficitDelta []float64
	UnitsToPool          []float64
	CumUnitsToPool       []float64
	CumInterestPaid      []float64
	UnitsToPrincipal     []float64
	TotalUnitsSold       []float64
	HedgeUnitsDelta      []float64
}

func newResult(pathID, rows int) Result {
	return Result{
		PathID:               pathID,
		Period:               make([]int, rows),
		Year:                 make([]int, rows),
		Quarter:              make([]int, rows),
		Price:                make([]float64, rows),
		Interest:             make([]float64, rows),
		LoanSize:             make([]float64, rows),
		Units:                make([]float64, rows),
		Reinvestment:         make([]float64, rows),
		InterestDeficit:      make([]float64, rows),
		CapitalDeficit:       make([]float64, rows),
		Surplus:              make([]float64, rows),
		InHoliday:            make([]bool, rows),
		FunderEarned:         make([]float64, rows),
		AnnuityIncome:        make([]float64, rows),
		HolidayQuarters:      make([]int, rows),
		SubPerform:           make([]bool, rows),
		InterestPaid:         make([]float64, rows),
		InterestPaidToFunder: make([]float64, rows),
		InterestRate:         make([]float64, rows),
		UnitsSold:            make([]float64, rows),
		CumUnitsSold:         make([]float64, rows),
		InterestDeficitDelta: make([]float64, rows),
		UnitsToPool:          make([]float64, rows),
		CumUnitsToPool:       make([]float64, rows),
		CumInterestPaid:      make([]float64, rows),
		UnitsToPrincipal:     make([]float64, rows),
		TotalUnitsSold:       make([]float64, rows),
		HedgeUnitsDelta:      make([]float64, rows),
	}
}

func (r Result) set(i int, row PathRow) {
	r.Period[i] = row.Period
	r.Year[i] = row.Year
	r.Quarter[i] = row.Quarter
	r.Price[i] = row.Price
	r.Interest[i] = row.Interest
	r.LoanSize[i] = row.LoanSize
	r.Units[i] = row.Units
	r.Reinvestment[i] = row.Reinvestment
	r.InterestDeficit[i] = row.InterestDeficit
	r.CapitalDeficit[i] = row.CapitalDeficit
	r.Surplus[i] = row.Surplus
	r.InHoliday[i] = row.InHoliday
	r.FunderEarned[i] = row.FunderEarned
	r.AnnuityIncome[i] = row.AnnuityIncome
	r.HolidayQuarters[i] = row.HolidayQuarters
	r.SubPerform[i] = row.SubPerform
	r.InterestPaid[i] = row.InterestPaid
	r.InterestPaidToFunder[i] = row.InterestPaidToFunder
	r.InterestRate[i] = row.InterestRate
	r.UnitsSold[i] = row.UnitsSold
	r.CumUnitsSold[i] = row.CumUnitsSold
	r.InterestDeficitDelta[i] = row.InterestDeficitDelta
	r.UnitsToPool[i] = row.UnitsToPool
	r.CumUnitsToPool[i] = row.CumUnitsToPool
	r.CumInterestPaid[i] = row.CumInterestPaid
	r.UnitsToPrincipal[i] = row.UnitsToPrincipal
	r.TotalUnitsSold[i] = row.TotalUnitsSold
	r.HedgeUnitsDelta[i] = row.HedgeUnitsDelta
}

// Rows reassembles the columnar Result into row objects, in temporal
// order. Callers should prefer column access on Result directly in hot
// paths; Rows exists for aggregation and test code that wants the
// row-at-a-time view of spec.md's PathRow.
func (r Result) Rows() []PathRow {
	rows := make([]PathRow, len(r.Period))
	for i := range rows {
		rows[i] = PathRow{
			Path:                 r.PathID,
			Period:               r.Period[i],
			Year:                 r.Year[i],
			Quarter:              r.Quarter[i],
			Price:                r.Price[i],
			Interest:             r.Interest[i],
			LoanSize:             r.LoanSize[i],
			Units:                r.Units[i],
			Reinvestment:         r.Reinvestment[i],
			InterestDeficit:      r.InterestDeficit[i],
			CapitalDeficit:       r.CapitalDeficit[i],
			Surplus:              r.Surplus[i],
			InHoliday:            r.InHoliday[i],
			FunderEarned:         r.FunderEarned[i],
			AnnuityIncome:        r.AnnuityIncome[i],
			HolidayQuarters:      r.HolidayQuarters[i],
			SubPerform:           r.SubPerform[i],
			InterestPaid:         r.InterestPaid[i],
			InterestPaidToFunder: r.InterestPaidToFunder[i],
			InterestRate:         r.InterestRate[i],
			UnitsSold:            r.UnitsSold[i],
			CumUnitsSold:         r.CumUnitsSold[i],
			InterestDeficitDelta: r.InterestDeficitDelta[i],
			UnitsToPool:          r.UnitsToPool[i],
			CumUnitsToPool:       r.CumUnitsToPool[i],
			CumInterestPaid:      r.CumInterestPaid[i],
			UnitsToPrincipal:     r.UnitsToPrincipal[i],
			TotalUnitsSold:       r.TotalUnitsSold[i],
			HedgeUnitsDelta:      r.HedgeUnitsDelta[i],
		}
	}
	return rows
}

// At returns the row at the given period (0..4T), the end-of-term row
// being At(4T).
func (r Result) At(period int) PathRow {
	for i, p := range r.Period {
		if p == period {
			return r.rowAt(i)
		}
	}
	return PathRow{}
}

func (r Result) rowAt(i int) PathRow {
	rows := r.Rows()
	return rows[i]
}

// EndOfTerm returns the final row of the path (period = len-1, i.e. 4T).
func (r Result) EndOfTerm() PathRow {
	return r.rowAt(len(r.Period) - 1)
}
