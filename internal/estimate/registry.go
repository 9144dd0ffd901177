package estimate

// Options configure the default registry.
type Options struct {
	HeaderPx      int
	RowPx         int
	QuantumPx     int
	ParameterRows int
	TableLimit    int
	ChartRows     int
}

// DefaultOptions returns the calibrated dashboard defaults.
func DefaultOptions() Options {
	return Options{
		HeaderPx:      DefaultHeaderPx,
		RowPx:         DefaultTableRowPx,
		QuantumPx:     DefaultQuantumPx,
		ParameterRows: DefaultParameterRows,
		TableLimit:    DefaultTableLimit,
		ChartRows:     DefaultChartRows,
	}
}

// Registry selects an Estimator per visualization type.
type Registry struct {
	byType   map[string]Estimator
	fallback Estimator
}

// NewRegistry returns a registry with the table, counter, text and chart
// estimators built from opts.
func NewRegistry(opts Options) *Registry {
	r := &Registry{
		byType:   make(map[string]Estimator),
		fallback: Fixed{Rows: opts.ChartRows, ParameterRows: opts.ParameterRows},
	}
	r.Register(TypeTable, Table{
		Bands:         TableBands(opts.HeaderPx, opts.RowPx, opts.QuantumPx, opts.TableLimit),
		ParameterRows: opts.ParameterRows,
	})
	r.Register(TypeCounter, Fixed{Rows: DefaultCounterRows, ParameterRows: opts.ParameterRows})
	r.Register(TypeText, Text{LineUnits: DefaultTextLinePx, Quantum: opts.QuantumPx})
	r.Register(TypeChart, r.fallback)
	return r
}

// Register installs e for visualization type vt, replacing any previous one.
func (r *Registry) Register(vt string, e Estimator) {
	r.byType[vt] = e
}

// For returns the estimator for vt, or the fixed fallback.
func (r *Registry) For(vt string) Estimator {
	if e, ok := r.byType[vt]; ok {
		return e
	}
	return r.fallback
}

// Estimate is shorthand for r.For(vt).Estimate(m).
func (r *Registry) Estimate(vt string, m Metrics) int {
	return r.For(vt).Estimate(m)
}

// Known reports whether vt has a registered estimator.
func (r *Registry) Known(vt string) bool {
	_, ok := r.byType[vt]
	return ok
}
