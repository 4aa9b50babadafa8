package field

// #region finite-differences

// Derivatives holds first and second finite-difference derivatives of a
// field time series, one value per tracked component.
type Derivatives struct {
	First  []float64
	Second []float64
}

// Empty reports whether the series was too short to differentiate.
func (d Derivatives) Empty() bool {
	return len(d.First) == 0 && len(d.Second) == 0
}

// FiniteDifferences computes per-component first and second derivatives of
// an ordered series of field samples with uniform step h, restricted to the
// first dim components. Derivatives are evaluated at the newest sample:
// backward differences for the first derivative, and the standard
// second-difference over the last three samples.
//
// Fewer than 3 samples yields an empty result. Callers treat this as
// "insufficient history", never as an error.
func FiniteDifferences(samples [][]float32, h float64, dim int) Derivatives {
	if len(samples) < 3 || h == 0 {
		return Derivatives{}
	}

	n := len(samples)
	last := samples[n-1]
	prev := samples[n-2]
	prev2 := samples[n-3]
	if len(last) < dim || len(prev) < dim || len(prev2) < dim {
		return Derivatives{}
	}

	first := make([]float64, dim)
	second := make([]float64, dim)
	for i := 0; i < dim; i++ {
		first[i] = (float64(last[i]) - float64(prev[i])) / h
		second[i] = (float64(last[i]) - 2*float64(prev[i]) + float64(prev2[i])) / (h * h)
	}
	return Derivatives{First: first, Second: second}
}

// #endregion finite-differences

// #region series

// SeriesDerivatives computes first and second derivatives at every sample of
// a scalar time series with uniform step h: centered differences at interior
// samples, forward at the first sample, backward at the last.
//
// Fewer than 3 samples yields (nil, nil).
func SeriesDerivatives(series []float64, h float64) (first, second []float64) {
	n := len(series)
	if n < 3 || h == 0 {
		return nil, nil
	}

	first = make([]float64, n)
	second = make([]float64, n)

	first[0] = (series[1] - series[0]) / h
	second[0] = (series[2] - 2*series[1] + series[0]) / (h * h)
	for i := 1; i < n-1; i++ {
		first[i] = (series[i+1] - series[i-1]) / (2 * h)
		second[i] = (series[i+1] - 2*series[i] + series[i-1]) / (h * h)
	}
	first[n-1] = (series[n-1] - series[n-2]) / h
	second[n-1] = (series[n-1] - 2*series[n-2] + series[n-3]) / (h * h)

	return first, second
}

// Slope fits a least-squares line through a series sampled at uniform unit
// spacing and returns its slope. Fewer than 2 samples yields 0.
func Slope(series []float64) float64 {
	n := len(series)
	if n < 2 {
		return 0
	}
	meanX := float64(n-1) / 2
	var meanY float64
	for _, y := range series {
		meanY += y
	}
	meanY /= float64(n)

	var cov, varX float64
	for i, y := range series {
		dx := float64(i) - meanX
		cov += dx * (y - meanY)
		varX += dx * dx
	}
	if varX == 0 {
		return 0
	}
	return cov / varX
}

// #endregion series
