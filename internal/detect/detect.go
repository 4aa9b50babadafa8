package detect

// #region all

// All runs every detector in fixed category order: rigidity,
// fragmentation, inflation, distortion. The ordering governs only row
// order in the output; the detectors are mutually independent. A detector
// that lacked data simply contributes zero rows, so the aggregate call
// never aborts on insufficient history.
func All(in Input, th Thresholds) []Signature {
	var out []Signature
	out = append(out, Rigidity(in.Rigidity, th.Rigidity)...)
	out = append(out, Fragmentation(in.Fragmentation, th.Fragmentation)...)
	out = append(out, Inflation(in.Inflation, th.Inflation)...)
	out = append(out, Distortion(in.Distortion, th.Distortion)...)
	return out
}

// #endregion all
