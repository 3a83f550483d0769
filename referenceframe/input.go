// Package referenceframe defines joint inputs and the kinematic frames they drive.
package referenceframe

// Input wraps the input to a mutable frame, e.g. a joint angle.
//   - revolute inputs should be in radians.
//   - prismatic inputs should be in meters.
type Input struct {
	Value float64
}

// Limit represents the range of motion for a given degree of freedom.
type Limit struct {
	Min float64
	Max float64
}

// FloatsToInputs wraps a slice of floats in Inputs.
func FloatsToInputs(floats []float64) []Input {
	inputs := make([]Input, len(floats))
	for i, f := range floats {
		inputs[i] = Input{f}
	}
	return inputs
}

// InputsToFloats unwraps Inputs to raw floats.
func InputsToFloats(inputs []Input) []float64 {
	floats := make([]float64, len(inputs))
	for i, f := range inputs {
		floats[i] = f.Value
	}
	return floats
}

// ZeroInputs returns a slice of zero-valued Inputs with the given length.
func ZeroInputs(n int) []Input {
	return make([]Input, n)
}
