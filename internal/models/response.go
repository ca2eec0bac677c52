package models

// QubitCount is the number of entries in a qubit state distribution
const QubitCount = 8

// FallbackText is the reply shown when an analysis request fails
const FallbackText = "CRITICAL: MANIFOLD INSTABILITY DETECTED. LINGUISTIC BUFFER FLUSHED."

// Vector is a point in semantic space
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Stats is the metrics snapshot returned alongside a reply.
// QubitStates is not normalized; values are displayed as returned.
type Stats struct {
	Entanglement   float64   `json:"entanglement"`
	Entropy        float64   `json:"entropy"`
	Superposition  float64   `json:"superposition"`
	QubitStates    []float64 `json:"qubitStates"`
	SemanticVector Vector    `json:"semanticVector"`
}

// Clone returns a deep copy of the snapshot
func (s *Stats) Clone() *Stats {
	if s == nil {
		return nil
	}
	c := *s
	c.QubitStates = append([]float64(nil), s.QubitStates...)
	return &c
}

// QuantumResponse is the structured result of one analysis request
type QuantumResponse struct {
	Response string `json:"response"`
	Stats    Stats  `json:"stats"`
}

// FallbackResponse returns the fixed result used when analysis fails
func FallbackResponse() QuantumResponse {
	return QuantumResponse{
		Response: FallbackText,
		Stats: Stats{
			Entanglement:   0,
			Entropy:        1,
			Superposition:  0,
			QubitStates:    make([]float64, QubitCount),
			SemanticVector: Vector{},
		},
	}
}

// DefaultQubitStates is the distribution displayed before any analysis
func DefaultQubitStates() []float64 {
	return []float64{0.1, 0.2, 0.15, 0.4, 0.1, 0.05, 0.05, 0.05}
}
