package mesh

// VertexArray is a flat arena holding Stride values per boundary vertex of every marker
type VertexArray struct {
	// Contiguous storage for all markers
	// Layout: [Marker 0 Data][Marker 1 Data]...[Marker N-1 Data]
	Data []float64

	// Marker m's data starts at Data[Offsets[m]]
	Offsets []int

	// Number of values per vertex
	Stride int
}

// NewVertexArray allocates storage sized for markers
func NewVertexArray(markers []Marker, stride int) *VertexArray {
	offsets := make([]int, len(markers)+1)
	for i, mk := range markers {
		offsets[i+1] = offsets[i] + stride*len(mk.Vertices)
	}
	return &VertexArray{
		Data:    make([]float64, offsets[len(markers)]),
		Offsets: offsets,
		Stride:  stride,
	}
}

// Marker returns the data of marker iMarker
func (va *VertexArray) Marker(iMarker int) []float64 {
	if iMarker < 0 || iMarker >= len(va.Offsets)-1 {
		return nil
	}
	return va.Data[va.Offsets[iMarker]:va.Offsets[iMarker+1]]
}

// At returns the Stride values of one vertex
func (va *VertexArray) At(iMarker, iVertex int) []float64 {
	start := va.Offsets[iMarker] + iVertex*va.Stride
	return va.Data[start : start+va.Stride]
}

// NumVertices returns the vertex count of marker iMarker
func (va *VertexArray) NumVertices(iMarker int) int {
	if va.Stride == 0 {
		return 0
	}
	return (va.Offsets[iMarker+1] - va.Offsets[iMarker]) / va.Stride
}

// SetZero clears all values
func (va *VertexArray) SetZero() {
	clear(va.Data)
}
