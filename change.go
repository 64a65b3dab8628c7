package appx

// Change is one atomic declarative edit to a manifest file: an XML
// fragment inserted under, or removed from, the element selected by
// Parent. Versions and DeviceTarget qualify which concrete manifests
// an abstract change applies to.
//
// A Change has no surrogate identity and is never mutated in place;
// every transformation clones first.
type Change struct {
	Target       string `json:"target,omitempty" yaml:"target,omitempty"`
	Parent       string `json:"parent,omitempty" yaml:"parent,omitempty"`
	XML          string `json:"xml,omitempty" yaml:"xml,omitempty"`
	Count        int    `json:"count,omitempty" yaml:"count,omitempty"`
	Before       string `json:"before,omitempty" yaml:"before,omitempty"`
	Versions     string `json:"versions,omitempty" yaml:"versions,omitempty"`
	DeviceTarget string `json:"deviceTarget,omitempty" yaml:"deviceTarget,omitempty"`
}

// Clone returns a copy of the Change.
func (c Change) Clone() Change {
	return c
}

// Munge is every Change destined for one target file under one
// install or uninstall operation, grouped by parent selector.
// Within one selector the order of changes is significant.
type Munge struct {
	Parents map[string][]Change `json:"parents" yaml:"parents"`
}

// NewMunge returns an empty Munge.
func NewMunge() *Munge {
	return &Munge{
		Parents: map[string][]Change{},
	}
}

// Add appends a Change to the given parent selector's list.
func (m *Munge) Add(parent string, changes ...Change) {
	m.Parents[parent] = append(m.Parents[parent], changes...)
}

// Clone returns a copy of the Munge whose selector lists can be
// modified without affecting the original.
func (m *Munge) Clone() *Munge {
	clone := NewMunge()

	for parent, changes := range m.Parents {
		clone.Parents[parent] = append([]Change{}, changes...)
	}

	return clone
}
