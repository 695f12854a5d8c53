package meta

// Suite is an ordered collection of groups coupled into one physics
// configuration.
type Suite struct {
	Name    string
	Version string
	Groups  []Group
}

// Group is an ordered list of schemes executed together.
type Group struct {
	Name    string
	Schemes []Scheme
}

// Scheme references a physics scheme by name. The scheme's phase entry
// points are named <Name>_init, <Name>_run and so on.
type Scheme struct {
	Name string
}

// SchemeNames returns the schemes of s flattened in group order.
func (s *Suite) SchemeNames() []string {
	var names []string
	for _, g := range s.Groups {
		for _, sc := range g.Schemes {
			names = append(names, sc.Name)
		}
	}
	return names
}
