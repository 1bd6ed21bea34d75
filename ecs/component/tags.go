package component

// Tags holds free-form labels, usually written by spawn hooks.
type Tags struct {
	RemoveOnDespawn

	Names []string
}

func (t *Tags) Has(name string) bool {
	if t == nil {
		return false
	}
	for _, n := range t.Names {
		if n == name {
			return true
		}
	}
	return false
}

var TagsComponent = NewComponent[Tags]()

// Props holds scalar properties published by a spawn hook script.
type Props struct {
	Values map[string]any
}

var PropsComponent = NewComponent[Props]()
