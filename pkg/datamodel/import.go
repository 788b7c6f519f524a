package datamodel

// ImportMode controls how much of a foreign element's subgraph
// ImportElement copies.
type ImportMode int

const (
	// ImportStub creates only a stub carrying the source element's ID.
	ImportStub ImportMode = iota

	// ImportShallow copies the element's attributes, replacing element
	// references with stubs carrying the referenced IDs.
	ImportShallow

	// ImportDeep recursively copies the entire reachable subgraph.
	ImportDeep
)

// String returns the mode name.
func (m ImportMode) String() string {
	switch m {
	case ImportStub:
		return "stub"
	case ImportShallow:
		return "shallow"
	case ImportDeep:
		return "deep"
	default:
		return "unknown"
	}
}

// ImportElement copies src (typically owned by another datamodel) into this
// one, preserving IDs and failing with ErrElementIDInUse on collision. The
// returned element is owned by dm. Cyclic subgraphs import correctly under
// ImportDeep; shared elements are copied once.
func (dm *DataModel) ImportElement(src *Element, mode ImportMode) (*Element, error) {
	if mode == ImportStub {
		return dm.CreateStub(src.id), nil
	}
	copied := make(map[*Element]*Element)
	return dm.importElement(src, mode, copied)
}

func (dm *DataModel) importElement(src *Element, mode ImportMode, copied map[*Element]*Element) (*Element, error) {
	if dst, ok := copied[src]; ok {
		return dst, nil
	}
	if src.stub {
		return dm.CreateStub(src.id), nil
	}

	dst, err := dm.CreateElementWithID(src.className, src.name, src.id)
	if err != nil {
		return nil, err
	}
	copied[src] = dst

	for _, name := range src.order {
		attr := src.attrs[name]
		value, err := attr.Get()
		if err != nil {
			return nil, err
		}

		switch v := value.(type) {
		case *Element:
			if v == nil {
				err = dst.Set(name, (*Element)(nil))
				break
			}
			var ref *Element
			if mode == ImportDeep {
				ref, err = dm.importElement(v, mode, copied)
				if err != nil {
					return nil, err
				}
			} else {
				ref = dm.CreateStub(v.id)
			}
			err = dst.Set(name, ref)
		case *ElementArray:
			out := NewElementArray()
			for _, item := range v.items {
				if item == nil {
					out.items = append(out.items, nil)
					continue
				}
				var ref *Element
				if mode == ImportDeep && !item.stub {
					ref, err = dm.importElement(item, mode, copied)
					if err != nil {
						return nil, err
					}
				} else {
					ref = dm.CreateStub(item.id)
				}
				out.items = append(out.items, ref)
			}
			err = dst.Set(name, out)
		default:
			err = dst.Set(name, copyValue(value))
		}
		if err != nil {
			return nil, err
		}
	}
	return dst, nil
}
