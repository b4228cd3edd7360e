package epub

// ReadingOrder returns the archive paths of the spine's chapters in spine
// order. Idrefs with no manifest entry are dropped; manifest order is never
// consulted.
func ReadingOrder(pkg *Package) []string {
	paths := make([]string, 0, len(pkg.Spine))
	for _, ref := range pkg.Spine {
		item, ok := pkg.Manifest[ref.IDRef]
		if !ok {
			continue
		}
		paths = append(paths, item.Path)
	}
	return paths
}

// DanglingRefs returns the spine idrefs that name no manifest item.
func DanglingRefs(pkg *Package) []string {
	var missing []string
	for _, ref := range pkg.Spine {
		if _, ok := pkg.Manifest[ref.IDRef]; !ok {
			missing = append(missing, ref.IDRef)
		}
	}
	return missing
}

// LinearOnly returns a shallow copy of pkg whose spine omits items marked
// linear="no".
func (p *Package) LinearOnly() *Package {
	cp := *p
	cp.Spine = make([]SpineItem, 0, len(p.Spine))
	for _, ref := range p.Spine {
		if ref.Linear {
			cp.Spine = append(cp.Spine, ref)
		}
	}
	return &cp
}
