package tree

// frontier is the per-generation boundary of a subtree seen from one side:
// entry 1 is the subtree's own generation, entry 2 the next one outward, and
// so on. Entries are link indices. Positions are 1-based.
type frontier struct {
	links []int
}

func (f *frontier) size() int { return len(f.links) }

// add appends a link as the outermost generation.
func (f *frontier) add(link int) {
	f.links = append(f.links, link)
}

// insertAt inserts a link at pos, moving later entries one generation out.
func (f *frontier) insertAt(pos, link int) {
	if pos < 1 || pos > len(f.links)+1 {
		panic("tree: frontier position out of range")
	}
	f.links = append(f.links, 0)
	copy(f.links[pos:], f.links[pos-1:])
	f.links[pos-1] = link
}

// get returns the link at pos.
func (f *frontier) get(pos int) int {
	return f.links[pos-1]
}

// set replaces the link at pos, or appends it when pos is one past the end.
func (f *frontier) set(pos, link int) {
	if pos == len(f.links)+1 {
		f.add(link)
		return
	}
	f.links[pos-1] = link
}
