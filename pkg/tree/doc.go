// Package tree lays out a genealogy as a two-sided tree around a root.
//
// Ancestors of the root are stacked above it and descendants below it. The
// result is a flat list of positioned [Link] values plus the overall extent
// of the tree, collected into a [Layout].
//
// # Coordinates
//
// Gathering works in two axes: depth runs from ancestors to descendants and
// lateral runs across a generation. A [Config] with Vertical set maps depth
// to screen y and lateral to screen x; otherwise the axes are swapped. Box
// sizes are always given as screen sizes.
//
// # Algorithm
//
// Each subtree is gathered recursively around its own origin. While doing
// so the gatherer records, for every generation, the outermost link on the
// left and on the right. When two subtrees are joined, the second one is
// shifted by the single largest distance any shared generation needs to
// keep its spacing, then the boundaries are merged. Ancestor couples are
// pulled together and centred over their child; children are centred under
// their parents' family.
//
// # Collapsing
//
// A [CollapseSet] holds entities whose subtree is skipped: a collapsed
// person hides their ancestors and a collapsed family hides its children.
// Both keep their own box and gain a collapsed marker link.
//
// # Engine
//
// An [Engine] owns the root, the collapse set and the current layout. It
// rebuilds the whole layout on every structural change and reports changes
// to [Listener] implementations:
//
//	e, err := tree.New(g, tree.DefaultConfig(), tree.WithRoot("I1"))
//	if err != nil {
//	    return err
//	}
//	g.AddListener(e)
//	if _, err := e.ToggleCollapse("F3"); err != nil {
//	    return err
//	}
//	layout := e.Layout()
package tree
