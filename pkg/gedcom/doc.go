// Package gedcom provides the genealogical data store that the tree layout
// engine reads from.
//
// # Overview
//
// A [Gedcom] holds two kinds of entities: [Person] records and [Family]
// records. Families are the authoritative source of relationships: a family
// names a husband, a wife and an ordered list of children, and every person
// mirrors those references through [Person.Famc] (the family the person was
// born into) and [Person.Fams] (the families the person is a spouse in, in
// marriage order).
//
// # Transactions
//
// All mutations go through [Gedcom.Do], which runs a function against a [Tx].
// When the function returns nil, the accumulated [Change] is delivered
// synchronously to every registered [Listener]. When it returns an error the
// store is rolled back and nobody is notified:
//
//	err := g.Do(func(tx *gedcom.Tx) error {
//	    p, err := tx.AddPerson(gedcom.Person{Name: "Ada /Lovelace/"})
//	    if err != nil {
//	        return err
//	    }
//	    return tx.AddChild("F1", p.ID)
//	})
//
// A change is structural when entities were added or deleted, or when a
// relationship (cross-reference) property changed; see [Change.IsStructural].
// Layout consumers re-gather on structural changes and merely redraw on
// cosmetic ones.
//
// # Import
//
// [ReadGEDCOM] reads the INDI and FAM records of a GEDCOM 5.5 file, and
// [ReadJSON]/[WriteJSON] handle a compact JSON form. Both importers are
// lenient about duplicate identifiers: the first record wins and the
// identifier is remembered as ambiguous, so [Gedcom.Entity] reports
// [ErrDuplicateID] for it.
//
// # Validation
//
// [Validate] checks that nobody is their own ancestor. It builds the
// parent-to-child graph with gonum and runs a topological sort over it.
//
// # Concurrency
//
// Gedcom is not safe for concurrent use without external synchronization.
package gedcom
