package tree_test

import (
	"fmt"

	"github.com/matzehuels/kintree/pkg/gedcom"
	"github.com/matzehuels/kintree/pkg/tree"
)

func ExampleGather() {
	g := gedcom.New()
	_ = g.Do(func(tx *gedcom.Tx) error {
		for _, id := range []string{"I1", "I2", "I3"} {
			if _, err := tx.AddPerson(gedcom.Person{ID: id}); err != nil {
				return err
			}
		}
		_, err := tx.AddFamily(gedcom.Family{ID: "F1", Husband: "I2", Wife: "I3", Children: []string{"I1"}})
		return err
	})

	cfg := tree.DefaultConfig()
	cfg.MarriageSymbols = false
	l, err := tree.Gather(g, "I1", cfg, nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, k := range l.Links {
		if k.Kind == tree.KindPerson || k.Kind == tree.KindFamily {
			fmt.Printf("%s %s gen=%d at (%d, %d)\n", k.Kind, k.Entity, k.Generation, k.Lateral, k.Depth)
		}
	}
	fmt.Println("size:", l.Size())
	// Output:
	// person I2 gen=-1 at (180, 150)
	// person I3 gen=-1 at (342, 150)
	// family F1 gen=-1 at (261, 207)
	// person I1 gen=0 at (261, 300)
	// size: {522 450}
}
