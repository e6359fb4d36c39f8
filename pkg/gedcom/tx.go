package gedcom

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Tx is the mutation handle passed to [Gedcom.Do]. It must not be retained
// after the transaction function returns.
type Tx struct {
	g      *Gedcom
	change Change
}

// AddPerson inserts p. An empty ID is replaced by a generated one.
// Relationship fields are ignored; use the family methods to connect the
// person.
func (tx *Tx) AddPerson(p Person) (*Person, error) {
	if p.ID == "" {
		p.ID = "I" + uuid.NewString()
	}
	if _, err := tx.g.Entity(p.ID); !errors.Is(err, ErrUnknownEntity) {
		return nil, fmt.Errorf("add person %s: %w", p.ID, ErrDuplicateID)
	}
	p.Famc, p.Fams = "", nil
	p.Props = cloneProps(p.Props)
	tx.g.persons[p.ID] = &p
	tx.g.order = append(tx.g.order, p.ID)
	tx.change.Added = append(tx.change.Added, p.ID)
	return &p, nil
}

// AddFamily inserts f and connects its husband, wife and children, which
// must already exist. An empty ID is replaced by a generated one.
func (tx *Tx) AddFamily(f Family) (*Family, error) {
	if f.ID == "" {
		f.ID = "F" + uuid.NewString()
	}
	if _, err := tx.g.Entity(f.ID); !errors.Is(err, ErrUnknownEntity) {
		return nil, fmt.Errorf("add family %s: %w", f.ID, ErrDuplicateID)
	}
	husband, wife, children := f.Husband, f.Wife, slices.Clone(f.Children)
	f.Husband, f.Wife, f.Children = "", "", nil
	f.Props = cloneProps(f.Props)
	tx.g.families[f.ID] = &f
	tx.g.famOrder = append(tx.g.famOrder, f.ID)
	tx.change.Added = append(tx.change.Added, f.ID)

	if husband != "" {
		if err := tx.SetHusband(f.ID, husband); err != nil {
			return nil, err
		}
	}
	if wife != "" {
		if err := tx.SetWife(f.ID, wife); err != nil {
			return nil, err
		}
	}
	for _, c := range children {
		if err := tx.AddChild(f.ID, c); err != nil {
			return nil, err
		}
	}
	return &f, nil
}

// Delete removes an entity and every reference to it.
func (tx *Tx) Delete(id string) error {
	e, err := tx.g.Entity(id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	switch e := e.(type) {
	case *Person:
		if e.Famc != "" {
			if err := tx.RemoveChild(e.Famc, id); err != nil {
				return err
			}
		}
		for _, fid := range slices.Clone(e.Fams) {
			f := tx.g.families[fid]
			if f.Husband == id {
				f.Husband = ""
				tx.xref(&tx.change.PropsDeleted, fid, TagHusb)
			}
			if f.Wife == id {
				f.Wife = ""
				tx.xref(&tx.change.PropsDeleted, fid, TagWife)
			}
		}
		delete(tx.g.persons, id)
		tx.g.order = slices.DeleteFunc(tx.g.order, func(s string) bool { return s == id })
	case *Family:
		for _, sid := range []string{e.Husband, e.Wife} {
			if p, ok := tx.g.persons[sid]; ok {
				p.Fams = slices.DeleteFunc(p.Fams, func(s string) bool { return s == id })
				tx.xref(&tx.change.PropsDeleted, sid, TagFams)
			}
		}
		for _, cid := range e.Children {
			if p, ok := tx.g.persons[cid]; ok {
				p.Famc = ""
				tx.xref(&tx.change.PropsDeleted, cid, TagFamc)
			}
		}
		delete(tx.g.families, id)
		tx.g.famOrder = slices.DeleteFunc(tx.g.famOrder, func(s string) bool { return s == id })
	}
	tx.change.Deleted = append(tx.change.Deleted, id)
	return nil
}

// SetProperty sets a non-relationship property. NAME and SEX map onto the
// dedicated fields; an empty value deletes the property.
func (tx *Tx) SetProperty(id, tag, value string) error {
	if IsXRefTag(tag) {
		return fmt.Errorf("set %s on %s: %w", tag, id, ErrXRefProperty)
	}
	e, err := tx.g.Entity(id)
	if err != nil {
		return fmt.Errorf("set %s on %s: %w", tag, id, err)
	}

	var old string
	var had bool
	switch e := e.(type) {
	case *Person:
		switch tag {
		case "NAME":
			old, had = e.Name, e.Name != ""
			e.Name = value
		case "SEX":
			old, had = e.Sex, e.Sex != ""
			e.Sex = value
		default:
			old, had = e.Props[tag]
			e.Props = setProp(e.Props, tag, value)
		}
	case *Family:
		old, had = e.Props[tag]
		e.Props = setProp(e.Props, tag, value)
	}

	pc := PropertyChange{Entity: id, Tag: tag}
	switch {
	case !had && value != "":
		tx.change.PropsAdded = append(tx.change.PropsAdded, pc)
	case had && value == "":
		tx.change.PropsDeleted = append(tx.change.PropsDeleted, pc)
	case had && old != value:
		tx.change.PropsModified = append(tx.change.PropsModified, pc)
	}
	return nil
}

func setProp(m map[string]string, tag, value string) map[string]string {
	if value == "" {
		delete(m, tag)
		return m
	}
	if m == nil {
		m = make(map[string]string)
	}
	m[tag] = value
	return m
}

// SetHusband makes personID the husband of famID. An empty personID clears
// the husband.
func (tx *Tx) SetHusband(famID, personID string) error {
	return tx.setSpouse(famID, personID, TagHusb)
}

// SetWife makes personID the wife of famID. An empty personID clears the
// wife.
func (tx *Tx) SetWife(famID, personID string) error {
	return tx.setSpouse(famID, personID, TagWife)
}

func (tx *Tx) setSpouse(famID, personID, tag string) error {
	f, ok := tx.g.families[famID]
	if !ok {
		return fmt.Errorf("set %s of %s: %w", tag, famID, ErrUnknownEntity)
	}
	var p *Person
	if personID != "" {
		if p, ok = tx.g.persons[personID]; !ok {
			return fmt.Errorf("set %s of %s to %s: %w", tag, famID, personID, ErrUnknownEntity)
		}
	}

	slot := &f.Husband
	if tag == TagWife {
		slot = &f.Wife
	}
	if *slot == personID {
		return nil
	}
	if old, ok := tx.g.persons[*slot]; ok && f.OtherSpouse(old.ID) != old.ID {
		old.Fams = slices.DeleteFunc(old.Fams, func(s string) bool { return s == famID })
		tx.xref(&tx.change.PropsDeleted, old.ID, TagFams)
	}
	if *slot == "" {
		tx.xref(&tx.change.PropsAdded, famID, tag)
	} else if personID == "" {
		tx.xref(&tx.change.PropsDeleted, famID, tag)
	} else {
		tx.xref(&tx.change.PropsModified, famID, tag)
	}
	*slot = personID
	if p != nil && !slices.Contains(p.Fams, famID) {
		p.Fams = append(p.Fams, famID)
		tx.xref(&tx.change.PropsAdded, p.ID, TagFams)
	}
	return nil
}

// AddChild appends personID to the children of famID. A person can only be
// the child of one family; an existing parent family is replaced.
func (tx *Tx) AddChild(famID, personID string) error {
	f, ok := tx.g.families[famID]
	if !ok {
		return fmt.Errorf("add child to %s: %w", famID, ErrUnknownEntity)
	}
	p, ok := tx.g.persons[personID]
	if !ok {
		return fmt.Errorf("add child %s to %s: %w", personID, famID, ErrUnknownEntity)
	}
	if p.Famc == famID {
		return nil
	}
	if p.Famc != "" {
		if err := tx.RemoveChild(p.Famc, personID); err != nil {
			return err
		}
	}
	f.Children = append(f.Children, personID)
	p.Famc = famID
	tx.xref(&tx.change.PropsAdded, famID, TagChil)
	tx.xref(&tx.change.PropsAdded, personID, TagFamc)
	return nil
}

// RemoveChild disconnects personID from famID.
func (tx *Tx) RemoveChild(famID, personID string) error {
	f, ok := tx.g.families[famID]
	if !ok {
		return fmt.Errorf("remove child from %s: %w", famID, ErrUnknownEntity)
	}
	if !slices.Contains(f.Children, personID) {
		return fmt.Errorf("remove child %s from %s: %w", personID, famID, ErrUnknownEntity)
	}
	f.Children = slices.DeleteFunc(f.Children, func(s string) bool { return s == personID })
	if p, ok := tx.g.persons[personID]; ok && p.Famc == famID {
		p.Famc = ""
		tx.xref(&tx.change.PropsDeleted, personID, TagFamc)
	}
	tx.xref(&tx.change.PropsDeleted, famID, TagChil)
	return nil
}

func (tx *Tx) xref(set *[]PropertyChange, id, tag string) {
	*set = append(*set, PropertyChange{Entity: id, Tag: tag, XRef: true})
}
