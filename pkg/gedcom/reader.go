package gedcom

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// line is one parsed GEDCOM line: "LEVEL [@XREF@] TAG [VALUE]".
type line struct {
	level int
	xref  string
	tag   string
	value string
}

func parseLine(s string) (line, bool) {
	fields := strings.SplitN(strings.TrimSpace(s), " ", 3)
	if len(fields) < 2 {
		return line{}, false
	}
	level, err := strconv.Atoi(fields[0])
	if err != nil {
		return line{}, false
	}
	l := line{level: level}
	rest := fields[1:]
	if strings.HasPrefix(rest[0], "@") {
		l.xref = strings.Trim(rest[0], "@")
		if len(rest) < 2 {
			return line{}, false
		}
		rest = strings.SplitN(rest[1], " ", 2)
	}
	l.tag = strings.ToUpper(rest[0])
	if len(rest) > 1 {
		l.value = rest[1]
	}
	return l, true
}

// ReadGEDCOM reads the INDI and FAM records of a GEDCOM file. Other record
// types are skipped. Level-1 properties are stored under their tag,
// level-2 properties under "PARENT:TAG" (for example "BIRT:DATE").
func ReadGEDCOM(r io.Reader) (*Gedcom, error) {
	var (
		persons  []Person
		families []Family
		person   *Person
		family   *Family
		parent   string
		lineNo   int
	)

	flush := func() {
		if person != nil {
			persons = append(persons, *person)
		}
		if family != nil {
			families = append(families, *family)
		}
		person, family, parent = nil, nil, ""
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNo++
		text := strings.TrimPrefix(sc.Text(), "\ufeff")
		if strings.TrimSpace(text) == "" {
			continue
		}
		l, ok := parseLine(text)
		if !ok {
			return nil, fmt.Errorf("line %d: malformed GEDCOM line %q", lineNo, text)
		}

		switch l.level {
		case 0:
			flush()
			switch l.tag {
			case "INDI":
				person = &Person{ID: l.xref}
			case "FAM":
				family = &Family{ID: l.xref}
			}
		case 1:
			parent = l.tag
			switch {
			case person != nil:
				readPersonTag(person, l)
			case family != nil:
				readFamilyTag(family, l)
			}
		case 2:
			if l.tag == "CONC" || l.tag == "CONT" {
				continue
			}
			key := parent + ":" + l.tag
			switch {
			case person != nil:
				person.Props = setProp(person.Props, key, l.value)
			case family != nil:
				family.Props = setProp(family.Props, key, l.value)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read GEDCOM: %w", err)
	}
	flush()

	g := New()
	g.load(persons, families)
	return g, nil
}

func readPersonTag(p *Person, l line) {
	switch l.tag {
	case "NAME":
		if p.Name == "" {
			p.Name = l.value
		}
	case "SEX":
		p.Sex = l.value
	case TagFamc:
		if p.Famc == "" {
			p.Famc = strings.Trim(l.value, "@")
		}
	case TagFams:
		p.Fams = append(p.Fams, strings.Trim(l.value, "@"))
	default:
		p.Props = setProp(p.Props, l.tag, l.value)
	}
}

func readFamilyTag(f *Family, l line) {
	switch l.tag {
	case TagHusb:
		f.Husband = strings.Trim(l.value, "@")
	case TagWife:
		f.Wife = strings.Trim(l.value, "@")
	case TagChil:
		f.Children = append(f.Children, strings.Trim(l.value, "@"))
	default:
		f.Props = setProp(f.Props, l.tag, l.value)
	}
}
