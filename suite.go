package ccpp

import (
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/soypat/go-ccpp/meta"
)

// ReadSuite reads a suite definition file:
//
//	<suite name="S" version="1.0">
//	  <group name="physics">
//	    <scheme>A</scheme>
//	    <subcycle loop="1"><scheme>B</scheme></subcycle>
//	  </group>
//	</suite>
//
// Subcycles are flattened into their group; a loop count other than 1 is
// rejected since schemes run exactly once per phase.
func ReadSuite(source string, r io.Reader) (*meta.Suite, error) {
	sr := suiteReader{dec: xml.NewDecoder(r), source: source}
	return sr.read()
}

type suiteReader struct {
	dec    *xml.Decoder
	source string
}

func (sr *suiteReader) errorf(msg string) error {
	line, col := sr.dec.InputPos()
	return &ParserError{sp: sourcePos{Source: sr.source, Line: line, Col: col}, msg: msg}
}

// next returns the next start or end element, skipping character data,
// comments and processing instructions. text accumulates character data.
func (sr *suiteReader) next(text *strings.Builder) (xml.Token, error) {
	for {
		tok, err := sr.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, sr.errorf("unexpected EOF in suite file")
			}
			return nil, sr.errorf(err.Error())
		}
		switch t := tok.(type) {
		case xml.StartElement, xml.EndElement:
			return t, nil
		case xml.CharData:
			if text != nil {
				text.Write(t)
			}
		}
	}
}

func attr(se xml.StartElement, name string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (sr *suiteReader) read() (*meta.Suite, error) {
	tok, err := sr.next(nil)
	if err != nil {
		return nil, err
	}
	se, ok := tok.(xml.StartElement)
	if !ok || se.Name.Local != "suite" {
		return nil, sr.errorf("expected <suite> root element")
	}
	s := &meta.Suite{}
	if s.Name, ok = attr(se, "name"); !ok || s.Name == "" {
		return nil, sr.errorf("suite without name attribute")
	}
	s.Version, _ = attr(se, "version")
	for {
		tok, err := sr.next(nil)
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if len(s.Groups) == 0 {
				return nil, sr.errorf("suite " + s.Name + " has no groups")
			}
			return s, nil
		case xml.StartElement:
			if t.Name.Local != "group" {
				return nil, sr.errorf("unsupported element <" + t.Name.Local + "> in suite")
			}
			g, err := sr.readGroup(t)
			if err != nil {
				return nil, err
			}
			s.Groups = append(s.Groups, g)
		}
	}
}

func (sr *suiteReader) readGroup(se xml.StartElement) (meta.Group, error) {
	var g meta.Group
	var ok bool
	if g.Name, ok = attr(se, "name"); !ok || g.Name == "" {
		return g, sr.errorf("group without name attribute")
	}
	err := sr.readSchemes(&g, false)
	return g, err
}

// readSchemes appends schemes to g until the end of the enclosing element.
func (sr *suiteReader) readSchemes(g *meta.Group, inSubcycle bool) error {
	for {
		tok, err := sr.next(nil)
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			switch t.Name.Local {
			case "scheme":
				name, err := sr.readText()
				if err != nil {
					return err
				}
				g.Schemes = append(g.Schemes, meta.Scheme{Name: name})
			case "subcycle":
				if inSubcycle {
					return sr.errorf("nested subcycle in group " + g.Name)
				}
				if loop, ok := attr(t, "loop"); ok && strings.TrimSpace(loop) != "1" {
					return sr.errorf("subcycle loop " + strconv.Quote(loop) + " in group " + g.Name + " not supported")
				}
				if err := sr.readSchemes(g, true); err != nil {
					return err
				}
			default:
				return sr.errorf("unsupported element <" + t.Name.Local + "> in group " + g.Name)
			}
		}
	}
}

// readText returns the trimmed text content of a leaf element.
func (sr *suiteReader) readText() (string, error) {
	var text strings.Builder
	tok, err := sr.next(&text)
	if err != nil {
		return "", err
	}
	if _, ok := tok.(xml.EndElement); !ok {
		return "", sr.errorf("scheme element must only hold a name")
	}
	name := strings.TrimSpace(text.String())
	if name == "" {
		return "", sr.errorf("empty scheme name")
	}
	return name, nil
}
