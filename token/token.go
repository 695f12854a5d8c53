package token

import "bytes"

// Token is a lexical token of the CCPP metadata table format.
type Token int

// List of all tokens of the metadata format.
// When adding a new token add it in between blocks since we use comparison functions to check properties of tokens.
const (
	// Not to be used in code. Is to catch uninitialized tokens.
	Undefined Token = iota // <undefined>

	Illegal     // <illegal>
	EOF         // <EOF>
	NewLine     // <newline>
	LineComment // #

	// ==================== HEADERS ====================

	TablePropertiesHeader // [ccpp-table-properties]
	ArgTableHeader        // [ccpp-arg-table]
	ArgHeader             // [ name ]

	// ==================== KEYS ====================

	// Table keys.
	KeyName         // name
	KeyType         // type
	KeyDependencies // dependencies
	KeyRelativePath // relative_path

	// Argument keys.
	KeyStandardName // standard_name
	KeyLongName     // long_name
	KeyKind         // kind
	KeyIntent       // intent
	KeyUnits        // units
	KeyOptional     // optional
	KeyDimensions   // dimensions

	// ==================== OTHER ====================

	Identifier // <identifier>
	Equals     // =
	Value      // <value>
)

var names = [...]string{
	Undefined:             "<undefined>",
	Illegal:               "<illegal>",
	EOF:                   "<EOF>",
	NewLine:               "<newline>",
	LineComment:           "#",
	TablePropertiesHeader: "[ccpp-table-properties]",
	ArgTableHeader:        "[ccpp-arg-table]",
	ArgHeader:             "[ name ]",
	KeyName:               "name",
	KeyType:               "type",
	KeyDependencies:       "dependencies",
	KeyRelativePath:       "relative_path",
	KeyStandardName:       "standard_name",
	KeyLongName:           "long_name",
	KeyKind:               "kind",
	KeyIntent:             "intent",
	KeyUnits:              "units",
	KeyOptional:           "optional",
	KeyDimensions:         "dimensions",
	Identifier:            "<identifier>",
	Equals:                "=",
	Value:                 "<value>",
}

func (tok Token) String() string {
	if tok < 0 || int(tok) >= len(names) {
		return "<unknown token>"
	}
	return names[tok]
}

// IsHeader returns true if the token starts a new table or argument block.
func (tok Token) IsHeader() bool {
	return tok >= TablePropertiesHeader && tok <= ArgHeader
}

// IsKey returns true if the token is a known key of any block kind.
func (tok Token) IsKey() bool {
	return tok >= KeyName && tok <= KeyDimensions
}

// IsTablePropertiesKey returns true for keys accepted in a [ccpp-table-properties] block.
func (tok Token) IsTablePropertiesKey() bool {
	return tok >= KeyName && tok <= KeyRelativePath
}

// IsArgTableKey returns true for keys accepted in a [ccpp-arg-table] block.
func (tok Token) IsArgTableKey() bool {
	return tok == KeyName || tok == KeyType
}

// IsArgumentKey returns true for keys accepted in a [ name ] argument block.
func (tok Token) IsArgumentKey() bool {
	return tok == KeyType || tok >= KeyStandardName && tok <= KeyDimensions
}

func (tok Token) IsIllegalOrEOF() bool {
	return tok == EOF || tok == Illegal
}

// IsEndOfLine returns true for tokens that terminate a key/value line.
func (tok Token) IsEndOfLine() bool {
	return tok == NewLine || tok == EOF || tok == LineComment
}

// LookupKey returns [Identifier] or the key token maybeKey represents if found.
// Keys are case-sensitive.
func LookupKey(maybeKey []byte) Token {
	switch string(maybeKey) {
	default:
		return Identifier
	case "name":
		return KeyName
	case "type":
		return KeyType
	case "dependencies":
		return KeyDependencies
	case "relative_path":
		return KeyRelativePath
	case "standard_name":
		return KeyStandardName
	case "long_name":
		return KeyLongName
	case "kind":
		return KeyKind
	case "intent":
		return KeyIntent
	case "units":
		return KeyUnits
	case "optional":
		return KeyOptional
	case "dimensions":
		return KeyDimensions
	}
}

// LookupHeader classifies the contents between the brackets of a header line.
// It returns [TablePropertiesHeader], [ArgTableHeader] or [ArgHeader] with the
// trimmed argument name. [Illegal] is returned for any other shape. An argument
// header requires a leading and trailing space inside the brackets.
func LookupHeader(inner []byte) (tok Token, name []byte) {
	switch string(inner) {
	case "ccpp-table-properties":
		return TablePropertiesHeader, nil
	case "ccpp-arg-table":
		return ArgTableHeader, nil
	}
	if len(inner) < 3 || inner[0] != ' ' || inner[len(inner)-1] != ' ' {
		return Illegal, nil
	}
	name = bytes.TrimSpace(inner)
	if len(name) == 0 || bytes.ContainsAny(name, " \t") {
		return Illegal, nil
	}
	return ArgHeader, name
}
