// Package cif parses CIF (Crystallographic Information File) documents.
//
// A CIF document is a sequence of data blocks, each introduced by a
// data_<name> header. A block holds tag/value pairs, loops (tables whose
// values cycle over a list of tags) and save frames:
//
//	data_quartz
//	_cell_length_a  4.916(1)
//	loop_
//	_atom_site_label
//	_atom_site_fract_x
//	Si 0.4697
//	O  0.4133
//
// Parsing produces one Block per data_ header. Values are Missing ('.' and
// '?'), Number, String or, for loop columns, Vector. Numbers written with
// an uncertainty, such as 4.916(1), have the uncertainty digits appended to
// the mantissa (4.9161).
package cif

// Parse parses a whole CIF document and returns its data blocks in file
// order. Errors abort the parse and report the line where they occurred.
func Parse(data []byte) ([]*Block, error) {
	return NewParser(data).Parse()
}

// ParseString is like Parse but reads from a string.
func ParseString(s string) ([]*Block, error) {
	return Parse([]byte(s))
}
