package cif

import (
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strings"
)

// Struct tag values with a special meaning for Unmarshal.
const (
	tagBlockName   = "data_"
	tagSavePrefix  = "save_"
	structTagName  = "cif"
	fieldSeparator = ","
)

var (
	blockType     = reflect.TypeOf(Block{})
	containerType = reflect.TypeOf(Container{})
	valueType     = reflect.TypeOf(Value{})
)

// Decoder reads CIF data blocks from an input stream. The whole stream is
// read into memory on first use; blocks are then parsed one at a time.
type Decoder struct {
	r      io.Reader
	parser *Parser
}

// NewDecoder returns a new decoder that reads from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// init reads the input and sets up the parser.
func (dec *Decoder) init() error {
	if dec.parser != nil {
		return nil
	}

	data, err := io.ReadAll(dec.r)
	if err != nil {
		return err
	}
	dec.parser = NewParser(data)

	return nil
}

// More reports whether there is another data block to decode.
func (dec *Decoder) More() bool {
	if err := dec.init(); err != nil {
		return true // Let Decode report the error.
	}
	return !dec.parser.Finished()
}

// DecodeBlock parses and returns the next data block. It returns io.EOF
// when there are no more blocks.
func (dec *Decoder) DecodeBlock() (*Block, error) {
	if err := dec.init(); err != nil {
		return nil, err
	}
	if dec.parser.Finished() {
		return nil, io.EOF
	}

	return dec.parser.Next()
}

// Decode parses the next data block and stores it in the value pointed to
// by v. See Unmarshal for the conversion rules. It returns io.EOF when
// there are no more blocks.
func (dec *Decoder) Decode(v any) error {
	d, err := destination(v)
	if err != nil {
		return err
	}

	block, err := dec.DecodeBlock()
	if err != nil {
		return err
	}
	return setBlock(d, block)
}

// Unmarshal parses CIF data and stores the result in the value pointed to by v.
// If v is nil or not a pointer, it returns an error.
//
// The destination selects what is decoded:
//   - a slice receives one element per data block;
//   - anything else receives the first data block, and an input without
//     any data block is an error.
//
// A data block can be decoded into a Block, a *Block, a map[string]any
// (see Container.Map) or a struct. Struct fields are matched with tags
// through the "cif" struct tag:
//
//	// Field holds the value of _cell_length_a.
//	Field float64 `cif:"_cell_length_a"`
//
//	// Field holds the name of the data block.
//	Name string `cif:"data_"`
//
//	// Field holds the save frame called "frame", decoded like a block
//	// into a struct, a map, a Container or a *Container. A save frame
//	// has no name nor frames of its own, so Block is rejected.
//	Frame Frame `cif:"save_frame"`
//
//	// Field is ignored.
//	Field int `cif:"-"`
//
// Untagged fields are matched against "_" followed by the field name, and
// matching falls back to a case-insensitive comparison like encoding/json.
//
// Values are converted as follows:
//   - missing values leave the zero value (a nil pointer, an empty string);
//   - numbers go to float, integer (whole numbers only) and unsigned
//     integer fields, with overflow checks;
//   - strings go to string fields;
//   - loop columns (vectors) go to slices, element by element;
//   - any value goes to a Value field or, as plain data, to an interface.
func Unmarshal(data []byte, v any) error {
	d, err := destination(v)
	if err != nil {
		return err
	}

	blocks, err := Parse(data)
	if err != nil {
		return err
	}

	return setBlocks(d, blocks)
}

// destination checks that v is a non-nil pointer and returns its target.
func destination(v any) (reflect.Value, error) {
	if v == nil {
		return reflect.Value{}, errors.New("cannot unmarshal into a nil value")
	}

	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr {
		return reflect.Value{}, errors.New("destination is not a pointer")
	}
	if val.IsNil() {
		return reflect.Value{}, errors.New("destination pointer is nil")
	}

	return val.Elem(), nil
}

// setBlocks stores all the blocks in dst.
func setBlocks(dst reflect.Value, blocks []*Block) error {
	if dst.Kind() == reflect.Slice {
		newSlice := reflect.MakeSlice(dst.Type(), len(blocks), len(blocks))
		for i, block := range blocks {
			if err := setBlock(newSlice.Index(i), block); err != nil {
				return fmt.Errorf("error setting block %s: %w", block.Name(), err)
			}
		}
		dst.Set(newSlice)
		return nil
	}

	if len(blocks) == 0 {
		return errors.New("no data block in input")
	}
	return setBlock(dst, blocks[0])
}

// setBlock stores a single data block in dst.
func setBlock(dst reflect.Value, block *Block) error {
	switch {
	case dst.Type() == blockType:
		dst.Set(reflect.ValueOf(block).Elem())
		return nil
	case dst.Type() == reflect.PointerTo(blockType):
		dst.Set(reflect.ValueOf(block))
		return nil
	}

	switch dst.Kind() {
	case reflect.Ptr:
		newPtr := reflect.New(dst.Type().Elem())
		if err := setBlock(newPtr.Elem(), block); err != nil {
			return err
		}
		dst.Set(newPtr)
		return nil
	case reflect.Struct:
		return setStruct(dst, &block.Container, block)
	default:
		return setContainer(dst, &block.Container)
	}
}

// setContainer stores a save frame (or the tags of a block) in dst.
func setContainer(dst reflect.Value, c *Container) error {
	switch {
	case dst.Type() == blockType:
		return fmt.Errorf("cannot unmarshal save frame into %s, use %s", blockType, containerType)
	case dst.Type() == containerType:
		dst.Set(reflect.ValueOf(c).Elem())
		return nil
	case dst.Type() == reflect.PointerTo(containerType):
		dst.Set(reflect.ValueOf(c))
		return nil
	}

	switch dst.Kind() {
	case reflect.Ptr:
		newPtr := reflect.New(dst.Type().Elem())
		if err := setContainer(newPtr.Elem(), c); err != nil {
			return err
		}
		dst.Set(newPtr)
		return nil
	case reflect.Struct:
		return setStruct(dst, c, nil)
	case reflect.Map:
		return setMap(dst, c)
	case reflect.Interface:
		if dst.NumMethod() != 0 {
			return fmt.Errorf("cannot unmarshal data block into %s", dst.Type())
		}
		dst.Set(reflect.ValueOf(c.Map()))
		return nil
	default:
		return fmt.Errorf("cannot unmarshal data block into %s", dst.Type())
	}
}

// setStruct fills the fields of a struct from a container. block is nil
// when decoding a save frame, which has neither a name nor frames.
func setStruct(dst reflect.Value, c *Container, block *Block) error {
	structType := dst.Type()
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldValue := dst.Field(i)

		// Skip unexported fields.
		if !fieldValue.CanSet() {
			continue
		}

		name := getFieldName(field)
		switch {
		case name == "-":
			continue

		case name == tagBlockName:
			if block == nil {
				continue
			}
			if fieldValue.Kind() != reflect.String {
				return fmt.Errorf("error setting field %s: block name needs a string, not %s", field.Name, fieldValue.Type())
			}
			fieldValue.SetString(block.Name())

		case strings.HasPrefix(name, tagSavePrefix):
			if block == nil {
				continue
			}
			frame, ok := block.Save(name[len(tagSavePrefix):])
			if !ok {
				continue
			}
			if err := setContainer(fieldValue, frame); err != nil {
				return fmt.Errorf("error setting field %s: %w", field.Name, err)
			}

		default:
			srcValue, ok := findFold(c, name)
			if !ok {
				continue
			}
			if err := setValueReflect(fieldValue, srcValue); err != nil {
				return fmt.Errorf("error setting field %s: %w", field.Name, err)
			}
		}
	}

	return nil
}

// findFold looks tag up, falling back to a case-insensitive match.
func findFold(c *Container, tag string) (Value, bool) {
	if v, ok := c.Find(tag); ok {
		return v, true
	}
	for name, v := range c.All() {
		if strings.EqualFold(name, tag) {
			return v, true
		}
	}
	return Value{}, false
}

// getFieldName returns the tag name to use for a field, checking for struct tags.
func getFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get(structTagName), fieldSeparator)
	if name == "" {
		return "_" + field.Name
	}
	return name
}

// setMap unmarshals a container into a map with string keys.
func setMap(dst reflect.Value, c *Container) error {
	mapType := dst.Type()
	if mapType.Key().Kind() != reflect.String {
		return fmt.Errorf("maps with non-string keys are not supported")
	}

	newMap := reflect.MakeMapWithSize(mapType, c.Len())
	for tag, srcValue := range c.All() {
		valueValue := reflect.New(mapType.Elem()).Elem()
		if err := setValueReflect(valueValue, srcValue); err != nil {
			return fmt.Errorf("error setting map value for tag %s: %w", tag, err)
		}
		newMap.SetMapIndex(reflect.ValueOf(tag).Convert(mapType.Key()), valueValue)
	}

	dst.Set(newMap)
	return nil
}

// setValueReflect recursively sets dst from a CIF value.
func setValueReflect(dst reflect.Value, src Value) error {
	if dst.Type() == valueType {
		dst.Set(reflect.ValueOf(src))
		return nil
	}

	if src.IsMissing() {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	switch dst.Kind() {
	case reflect.Interface:
		if dst.NumMethod() != 0 {
			return fmt.Errorf("cannot unmarshal %s into %s", src.Kind(), dst.Type())
		}
		dst.Set(reflect.ValueOf(src.Interface()))
		return nil
	case reflect.Slice:
		return setSlice(dst, src)
	case reflect.Ptr:
		return setPtr(dst, src)
	case reflect.String:
		return setString(dst, src)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setInt(dst, src)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return setUint(dst, src)
	case reflect.Float32, reflect.Float64:
		return setFloat(dst, src)
	default:
		return fmt.Errorf("cannot unmarshal %s into %s", src.Kind(), dst.Type())
	}
}

// setSlice unmarshals a vector into a slice.
func setSlice(dst reflect.Value, src Value) error {
	elems, err := src.AsVector()
	if err != nil {
		return fmt.Errorf("cannot unmarshal %s into slice", src.Kind())
	}

	newSlice := reflect.MakeSlice(dst.Type(), len(elems), len(elems))
	for i, srcElem := range elems {
		if err := setValueReflect(newSlice.Index(i), srcElem); err != nil {
			return fmt.Errorf("error setting slice element %d: %w", i, err)
		}
	}

	dst.Set(newSlice)
	return nil
}

// setPtr unmarshals into a pointer.
func setPtr(dst reflect.Value, src Value) error {
	newPtr := reflect.New(dst.Type().Elem())
	if err := setValueReflect(newPtr.Elem(), src); err != nil {
		return err
	}

	dst.Set(newPtr)
	return nil
}

// setString sets a string value.
func setString(dst reflect.Value, src Value) error {
	s, err := src.AsString()
	if err != nil {
		return fmt.Errorf("cannot unmarshal %s into string", src.Kind())
	}
	dst.SetString(s)
	return nil
}

// setInt converts a whole number to int.
func setInt(dst reflect.Value, src Value) error {
	v, err := src.AsNumber()
	if err != nil {
		return fmt.Errorf("cannot unmarshal %s into integer", src.Kind())
	}
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return fmt.Errorf("cannot unmarshal number %g into integer type", v)
	}
	if v < math.MinInt64 || v >= math.MaxInt64 {
		return fmt.Errorf("value %g overflows %s", v, dst.Type())
	}

	intVal := int64(v)
	if dst.OverflowInt(intVal) {
		return fmt.Errorf("value %g overflows %s", v, dst.Type())
	}
	dst.SetInt(intVal)
	return nil
}

// setUint converts a non negative whole number to uint.
func setUint(dst reflect.Value, src Value) error {
	v, err := src.AsNumber()
	if err != nil {
		return fmt.Errorf("cannot unmarshal %s into unsigned integer", src.Kind())
	}
	if v < 0 {
		return fmt.Errorf("cannot unmarshal negative value %g into unsigned integer", v)
	}
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return fmt.Errorf("cannot unmarshal number %g into integer type", v)
	}
	if v >= math.MaxUint64 {
		return fmt.Errorf("value %g overflows %s", v, dst.Type())
	}

	uintVal := uint64(v)
	if dst.OverflowUint(uintVal) {
		return fmt.Errorf("value %g overflows %s", v, dst.Type())
	}
	dst.SetUint(uintVal)
	return nil
}

// setFloat sets a float value.
func setFloat(dst reflect.Value, src Value) error {
	v, err := src.AsNumber()
	if err != nil {
		return fmt.Errorf("cannot unmarshal %s into float", src.Kind())
	}
	if dst.OverflowFloat(v) {
		return fmt.Errorf("value %g overflows %s", v, dst.Type())
	}
	dst.SetFloat(v)
	return nil
}
