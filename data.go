package cif

import "iter"

// Container is the basic data set shared by data blocks and save frames: an
// ordered mapping from tag name to Value. Keys are unique and keep their
// insertion order. The zero Container is empty and ready to use.
type Container struct {
	tags   []string
	values []Value
	index  map[string]int
}

// NewContainer returns an empty container.
func NewContainer() *Container {
	return &Container{}
}

// Insert associates v with tag. If tag is already present nothing is
// changed, and the existing value is returned with inserted set to false.
// An invalid tag name is an error.
func (c *Container) Insert(tag string, v Value) (Value, bool, error) {
	if !IsTagName(tag) {
		return Value{}, false, &Error{Kind: SyntaxError, Tag: tag, Msg: tag + " is not a valid data tag name"}
	}

	if i, exists := c.index[tag]; exists {
		return c.values[i], false, nil
	}

	if c.index == nil {
		c.index = make(map[string]int, 8)
	}
	c.index[tag] = len(c.tags)
	c.tags = append(c.tags, tag)
	c.values = append(c.values, v)

	return v, true, nil
}

// Find returns the value associated with tag.
func (c *Container) Find(tag string) (Value, bool) {
	i, ok := c.index[tag]
	if !ok {
		return Value{}, false
	}
	return c.values[i], true
}

// Get returns the value associated with tag, or a KeyError if tag is absent.
func (c *Container) Get(tag string) (Value, error) {
	v, ok := c.Find(tag)
	if !ok {
		return Value{}, &Error{Kind: KeyError, Tag: tag, Msg: "could not find " + tag + " in this CIF data block"}
	}
	return v, nil
}

// Len returns the number of tags in the container.
func (c *Container) Len() int {
	return len(c.tags)
}

// Empty reports whether the container holds no tags.
func (c *Container) Empty() bool {
	return len(c.tags) == 0
}

// Tags returns the tag names in insertion order.
func (c *Container) Tags() []string {
	out := make([]string, len(c.tags))
	copy(out, c.tags)
	return out
}

// All iterates over tag/value pairs in insertion order.
func (c *Container) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for i, tag := range c.tags {
			if !yield(tag, c.values[i]) {
				return
			}
		}
	}
}

// Map converts the container to plain Go data, see Value.Interface.
func (c *Container) Map() map[string]any {
	out := make(map[string]any, len(c.tags))
	for i, tag := range c.tags {
		out[tag] = c.values[i].Interface()
	}
	return out
}

// Block is a top-level data block: a named container with its save frames.
type Block struct {
	Container

	name       string
	frameNames []string
	frames     map[string]*Container
}

// NewBlock returns an empty data block called name.
func NewBlock(name string) *Block {
	return &Block{name: name}
}

// Name returns the block name, without the data_ prefix.
func (b *Block) Name() string {
	return b.name
}

// AddSave registers the save frame called name. As with tags, an existing
// frame with the same name is kept and inserted is false.
func (b *Block) AddSave(name string, frame *Container) (*Container, bool) {
	if existing, ok := b.frames[name]; ok {
		return existing, false
	}

	if b.frames == nil {
		b.frames = make(map[string]*Container)
	}
	if frame == nil {
		frame = NewContainer()
	}
	b.frames[name] = frame
	b.frameNames = append(b.frameNames, name)

	return frame, true
}

// Save returns the save frame called name.
func (b *Block) Save(name string) (*Container, bool) {
	frame, ok := b.frames[name]
	return frame, ok
}

// SaveNames returns the save frame names in file order.
func (b *Block) SaveNames() []string {
	out := make([]string, len(b.frameNames))
	copy(out, b.frameNames)
	return out
}

// Saves iterates over save frames in file order.
func (b *Block) Saves() iter.Seq2[string, *Container] {
	return func(yield func(string, *Container) bool) {
		for _, name := range b.frameNames {
			if !yield(name, b.frames[name]) {
				return
			}
		}
	}
}

// NumSaves returns the number of save frames in the block.
func (b *Block) NumSaves() int {
	return len(b.frameNames)
}
