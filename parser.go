package cif

// Parser reads data blocks from CIF input held in memory. It keeps one
// token of lookahead and stops at the first error.
type Parser struct {
	lexer   *lexer
	current Token
	err     error // First error encountered, returned by every later call.
}

// NewParser creates a parser over data. The parser does not retain
// references to data in the blocks it returns.
func NewParser(data []byte) *Parser {
	p := &Parser{lexer: newLexer(data)}
	p.current, p.err = p.lexer.next()
	return p
}

// Parse reads all the remaining data blocks, in file order.
func (p *Parser) Parse() ([]*Block, error) {
	blocks := make([]*Block, 0, 1)
	for !p.Finished() {
		block, err := p.Next()
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}

// Finished reports whether all the input has been read. It is false while
// an error is pending, so that the next call to Next reports it.
func (p *Parser) Finished() bool {
	return p.err == nil && p.current.Type == TokenEOF
}

// Next reads a single data block. A block extends up to the next data_
// header or the end of input.
func (p *Parser) Next() (*Block, error) {
	if p.err != nil {
		return nil, p.err
	}

	if p.current.Type != TokenData {
		return nil, p.fail(p.errorf("expected 'data_' at the beginning of the data block, got '%s'", p.current))
	}

	header, err := p.advance()
	if err != nil {
		return nil, err
	}
	block := NewBlock(header.Value)

	for p.current.Type != TokenEOF {
		switch p.current.Type {
		case TokenData:
			return block, nil
		case TokenTag:
			err = p.parseTag(&block.Container)
		case TokenLoop:
			err = p.parseLoop(&block.Container)
		case TokenSave:
			err = p.parseSaveFrame(block)
		default:
			err = p.errorf("expected a tag, a loop or a save frame in data block, got '%s'", p.current)
		}

		if err != nil {
			return nil, p.fail(err)
		}
	}

	return block, nil
}

// advance consumes the current token and reads the next one.
func (p *Parser) advance() (Token, error) {
	tk := p.current
	if tk.Type == TokenEOF {
		return tk, nil
	}

	next, err := p.lexer.next()
	if err != nil {
		return Token{}, p.fail(err)
	}
	p.current = next

	return tk, nil
}

// parseTag parses a tag followed by its value into c.
func (p *Parser) parseTag(c *Container) error {
	tk, err := p.advance()
	if err != nil {
		return err
	}
	tag, err := tk.tag()
	if err != nil {
		return err
	}

	if !p.current.isValue() {
		return p.errorf("expected a value for tag %s, got '%s'", tag, p.current)
	}

	val, err := p.parseValue()
	if err != nil {
		return err
	}

	_, _, err = c.Insert(tag, val)
	return err
}

// parseLoop parses a loop_ header, its tags and the values cycling over
// them. Each tag receives a vector with its column of values.
func (p *Parser) parseLoop(c *Container) error {
	if _, err := p.advance(); err != nil {
		return err
	}

	var tags []string
	for p.current.Type == TokenTag {
		tk, err := p.advance()
		if err != nil {
			return err
		}
		tags = append(tags, tk.Value)
	}

	if len(tags) == 0 {
		return p.errorf("expected at least one tag after 'loop_', got '%s'", p.current)
	}

	columns := make([][]Value, len(tags))
	count := 0
	for p.current.isValue() {
		val, err := p.parseValue()
		if err != nil {
			return err
		}

		i := count % len(tags)
		columns[i] = append(columns[i], val)
		count++
	}

	if rem := count % len(tags); rem != 0 {
		return p.errorf("not enough values in the last loop iteration: expected %d, got %d", len(tags), rem)
	}

	for i, tag := range tags {
		if _, _, err := c.Insert(tag, Value{kind: KindVector, vec: columns[i]}); err != nil {
			return err
		}
	}

	return nil
}

// parseSaveFrame parses a save frame into a new container registered in
// block. Save frames do not nest and end with a bare save_.
func (p *Parser) parseSaveFrame(block *Block) error {
	header, err := p.advance()
	if err != nil {
		return err
	}
	name := header.Value
	frame := NewContainer()

	for {
		switch p.current.Type {
		case TokenSaveEnd:
			if _, err := p.advance(); err != nil {
				return err
			}
			block.AddSave(name, frame)
			return nil
		case TokenTag:
			err = p.parseTag(frame)
		case TokenLoop:
			err = p.parseLoop(frame)
		case TokenSave:
			return p.errorf("save frame '%s' opened inside save frame 'save_%s', save frames can not be nested", p.current, name)
		case TokenData:
			return p.errorf("data block '%s' opened inside save frame 'save_%s'", p.current, name)
		default:
			return p.errorf("expected a tag, a loop or 'save_' in save frame 'save_%s', got '%s'", name, p.current)
		}

		if err != nil {
			return err
		}
	}
}

// parseValue consumes the current value token.
func (p *Parser) parseValue() (Value, error) {
	tk, err := p.advance()
	if err != nil {
		return Value{}, err
	}
	return tk.value()
}

// errorf creates a syntax error at the current line.
func (p *Parser) errorf(format string, args ...any) error {
	return p.lexer.errorf(SyntaxError, format, args...)
}

// fail records err as the parser's final state.
func (p *Parser) fail(err error) error {
	if p.err == nil {
		p.err = err
	}
	return p.err
}
