package cmd

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/cif-lang/go-cif"
	"gopkg.in/yaml.v3"
)

// writeYAML writes one YAML document per block. Tags keep their file order.
func writeYAML(w io.Writer, blocks []*cif.Block, cfg *Config) error {
	// Closing an encoder that never wrote a document is an error.
	if len(blocks) == 0 {
		return nil
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(cfg.Indent)

	for _, block := range blocks {
		if err := enc.Encode(blockNode(block, cfg.Frames)); err != nil {
			return err
		}
	}

	return enc.Close()
}

// blockNode builds the mapping "data_<name>" -> contents.
func blockNode(block *cif.Block, frames bool) *yaml.Node {
	body := containerNode(&block.Container)
	if frames {
		for name, frame := range block.Saves() {
			body.Content = append(body.Content, keyNode("save_"+name), containerNode(frame))
		}
	}

	return &yaml.Node{
		Kind:    yaml.MappingNode,
		Content: []*yaml.Node{keyNode("data_" + block.Name()), body},
	}
}

func containerNode(c *cif.Container) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for tag, v := range c.All() {
		node.Content = append(node.Content, keyNode(tag), valueNode(v))
	}
	return node
}

func keyNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// valueNode converts a value. Strings that would read back as another type
// are quoted by the encoder.
func valueNode(v cif.Value) *yaml.Node {
	switch v.Kind() {
	case cif.KindNumber:
		n, _ := v.AsNumber()
		return &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(n, 'g', -1, 64)}
	case cif.KindString:
		s, _ := v.AsString()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	case cif.KindVector:
		elems, _ := v.AsVector()
		node := &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range elems {
			node.Content = append(node.Content, valueNode(e))
		}
		return node
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

// jsonBlock is the JSON form of a data block. Tags are sorted by name.
type jsonBlock struct {
	Name   string                    `json:"name"`
	Tags   map[string]any            `json:"tags"`
	Frames map[string]map[string]any `json:"frames,omitempty"`
}

// writeJSON writes one JSON object per block.
func writeJSON(w io.Writer, blocks []*cif.Block, cfg *Config) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", strings.Repeat(" ", cfg.Indent))

	for _, block := range blocks {
		out := jsonBlock{Name: block.Name(), Tags: block.Map()}
		if cfg.Frames && block.NumSaves() > 0 {
			out.Frames = make(map[string]map[string]any, block.NumSaves())
			for name, frame := range block.Saves() {
				out.Frames[name] = frame.Map()
			}
		}

		if err := enc.Encode(out); err != nil {
			return err
		}
	}

	return nil
}
