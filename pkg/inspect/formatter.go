// Package inspect renders element trees for debugging and the CLI.
package inspect

import (
	"fmt"
	"io"
	"strings"

	"github.com/source-dmx/dmx-go/pkg/datamodel"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowIDs includes element GUIDs alongside names.
	ShowIDs bool

	// MaxDepth limits recursion into referenced elements; 0 means
	// unlimited.
	MaxDepth int

	// MaxArrayItems truncates long arrays in the output; 0 means
	// unlimited.
	MaxArrayItems int

	// IndentWidth is the number of spaces per indent level.
	IndentWidth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowIDs:       false,
		MaxDepth:      0,
		MaxArrayItems: 8,
		IndentWidth:   2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	return strings.Repeat(" ", depth*width) + content
}

// WriteModel renders the datamodel's root tree to w.
func (f *Formatter) WriteModel(w io.Writer, dm *datamodel.DataModel) error {
	fmt.Fprintf(w, "format %s %d, %d elements\n", dm.Format(), dm.FormatVersion(), len(dm.AllElements()))
	root := dm.Root()
	if root == nil {
		fmt.Fprintln(w, "(no root element)")
		return nil
	}
	return f.writeElement(w, root, 0, make(map[*datamodel.Element]bool))
}

func (f *Formatter) writeElement(w io.Writer, e *datamodel.Element, depth int, visited map[*datamodel.Element]bool) error {
	header := fmt.Sprintf("%s %q", e.ClassName(), e.Name())
	if e.IsStub() {
		header = fmt.Sprintf("stub %s", e.ID())
	} else if f.ShowIDs {
		header += " " + e.ID().String()
	}
	fmt.Fprintln(w, f.Indent(depth, header))

	if e.IsStub() {
		return nil
	}
	if visited[e] {
		fmt.Fprintln(w, f.Indent(depth+1, "(already shown)"))
		return nil
	}
	visited[e] = true

	if f.MaxDepth > 0 && depth >= f.MaxDepth {
		if e.Len() > 0 {
			fmt.Fprintln(w, f.Indent(depth+1, fmt.Sprintf("(%d attributes)", e.Len())))
		}
		return nil
	}

	for _, attr := range e.Attributes() {
		v, err := attr.Get()
		if err != nil {
			return err
		}
		kind := attr.Kind()
		switch t := v.(type) {
		case *datamodel.Element:
			if t == nil {
				fmt.Fprintln(w, f.Indent(depth+1, fmt.Sprintf("%s element null", attr.Name())))
				continue
			}
			fmt.Fprintln(w, f.Indent(depth+1, fmt.Sprintf("%s element:", attr.Name())))
			if err := f.writeElement(w, t, depth+2, visited); err != nil {
				return err
			}
		case *datamodel.ElementArray:
			fmt.Fprintln(w, f.Indent(depth+1, fmt.Sprintf("%s element_array (%d):", attr.Name(), t.Len())))
			for _, item := range t.Elements() {
				if item == nil {
					fmt.Fprintln(w, f.Indent(depth+2, "null"))
					continue
				}
				if err := f.writeElement(w, item, depth+2, visited); err != nil {
					return err
				}
			}
		default:
			fmt.Fprintln(w, f.Indent(depth+1, fmt.Sprintf("%s %s %s", attr.Name(), kind, f.FormatValue(v))))
		}
	}
	return nil
}

// FormatValue formats a scalar or array value for display.
func (f *Formatter) FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case string:
		return fmt.Sprintf("%q", v)
	case []byte:
		return fmt.Sprintf("0x%x (%d bytes)", truncateBytes(v, 16), len(v))
	case []string:
		return f.formatList(len(v), func(i int) string { return fmt.Sprintf("%q", v[i]) })
	case []int32:
		return f.formatList(len(v), func(i int) string { return fmt.Sprintf("%d", v[i]) })
	case []float32:
		return f.formatList(len(v), func(i int) string { return fmt.Sprintf("%g", v[i]) })
	case []bool:
		return f.formatList(len(v), func(i int) string { return f.FormatValue(v[i]) })
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatList renders up to MaxArrayItems entries.
func (f *Formatter) formatList(n int, item func(int) string) string {
	limit := n
	truncated := false
	if f.MaxArrayItems > 0 && n > f.MaxArrayItems {
		limit = f.MaxArrayItems
		truncated = true
	}
	parts := make([]string, 0, limit+1)
	for i := 0; i < limit; i++ {
		parts = append(parts, item(i))
	}
	if truncated {
		parts = append(parts, fmt.Sprintf("... %d more", n-limit))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func truncateBytes(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
