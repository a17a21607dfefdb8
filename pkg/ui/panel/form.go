package panel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"imgbundle/pkg/filter"
)

const (
	fieldMinWidth = iota
	fieldMinHeight
	fieldType
	fieldMaxSize
	fieldCount
)

var fieldLabels = [fieldCount]string{"min width", "min height", "type", "max size"}

// filterForm edits filter criteria as text
type filterForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
	err    string
}

func newFilterForm(c filter.Criteria) filterForm {
	var f filterForm
	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 16
		ti.Width = 12
		f.inputs[i] = ti
	}
	f.inputs[fieldMinWidth].Placeholder = "0"
	f.inputs[fieldMinHeight].Placeholder = "0"
	f.inputs[fieldType].Placeholder = filter.AllTypes
	f.inputs[fieldMaxSize].Placeholder = "no limit"
	f.load(c)
	return f
}

// load fills the inputs from c
func (f *filterForm) load(c filter.Criteria) {
	f.inputs[fieldMinWidth].SetValue(intValue(c.MinWidth))
	f.inputs[fieldMinHeight].SetValue(intValue(c.MinHeight))
	t := c.FileType
	if t == "" {
		t = filter.AllTypes
	}
	f.inputs[fieldType].SetValue(t)
	size := ""
	if c.MaxByteSize > 0 {
		size = humanize.Bytes(uint64(c.MaxByteSize))
	}
	f.inputs[fieldMaxSize].SetValue(size)
	f.err = ""
}

func intValue(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func (f *filterForm) focusField(i int) tea.Cmd {
	f.focus = (i + fieldCount) % fieldCount
	for j := range f.inputs {
		if j != f.focus {
			f.inputs[j].Blur()
		}
	}
	return f.inputs[f.focus].Focus()
}

func (f *filterForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// criteria parses the inputs. Sizes accept units such as "500KB" or "2 MiB".
func (f *filterForm) criteria() (filter.Criteria, error) {
	var c filter.Criteria
	var err error

	if c.MinWidth, err = parseInt(f.inputs[fieldMinWidth].Value()); err != nil {
		return c, fmt.Errorf("%s: %w", fieldLabels[fieldMinWidth], err)
	}
	if c.MinHeight, err = parseInt(f.inputs[fieldMinHeight].Value()); err != nil {
		return c, fmt.Errorf("%s: %w", fieldLabels[fieldMinHeight], err)
	}

	c.FileType = strings.ToLower(strings.TrimSpace(f.inputs[fieldType].Value()))
	if c.FileType == "" {
		c.FileType = filter.AllTypes
	}

	if raw := strings.TrimSpace(f.inputs[fieldMaxSize].Value()); raw != "" {
		n, err := humanize.ParseBytes(raw)
		if err != nil {
			return c, fmt.Errorf("%s: %w", fieldLabels[fieldMaxSize], err)
		}
		c.MaxByteSize = int64(n)
	}

	return c, c.Validate()
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
