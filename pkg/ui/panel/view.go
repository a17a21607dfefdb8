package panel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"imgbundle/pkg/filter"
	"imgbundle/pkg/i18n"
	"imgbundle/pkg/ui"
)

// View renders the panel
func (m Model) View() string {
	var sections []string

	sections = append(sections, m.renderHeader())

	switch {
	case m.scanning && !m.scanned:
		sections = append(sections, m.spinner.View()+" "+m.msgs.T(i18n.ScanInProgress, m.opts.PageURL))
	case m.scanErr != nil:
		sections = append(sections, errorStyle.Render(m.scanErrorText(m.scanErr)))
	case m.state.Len() == 0:
		sections = append(sections, dimStyle.Render(m.msgs.T(i18n.NoImagesFound)))
	default:
		sections = append(sections, m.renderList())
	}

	switch m.mode {
	case modeFilter:
		sections = append(sections, m.renderFilterForm())
	case modeSaveAs:
		sections = append(sections, formStyle.Render("Save as\n"+m.nameForm.View()))
	}

	if m.building {
		sections = append(sections, m.renderProgress())
	}

	if m.alert != "" {
		sections = append(sections, alertStyle.Render(m.alert))
	}

	if m.status != "" {
		if m.statusErr {
			sections = append(sections, errorStyle.Render(m.status))
		} else {
			sections = append(sections, statusStyle.Render(m.status))
		}
	}

	sections = append(sections, helpStyle.Render(m.help.View(m.keys)))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("imgbundle") + pageStyle.Render(ui.TruncateURL(m.opts.PageURL, 60))

	stats := m.msgs.T(i18n.SelectedCount, m.state.Count(), m.state.Len())
	if m.scanning && m.scanned {
		stats += " " + m.spinner.View()
	}
	if m.failures > 0 {
		stats += dimStyle.Render(fmt.Sprintf(" • %d ?", m.failures))
	}
	stats += dimStyle.Render(" • " + describeCriteria(m.criteria))

	return lipgloss.JoinVertical(lipgloss.Left, title, statsStyle.Render(stats), "")
}

func describeCriteria(c filter.Criteria) string {
	t := c.FileType
	if t == "" {
		t = filter.AllTypes
	}
	s := fmt.Sprintf("≥%dx%d %s", c.MinWidth, c.MinHeight, t)
	if c.MaxByteSize > 0 {
		s += " ≤" + ui.FormatBytes(c.MaxByteSize)
	}
	return s
}

func (m Model) renderList() string {
	images := m.state.Images()
	rows := m.visibleRows()
	end := m.offset + rows
	if end > len(images) {
		end = len(images)
	}

	urlWidth := 60
	if m.width > 40 {
		urlWidth = m.width - 34
	}

	var b strings.Builder
	for i := m.offset; i < end; i++ {
		rec := images[i]

		box := "[ ]"
		if m.state.IsSelected(rec.SourceURL) {
			box = checkStyle.Render("[x]")
		}

		line := fmt.Sprintf("%-4s %-11s %-8s %s",
			ui.ShortType(rec.SourceURL),
			rec.Dimensions(),
			ui.FormatBytes(rec.ByteSize),
			ui.TruncateURL(rec.SourceURL, urlWidth),
		)

		if i == m.cursor {
			b.WriteString(cursorRowStyle.Render("› ") + box + " " + cursorRowStyle.Render(line))
		} else {
			b.WriteString("  " + box + " " + rowStyle.Render(line))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	if len(images) > rows {
		b.WriteString("\n" + dimStyle.Render(fmt.Sprintf("  %d-%d / %d", m.offset+1, end, len(images))))
	}
	return b.String()
}

func (m Model) renderFilterForm() string {
	var b strings.Builder
	b.WriteString(m.msgs.T(i18n.FilterTitle) + "\n")
	for i, in := range m.form.inputs {
		marker := "  "
		if i == m.form.focus {
			marker = "› "
		}
		line := fmt.Sprintf("%s%-11s %s", marker, fieldLabels[i], in.View())
		if i == fieldType && len(m.types) > 0 {
			line += "  " + dimStyle.Render(strings.Join(m.types, " "))
		}
		b.WriteString(line + "\n")
	}
	if m.form.err != "" {
		b.WriteString(errorStyle.Render(m.form.err) + "\n")
	}
	b.WriteString(dimStyle.Render("enter apply • tab next • esc cancel"))
	return formStyle.Render(b.String())
}

func (m Model) renderProgress() string {
	p := m.lastProg
	label := m.msgs.T(i18n.ArchiveBuilding, p.Completed, p.Total)
	return m.spinner.View() + " " + label + "\n" + m.progress.ViewAs(p.Fraction)
}
