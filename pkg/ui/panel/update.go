package panel

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"imgbundle/pkg/archive"
	errs "imgbundle/pkg/errors"
	"imgbundle/pkg/filter"
	"imgbundle/pkg/i18n"
	"imgbundle/pkg/scanner"
	"imgbundle/pkg/selection"
)

// ScanResultMsg carries a finished scan
type ScanResultMsg struct {
	Response scanner.Response
	Err      error
}

// ProgressMsg is sent after each archive item settles
type ProgressMsg archive.Progress

// ArchiveDoneMsg ends an archive build
type ArchiveDoneMsg struct {
	Result *archive.Result
	Path   string
	Err    error
}

// Update handles all messages and returns the next model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.clampCursor()
		return m, nil

	case spinner.TickMsg:
		if !m.scanning && !m.building {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ScanResultMsg:
		return m.handleScan(msg), nil

	case ProgressMsg:
		m.lastProg = archive.Progress(msg)
		return m, m.waitForBuild()

	case ArchiveDoneMsg:
		return m.handleArchiveDone(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleScan(msg ScanResultMsg) Model {
	m.scanning = false
	m.scanned = true
	if msg.Err != nil {
		m.scanErr = msg.Err
		m.log.WithError(msg.Err).Warn("Scan failed")
		return m
	}
	m.scanErr = nil
	m.failures = len(msg.Response.Failures)
	first := !m.listed
	m.listed = true
	switch {
	case first && !m.criteria.MatchesAll():
		m.state = selection.New(msg.Response.Images).ApplyFilter(m.criteria)
	case first:
		m.state = selection.New(msg.Response.Images)
	default:
		// a rescan keeps only selections that still exist
		m.state = m.state.Replace(msg.Response.Images)
	}
	m.types = filter.Types(msg.Response.Images)
	m.clampCursor()
	m.setStatus(m.msgs.T(i18n.ImagesFound, m.state.Len()))
	return m
}

func (m Model) handleArchiveDone(msg ArchiveDoneMsg) Model {
	m.building = false
	m.buildCh = nil

	switch {
	case msg.Err != nil:
		m.setError(m.msgs.T(i18n.ArchiveFailed, msg.Err))
		m.opts.Notifier.Error(m.msgs.T(i18n.ArchiveFailed, msg.Err))
	case msg.Result != nil && msg.Result.Empty():
		m.setError(m.msgs.T(i18n.NothingDownloaded))
		m.opts.Notifier.Error(m.msgs.T(i18n.NothingDownloaded))
	default:
		text := m.msgs.T(i18n.ArchiveSaved, len(msg.Result.Entries), msg.Path)
		if n := len(msg.Result.Failures); n > 0 {
			text += " • " + m.msgs.T(i18n.ItemsSkipped, n)
		}
		m.setStatus(text)
		m.opts.Notifier.Complete(text)
	}
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.alert != "" {
		m.alert = ""
		return m, nil
	}

	switch m.mode {
	case modeFilter:
		return m.handleFilterKey(msg)
	case modeSaveAs:
		return m.handleSaveAsKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.clampCursor()

	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.state.Len()-1 {
			m.cursor++
		}
		m.clampCursor()

	case key.Matches(msg, m.keys.Toggle):
		if url, ok := m.currentURL(); ok {
			m.state = m.state.Toggle(url)
		}

	case key.Matches(msg, m.keys.ToggleAll):
		m.state = m.state.ToggleAll()

	case key.Matches(msg, m.keys.None):
		m.state = m.state.SelectNone()

	case key.Matches(msg, m.keys.Large):
		m.state = m.state.SelectLarge(m.criteria)
		m.criteria = m.criteriaAfterLarge()
		m.form.load(m.criteria)

	case key.Matches(msg, m.keys.Filter):
		m.mode = modeFilter
		m.form.load(m.criteria)
		return m, m.form.focusField(0)

	case key.Matches(msg, m.keys.Download):
		return m.startDownload()

	case key.Matches(msg, m.keys.Copy):
		text, err := m.state.CopyText()
		if err != nil {
			m.alert = m.msgs.T(i18n.NoImagesSelected)
			return m, nil
		}
		m.copyToClipboard(text, m.state.Count())

	case key.Matches(msg, m.keys.CopyOne):
		if url, ok := m.currentURL(); ok {
			m.copyToClipboard(url, 1)
		}

	case key.Matches(msg, m.keys.Rescan):
		if m.scanning || m.building {
			return m, nil
		}
		m.scanning = true
		m.scanErr = nil
		return m, tea.Batch(m.spinner.Tick, m.scanCmd())
	}

	return m, nil
}

func (m Model) criteriaAfterLarge() filter.Criteria {
	return filter.SelectLarge(m.criteria)
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		return m, nil
	case "tab", "down":
		return m, m.form.focusField(m.form.focus + 1)
	case "shift+tab", "up":
		return m, m.form.focusField(m.form.focus - 1)
	case "enter":
		c, err := m.form.criteria()
		if err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		m.criteria = c
		m.state = m.state.ApplyFilter(c)
		m.mode = modeList
		m.setStatus(m.msgs.T(i18n.SelectedCount, m.state.Count(), m.state.Len()))
		return m, nil
	}
	return m, m.form.update(msg)
}

func (m Model) handleSaveAsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.nameForm.Blur()
		return m, nil
	case "enter":
		name := m.nameForm.Value()
		if name == "" {
			name = m.opts.ArchiveName
		}
		m.mode = modeList
		m.nameForm.Blur()
		return m.beginBuild(name)
	}
	var cmd tea.Cmd
	m.nameForm, cmd = m.nameForm.Update(msg)
	return m, cmd
}

func (m Model) startDownload() (tea.Model, tea.Cmd) {
	if m.building {
		return m, nil
	}
	if m.state.Count() == 0 {
		m.alert = m.msgs.T(i18n.NoImagesSelected)
		return m, nil
	}
	if m.opts.SaveAs {
		m.mode = modeSaveAs
		m.nameForm.SetValue(m.opts.ArchiveName)
		m.nameForm.CursorEnd()
		return m, m.nameForm.Focus()
	}
	return m.beginBuild(m.opts.ArchiveName)
}

func (m Model) beginBuild(name string) (tea.Model, tea.Cmd) {
	urls := m.state.SelectedURLs()
	ch := make(chan tea.Msg, len(urls)+1)

	m.building = true
	m.buildCh = ch
	m.lastProg = archive.Progress{Total: len(urls)}
	m.status = ""

	ctx, backend := m.ctx, m.backend
	go func() {
		defer close(ch)
		res, err := backend.Build(ctx, urls, func(p archive.Progress) {
			ch <- ProgressMsg(p)
		})
		if err != nil {
			ch <- ArchiveDoneMsg{Err: err}
			return
		}
		// an archive with no entries is still saved
		path, err := backend.Save(ctx, res, name)
		ch <- ArchiveDoneMsg{Result: res, Path: path, Err: err}
	}()

	return m, tea.Batch(m.spinner.Tick, m.waitForBuild())
}

// waitForBuild delivers the next message of the running build
func (m Model) waitForBuild() tea.Cmd {
	ch := m.buildCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m Model) scanCmd() tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		resp, err := backend.Scan(ctx)
		return ScanResultMsg{Response: resp, Err: err}
	}
}

func (m *Model) copyToClipboard(text string, n int) {
	if err := m.opts.Clipboard(text); err != nil {
		m.setError(err.Error())
		return
	}
	m.setStatus(m.msgs.T(i18n.URLsCopied, n))
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

func (m Model) currentURL() (string, bool) {
	images := m.state.Images()
	if m.cursor < 0 || m.cursor >= len(images) {
		return "", false
	}
	return images[m.cursor].SourceURL, true
}

func (m Model) visibleRows() int {
	rows := m.height - 10
	if rows < 5 {
		rows = 5
	}
	return rows
}

func (m *Model) clampCursor() {
	n := m.state.Len()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// scanErrorText maps a scan failure to its message
func (m Model) scanErrorText(err error) string {
	switch {
	case errors.Is(err, errs.ErrNoTarget):
		return m.msgs.T(i18n.NoTarget)
	case errors.Is(err, errs.ErrScanUnreachable):
		return m.msgs.T(i18n.ScanUnreachable, m.opts.PageURL)
	case errors.Is(err, errs.ErrInvalidRequest):
		return m.msgs.T(i18n.InvalidRequest, err)
	default:
		return fmt.Sprint(err)
	}
}
