// Package panel is the interactive image picker: a bubbletea program that
// shows a scan, lets the user filter and select images and bundles the
// selection into an archive.
package panel

import (
	"context"
	"os"

	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"imgbundle/pkg/archive"
	"imgbundle/pkg/filter"
	"imgbundle/pkg/i18n"
	"imgbundle/pkg/logger"
	"imgbundle/pkg/scanner"
	"imgbundle/pkg/selection"
	"imgbundle/pkg/ui"
)

// Backend does the work the panel asks for
type Backend interface {
	Scan(ctx context.Context) (scanner.Response, error)
	Build(ctx context.Context, urls []string, onProgress func(archive.Progress)) (*archive.Result, error)
	Save(ctx context.Context, res *archive.Result, name string) (string, error)
}

type mode int

const (
	modeList mode = iota
	modeFilter
	modeSaveAs
)

// Options configures a panel
type Options struct {
	PageURL  string
	Criteria filter.Criteria
	// ArchiveName is the suggested file name
	ArchiveName string
	// SaveAs asks for the file name before each download
	SaveAs   bool
	Messages *i18n.Messages
	Notifier *ui.Notifier
	Logger   logger.Logger
	// Clipboard replaces the OSC 52 terminal clipboard
	Clipboard func(text string) error
}

// Model is the panel state
type Model struct {
	ctx     context.Context
	backend Backend
	opts    Options
	msgs    *i18n.Messages
	log     logger.Logger
	keys    keyMap

	state    selection.State
	criteria filter.Criteria
	// types lists the extensions seen on the page
	types    []string
	cursor   int
	offset   int
	width    int
	height   int
	mode     mode

	scanning bool
	scanned  bool
	// listed is set once a scan has succeeded
	listed   bool
	scanErr  error
	failures int

	form     filterForm
	nameForm textinput.Model

	building  bool
	progress  progress.Model
	lastProg  archive.Progress
	buildCh   <-chan tea.Msg
	spinner   spinner.Model
	help      help.Model
	status    string
	statusErr bool
	alert     string
}

// New creates a panel model. The first scan starts from Init.
func New(ctx context.Context, backend Backend, opts Options) Model {
	if opts.Messages == nil {
		opts.Messages = i18n.New("en")
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.Notifier == nil {
		opts.Notifier = ui.NewNotifier(nil)
	}
	if opts.Clipboard == nil {
		opts.Clipboard = terminalClipboard
	}
	if opts.ArchiveName == "" {
		opts.ArchiveName = "images.zip"
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accent)

	name := textinput.New()
	name.Prompt = "› "
	name.CharLimit = 255

	return Model{
		ctx:      ctx,
		backend:  backend,
		opts:     opts,
		msgs:     opts.Messages,
		log:      opts.Logger.WithField("component", "panel"),
		keys:     defaultKeys(),
		state:    selection.New(nil),
		criteria: opts.Criteria,
		form:     newFilterForm(opts.Criteria),
		nameForm: name,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spinner:  s,
		help:     help.New(),
		scanning: true,
	}
}

// Init starts the first scan
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.scanCmd())
}

// State returns the current selection state
func (m Model) State() selection.State {
	return m.state
}

// Criteria returns the filter criteria currently shown in the form
func (m Model) Criteria() filter.Criteria {
	return m.criteria
}

// Run shows the panel until the user quits
func Run(ctx context.Context, backend Backend, opts Options) (selection.State, error) {
	p := tea.NewProgram(New(ctx, backend, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return selection.State{}, err
	}
	if fm, ok := final.(Model); ok {
		return fm.state, nil
	}
	return selection.State{}, nil
}

func terminalClipboard(text string) error {
	_, err := osc52.New(text).WriteTo(os.Stderr)
	return err
}
