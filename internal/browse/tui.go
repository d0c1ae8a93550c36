// Package browse is the terminal browser over the published artifact.
package browse

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/hiddenjobs/internal/filter"
	"github.com/amishk599/hiddenjobs/internal/model"
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modePicker
	modeDetail
)

type pickerKind int

const (
	pickTech pickerKind = iota
	pickLocation
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	filterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	jobTitleStyle = lipgloss.NewStyle().
			Bold(true)

	jobSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedJobTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")). // bright white
				Background(lipgloss.Color("24"))  // dark blue bg

	selectedJobSubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	savedMarkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(14)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true).
			Padding(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Padding(1, 2)
)

// openURL opens url in the default system browser, fire-and-forget.
var openURL = func(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("don't know how to open a browser on %s", runtime.GOOS)
	}
	return cmd.Start()
}

// Model is the bubbletea model of the browser.
type Model struct {
	load  Loader
	store model.SavedStore

	jobs        []model.JobPosting
	lastUpdated time.Time
	saved       map[string]bool
	state       filter.ViewState
	page        filter.Page
	cursor      int

	loading bool
	loadErr error
	status  string

	mode       mode
	search     textinput.Model
	prevQuery  string
	picker     pickerModel
	pickerKind pickerKind
	spinner    spinner.Model
	detail     viewport.Model
	detailJob  model.JobPosting

	width  int
	height int
}

// NewModel creates a browser that reads jobs through load and keeps saved
// flags in store.
func NewModel(load Loader, store model.SavedStore, pageSize int) Model {
	search := textinput.New()
	search.Placeholder = "company or title"
	search.Prompt = "/ "
	search.CharLimit = 80

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))

	return Model{
		load:    load,
		store:   store,
		saved:   map[string]bool{},
		state:   filter.NewViewState(pageSize),
		loading: true,
		search:  search,
		spinner: sp,
		width:   80,
		height:  24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadCmd(m.load, m.store))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.mode == modeDetail {
			m.detail.Width = m.width - 4
			m.detail.Height = m.height - 4
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case artifactLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.loadErr = msg.err
			m.jobs = nil
			m.refresh()
			return m, nil
		}
		m.loadErr = nil
		m.jobs = msg.artifact.Jobs
		m.lastUpdated = msg.artifact.LastUpdated
		m.saved = msg.saved
		if m.saved == nil {
			m.saved = map[string]bool{}
		}
		m.status = ""
		m.refresh()
		return m, nil

	case savedToggledMsg:
		if msg.err != nil {
			// Roll back the optimistic flip.
			m.setSaved(msg.id, !msg.saved)
			m.status = "could not update saved jobs: " + msg.err.Error()
			return m, nil
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modePicker:
			return m.updatePicker(msg)
		case modeDetail:
			return m.updateDetail(msg)
		default:
			return m.updateList(msg)
		}
	}

	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		return m.reload()
	}
	if m.loading || m.loadErr != nil {
		return m, nil
	}

	m.status = ""
	switch msg.String() {
	case "up", "k":
		m.cursor = clamp(m.cursor-1, 0, max(len(m.page.Jobs)-1, 0))
	case "down", "j":
		m.cursor = clamp(m.cursor+1, 0, max(len(m.page.Jobs)-1, 0))
	case "right", "n", "pgdown":
		m.setState(m.state.WithPage(m.page.Page + 1))
	case "left", "p", "pgup":
		m.setState(m.state.WithPage(m.page.Page - 1))
	case "/":
		m.mode = modeSearch
		m.prevQuery = m.state.Query()
		m.search.SetValue(m.state.Query())
		m.search.CursorEnd()
		return m, m.search.Focus()
	case "t":
		m.openPicker(pickTech)
	case "l":
		m.openPicker(pickLocation)
	case "v":
		m.setState(m.state.WithSavedOnly(!m.state.SavedOnly()))
	case "tab":
		next := filter.SortRecent
		if m.state.Sort() == filter.SortRecent {
			next = filter.SortScore
		}
		m.setState(m.state.WithSort(next))
	case "c":
		m.setState(filter.NewViewState(m.state.PageSize()).WithSort(m.state.Sort()))
	case "s":
		if job, ok := m.selected(); ok {
			return m, m.toggleSaved(job.ID)
		}
	case "o":
		if job, ok := m.selected(); ok {
			m.open(job.URL)
		}
	case "enter":
		if job, ok := m.selected(); ok {
			m.openDetail(job)
		}
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.mode = modeList
		m.search.Blur()
		return m, nil
	case "esc":
		m.mode = modeList
		m.search.Blur()
		m.setState(m.state.WithQuery(m.prevQuery))
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.state.Query() {
		m.setState(m.state.WithQuery(m.search.Value()))
	}
	return m, cmd
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	var outcome pickerOutcome
	m.picker, outcome = m.picker.update(msg)
	switch outcome {
	case pickerCancelled:
		m.mode = modeList
	case pickerApplied:
		m.mode = modeList
		choices := m.picker.choices()
		if m.pickerKind == pickLocation {
			loc := ""
			if len(choices) > 0 {
				loc = choices[0]
			}
			m.setState(m.state.WithLocation(loc))
		} else {
			m.setState(applyTechs(m.state, choices))
		}
	}
	return m, nil
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.mode = modeList
		m.status = ""
		return m, nil
	case "o", "enter":
		m.open(m.detailJob.URL)
		return m, nil
	case "s":
		cmd := m.toggleSaved(m.detailJob.ID)
		m.detail.SetContent(m.renderDetail())
		return m, cmd
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	m.loading = true
	m.loadErr = nil
	m.mode = modeList
	return m, tea.Batch(m.spinner.Tick, loadCmd(m.load, m.store))
}

// setState replaces the view state and recomputes the visible page.
func (m *Model) setState(s filter.ViewState) {
	m.state = s
	m.refresh()
}

func (m *Model) refresh() {
	m.page = filter.ComputeVisibleJobs(m.state, m.jobs, m.saved)
	m.state = m.state.WithPage(m.page.Page)
	m.cursor = clamp(m.cursor, 0, max(len(m.page.Jobs)-1, 0))
}

func (m *Model) openPicker(kind pickerKind) {
	m.pickerKind = kind
	height := max(m.height-8, 5)
	if kind == pickLocation {
		var current []string
		if m.state.Location() != "" {
			current = []string{m.state.Location()}
		}
		m.picker = newPicker("Location", locationItems(m.jobs), false, current, height)
	} else {
		m.picker = newPicker("Tech stack (all selected must match)", techItems(m.jobs), true, m.state.Techs(), height)
	}
	m.mode = modePicker
}

// applyTechs toggles technologies until the selection equals want.
func applyTechs(s filter.ViewState, want []string) filter.ViewState {
	wanted := map[string]bool{}
	for _, t := range want {
		wanted[strings.ToLower(t)] = true
	}
	for _, t := range s.Techs() {
		if !wanted[t] {
			s = s.ToggleTech(t)
		}
	}
	for t := range wanted {
		if !s.HasTech(t) {
			s = s.ToggleTech(t)
		}
	}
	// Toggling resets the page even when the selection did not change.
	return s.WithPage(1)
}

func (m Model) selected() (model.JobPosting, bool) {
	if len(m.page.Jobs) == 0 {
		return model.JobPosting{}, false
	}
	return m.page.Jobs[m.cursor], true
}

// toggleSaved flips the flag locally and persists it in the background.
func (m *Model) toggleSaved(id string) tea.Cmd {
	next := !m.saved[id]
	m.setSaved(id, next)
	if next {
		m.status = "saved"
	} else {
		m.status = "removed from saved"
	}
	return toggleSavedCmd(m.store, id, next)
}

func (m *Model) setSaved(id string, saved bool) {
	next := make(map[string]bool, len(m.saved)+1)
	for k, v := range m.saved {
		next[k] = v
	}
	if saved {
		next[id] = true
	} else {
		delete(next, id)
	}
	m.saved = next
	m.refresh()
}

func (m *Model) open(url string) {
	if url == "" {
		m.status = "no link for this job"
		return
	}
	if err := openURL(url); err != nil {
		m.status = "could not open browser: " + err.Error()
		return
	}
	m.status = "opened " + url
}

func (m *Model) openDetail(job model.JobPosting) {
	m.mode = modeDetail
	m.detailJob = job
	m.detail = viewport.New(m.width-4, m.height-4)
	m.detail.SetContent(m.renderDetail())
}

func (m Model) View() string {
	if m.loading {
		return fmt.Sprintf("\n  %s Loading jobs...\n", m.spinner.View())
	}
	if m.loadErr != nil {
		return errorStyle.Render("⚠ "+describeLoadError(m.loadErr)) + "\n" +
			statusBarStyle.Width(m.width).Render(" r retry  q quit")
	}

	switch m.mode {
	case modeDetail:
		return m.viewDetail()
	case modePicker:
		return m.picker.view()
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	header := fmt.Sprintf("hiddenjobs · %s · page %d/%d · sort: %s",
		m.page.Label, m.page.Page, m.page.TotalPages, m.state.Sort())
	if !m.lastUpdated.IsZero() {
		header += " · updated " + m.lastUpdated.Local().Format("2006-01-02 15:04")
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteByte('\n')

	if m.mode == modeSearch {
		b.WriteString(" " + m.search.View())
	} else {
		b.WriteString(filterStyle.Render(describeFilters(m.state)))
	}
	b.WriteString("\n\n")

	if len(m.page.Jobs) == 0 {
		msg := "No jobs match the current filters. Press c to clear them."
		if len(m.jobs) == 0 {
			msg = "The published file has no jobs."
		}
		b.WriteString(emptyStyle.Render(msg))
		b.WriteByte('\n')
	} else {
		b.WriteString(renderJobs(m.page.Jobs, m.saved, m.cursor))
		b.WriteByte('\n')
	}

	statusText := " ↑/↓ move  ←/→ page  / search  t tech  l location  v saved only  tab sort  s save  o open  enter detail  c clear  r reload  q quit"
	if m.status != "" {
		statusText = " " + m.status
	}
	b.WriteString(statusBarStyle.Width(m.width).Render(statusText))
	return b.String()
}

func describeFilters(s filter.ViewState) string {
	var parts []string
	if s.Query() != "" {
		parts = append(parts, fmt.Sprintf("search %q", s.Query()))
	}
	if s.Location() != "" {
		parts = append(parts, "location "+s.Location())
	}
	if techs := s.Techs(); len(techs) > 0 {
		parts = append(parts, "tech "+strings.Join(techs, "+"))
	}
	if s.SavedOnly() {
		parts = append(parts, "saved only")
	}
	if len(parts) == 0 {
		return "no filters"
	}
	return strings.Join(parts, " · ")
}

func (m Model) viewDetail() string {
	title := detailTitleStyle.Render("Job Details")
	border := activeBorderStyle.Width(m.width - 2)
	content := border.Render(m.detail.View())

	statusText := " o open URL  s save/unsave  esc back  ↑/↓ scroll  q quit"
	if m.status != "" {
		statusText = " " + m.status
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m Model) renderDetail() string {
	j := m.detailJob
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	location := j.LocationOrEmpty()
	if location == "" {
		location = "unspecified"
	}

	addField("Title", j.Title)
	addField("Company", j.Company)
	addField("Location", location)
	addField("Score", fmt.Sprintf("%d", j.HiddenScore))
	addField("Source", j.Source)
	if len(j.TechStack) > 0 {
		addField("Stack", strings.Join(j.TechStack, ", "))
	}

	b.WriteByte('\n')
	if j.PostedDate != nil {
		addField("Posted", j.PostedDate.Format("2006-01-02 15:04 MST"))
	}
	addField("Scraped", j.ScrapedAt.Format("2006-01-02 15:04 MST"))
	if m.saved[j.ID] {
		addField("Saved", "yes")
	}

	b.WriteByte('\n')
	addField("Job URL", j.URL)
	addField("Job ID", j.ID)

	if j.RawText != "" {
		b.WriteByte('\n')
		b.WriteString(wordWrap(j.RawText, max(m.width-8, 20)))
		b.WriteByte('\n')
	}
	return b.String()
}

func renderJobs(jobs []model.JobPosting, saved map[string]bool, cursor int) string {
	var b strings.Builder
	for i, j := range jobs {
		titleSt := jobTitleStyle
		subtitleSt := jobSubtitleStyle
		prefix := "  "
		if i == cursor {
			titleSt = selectedJobTitleStyle
			subtitleSt = selectedJobSubtitleStyle
			prefix = "> "
		}

		mark := "  "
		if saved[j.ID] {
			mark = savedMarkStyle.Render("★ ")
		}

		b.WriteString(prefix)
		b.WriteString(mark)
		b.WriteString(titleSt.Render(fmt.Sprintf("%s · %s", j.Company, j.Title)))
		b.WriteByte('\n')

		location := j.LocationOrEmpty()
		if location == "" {
			location = "unspecified"
		}
		posted := "n/a"
		if j.PostedDate != nil {
			posted = j.PostedDate.Format("2006-01-02")
		}
		b.WriteString(prefix + "  ")
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · score %d · %s", location, j.Source, j.HiddenScore, posted)))
		b.WriteByte('\n')

		if i < len(jobs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Run launches the browser in the alternate screen and blocks until the user quits.
func Run(load Loader, store model.SavedStore, pageSize int) error {
	p := tea.NewProgram(NewModel(load, store, pageSize), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
