// Package tui is the terminal front end for the lead pipeline. It
// follows the bubbletea model-update-view loop: the App struct holds
// all state, Update applies messages (key presses, completed
// requests), View renders. Network calls run as commands off the
// update loop and report back with typed messages, so the store is
// mutated from exactly one place.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kestrelhq/leadline/internal/api"
	"github.com/kestrelhq/leadline/internal/config"
	"github.com/kestrelhq/leadline/internal/journal"
	"github.com/kestrelhq/leadline/internal/lead"
	"github.com/kestrelhq/leadline/internal/store"
	"github.com/kestrelhq/leadline/internal/toast"
)

// screen identifies which surface owns the keyboard.
type screen int

const (
	screenBrowse screen = iota
	screenLeadForm
	screenScoring
	screenFilters
	screenConfirmDelete
	screenStagePick
	screenMessagePick
	screenSortPick
)

// browseFocus is the input target while browsing.
type browseFocus int

const (
	focusList browseFocus = iota
	focusSearch
	focusTune
)

// sortPreset is one entry of the sort menu.
type sortPreset struct {
	label string
	key   lead.SortKey
	dir   lead.SortDir
}

var sortPresets = []sortPreset{
	{"Newest First", lead.SortCreatedAt, lead.Desc},
	{"Oldest First", lead.SortCreatedAt, lead.Asc},
	{"Highest Score", lead.SortScore, lead.Desc},
	{"Lowest Score", lead.SortScore, lead.Asc},
	{"Stage (Pipeline Order)", lead.SortStage, lead.Asc},
	{"Name (A-Z)", lead.SortFirstName, lead.Asc},
	{"Company (A-Z)", lead.SortCompany, lead.Asc},
}

// AppOption customizes App construction, mainly for tests.
type AppOption func(*App)

// WithClient substitutes the API client, typically one pointed at an
// httptest server.
func WithClient(client *api.Client) AppOption {
	return func(a *App) {
		if client != nil {
			a.client = client
		}
	}
}

// App is the application model.
type App struct {
	cfg    *config.Config
	client *api.Client
	log    *journal.Journal

	store    *store.Store
	toasts   *toast.Queue
	session  messageSession
	criteria lead.ScoringCriteria

	query       lead.Query
	searchInput textinput.Model
	tuneInput   textarea.Model

	leadForm    *leadForm
	scoringForm *scoringForm
	filterForm  *filterForm

	screen  screen
	focus   browseFocus
	cursor  int
	pickIdx int

	// targetID is the lead a picker or confirmation acts on.
	targetID int

	// confirmBatch selects between single and batch delete on the
	// confirmation screen.
	confirmBatch bool

	busy        bool
	busyMessage string
	spin        spinner.Model

	width  int
	height int

	statusMsg string
	timeout   time.Duration
}

// NewApp builds the application model.
func NewApp(cfg *config.Config, opts ...AppOption) (*App, error) {
	log, err := journal.New(cfg.LogPath())
	if err != nil {
		return nil, err
	}

	search := textinput.New()
	search.Placeholder = "Search name, email, company, industry…"
	search.CharLimit = 120
	search.Width = 48

	tune := textarea.New()
	tune.Placeholder = "e.g. 'Make it more formal', 'Shorten to 3 paragraphs'"
	tune.SetHeight(3)
	tune.CharLimit = 500

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	app := &App{
		cfg:         cfg,
		log:         log,
		store:       store.New(),
		toasts:      toast.NewQueue(),
		criteria:    lead.DefaultScoringCriteria(),
		query:       lead.Query{SortBy: lead.SortCreatedAt, Dir: lead.Desc},
		searchInput: search,
		tuneInput:   tune,
		spin:        spin,
		busy:        true,
		busyMessage: "Loading leads…",
		timeout:     cfg.RequestTimeout(),
	}
	app.client = api.NewClient(cfg.APIURL(),
		api.WithTimeout(cfg.RequestTimeout()),
		api.WithJournal(log),
	)
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	log.Info("Session opened · service %s", cfg.APIURL())
	return app, nil
}

// Init starts the initial load.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadCmd(), a.spin.Tick)
}

// visible runs the filter/sort pipeline over the store. It is
// re-evaluated on every use, nothing memoized, so the list can never
// go stale against the store.
func (a *App) visible() []lead.Lead {
	return lead.Visible(a.store.Leads(), a.queryWithSearch())
}

// queryWithSearch mirrors the live search box into the query.
func (a *App) queryWithSearch() lead.Query {
	q := a.query
	q.Search = a.searchInput.Value()
	return q
}

func (a *App) clampCursor() {
	n := len(a.visible())
	if n == 0 {
		a.cursor = 0
		return
	}
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// cursorLead returns the lead under the cursor in the visible list.
func (a *App) cursorLead() (lead.Lead, bool) {
	vis := a.visible()
	if a.cursor < 0 || a.cursor >= len(vis) {
		return lead.Lead{}, false
	}
	return vis[a.cursor], true
}

// pushToast enqueues a notification and schedules its expiry.
func (a *App) pushToast(message string, severity toast.Severity) tea.Cmd {
	t := a.toasts.Push(message, severity)
	switch severity {
	case toast.Error:
		a.log.Error("%s", message)
	case toast.Warning:
		a.log.Warn("%s", message)
	default:
		a.log.Info("%s", message)
	}
	return expireToastCmd(t.ID)
}

func (a *App) setStatus(message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	a.statusMsg = message
	a.log.Progress(message)
}

func (a *App) startBusy(message string) {
	a.busy = true
	a.busyMessage = message
}

// Update is the single place application state changes.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.searchInput.Width = maxInt(24, msg.Width/2)
		a.tuneInput.SetWidth(maxInt(30, msg.Width/2))
		return a, nil

	case spinner.TickMsg:
		if !a.busy && !a.session.busy() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case toastExpiredMsg:
		a.toasts.Dismiss(msg.id)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	if cmd, handled := a.handleAsync(msg); handled {
		return a, cmd
	}
	return a, nil
}

// handleAsync applies completed-request messages to the store.
func (a *App) handleAsync(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case leadsLoadedMsg:
		a.busy = false
		if msg.err != nil {
			// The previous list stays intact on a failed refresh.
			return a.pushToast(api.Surface(msg.err, "Failed to fetch leads"), toast.Error), true
		}
		a.store.ReplaceLeads(msg.leads)
		if msg.stats != nil {
			a.store.ReplaceStats(msg.stats)
		}
		a.clampCursor()
		a.setStatus(fmt.Sprintf("Loaded %d lead(s)", a.store.Len()))
		return nil, true

	case activitiesMsg:
		// Only the open lead's trail is held; a late response for a
		// previously opened lead is dropped.
		if msg.leadID == a.store.OpenID() {
			a.store.SetActivities(msg.activities)
		}
		return nil, true

	case leadCreatedMsg:
		a.busy = false
		if msg.err != nil {
			detail := api.Surface(msg.err, "Failed to create lead")
			if a.leadForm != nil {
				a.leadForm.errMsg = detail
			}
			return a.pushToast(detail, toast.Error), true
		}
		a.store.AddLead(msg.lead)
		if msg.stats != nil {
			a.store.ReplaceStats(msg.stats)
		}
		a.leadForm = nil
		a.screen = screenBrowse
		return a.pushToast("Lead created successfully!", toast.Success), true

	case leadUpdatedMsg:
		a.busy = false
		if msg.err != nil {
			detail := api.Surface(msg.err, "Failed to update lead")
			if a.leadForm != nil {
				a.leadForm.errMsg = detail
			}
			return a.pushToast(detail, toast.Error), true
		}
		a.store.MergeLead(msg.lead)
		if msg.stats != nil {
			a.store.ReplaceStats(msg.stats)
		}
		a.leadForm = nil
		a.screen = screenBrowse
		return a.pushToast("Lead updated successfully!", toast.Success), true

	case leadDeletedMsg:
		a.busy = false
		a.screen = screenBrowse
		if msg.err != nil {
			return a.pushToast(api.Surface(msg.err, "Failed to delete lead"), toast.Error), true
		}
		// Removal only after server confirmation.
		a.store.RemoveLeads(msg.id)
		if msg.stats != nil {
			a.store.ReplaceStats(msg.stats)
		}
		a.clampCursor()
		return a.pushToast("Lead deleted successfully!", toast.Success), true

	case batchDeleteMsg:
		a.busy = false
		a.screen = screenBrowse
		// Per-item reconciliation: confirmed deletions leave the local
		// list, failed ids stay put with their selection marks.
		a.store.RemoveLeads(msg.deleted...)
		if msg.stats != nil {
			a.store.ReplaceStats(msg.stats)
		}
		a.clampCursor()
		if len(msg.failed) > 0 {
			return a.pushToast(
				fmt.Sprintf("Deleted %d lead(s), %d failed", len(msg.deleted), len(msg.failed)),
				toast.Error,
			), true
		}
		a.store.ClearSelection()
		return a.pushToast(fmt.Sprintf("Successfully deleted %d lead(s)!", len(msg.deleted)), toast.Success), true

	case scoreBatchMsg:
		a.busy = false
		if msg.err != nil {
			return a.pushToast(api.Surface(msg.err, "Failed to score leads"), toast.Error), true
		}
		if msg.leads != nil {
			a.store.ReplaceLeads(msg.leads)
		}
		if msg.openLead != nil {
			a.store.MergeLead(*msg.openLead)
		}
		if msg.stats != nil {
			a.store.ReplaceStats(msg.stats)
		}
		a.clampCursor()
		return a.pushToast(fmt.Sprintf("Successfully scored %d lead(s)!", msg.result.Scored), toast.Success), true

	case generateDoneMsg:
		if a.session.stale(msg.seq) {
			// Superseded by closing the panel or switching leads.
			a.log.Info("Discarded stale generate result for lead %d", msg.leadID)
			return nil, true
		}
		a.busy = false
		if msg.err != nil {
			a.session.fail()
			return a.pushToast(api.Surface(msg.err, "Failed to generate message"), toast.Error), true
		}
		a.session.applyGenerated(msg.msg)
		if msg.refreshed != nil {
			a.store.MergeLead(*msg.refreshed)
		}
		if msg.stats != nil {
			a.store.ReplaceStats(msg.stats)
		}
		if msg.leadID == a.store.OpenID() && msg.activities != nil {
			a.store.SetActivities(msg.activities)
		}
		return a.pushToast("Message generated successfully!", toast.Success), true

	case tuneDoneMsg:
		if a.session.stale(msg.seq) {
			a.log.Info("Discarded stale tune-up result for lead %d", msg.leadID)
			return nil, true
		}
		a.busy = false
		if msg.err != nil {
			a.session.fail()
			return a.pushToast(api.Surface(msg.err, "Failed to tune up message"), toast.Error), true
		}
		a.session.applyTuned(msg.msg)
		a.tuneInput.Reset()
		if msg.leadID == a.store.OpenID() && msg.activities != nil {
			a.store.SetActivities(msg.activities)
		}
		return a.pushToast("Message tuned up successfully!", toast.Success), true

	case stageSavedMsg:
		if msg.err != nil {
			// The optimistic value stays; the unconfirmed mark keeps
			// the drift visible instead of silently accepted.
			a.store.RejectStage(msg.leadID)
			return a.pushToast(api.Surface(msg.err, "Failed to update stage"), toast.Error), true
		}
		a.store.ConfirmStage(msg.leadID)
		if msg.stats != nil {
			a.store.ReplaceStats(msg.stats)
		}
		if msg.leadID == a.store.OpenID() && msg.activities != nil {
			a.store.SetActivities(msg.activities)
		}
		return a.pushToast("Stage updated!", toast.Success), true
	}
	return nil, false
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}
	switch a.screen {
	case screenLeadForm:
		return a.handleLeadFormKey(msg)
	case screenScoring:
		return a.handleScoringKey(msg)
	case screenFilters:
		return a.handleFiltersKey(msg)
	case screenConfirmDelete:
		return a.handleConfirmDeleteKey(msg)
	case screenStagePick:
		return a.handleStagePickKey(msg)
	case screenMessagePick:
		return a.handleMessagePickKey(msg)
	case screenSortPick:
		return a.handleSortPickKey(msg)
	default:
		return a.handleBrowseKey(msg)
	}
}

func (a *App) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.focus {
	case focusSearch:
		switch msg.String() {
		case "esc", "enter":
			a.searchInput.Blur()
			a.focus = focusList
			a.clampCursor()
			return a, nil
		}
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(msg)
		a.clampCursor()
		return a, cmd

	case focusTune:
		switch msg.String() {
		case "esc":
			a.tuneInput.Blur()
			a.focus = focusList
			return a, nil
		case "ctrl+s":
			return a.submitTuneUp()
		}
		var cmd tea.Cmd
		a.tuneInput, cmd = a.tuneInput.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.visible())-1 {
			a.cursor++
		}
	case "enter":
		if l, ok := a.cursorLead(); ok {
			return a.openLead(l.ID)
		}
	case " ":
		if l, ok := a.cursorLead(); ok {
			a.store.ToggleSelect(l.ID)
		}
	case "/":
		a.focus = focusSearch
		return a, a.searchInput.Focus()
	case "f":
		a.filterForm = newFilterForm(a.queryWithSearch())
		a.screen = screenFilters
	case "s":
		a.pickIdx = a.currentSortPreset()
		a.screen = screenSortPick
	case "a":
		a.leadForm = newLeadForm(nil)
		a.screen = screenLeadForm
	case "e":
		if open, ok := a.store.Open(); ok {
			a.leadForm = newLeadForm(&open)
			a.screen = screenLeadForm
		} else {
			a.setStatus("Open a lead first (enter)")
		}
	case "r":
		a.startBusy("Refreshing leads…")
		return a, tea.Batch(a.loadCmd(), a.spin.Tick)
	case "S":
		if a.store.Len() == 0 {
			a.setStatus("No leads to score")
			return a, nil
		}
		a.startBusy("Scoring all leads…")
		return a, tea.Batch(a.scoreBatchCmd(a.store.OpenID()), a.spin.Tick)
	case "w":
		a.scoringForm = newScoringForm(a.criteria)
		a.screen = screenScoring
	case "d":
		if l, ok := a.cursorLead(); ok {
			a.targetID = l.ID
			a.confirmBatch = false
			a.screen = screenConfirmDelete
		}
	case "D":
		if a.store.SelectionCount() > 0 {
			a.confirmBatch = true
			a.screen = screenConfirmDelete
		} else {
			a.setStatus("Select leads first (space)")
		}
	case "c":
		if l, ok := a.cursorLead(); ok {
			a.targetID = l.ID
			a.pickIdx = indexOfStage(l.PipelineStage)
			a.screen = screenStagePick
		}
	case "m":
		if open, ok := a.store.Open(); ok {
			if a.session.busy() {
				a.setStatus("A message request is already running")
				return a, nil
			}
			a.targetID = open.ID
			a.pickIdx = 0
			a.screen = screenMessagePick
		} else {
			a.setStatus("Open a lead first (enter)")
		}
	case "t":
		if a.session.open() {
			a.focus = focusTune
			return a, a.tuneInput.Focus()
		}
	case "x":
		if a.session.open() || a.session.busy() {
			a.dismissMessageSession()
		}
	case "0":
		a.query.Stage = ""
		a.clampCursor()
	case "1", "2", "3", "4", "5", "6", "7":
		stage := lead.Stages[int(msg.String()[0]-'1')]
		// Picking the active stage filter again toggles it off.
		if a.query.Stage == stage {
			a.query.Stage = ""
		} else {
			a.query.Stage = stage
		}
		a.clampCursor()
	case "esc":
		switch {
		case a.session.open() || a.session.busy():
			a.dismissMessageSession()
		case a.store.OpenID() != 0:
			a.closeLead()
		default:
			a.clearFilters()
		}
	}
	return a, nil
}

// dismissMessageSession discards the message session. A request still
// in flight was the operation the spinner belonged to, so busy clears
// with it; the orphaned result is dropped by the sequence bump.
func (a *App) dismissMessageSession() {
	if a.session.busy() {
		a.busy = false
	}
	a.session.close()
	a.tuneInput.Reset()
}

// openLead points the detail panel at a lead, discards any message
// session held for the previously open lead, and fetches the activity
// trail.
func (a *App) openLead(id int) (tea.Model, tea.Cmd) {
	if a.store.OpenID() == id {
		return a, nil
	}
	if !a.store.OpenLead(id) {
		return a, nil
	}
	a.dismissMessageSession()
	return a, a.activitiesCmd(id)
}

func (a *App) closeLead() {
	a.store.CloseLead()
	a.dismissMessageSession()
}

func (a *App) clearFilters() {
	a.searchInput.Reset()
	sortBy, dir := a.query.SortBy, a.query.Dir
	a.query = lead.Query{SortBy: sortBy, Dir: dir}
	a.clampCursor()
	a.setStatus("Filters cleared")
}

func (a *App) currentSortPreset() int {
	for i, p := range sortPresets {
		if p.key == a.query.SortBy && p.dir == a.query.Dir {
			return i
		}
	}
	return 0
}

func (a *App) submitTuneUp() (tea.Model, tea.Cmd) {
	instructions := strings.TrimSpace(a.tuneInput.Value())
	if instructions == "" {
		return a, a.pushToast("Please provide tune-up instructions", toast.Warning)
	}
	if !a.session.open() || a.session.msg == nil {
		return a, nil
	}
	original := *a.session.msg
	leadID := a.session.leadID
	seq, ok := a.session.beginTune()
	if !ok {
		return a, nil
	}
	a.focus = focusList
	a.tuneInput.Blur()
	a.startBusy("Tuning up message…")
	return a, tea.Batch(a.tuneCmd(seq, leadID, original, instructions), a.spin.Tick)
}

func (a *App) handleLeadFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.leadForm = nil
		a.screen = screenBrowse
		return a, nil
	case "enter":
		form := a.leadForm
		draft, err := form.draft()
		if err != nil {
			// Edits stay in place; the failure is shown inline.
			form.errMsg = err.Error()
			return a, nil
		}
		if form.editID != 0 {
			a.startBusy("Updating lead…")
			return a, tea.Batch(a.updateLeadCmd(form.editID, draft), a.spin.Tick)
		}
		a.startBusy("Creating new lead…")
		return a, tea.Batch(a.createLeadCmd(draft), a.spin.Tick)
	}
	return a, a.leadForm.Update(msg)
}

func (a *App) handleScoringKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// Cancel resets to uniform quarters.
		a.criteria = lead.DefaultScoringCriteria()
		a.scoringForm = nil
		a.screen = screenBrowse
		return a, nil
	case "enter":
		edited := a.scoringForm.criteria()
		if err := edited.Validate(); err != nil {
			// Save stays blocked; the operator's edits are kept.
			a.scoringForm.errMsg = err.Error()
			return a, nil
		}
		a.criteria = edited
		a.scoringForm = nil
		a.screen = screenBrowse
		return a, a.pushToast("Scoring criteria updated successfully!", toast.Success)
	}
	return a, a.scoringForm.Update(msg)
}

func (a *App) handleFiltersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.filterForm = nil
		a.screen = screenBrowse
		return a, nil
	case "enter":
		a.query = a.filterForm.apply(a.query)
		a.filterForm = nil
		a.screen = screenBrowse
		a.clampCursor()
		return a, nil
	case "ctrl+x":
		a.filterForm = newFilterForm(lead.Query{})
		return a, nil
	}
	return a, a.filterForm.Update(msg)
}

func (a *App) handleConfirmDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		if a.busy {
			return a, nil
		}
		if a.confirmBatch {
			ids := a.store.SelectionIDs()
			a.startBusy(fmt.Sprintf("Deleting %d lead(s)…", len(ids)))
			return a, tea.Batch(a.deleteManyCmd(ids), a.spin.Tick)
		}
		a.startBusy("Deleting lead…")
		return a, tea.Batch(a.deleteLeadCmd(a.targetID), a.spin.Tick)
	case "n", "esc":
		a.screen = screenBrowse
		return a, nil
	}
	return a, nil
}

func (a *App) handleStagePickKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if a.pickIdx > 0 {
			a.pickIdx--
		}
	case "down", "j":
		if a.pickIdx < len(lead.Stages)-1 {
			a.pickIdx++
		}
	case "enter":
		stage := lead.Stages[a.pickIdx]
		a.screen = screenBrowse
		// Optimistic: applied locally first, reconciled when the
		// request settles.
		if !a.store.SetStage(a.targetID, stage) {
			return a, nil
		}
		open := a.store.OpenID() == a.targetID
		return a, a.stageCmd(a.targetID, stage, open)
	case "esc":
		a.screen = screenBrowse
	}
	return a, nil
}

func (a *App) handleMessagePickKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	target, ok := a.store.Lead(a.targetID)
	if !ok {
		a.screen = screenBrowse
		return a, nil
	}
	options := lead.RecommendedMessageTypes(target.PipelineStage)
	switch msg.String() {
	case "up", "k":
		if a.pickIdx > 0 {
			a.pickIdx--
		}
	case "down", "j":
		if a.pickIdx < len(options)-1 {
			a.pickIdx++
		}
	case "enter":
		option := options[a.pickIdx]
		a.screen = screenBrowse
		seq, started := a.session.beginGenerate(target.ID)
		if !started {
			return a, nil
		}
		a.startBusy("Generating " + strings.ReplaceAll(string(option.Type), "_", " ") + " message…")
		return a, tea.Batch(a.generateCmd(seq, target.ID, option.Type), a.spin.Tick)
	case "esc":
		a.screen = screenBrowse
	}
	return a, nil
}

func (a *App) handleSortPickKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if a.pickIdx > 0 {
			a.pickIdx--
		}
	case "down", "j":
		if a.pickIdx < len(sortPresets)-1 {
			a.pickIdx++
		}
	case "enter":
		preset := sortPresets[a.pickIdx]
		a.query.SortBy = preset.key
		a.query.Dir = preset.dir
		a.screen = screenBrowse
		a.setStatus("Sorted by " + preset.label)
	case "esc":
		a.screen = screenBrowse
	}
	return a, nil
}

func indexOfStage(stage lead.Stage) int {
	for i, s := range lead.Stages {
		if s == stage {
			return i
		}
	}
	return 0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
