package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kestrelhq/leadline/internal/lead"
	"github.com/kestrelhq/leadline/internal/toast"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))

	panelBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#14B8A6"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)

	unconfirmedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)

	toastStyles = map[toast.Severity]lipgloss.Style{
		toast.Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true),
		toast.Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		toast.Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true),
		toast.Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true),
	}

	stageColors = map[lead.Stage]string{
		lead.StageNew:         "#5B8DEF",
		lead.StageQualified:   "#9B59B6",
		lead.StageContacted:   "#14B8A6",
		lead.StageMeeting:     "#F7B801",
		lead.StageNegotiation: "#E67E22",
		lead.StageClosedWon:   "#4CAF50",
		lead.StageClosedLost:  "#888888",
	}

	stageLabels = map[lead.Stage]string{
		lead.StageNew:         "New",
		lead.StageQualified:   "Qualified",
		lead.StageContacted:   "Contacted",
		lead.StageMeeting:     "Meeting",
		lead.StageNegotiation: "Negotiation",
		lead.StageClosedWon:   "Closed Won",
		lead.StageClosedLost:  "Closed Lost",
	}
)

// StageLabel returns the display name for a stage, falling back to the
// raw value for anything the service invents later.
func StageLabel(s lead.Stage) string {
	if label, ok := stageLabels[s]; ok {
		return label
	}
	return string(s)
}

func stageBadge(s lead.Stage) string {
	color, ok := stageColors[s]
	if !ok {
		color = "#888888"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("● " + StageLabel(s))
}

// scoreBadge renders a lead's score with the traffic-light palette the
// rest of the pipeline uses: 80+, 60+, 40+, below, unscored.
func scoreBadge(l lead.Lead) string {
	if l.Score == nil {
		return mutedStyle.Render("  — ")
	}
	v := *l.Score
	color := "#FF6B6B"
	switch {
	case v >= 80:
		color = "#4CAF50"
	case v >= 60:
		color = "#F7B801"
	case v >= 40:
		color = "#E67E22"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(fmt.Sprintf("%4.0f", v))
}

// View renders the whole screen.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 110
	}

	header := headerStyle.Render("◆ LEADLINE") + "  " + mutedStyle.Render(a.cfg.APIURL())

	var body string
	switch a.screen {
	case screenLeadForm:
		body = panelBoxStyle.Render(a.leadForm.View())
	case screenScoring:
		body = panelBoxStyle.Render(a.scoringForm.View())
	case screenFilters:
		body = panelBoxStyle.Render(a.filterForm.View())
	case screenConfirmDelete:
		body = panelBoxStyle.Render(a.renderConfirmDelete())
	case screenStagePick:
		body = panelBoxStyle.Render(a.renderStagePick())
	case screenMessagePick:
		body = panelBoxStyle.Render(a.renderMessagePick())
	case screenSortPick:
		body = panelBoxStyle.Render(a.renderSortPick())
	default:
		body = a.renderBrowse(width)
	}

	sections := []string{header, a.renderToasts(), a.renderStatsRow(), body}
	if tail := a.renderJournalPanel(); tail != "" {
		sections = append(sections, tail)
	}
	sections = append(sections, a.renderFooter())

	out := make([]string, 0, len(sections))
	for _, s := range sections {
		if s != "" {
			out = append(out, s)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}

func (a *App) renderBrowse(width int) string {
	leftWidth := width * 3 / 5
	rightWidth := width - leftWidth - 6
	if rightWidth < 30 {
		leftWidth = width - 4
		rightWidth = 0
	}

	left := panelBoxStyle.Width(leftWidth).Render(a.renderLeadList(leftWidth - 2))
	if rightWidth <= 0 || a.store.OpenID() == 0 {
		return left
	}
	right := panelBoxStyle.Width(rightWidth).Render(a.renderDetail(rightWidth - 2))
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (a *App) renderLeadList(width int) string {
	vis := a.visible()

	title := panelTitleStyle.Render(fmt.Sprintf("Leads (%d/%d)", len(vis), a.store.Len()))
	if n := a.store.SelectionCount(); n > 0 {
		title += selectedStyle.Render(fmt.Sprintf("  ✓ %d selected", n))
	}

	lines := []string{title, a.renderSearchLine(), a.renderFilterLine()}

	if a.busy {
		lines = append(lines, "", a.spin.View()+" "+dimStyle.Render(a.busyMessage))
	}

	if len(vis) == 0 {
		if a.store.Len() == 0 {
			lines = append(lines, "", mutedStyle.Render("No leads yet. Press 'a' to add one."))
		} else {
			lines = append(lines, "", mutedStyle.Render("No leads match the current filters."))
		}
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "")
	for i, l := range vis {
		marker := "  "
		if i == a.cursor {
			marker = cursorStyle.Render("› ")
		}
		check := "· "
		if a.store.Selected(l.ID) {
			check = selectedStyle.Render("✓ ")
		}
		name := l.FullName()
		if name == "" {
			name = l.Email
		}
		unconfirmed := ""
		if a.store.StageUnconfirmed(l.ID) {
			unconfirmed = unconfirmedStyle.Render(" ?")
		}
		row := fmt.Sprintf("%s%s%s  %s  %s%s  %s",
			marker, check,
			scoreBadge(l),
			padRight(name, 22),
			stageBadge(l.PipelineStage), unconfirmed,
			dimStyle.Render(truncate(l.Company, maxInt(10, width-52))),
		)
		if l.ID == a.store.OpenID() {
			row = lipgloss.NewStyle().Bold(true).Render(row)
		}
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderSearchLine() string {
	if a.focus == focusSearch || a.searchInput.Value() != "" {
		return "🔎 " + a.searchInput.View()
	}
	return mutedStyle.Render("🔎 press / to search")
}

// renderFilterLine summarizes the active filters so the operator can
// see why a lead is missing from the list.
func (a *App) renderFilterLine() string {
	q := a.queryWithSearch()
	var parts []string
	if q.Stage != "" {
		parts = append(parts, "stage="+StageLabel(q.Stage))
	}
	if q.Company != "" {
		parts = append(parts, "company~"+q.Company)
	}
	if q.Industry != "" {
		parts = append(parts, "industry~"+q.Industry)
	}
	if q.DateFrom != "" || q.DateTo != "" {
		parts = append(parts, fmt.Sprintf("date %s..%s", orDash(q.DateFrom), orDash(q.DateTo)))
	}
	if q.MinScore != nil || q.MaxScore != nil {
		parts = append(parts, fmt.Sprintf("score %s..%s", floatOrDash(q.MinScore), floatOrDash(q.MaxScore)))
	}
	sortLabel := sortPresets[a.currentSortPreset()].label
	if len(parts) == 0 {
		return mutedStyle.Render("sort: " + sortLabel)
	}
	return mutedStyle.Render("filters: "+strings.Join(parts, "  ")) + mutedStyle.Render("  ·  sort: "+sortLabel)
}

func (a *App) renderDetail(width int) string {
	open, ok := a.store.Open()
	if !ok {
		return mutedStyle.Render("No lead open.")
	}

	title := panelTitleStyle.Render(open.FullName())
	stageLine := stageBadge(open.PipelineStage)
	if a.store.StageUnconfirmed(open.ID) {
		stageLine += unconfirmedStyle.Render("  ? unconfirmed")
	}
	stageLine += "   score " + strings.TrimSpace(scoreBadge(open))

	lines := []string{title, stageLine, ""}
	addField := func(label, value string) {
		if value == "" {
			return
		}
		lines = append(lines, dimStyle.Render(padRight(label, 10))+truncate(value, maxInt(10, width-12)))
	}
	addField("Email", open.Email)
	addField("Phone", open.Phone)
	addField("Company", companyLine(open))
	addField("Title", open.JobTitle)
	addField("Industry", open.Industry)
	addField("Location", open.Location)
	addField("LinkedIn", open.LinkedInURL)
	addField("Website", open.Website)
	addField("Notes", open.Notes)
	if open.ScoreReasoning != "" {
		lines = append(lines, "", dimStyle.Render("Why this score:"), wrap(open.ScoreReasoning, width))
	}

	if panel := a.renderMessagePanel(width); panel != "" {
		lines = append(lines, "", panel)
	}

	lines = append(lines, "", a.renderActivities(width))
	return strings.Join(lines, "\n")
}

func companyLine(l lead.Lead) string {
	if l.CompanySize == "" {
		return l.Company
	}
	return fmt.Sprintf("%s (%s)", l.Company, l.CompanySize)
}

// renderMessagePanel shows the one open generated message plus the
// tune-up box when focused.
func (a *App) renderMessagePanel(width int) string {
	if a.session.busy() {
		verb := "Generating message…"
		if a.session.state == sessionTuning {
			verb = "Tuning up message…"
		}
		return a.spin.View() + " " + dimStyle.Render(verb)
	}
	if !a.session.open() {
		return ""
	}
	msg := a.session.msg
	lines := []string{
		panelTitleStyle.Render("✉ " + strings.ReplaceAll(string(msg.MessageType), "_", " ")),
		lipgloss.NewStyle().Bold(true).Render(truncate(msg.Subject, width)),
		wrap(msg.Content, width),
	}
	if a.focus == focusTune {
		lines = append(lines, "", dimStyle.Render("Tune-up instructions (ctrl+s to send, esc to cancel):"), a.tuneInput.View())
	} else {
		lines = append(lines, mutedStyle.Render("t=tune up  m=alternative version  x=close"))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderActivities(width int) string {
	activities := a.store.Activities()
	lines := []string{panelTitleStyle.Render(fmt.Sprintf("Activity (%d)", len(activities)))}
	if len(activities) == 0 {
		lines = append(lines, mutedStyle.Render("No activity recorded."))
		return strings.Join(lines, "\n")
	}
	shown := activities
	if len(shown) > 8 {
		shown = shown[:8]
	}
	for _, act := range shown {
		stamp := mutedStyle.Render(act.Timestamp.Format("Jan 02 15:04"))
		lines = append(lines, fmt.Sprintf("%s  %s", stamp, truncate(act.Description, maxInt(10, width-16))))
	}
	if len(activities) > len(shown) {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("… %d more", len(activities)-len(shown))))
	}
	return strings.Join(lines, "\n")
}

// renderStatsRow shows the service's per-stage aggregates in pipeline
// order. Aggregates come from the server wholesale, never computed
// locally.
func (a *App) renderStatsRow() string {
	stats := a.store.Stats()
	if len(stats) == 0 {
		return ""
	}
	byStage := make(map[lead.Stage]lead.PipelineStat, len(stats))
	for _, st := range stats {
		byStage[st.Stage] = st
	}
	cards := make([]string, 0, len(lead.Stages))
	for i, stage := range lead.Stages {
		st := byStage[stage]
		label := fmt.Sprintf("%d:%s", i+1, StageLabel(stage))
		body := fmt.Sprintf("%s %d", stageBadge(stage), st.Count)
		if st.Count > 0 {
			body += mutedStyle.Render(fmt.Sprintf(" avg %.0f", st.AvgScore))
		}
		card := lipgloss.JoinVertical(lipgloss.Left, mutedStyle.Render(label), body)
		if a.query.Stage == stage {
			card = lipgloss.NewStyle().Bold(true).Render(card)
		}
		cards = append(cards, card, "  ")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (a *App) renderToasts() string {
	items := a.toasts.Items()
	if len(items) == 0 {
		return ""
	}
	lines := make([]string, 0, len(items))
	for _, t := range items {
		style, ok := toastStyles[t.Severity]
		if !ok {
			style = toastStyles[toast.Info]
		}
		lines = append(lines, style.Render(t.Severity.Icon()+" "+t.Message))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderJournalPanel() string {
	lines := a.log.Tail(4)
	if len(lines) == 0 {
		return ""
	}
	head := panelTitleStyle.Render("LOG · " + filepath.Base(a.log.Path()))
	body := dimStyle.Render(strings.Join(lines, "\n"))
	return panelBoxStyle.Render(head + "\n" + body)
}

func (a *App) renderFooter() string {
	hints := "↑↓=navigate  enter=open  space=select  /=search  f=filters  s=sort  1-7/0=stage  a=add  e=edit  d/D=delete  c=stage  m=message  S=score all  w=weights  r=refresh  q=quit"
	if a.statusMsg != "" {
		return footerStyle.Render(a.statusMsg + "\n" + hints)
	}
	return footerStyle.Render(hints)
}

func (a *App) renderConfirmDelete() string {
	var question string
	if a.confirmBatch {
		question = fmt.Sprintf("Delete %d selected lead(s)?", a.store.SelectionCount())
	} else {
		name := fmt.Sprintf("lead #%d", a.targetID)
		if l, ok := a.store.Lead(a.targetID); ok {
			name = l.FullName()
		}
		question = fmt.Sprintf("Delete %s?", name)
	}
	return strings.Join([]string{
		formTitleStyle.Render("Confirm Delete"),
		question,
		"",
		formHintStyle.Render("y/enter=delete  n/esc=cancel"),
	}, "\n")
}

func (a *App) renderStagePick() string {
	lines := []string{formTitleStyle.Render("Move To Stage")}
	for i, stage := range lead.Stages {
		marker := "  "
		if i == a.pickIdx {
			marker = cursorStyle.Render("› ")
		}
		lines = append(lines, marker+stageBadge(stage))
	}
	lines = append(lines, "", formHintStyle.Render("enter=apply  esc=cancel"))
	return strings.Join(lines, "\n")
}

func (a *App) renderMessagePick() string {
	target, ok := a.store.Lead(a.targetID)
	if !ok {
		return mutedStyle.Render("Lead no longer exists.")
	}
	lines := []string{
		formTitleStyle.Render("Generate Message"),
		dimStyle.Render("For " + target.FullName() + " · " + StageLabel(target.PipelineStage)),
		"",
	}
	for i, opt := range lead.RecommendedMessageTypes(target.PipelineStage) {
		marker := "  "
		if i == a.pickIdx {
			marker = cursorStyle.Render("› ")
		}
		label := opt.Label
		if opt.Recommended {
			label += selectedStyle.Render("  ★ recommended")
		}
		lines = append(lines, marker+label)
	}
	lines = append(lines, "", formHintStyle.Render("enter=generate  esc=cancel"))
	return strings.Join(lines, "\n")
}

func (a *App) renderSortPick() string {
	lines := []string{formTitleStyle.Render("Sort Leads")}
	for i, preset := range sortPresets {
		marker := "  "
		if i == a.pickIdx {
			marker = cursorStyle.Render("› ")
		}
		lines = append(lines, marker+preset.label)
	}
	lines = append(lines, "", formHintStyle.Render("enter=apply  esc=cancel"))
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return truncate(s, width)
	}
	return s + strings.Repeat(" ", width-n)
}

func truncate(s string, width int) string {
	if width <= 1 || len(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

// wrap breaks text on word boundaries to fit the panel width.
func wrap(s string, width int) string {
	if width < 10 {
		width = 10
	}
	var (
		out  []string
		line string
	)
	for _, paragraph := range strings.Split(s, "\n") {
		line = ""
		for _, word := range strings.Fields(paragraph) {
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= width:
				line += " " + word
			default:
				out = append(out, line)
				line = word
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func floatOrDash(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.0f", *v)
}
