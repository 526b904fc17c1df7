package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kestrelhq/leadline/internal/lead"
)

var (
	formLabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	formFocusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#14B8A6")).Bold(true)
	formErrStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	formHintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	formChoiceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	formSumOKStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	formSumBadStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	formTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).MarginBottom(1)
)

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldChoice
)

type formField struct {
	label    string
	kind     fieldKind
	input    textinput.Model
	options  []string
	choice   int
	optional bool
}

func textField(label, placeholder, value string, optional bool) formField {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 120
	in.Width = 40
	in.SetValue(value)
	return formField{label: label, kind: fieldText, input: in, optional: optional}
}

func choiceField(label string, options []string, value string) formField {
	f := formField{label: label, kind: fieldChoice, options: options, choice: -1}
	for i, opt := range options {
		if opt == value {
			f.choice = i
		}
	}
	return f
}

func (f *formField) value() string {
	if f.kind == fieldChoice {
		if f.choice < 0 || f.choice >= len(f.options) {
			return ""
		}
		return f.options[f.choice]
	}
	return strings.TrimSpace(f.input.Value())
}

// leadForm is the add/edit lead modal. Field order and choices follow
// the service's draft contract.
type leadForm struct {
	title  string
	editID int // 0 = create
	fields []formField
	focus  int
	errMsg string
}

const (
	fieldFirstName = iota
	fieldLastName
	fieldEmail
	fieldPhone
	fieldCompany
	fieldCompanySize
	fieldJobTitle
	fieldIndustry
	fieldLinkedIn
	fieldLocation
	fieldWebsite
	fieldNotes
)

func newLeadForm(existing *lead.Lead) *leadForm {
	form := &leadForm{title: "Add Lead"}
	var src lead.Lead
	if existing != nil {
		src = *existing
		form.editID = src.ID
		form.title = "Edit Lead"
	}
	form.fields = []formField{
		textField("First Name", "First name", src.FirstName, false),
		textField("Last Name", "Last name", src.LastName, false),
		textField("Email", "name@company.com", src.Email, false),
		textField("Phone", "Phone (optional)", src.Phone, true),
		textField("Company", "Company", src.Company, false),
		choiceField("Company Size", lead.CompanySizes, src.CompanySize),
		textField("Job Title", "Job title", src.JobTitle, false),
		choiceField("Industry", lead.Industries, src.Industry),
		textField("LinkedIn URL", "LinkedIn URL (optional)", src.LinkedInURL, true),
		textField("Location", "Location (optional)", src.Location, true),
		textField("Website", "Website (optional)", src.Website, true),
		textField("Notes", "Notes (optional)", src.Notes, true),
	}
	form.fields[0].input.Focus()
	return form
}

func (f *leadForm) setFocus(idx int) {
	if idx < 0 {
		idx = len(f.fields) - 1
	}
	if idx >= len(f.fields) {
		idx = 0
	}
	for i := range f.fields {
		f.fields[i].input.Blur()
	}
	f.focus = idx
	if f.fields[idx].kind == fieldText {
		f.fields[idx].input.Focus()
	}
}

// Update handles one key/tick for the form. It never submits; the App
// decides on enter.
func (f *leadForm) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			f.setFocus(f.focus + 1)
			return nil
		case "shift+tab", "up":
			f.setFocus(f.focus - 1)
			return nil
		case "left", "right":
			field := &f.fields[f.focus]
			if field.kind == fieldChoice {
				delta := 1
				if key.String() == "left" {
					delta = -1
				}
				field.choice += delta
				if field.choice < 0 {
					field.choice = len(field.options) - 1
				}
				if field.choice >= len(field.options) {
					field.choice = 0
				}
				return nil
			}
		}
	}
	field := &f.fields[f.focus]
	if field.kind == fieldText {
		var cmd tea.Cmd
		field.input, cmd = field.input.Update(msg)
		return cmd
	}
	return nil
}

// draft builds the request body and validates it. On failure the
// operator's edits stay in place and the message is shown inline.
func (f *leadForm) draft() (lead.Draft, error) {
	d := lead.Draft{
		FirstName:   f.fields[fieldFirstName].value(),
		LastName:    f.fields[fieldLastName].value(),
		Email:       f.fields[fieldEmail].value(),
		Phone:       f.fields[fieldPhone].value(),
		Company:     f.fields[fieldCompany].value(),
		CompanySize: f.fields[fieldCompanySize].value(),
		JobTitle:    f.fields[fieldJobTitle].value(),
		Industry:    f.fields[fieldIndustry].value(),
		LinkedInURL: f.fields[fieldLinkedIn].value(),
		Location:    f.fields[fieldLocation].value(),
		Website:     f.fields[fieldWebsite].value(),
		Notes:       f.fields[fieldNotes].value(),
	}
	if err := lead.ValidateDraft(d); err != nil {
		return lead.Draft{}, err
	}
	return d, nil
}

func (f *leadForm) View() string {
	lines := []string{formTitleStyle.Render(f.title)}
	for i, field := range f.fields {
		label := formLabelStyle.Render(field.label)
		if i == f.focus {
			label = formFocusStyle.Render("› " + field.label)
		} else {
			label = "  " + label
		}
		var value string
		switch field.kind {
		case fieldChoice:
			value = formChoiceStyle.Render(fmt.Sprintf("◂ %s ▸", orPlaceholder(field.value(), "select…")))
		default:
			value = field.input.View()
		}
		lines = append(lines, fmt.Sprintf("%s  %s", label, value))
	}
	if f.errMsg != "" {
		lines = append(lines, "", formErrStyle.Render("⚠ "+f.errMsg))
	}
	lines = append(lines, "", formHintStyle.Render("enter=save  tab/↑↓=fields  ◂▸=choices  esc=cancel"))
	return strings.Join(lines, "\n")
}

func orPlaceholder(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}

// scoringForm edits the four scoring weights as whole percents. Save
// is blocked in place while the weights do not total 100%; cancel
// resets to uniform quarters.
type scoringForm struct {
	fields []formField
	focus  int
	errMsg string
}

func newScoringForm(criteria lead.ScoringCriteria) *scoringForm {
	percent := func(w float64) string {
		return strconv.Itoa(int(w*100 + 0.5))
	}
	form := &scoringForm{
		fields: []formField{
			textField("Company Size Importance", "25", percent(criteria.CompanySizeWeight), false),
			textField("Job Title Importance", "25", percent(criteria.JobTitleWeight), false),
			textField("Industry Relevance", "25", percent(criteria.IndustryRelevanceWeight), false),
			textField("Engagement Level", "25", percent(criteria.EngagementWeight), false),
		},
	}
	for i := range form.fields {
		form.fields[i].input.CharLimit = 3
		form.fields[i].input.Width = 5
	}
	form.fields[0].input.Focus()
	return form
}

func (f *scoringForm) setFocus(idx int) {
	if idx < 0 {
		idx = len(f.fields) - 1
	}
	if idx >= len(f.fields) {
		idx = 0
	}
	for i := range f.fields {
		f.fields[i].input.Blur()
	}
	f.focus = idx
	f.fields[idx].input.Focus()
}

func (f *scoringForm) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			f.setFocus(f.focus + 1)
			return nil
		case "shift+tab", "up":
			f.setFocus(f.focus - 1)
			return nil
		}
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

func (f *scoringForm) weight(idx int) float64 {
	raw := strings.TrimSpace(f.fields[idx].input.Value())
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	if n > 100 {
		n = 100
	}
	return float64(n) / 100
}

// criteria builds the edited weights.
func (f *scoringForm) criteria() lead.ScoringCriteria {
	return lead.ScoringCriteria{
		CompanySizeWeight:       f.weight(0),
		JobTitleWeight:          f.weight(1),
		IndustryRelevanceWeight: f.weight(2),
		EngagementWeight:        f.weight(3),
	}
}

func (f *scoringForm) View() string {
	lines := []string{formTitleStyle.Render("Scoring Criteria")}
	lines = append(lines, formHintStyle.Render("Weights must total 100%."), "")
	for i, field := range f.fields {
		label := "  " + formLabelStyle.Render(field.label)
		if i == f.focus {
			label = formFocusStyle.Render("› " + field.label)
		}
		lines = append(lines, fmt.Sprintf("%s  %s %%", label, field.input.View()))
	}
	total := f.criteria().Total()
	sum := fmt.Sprintf("Total: %.0f%%", total*100)
	style := formSumOKStyle
	if err := f.criteria().Validate(); err != nil {
		style = formSumBadStyle
		sum += "  ⚠ must equal 100%"
	}
	lines = append(lines, "", style.Render(sum))
	if f.errMsg != "" {
		lines = append(lines, formErrStyle.Render("⚠ "+f.errMsg))
	}
	lines = append(lines, "", formHintStyle.Render("enter=save  esc=cancel (resets to 25/25/25/25)"))
	return strings.Join(lines, "\n")
}

// filterForm edits the advanced filters. Every blank field means that
// filter stage is skipped entirely.
type filterForm struct {
	fields []formField
	focus  int
}

const (
	filterCompany = iota
	filterIndustry
	filterDateFrom
	filterDateTo
	filterMinScore
	filterMaxScore
)

func newFilterForm(q lead.Query) *filterForm {
	scoreText := func(v *float64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	}
	form := &filterForm{
		fields: []formField{
			textField("Company", "Filter by company…", q.Company, true),
			textField("Industry", "Filter by industry…", q.Industry, true),
			textField("Date From", "2024-01-01", q.DateFrom, true),
			textField("Date To", "2024-12-31", q.DateTo, true),
			textField("Min Score", "0", scoreText(q.MinScore), true),
			textField("Max Score", "100", scoreText(q.MaxScore), true),
		},
	}
	form.fields[0].input.Focus()
	return form
}

func (f *filterForm) setFocus(idx int) {
	if idx < 0 {
		idx = len(f.fields) - 1
	}
	if idx >= len(f.fields) {
		idx = 0
	}
	for i := range f.fields {
		f.fields[i].input.Blur()
	}
	f.focus = idx
	f.fields[idx].input.Focus()
}

func (f *filterForm) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			f.setFocus(f.focus + 1)
			return nil
		case "shift+tab", "up":
			f.setFocus(f.focus - 1)
			return nil
		}
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

// apply copies the edited filters onto the query, leaving the stage
// filter, search text, and sort order untouched.
func (f *filterForm) apply(q lead.Query) lead.Query {
	q.Company = f.fields[filterCompany].value()
	q.Industry = f.fields[filterIndustry].value()
	q.DateFrom = f.fields[filterDateFrom].value()
	q.DateTo = f.fields[filterDateTo].value()
	q.MinScore = parseScore(f.fields[filterMinScore].value())
	q.MaxScore = parseScore(f.fields[filterMaxScore].value())
	return q
}

func parseScore(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func (f *filterForm) View() string {
	lines := []string{formTitleStyle.Render("Advanced Filters")}
	for i, field := range f.fields {
		label := "  " + formLabelStyle.Render(field.label)
		if i == f.focus {
			label = formFocusStyle.Render("› " + field.label)
		}
		lines = append(lines, fmt.Sprintf("%s  %s", label, field.input.View()))
	}
	lines = append(lines, "", formHintStyle.Render("enter=apply  ctrl+x=clear all  esc=cancel"))
	return strings.Join(lines, "\n")
}
