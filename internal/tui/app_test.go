package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kestrelhq/leadline/internal/config"
	"github.com/kestrelhq/leadline/internal/lead"
	"github.com/kestrelhq/leadline/internal/toast"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

func loadedApp(t *testing.T, leads ...lead.Lead) *App {
	t.Helper()
	app := newTestApp(t)
	app.Update(leadsLoadedMsg{leads: leads})
	return app
}

func testLead(id int, first string, stage lead.Stage) lead.Lead {
	return lead.Lead{ID: id, FirstName: first, LastName: "Lead", Email: first + "@example.com", PipelineStage: stage}
}

func lastToast(t *testing.T, app *App) toast.Toast {
	t.Helper()
	items := app.toasts.Items()
	if len(items) == 0 {
		t.Fatal("expected a toast")
	}
	return items[len(items)-1]
}

func keyPress(app *App, key string) tea.Cmd {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	_, cmd := app.Update(msg)
	return cmd
}

func TestLeadsLoadedPopulatesStore(t *testing.T) {
	app := newTestApp(t)
	if !app.busy {
		t.Fatal("app should start busy on the initial load")
	}

	app.Update(leadsLoadedMsg{
		leads: []lead.Lead{testLead(1, "ada", lead.StageNew)},
		stats: []lead.PipelineStat{{Stage: lead.StageNew, Count: 1}},
	})

	if app.busy {
		t.Fatal("load completion should clear busy")
	}
	if app.store.Len() != 1 {
		t.Fatalf("store holds %d leads, want 1", app.store.Len())
	}
	if len(app.store.Stats()) != 1 {
		t.Fatal("stats should be stored")
	}
}

func TestLeadsLoadFailureKeepsPreviousList(t *testing.T) {
	app := loadedApp(t, testLead(1, "ada", lead.StageNew))

	app.Update(leadsLoadedMsg{err: errors.New("boom")})

	if app.store.Len() != 1 {
		t.Fatal("a failed refresh must keep the previous list")
	}
	if got := lastToast(t, app); got.Severity != toast.Error {
		t.Fatalf("failure should toast an error, got %s", got.Severity)
	}
}

func TestToastExpiryDismisses(t *testing.T) {
	app := newTestApp(t)
	pushed := app.toasts.Push("done", toast.Success)

	app.Update(toastExpiredMsg{id: pushed.ID})
	if app.toasts.Len() != 0 {
		t.Fatal("expiry should dismiss the toast")
	}

	// Late expiry for an already-dismissed toast is harmless.
	app.Update(toastExpiredMsg{id: pushed.ID})
}

func TestStaleActivitiesAreDropped(t *testing.T) {
	app := loadedApp(t, testLead(1, "ada", lead.StageNew), testLead(2, "bo", lead.StageNew))
	app.store.OpenLead(2)

	app.Update(activitiesMsg{leadID: 1, activities: []lead.Activity{{ID: 5, LeadID: 1}}})
	if app.store.Activities() != nil {
		t.Fatal("a trail for a non-open lead must be dropped")
	}

	app.Update(activitiesMsg{leadID: 2, activities: []lead.Activity{{ID: 6, LeadID: 2}}})
	if len(app.store.Activities()) != 1 {
		t.Fatal("the open lead's trail should be stored")
	}
}

func TestGenerateHappyPathOpensMessage(t *testing.T) {
	app := loadedApp(t, testLead(1, "ada", lead.StageQualified))
	app.store.OpenLead(1)

	seq, ok := app.session.beginGenerate(1)
	if !ok {
		t.Fatal("generate should start")
	}
	refreshed := testLead(1, "ada", lead.StageContacted)
	app.Update(generateDoneMsg{
		seq:       seq,
		leadID:    1,
		msg:       lead.GeneratedMessage{Subject: "Hello", Content: "Hi Ada", MessageType: lead.MessageInitialOutreach},
		refreshed: &refreshed,
	})

	if !app.session.open() {
		t.Fatal("result should open the message panel")
	}
	got, _ := app.store.Lead(1)
	if got.PipelineStage != lead.StageContacted {
		t.Fatal("the refreshed lead should be merged, including a server-side stage change")
	}
}

func TestStaleGenerateResultIsDiscarded(t *testing.T) {
	app := loadedApp(t, testLead(1, "ada", lead.StageNew))
	app.store.OpenLead(1)

	seq, _ := app.session.beginGenerate(1)
	app.session.close() // operator closed the panel meanwhile

	app.Update(generateDoneMsg{
		seq:    seq,
		leadID: 1,
		msg:    lead.GeneratedMessage{Subject: "late"},
	})

	if app.session.open() {
		t.Fatal("a superseded result must not reopen the panel")
	}
	if app.toasts.Len() != 0 {
		t.Fatal("a discarded result must not toast")
	}
}

func TestClosingPanelMidGenerateClearsBusySpinner(t *testing.T) {
	app := loadedApp(t, testLead(1, "ada", lead.StageNew))
	app.store.OpenLead(1)

	seq, _ := app.session.beginGenerate(1)
	app.startBusy("Generating initial outreach message…")

	keyPress(app, "x")
	if app.busy {
		t.Fatal("closing the panel must clear the spinner for the discarded request")
	}

	// The orphaned result must not revive anything when it lands.
	app.Update(generateDoneMsg{seq: seq, leadID: 1, msg: lead.GeneratedMessage{Subject: "late"}})
	if app.busy {
		t.Fatal("a stale result must not re-enter the busy state")
	}
	if app.session.open() {
		t.Fatal("a stale result must not reopen the panel")
	}

	// With busy clear, confirming a delete issues its command again.
	keyPress(app, "d")
	if app.screen != screenConfirmDelete {
		t.Fatal("delete confirmation should open once the spinner is cleared")
	}
	if cmd := keyPress(app, "y"); cmd == nil {
		t.Fatal("confirmation must not stay blocked by a stale busy flag")
	}
}

func TestSwitchingLeadMidTuneClearsBusySpinner(t *testing.T) {
	app := loadedApp(t, testLead(1, "ada", lead.StageNew), testLead(2, "bo", lead.StageNew))
	app.store.OpenLead(1)

	seq, _ := app.session.beginGenerate(1)
	app.Update(generateDoneMsg{
		seq: seq, leadID: 1,
		msg: lead.GeneratedMessage{Subject: "v1", Content: "first", MessageType: lead.MessageFollowUp},
	})
	tuneSeq, _ := app.session.beginTune()
	app.startBusy("Tuning up message…")

	app.openLead(2)
	if app.busy {
		t.Fatal("switching leads must clear the spinner for the discarded tune-up")
	}

	app.Update(tuneDoneMsg{seq: tuneSeq, leadID: 1, msg: lead.GeneratedMessage{Subject: "late"}})
	if app.busy || app.session.open() {
		t.Fatal("a stale tune result must not revive the session or the spinner")
	}
}

func TestGenerateFailureReturnsToPriorState(t *testing.T) {
	app := loadedApp(t, testLead(1, "ada", lead.StageNew))
	app.store.OpenLead(1)

	seq, _ := app.session.beginGenerate(1)
	app.Update(generateDoneMsg{seq: seq, leadID: 1, err: errors.New("model unavailable")})

	if app.session.busy() {
		t.Fatal("failure should leave the generating state")
	}
	if got := lastToast(t, app); got.Severity != toast.Error {
		t.Fatalf("failure should toast an error, got %s", got.Severity)
	}
}

func TestTunePreservesMessageType(t *testing.T) {
	app := loadedApp(t, testLead(1, "ada", lead.StageContacted))
	app.store.OpenLead(1)

	seq, _ := app.session.beginGenerate(1)
	app.Update(generateDoneMsg{
		seq: seq, leadID: 1,
		msg: lead.GeneratedMessage{Subject: "v1", Content: "first", MessageType: lead.MessageFollowUp},
	})

	tuneSeq, ok := app.session.beginTune()
	if !ok {
		t.Fatal("tune should start on a displayed message")
	}
	app.Update(tuneDoneMsg{
		seq: tuneSeq, leadID: 1,
		msg: lead.GeneratedMessage{Subject: "v2", Content: "second"},
	})

	if app.session.msg.Subject != "v2" {
		t.Fatal("tune should replace the subject")
	}
	if app.session.msg.MessageType != lead.MessageFollowUp {
		t.Fatal("tune must preserve the message type")
	}
}

func TestBatchDeletePartialFailureKeepsFailedLeads(t *testing.T) {
	app := loadedApp(t,
		testLead(1, "ada", lead.StageNew),
		testLead(2, "bo", lead.StageNew),
		testLead(3, "cleo", lead.StageNew),
	)
	app.store.ToggleSelect(1)
	app.store.ToggleSelect(2)

	app.Update(batchDeleteMsg{
		deleted: []int{1},
		failed:  []deleteFailure{{id: 2, err: errors.New("boom")}},
	})

	if _, ok := app.store.Lead(1); ok {
		t.Fatal("confirmed deletion should remove the lead")
	}
	if _, ok := app.store.Lead(2); !ok {
		t.Fatal("failed deletion must keep the lead")
	}
	if !app.store.Selected(2) {
		t.Fatal("failed deletion should keep its selection mark for retry")
	}
	got := lastToast(t, app)
	if got.Severity != toast.Error || !strings.Contains(got.Message, "1 failed") {
		t.Fatalf("partial failure should be reported, got %q", got.Message)
	}
}

func TestBatchDeleteFullSuccessClearsSelection(t *testing.T) {
	app := loadedApp(t, testLead(1, "ada", lead.StageNew), testLead(2, "bo", lead.StageNew))
	app.store.ToggleSelect(1)
	app.store.ToggleSelect(2)

	app.Update(batchDeleteMsg{deleted: []int{1, 2}})

	if app.store.Len() != 0 {
		t.Fatal("all confirmed deletions should be removed")
	}
	if app.store.SelectionCount() != 0 {
		t.Fatal("selection should clear after a fully successful batch")
	}
	if got := lastToast(t, app); got.Severity != toast.Success {
		t.Fatalf("full success should toast success, got %s", got.Severity)
	}
}

func TestStageRejectionKeepsOptimisticValue(t *testing.T) {
	app := loadedApp(t, testLead(1, "ada", lead.StageNew))
	app.store.SetStage(1, lead.StageNegotiation)

	app.Update(stageSavedMsg{leadID: 1, stage: lead.StageNegotiation, err: errors.New("refused")})

	got, _ := app.store.Lead(1)
	if got.PipelineStage != lead.StageNegotiation {
		t.Fatal("rejection must keep the optimistic stage")
	}
	if !app.store.StageUnconfirmed(1) {
		t.Fatal("rejection must leave the lead marked unconfirmed")
	}
}

func TestStageConfirmationClearsMark(t *testing.T) {
	app := loadedApp(t, testLead(1, "ada", lead.StageNew))
	app.store.SetStage(1, lead.StageMeeting)

	app.Update(stageSavedMsg{leadID: 1, stage: lead.StageMeeting})

	if app.store.StageUnconfirmed(1) {
		t.Fatal("confirmation should clear the unconfirmed mark")
	}
}

func TestLastWriterWinsOnOverlappingLoads(t *testing.T) {
	app := newTestApp(t)
	app.Update(leadsLoadedMsg{leads: []lead.Lead{testLead(1, "stale", lead.StageNew)}})
	app.Update(leadsLoadedMsg{leads: []lead.Lead{testLead(1, "fresh", lead.StageNew), testLead(2, "bo", lead.StageNew)}})

	got, _ := app.store.Lead(1)
	if got.FirstName != "fresh" {
		t.Fatal("the later arrival should win wholesale")
	}
	if app.store.Len() != 2 {
		t.Fatalf("store holds %d leads, want 2", app.store.Len())
	}
}

func TestStageFilterKeysToggle(t *testing.T) {
	app := loadedApp(t, testLead(1, "ada", lead.StageNew), testLead(2, "bo", lead.StageQualified))

	keyPress(app, "2")
	if app.query.Stage != lead.StageQualified {
		t.Fatalf("key 2 should filter to qualified, got %q", app.query.Stage)
	}
	if len(app.visible()) != 1 {
		t.Fatal("filter should narrow the visible list")
	}

	keyPress(app, "2")
	if app.query.Stage != "" {
		t.Fatal("repeating the key should toggle the filter off")
	}

	keyPress(app, "3")
	keyPress(app, "0")
	if app.query.Stage != "" {
		t.Fatal("key 0 should clear the stage filter")
	}
}

func TestSelectionAndDeleteConfirmFlow(t *testing.T) {
	app := loadedApp(t, testLead(1, "ada", lead.StageNew), testLead(2, "bo", lead.StageNew))

	keyPress(app, " ")
	if app.store.SelectionCount() != 1 {
		t.Fatal("space should select the cursor lead")
	}

	keyPress(app, "D")
	if app.screen != screenConfirmDelete || !app.confirmBatch {
		t.Fatal("D with a selection should open the batch confirmation")
	}

	keyPress(app, "esc")
	if app.screen != screenBrowse {
		t.Fatal("esc should cancel the confirmation")
	}
	if app.store.Len() != 2 {
		t.Fatal("cancel must not delete anything")
	}
}

func TestOpenLeadSwitchDiscardsMessageSession(t *testing.T) {
	app := loadedApp(t, testLead(1, "ada", lead.StageNew), testLead(2, "bo", lead.StageNew))
	app.store.OpenLead(1)
	seq, _ := app.session.beginGenerate(1)
	app.session.applyGenerated(lead.GeneratedMessage{Subject: "for ada"})

	app.openLead(2)

	if app.session.open() {
		t.Fatal("switching leads must close the message panel")
	}
	if !app.session.stale(seq) {
		t.Fatal("switching leads must orphan in-flight message requests")
	}
}

func TestScoringCancelResetsToDefaults(t *testing.T) {
	app := newTestApp(t)
	app.criteria = lead.ScoringCriteria{CompanySizeWeight: 0.7, JobTitleWeight: 0.3}

	keyPress(app, "w")
	if app.screen != screenScoring {
		t.Fatal("w should open the scoring form")
	}
	keyPress(app, "esc")
	if app.criteria != lead.DefaultScoringCriteria() {
		t.Fatal("cancel should reset the criteria to uniform quarters")
	}
}

func TestViewRendersWithoutPanicking(t *testing.T) {
	app := loadedApp(t, testLead(1, "ada", lead.StageQualified))
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	app.store.OpenLead(1)
	seq, _ := app.session.beginGenerate(1)
	app.Update(generateDoneMsg{
		seq: seq, leadID: 1,
		msg: lead.GeneratedMessage{Subject: "Hello", Content: "Hi Ada, checking in.", MessageType: lead.MessageInitialOutreach},
	})

	out := app.View()
	if !strings.Contains(out, "LEADLINE") {
		t.Fatal("view should render the header")
	}
	if !strings.Contains(out, "Hello") {
		t.Fatal("view should render the open message subject")
	}
}
