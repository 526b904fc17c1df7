package tui

import (
	"context"
	"sort"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kestrelhq/leadline/internal/lead"
	"github.com/kestrelhq/leadline/internal/toast"
)

// Commands wrap every remote call. Each closure runs off the update
// loop, captures everything it needs at issue time, and reports back
// with exactly one typed message; Update applies the state change.

func (a *App) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.timeout)
}

// loadCmd replaces the leads list and stats wholesale. A stats
// failure is silent; a leads failure leaves the previous list intact
// and is toasted by Update.
func (a *App) loadCmd() tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := a.ctx()
		defer cancel()
		leads, err := client.ListLeads(ctx)
		if err != nil {
			return leadsLoadedMsg{err: err}
		}
		stats, statsErr := client.PipelineStats(ctx)
		if statsErr != nil {
			stats = nil
		}
		return leadsLoadedMsg{leads: leads, stats: stats}
	}
}

// activitiesCmd fetches the audit trail for one lead. Failures fall
// back to an empty trail without a toast.
func (a *App) activitiesCmd(leadID int) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := a.ctx()
		defer cancel()
		activities, err := client.ListActivities(ctx, leadID)
		if err != nil {
			activities = nil
		}
		return activitiesMsg{leadID: leadID, activities: activities}
	}
}

func (a *App) createLeadCmd(draft lead.Draft) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := a.ctx()
		defer cancel()
		created, err := client.CreateLead(ctx, draft)
		if err != nil {
			return leadCreatedMsg{err: err}
		}
		stats, _ := client.PipelineStats(ctx)
		return leadCreatedMsg{lead: created, stats: stats}
	}
}

func (a *App) updateLeadCmd(id int, draft lead.Draft) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := a.ctx()
		defer cancel()
		updated, err := client.UpdateLead(ctx, id, draft)
		if err != nil {
			return leadUpdatedMsg{err: err}
		}
		stats, _ := client.PipelineStats(ctx)
		return leadUpdatedMsg{lead: updated, stats: stats}
	}
}

func (a *App) deleteLeadCmd(id int) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := a.ctx()
		defer cancel()
		if _, err := client.DeleteLead(ctx, id); err != nil {
			return leadDeletedMsg{id: id, err: err}
		}
		stats, _ := client.PipelineStats(ctx)
		return leadDeletedMsg{id: id, stats: stats}
	}
}

// deleteManyCmd fans out one delete per id and joins on all of them
// settling. Results are reconciled per item: only confirmed ids are
// removed locally and failures are reported with the id that failed.
// Fan-out is unbounded; batches are operator-selected subsets.
func (a *App) deleteManyCmd(ids []int) tea.Cmd {
	client := a.client
	timeout := a.timeout
	return func() tea.Msg {
		var (
			mu  sync.Mutex
			wg  sync.WaitGroup
			msg batchDeleteMsg
		)
		for _, id := range ids {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				ctx, cancel := context.WithTimeout(context.Background(), timeout)
				defer cancel()
				_, err := client.DeleteLead(ctx, id)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					msg.failed = append(msg.failed, deleteFailure{id: id, err: err})
					return
				}
				msg.deleted = append(msg.deleted, id)
			}(id)
		}
		wg.Wait()
		sort.Ints(msg.deleted)
		sort.Slice(msg.failed, func(i, j int) bool { return msg.failed[i].id < msg.failed[j].id })
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		msg.stats, _ = client.PipelineStats(ctx)
		return msg
	}
}

// scoreBatchCmd runs the single score-all request, then reloads the
// whole leads list and re-fetches the open lead, whose score may have
// changed.
func (a *App) scoreBatchCmd(openID int) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := a.ctx()
		defer cancel()
		result, err := client.ScoreBatch(ctx)
		if err != nil {
			return scoreBatchMsg{err: err}
		}
		msg := scoreBatchMsg{result: result}
		if leads, lerr := client.ListLeads(ctx); lerr == nil {
			msg.leads = leads
		}
		if openID != 0 {
			if refreshed, rerr := client.GetLead(ctx, openID); rerr == nil {
				msg.openLead = &refreshed
			}
		}
		msg.stats, _ = client.PipelineStats(ctx)
		return msg
	}
}

// generateCmd asks for a message, then performs the dependent
// refreshes in sequence: re-fetch the lead (generation can change its
// stage server-side), pipeline stats, and the activity trail. The
// refreshes fail silently; the generate failure itself is toasted.
func (a *App) generateCmd(seq int64, leadID int, messageType lead.MessageType) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := a.ctx()
		defer cancel()
		msg, err := client.GenerateMessage(ctx, leadID, messageType, "")
		if err != nil {
			return generateDoneMsg{seq: seq, leadID: leadID, err: err}
		}
		done := generateDoneMsg{seq: seq, leadID: leadID, msg: msg}
		if refreshed, rerr := client.GetLead(ctx, leadID); rerr == nil {
			done.refreshed = &refreshed
		}
		done.stats, _ = client.PipelineStats(ctx)
		done.activities, _ = client.ListActivities(ctx, leadID)
		return done
	}
}

// tuneCmd sends a revision request for the open message and refreshes
// the activity trail afterwards.
func (a *App) tuneCmd(seq int64, leadID int, original lead.GeneratedMessage, instructions string) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := a.ctx()
		defer cancel()
		msg, err := client.TuneMessage(ctx, leadID, original, instructions)
		if err != nil {
			return tuneDoneMsg{seq: seq, leadID: leadID, err: err}
		}
		done := tuneDoneMsg{seq: seq, leadID: leadID, msg: msg}
		done.activities, _ = client.ListActivities(ctx, leadID)
		return done
	}
}

// stageCmd persists an already optimistically applied stage change.
// On success it refreshes stats, plus the activity trail when the
// lead is the open one.
func (a *App) stageCmd(leadID int, stage lead.Stage, open bool) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := a.ctx()
		defer cancel()
		if _, err := client.UpdateStage(ctx, leadID, stage, ""); err != nil {
			return stageSavedMsg{leadID: leadID, stage: stage, err: err}
		}
		msg := stageSavedMsg{leadID: leadID, stage: stage}
		msg.stats, _ = client.PipelineStats(ctx)
		if open {
			msg.activities, _ = client.ListActivities(ctx, leadID)
		}
		return msg
	}
}

// expireToastCmd schedules a toast's removal a fixed lifetime after
// push. Each toast expires independently.
func expireToastCmd(id string) tea.Cmd {
	return tea.Tick(toast.Lifetime, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}
