package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/jsuresh/ttracker/internal/core/model"
	"github.com/jsuresh/ttracker/internal/core/store"
	"github.com/jsuresh/ttracker/internal/util"
)

// Rendering of store result events. The store itself never prints;
// everything user-visible funnels through here.

func renderTaskSummary(t *model.Task, now time.Time, nameWidth int, includeSynced bool) string {
	if nameWidth == 0 {
		nameWidth = len(t.Name)
	}
	line := fmt.Sprintf("%s:\t%s", util.PadRight(t.Name, nameWidth),
		util.FormatHoursMinutes(t.Minutes(now, includeSynced)))
	if active := t.ActiveEntry(); active != nil {
		line += fmt.Sprintf(" (in progress, started at: %s)", active.Start.Format(model.TimeLayout))
	}
	return line
}

func renderEntry(e *model.Entry, now time.Time) string {
	marker := "  "
	if e.Active() {
		marker = "* "
	}
	notes := fmt.Sprintf("(%s)", e.Project.Name)
	if e.Notes != "" {
		notes = fmt.Sprintf("(%s: %s)", e.Project.Name, e.Notes)
	}
	synced := ""
	if e.Synced() {
		synced = " (synced)"
	}
	return fmt.Sprintf("%s%s - %s\t%d\t%s%s", marker,
		e.Start.Format(model.TimeLayout), e.EndOrNow(now).Format(model.TimeLayout),
		e.Minutes(now), notes, synced)
}

func renderStopResult(res store.StopResult, now time.Time) {
	if res.Warning != nil {
		h := res.Warning.Minutes / 60
		m := res.Warning.Minutes % 60
		fmt.Printf("WARNING: Looks like you worked for %d:%02d\n", h, m)
		fmt.Println("         Is this an error? Can be fixed with 'pop'.")
	}
	fmt.Printf("%s: %s\n", res.TaskName, renderEntry(res.Entry, now))
}

func renderStartResult(res store.StartResult, s *store.Store, now time.Time) {
	if res.AutoStopped != nil {
		fmt.Printf("Stopped %s first:\n", res.AutoStopped.TaskName)
		renderStopResult(*res.AutoStopped, now)
	}
	fmt.Println(renderTaskSummary(s.Tasks[res.TaskName], now, 0, false))
}

func renderProjects(s *store.Store) {
	ids := make([]string, 0, len(s.Projects))
	for id := range s.Projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	width := util.MaxWidth(ids)
	for _, id := range ids {
		fmt.Printf("%s  %s\n", util.PadRight(id, width), s.Projects[id])
	}
}

func renderTaskList(s *store.Store, includeSynced bool) {
	now := s.Now()
	var visible []*model.Task
	var names []string
	for _, t := range s.SortedTasks() {
		if t.Minutes(now, includeSynced) > 0 || t.Active() {
			visible = append(visible, t)
			names = append(names, t.Name)
		}
	}
	if len(visible) == 0 {
		fmt.Println("No tasks, start logging time with the 'ttracker start' command")
		return
	}

	width := util.MaxWidth(names)
	for _, t := range visible {
		fmt.Println(renderTaskSummary(t, now, width, includeSynced))
	}
}
