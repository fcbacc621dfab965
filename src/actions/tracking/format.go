package tracking

import (
	"fmt"
	"strings"

	shareddiscord "github.com/stake-plus/gemtracker/src/discord"
	sharedtracking "github.com/stake-plus/gemtracker/src/shared/tracking"
)

func entryLabel(e sharedtracking.TrackedEntry) string {
	return shareddiscord.EscapeMarkdown(e.Label())
}

func catalogLabel(e sharedtracking.CatalogEntry) string {
	return entryLabel(e.Tracked())
}

func joinEntries(entries []sharedtracking.TrackedEntry) string {
	labels := make([]string, len(entries))
	for i, e := range entries {
		labels[i] = entryLabel(e)
	}
	return strings.Join(labels, ", ")
}

func joinCatalog(entries []sharedtracking.CatalogEntry) string {
	labels := make([]string, len(entries))
	for i, e := range entries {
		labels[i] = catalogLabel(e)
	}
	return strings.Join(labels, ", ")
}

// formatList renders the watch-list numbered from 1, followed by the scope's open votes.
func formatList(entries []sharedtracking.TrackedEntry, open []sharedtracking.Proposal) string {
	var b strings.Builder
	if len(entries) == 0 {
		b.WriteString("The watch-list is empty. Use `/track add` or `/polltrack` to add bots.")
	} else {
		fmt.Fprintf(&b, "**Tracked bots** (%d/%d)\n", len(entries), sharedtracking.MaxTrackedEntries)
		for i, e := range entries {
			fmt.Fprintf(&b, "%d. %s\n", i+1, entryLabel(e))
		}
	}

	if len(open) > 0 {
		b.WriteString("\n**Open votes**\n")
		for _, p := range open {
			fmt.Fprintf(&b, "• %s %s (vote %s)\n", p.Kind, catalogLabel(p.Target), p.ID)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatAmbiguous(input string, candidates []sharedtracking.CatalogEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔀 '%s' matches several bots:\n", shareddiscord.EscapeMarkdown(input))
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s\n", i+1, catalogLabel(c))
	}
	base, _ := sharedtracking.SplitIndex(input)
	fmt.Fprintf(&b, "Add the number after the name, e.g. `%s 2`.", base)
	return b.String()
}

// formatReport turns a direct add/remove report into one reply.
func formatReport(r sharedtracking.MutationReport) string {
	var lines []string
	add := func(format string, args ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	if len(r.Added) > 0 {
		add("✅ Added: %s", joinEntries(r.Added))
	}
	if len(r.Removed) > 0 {
		removed := make([]string, len(r.Removed))
		for i, e := range r.Removed {
			removed[i] = fmt.Sprintf("#%d %s", e.Index, entryLabel(e.Entry))
		}
		add("🗑️ Removed: %s", strings.Join(removed, ", "))
	}
	if len(r.AlreadyTracked) > 0 {
		add("ℹ️ Already tracked: %s", joinEntries(r.AlreadyTracked))
	}
	if len(r.NotTracked) > 0 {
		add("ℹ️ Not tracked: %s", joinCatalog(r.NotTracked))
	}
	if len(r.LimitReached) > 0 {
		add("⚠️ Watch-list is full (%d entries), not added: %s", sharedtracking.MaxTrackedEntries, joinEntries(r.LimitReached))
	}
	if len(r.InvalidIndices) > 0 {
		add("⚠️ No such position: %s", strings.Join(r.InvalidIndices, ", "))
	}
	if len(r.NotFound) > 0 {
		names := make([]string, len(r.NotFound))
		for i, n := range r.NotFound {
			names[i] = shareddiscord.EscapeMarkdown(n)
		}
		add("❓ Not on the leaderboard: %s", strings.Join(names, ", "))
	}
	for _, a := range r.Ambiguous {
		lines = append(lines, formatAmbiguous(a.Input, a.Candidates))
	}

	if !r.Changed() {
		add("Nothing changed.")
	}
	add("The watch-list has %d/%d entries.", r.Total, sharedtracking.MaxTrackedEntries)
	return strings.Join(lines, "\n")
}

// formatProposeResult is the reply to /polltrack.
func formatProposeResult(r sharedtracking.ProposeResult) string {
	switch r.Status {
	case sharedtracking.ProposeCreated:
		return fmt.Sprintf("🗳️ Vote started for %s (vote %s).", catalogLabel(r.Target), r.VoteID)
	case sharedtracking.ProposeAmbiguous:
		return formatAmbiguous(r.Input, r.Candidates)
	case sharedtracking.ProposeDuplicate:
		return fmt.Sprintf("⏳ There is already an open vote for %s.", catalogLabel(r.Target))
	default:
		return fmt.Sprintf("❓ '%s' is not on the leaderboard.", shareddiscord.EscapeMarkdown(r.Input))
	}
}

// splitNames splits a comma separated option value.
func splitNames(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
