package tracking

import "fmt"

// Question is the text shown on a proposal's vote.
func Question(kind ProposalKind, target CatalogEntry) string {
	verb := "be added to"
	if kind == ProposalRemove {
		verb = "be removed from"
	}
	return fmt.Sprintf("Should '%s' (%s) %s the watch-list?", target.Name, target.Author, verb)
}

// OutcomeMessage renders the channel notification for a concluded proposal.
func OutcomeMessage(out Outcome) string {
	p := out.Proposal
	label := fmt.Sprintf("'%s' (%s)", p.Target.Name, p.Target.Author)
	counts := fmt.Sprintf("%d yes / %d no", out.Tally.Yes, out.Tally.No)

	if p.Status != StatusApplied {
		return fmt.Sprintf("The vote to %s %s failed (%s). Nothing changed.", p.Kind, label, counts)
	}

	switch out.NoOp {
	case NoOpAlreadyTracked:
		return fmt.Sprintf("The vote to add %s passed (%s), but it is already on the watch-list.", label, counts)
	case NoOpNotTracked:
		return fmt.Sprintf("The vote to remove %s passed (%s), but it is no longer on the watch-list.", label, counts)
	case NoOpWatchlistFull:
		return fmt.Sprintf("The vote to add %s passed (%s), but the watch-list is full (%d entries).",
			label, counts, MaxTrackedEntries)
	}

	if p.Kind == ProposalRemove {
		return fmt.Sprintf("The vote passed (%s): %s was removed from the watch-list.", counts, label)
	}
	return fmt.Sprintf("The vote passed (%s): %s was added to the watch-list.", counts, label)
}
