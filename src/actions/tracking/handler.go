package tracking

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	shareddiscord "github.com/stake-plus/gemtracker/src/discord"
	"github.com/stake-plus/gemtracker/src/logging"
	sharedtracking "github.com/stake-plus/gemtracker/src/shared/tracking"
)

// commandRequest is a slash command reduced to the values the handler acts on.
type commandRequest struct {
	Command    string
	Subcommand string
	Options    map[string]string
	ScopeID    string
	ChannelID  string
	UserID     string
	InGuild    bool
	Member     *discordgo.Member
}

func parseRequest(i *discordgo.Interaction) commandRequest {
	data := i.ApplicationCommandData()
	req := commandRequest{
		Command:   data.Name,
		Options:   map[string]string{},
		ChannelID: i.ChannelID,
		UserID:    shareddiscord.InvokerID(i),
		InGuild:   i.GuildID != "",
		Member:    i.Member,
	}
	req.ScopeID = i.GuildID
	if !req.InGuild {
		req.ScopeID = req.UserID
	}

	options := data.Options
	if len(options) == 1 && options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		req.Subcommand = options[0].Name
		options = options[0].Options
	}
	for _, opt := range options {
		if opt.Type == discordgo.ApplicationCommandOptionString {
			req.Options[opt.Name] = opt.StringValue()
		}
	}
	return req
}

// Handler executes /track and /polltrack.
type Handler struct {
	Service     *sharedtracking.Service
	TrackRoleID string
}

// Execute runs one command and returns the reply text.
func (h *Handler) Execute(ctx context.Context, req commandRequest) string {
	if req.ScopeID == "" {
		return "Could not tell where this command was used."
	}

	switch req.Command {
	case shareddiscord.CommandTrack:
		return h.track(ctx, req)
	case shareddiscord.CommandPollTrack:
		return h.pollTrack(ctx, req)
	default:
		return fmt.Sprintf("Unknown command %q.", req.Command)
	}
}

func (h *Handler) track(ctx context.Context, req commandRequest) string {
	switch req.Subcommand {
	case shareddiscord.SubcommandList:
		entries, err := h.Service.ListTracked(ctx, req.ScopeID)
		if err != nil {
			return h.failed(req, err)
		}
		open, err := h.Service.ListOpenProposals(ctx, req.ScopeID)
		if err != nil {
			log.Printf("tracking: list open votes for scope %s: %v", req.ScopeID, err)
			open = nil
		}
		return formatList(entries, open)

	case shareddiscord.SubcommandAdd, shareddiscord.SubcommandRemove:
		if req.InGuild && !shareddiscord.HasRole(req.Member, h.TrackRoleID) {
			return "You don't have permission to change the watch-list directly. Use `/polltrack` to start a vote."
		}

		kind := sharedtracking.ProposalAdd
		raw := req.Options[shareddiscord.OptionNames]
		if req.Subcommand == shareddiscord.SubcommandRemove {
			kind = sharedtracking.ProposalRemove
			raw = req.Options[shareddiscord.OptionItems]
		}
		tokens := splitNames(raw)
		if len(tokens) == 0 {
			return "Give at least one bot name, separated by commas."
		}

		report, err := h.Service.DirectMutate(ctx, req.ScopeID, kind, tokens)
		if err != nil {
			return h.failed(req, err)
		}
		if report.Changed() {
			log.Printf("tracking: user %s changed the watch-list of scope %s (%s, %d entries now)",
				req.UserID, req.ScopeID, kind, report.Total)
		}
		return formatReport(report)

	default:
		return fmt.Sprintf("Unknown subcommand %q.", req.Subcommand)
	}
}

func (h *Handler) pollTrack(ctx context.Context, req commandRequest) string {
	kind, err := sharedtracking.ParseProposalKind(req.Options[shareddiscord.OptionMode])
	if err != nil {
		return "Mode must be `add` or `remove`."
	}
	name := req.Options[shareddiscord.OptionName]

	res, err := h.Service.ProposeChange(ctx, req.ScopeID, req.ChannelID, kind, name)
	if err != nil {
		return h.failed(req, err)
	}
	return formatProposeResult(res)
}

func (h *Handler) failed(req commandRequest, err error) string {
	log.Printf("tracking: /%s %s in scope %s failed (%s): %v",
		req.Command, req.Subcommand, req.ScopeID, logging.Describe(err), err)

	switch {
	case shareddiscord.IsMissingAccess(err):
		return "I can't post in this channel. Check my permissions and try again."
	case logging.IsTransient(err):
		return "The leaderboard or Discord is not answering right now. Please try again in a moment."
	default:
		return "Something went wrong. Please try again later."
	}
}
