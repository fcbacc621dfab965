package discord

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	CommandTrack     = "track"
	CommandPollTrack = "polltrack"

	SubcommandList   = "list"
	SubcommandAdd    = "add"
	SubcommandRemove = "remove"

	OptionNames = "names"
	OptionItems = "items"
	OptionMode  = "mode"
	OptionName  = "name"
)

var commandContexts = []discordgo.InteractionContextType{
	discordgo.InteractionContextGuild,
	discordgo.InteractionContextBotDM,
}

var commandDefinitions = map[string]*discordgo.ApplicationCommand{
	CommandTrack: {
		Name:        CommandTrack,
		Description: "Show or edit the watch-list",
		Contexts:    &commandContexts,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandList,
				Description: "Show every tracked bot",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandAdd,
				Description: "Track bots right away",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        OptionNames,
						Description: "Comma separated bot names, add an index to pick between equal names",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandRemove,
				Description: "Stop tracking bots right away",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        OptionItems,
						Description: "Comma separated list positions (2, 5-8, 13..15) or bot names",
						Required:    true,
					},
				},
			},
		},
	},
	CommandPollTrack: {
		Name:        CommandPollTrack,
		Description: "Start a vote on tracking or untracking a bot",
		Contexts:    &commandContexts,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        OptionMode,
				Description: "What the vote should decide",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "add", Value: "add"},
					{Name: "remove", Value: "remove"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        OptionName,
				Description: "Bot name, add an index to pick between equal names",
				Required:    true,
			},
		},
	},
}

var defaultCommandOrder = []string{
	CommandTrack,
	CommandPollTrack,
}

// RegisterSlashCommands registers the requested slash commands. An empty guildID registers
// them globally. When no command names are provided, all known commands are registered.
func RegisterSlashCommands(s *discordgo.Session, guildID string, names ...string) error {
	if s.State == nil || s.State.User == nil {
		return fmt.Errorf("discord: session is not ready")
	}

	if len(names) == 0 {
		names = defaultCommandOrder
	}

	var failures []string
	for _, name := range names {
		definition, ok := commandDefinitions[name]
		if !ok {
			log.Printf("discord: unknown slash command %q", name)
			continue
		}

		_, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, definition)
		if err != nil {
			if isDuplicateCommandError(err) {
				log.Printf("discord: slash command %q already registered", name)
				continue
			}
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			log.Printf("discord: failed to register command %q: %v", name, err)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("discord: slash command registration errors: %s", strings.Join(failures, "; "))
	}

	return nil
}

// CommandDefinition returns the registered shape of a command.
func CommandDefinition(name string) (*discordgo.ApplicationCommand, bool) {
	def, ok := commandDefinitions[name]
	return def, ok
}

func isDuplicateCommandError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil {
			msg := strings.ToLower(restErr.Message.Message)
			if strings.Contains(msg, "already exists") {
				return true
			}
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "50035") && strings.Contains(msg, "already exists")
}
