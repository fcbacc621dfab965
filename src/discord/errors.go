package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"
)

// RESTErrorCode returns Discord's JSON error code carried by err, or 0.
func RESTErrorCode(err error) int {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		return restErr.Message.Code
	}
	return 0
}

// IsUnknownResource reports whether err says the channel or message no longer exists.
func IsUnknownResource(err error) bool {
	switch RESTErrorCode(err) {
	case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownMessage:
		return true
	}
	return false
}

// IsMissingAccess reports whether the bot lost access to the resource.
func IsMissingAccess(err error) bool {
	switch RESTErrorCode(err) {
	case discordgo.ErrCodeMissingAccess, discordgo.ErrCodeMissingPermissions:
		return true
	}
	return false
}
