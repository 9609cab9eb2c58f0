package chat

import (
	"strings"

	"post-assist-bot/internal/database"
	"post-assist-bot/internal/knowledge"
	"post-assist-bot/internal/postal"
)

type Command int

const (
	// free text, matched against the knowledge base
	CommandText Command = iota
	CommandReset
	CommandFindByPincode
	CommandFindByLocation
)

// DecodeCommand maps a normalized message to the command it carries.
func DecodeCommand(message string) Command {
	switch message {
	case database.CMD_RESET:
		return CommandReset
	case database.CMD_FIND_BY_PINCODE:
		return CommandFindByPincode
	case database.CMD_FIND_OFFICE_BY_LOCATION:
		return CommandFindByLocation
	}
	return CommandText
}

// Normalize trims and lowercases user text the way every rule compares it.
func Normalize(message string) string {
	return strings.ToLower(strings.TrimSpace(message))
}

type (
	Request struct {
		Message   string   `json:"message"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}

	Response struct {
		Response   string             `json:"response"`
		Options    []knowledge.Option `json:"options"`
		ShowUpload bool               `json:"show_upload"`
		FullData   []postal.Office    `json:"full_data,omitempty"`
	}
)

func (r Request) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

func text(msg string, options ...knowledge.Option) Response {
	if options == nil {
		options = []knowledge.Option{}
	}
	return Response{Response: msg, Options: options}
}

var (
	optionTrackTrace = knowledge.Option{Text: "Track & Trace", Value: "track_trace"}
	optionMainMenu   = knowledge.Option{Text: "Main Menu", Value: database.CMD_RESET}
	optionGoBack     = knowledge.Option{Text: "Go back", Value: database.CMD_RESET}
	optionByPincode  = knowledge.Option{Text: "Find by Pincode", Value: database.CMD_FIND_BY_PINCODE}

	welcomeOptions = []knowledge.Option{
		optionTrackTrace,
		{Text: "Find Post Office", Value: "find_nearest_post_office"},
		{Text: "Banking Services", Value: "banking_schemes"},
	}

	// keywords of entries that offer the image upload control
	complaintKeywords = []string{"complaint", "issue", "problem", "raise_complaint", "damaged"}
)

const (
	MAX_OFFICE_OPTIONS   = 5
	MAX_DESCRIPTION_ECHO = 50

	WELCOME_MESSAGE = "Hello! Welcome to India Post Assistant."
)
