package search

import (
	"space-chat/domain"
	"space-chat/errors"
	"strconv"
	"strings"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Query represents the structured parameters of a message search.
// It decouples the raw chat input from the actual index requirements.
type Query struct {
	RawInput string               // The original input from the user
	Terms    string               // The actual text to search in the index
	RoomID   domain.RoomID        // Optional target room
	SenderID domain.ParticipantID // Optional author filter
	Limit    int                  // Number of results
}

// NewSearchQuery parses a raw string to extract command-line style arguments.
// Example: /find "invoice" --room 9b2f... --sender alice --limit 5
func NewSearchQuery(input string) (Query, error) {
	query := Query{
		RawInput: input,
		Limit:    defaultLimit,
	}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			key := strings.TrimPrefix(part, "--")
			val := parts[i+1]

			switch key {
			case "room":
				query.RoomID = domain.RoomID(val)
			case "sender":
				query.SenderID = domain.ParticipantID(val)
			case "limit":
				limit, err := strconv.Atoi(val)
				if err != nil || limit <= 0 {
					return Query{}, errors.ErrInvalidQuery
				}
				query.Limit = min(limit, maxLimit)
			}
			i++ // Skip the value part in next iteration
			continue
		}

		// If it's not a flag, it's a search term
		if !strings.HasPrefix(part, "/") {
			textTerms = append(textTerms, strings.Trim(part, `"`))
		}
	}

	query.Terms = strings.TrimSpace(strings.Join(textTerms, " "))
	if query.Terms == "" {
		return Query{}, errors.ErrInvalidQuery
	}
	return query, nil
}
