package mcp

import "github.com/rpggio/calldesk/internal/domain/contact"

// ToolDefinition describes a callable tool.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
	ReadOnly    bool
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Contacts
		{
			Name:        "list_contacts",
			Description: "Search contacts by name, email, phone or comment",
			ReadOnly:    true,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query":  stringProp("Case-insensitive text; three or more digits also match phone numbers"),
					"status": map[string]any{
						"type":        "string",
						"description": "Exact status filter; statuses are free text, these are the usual ones",
						"examples":    contact.KnownStatuses,
					},
					"limit": map[string]any{
						"type":        "integer",
						"minimum":     0,
						"description": "Maximum rows (default 50)",
					},
					"offset": map[string]any{
						"type":    "integer",
						"minimum": 0,
					},
				},
			},
		},
		{
			Name:        "get_contact",
			Description: "Get the full record for one contact",
			ReadOnly:    true,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": stringProp("Contact ID"),
				},
				"required": []string{"id"},
			},
		},

		// Calls
		{
			Name:        "start_call",
			Description: "Dial a contact (or a raw number) on the connected phone and start tracking the call",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"contact_id":   stringProp("Contact to call and track"),
					"phone_number": stringProp("Number to dial; overrides the contact's stored number"),
				},
			},
		},
		{
			Name:        "hang_up",
			Description: "Hang up the current call and record its duration on the contact",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"contact_id": stringProp("Contact to record against when no call is tracked"),
				},
			},
		},
		{
			Name:        "call_status",
			Description: "Report whether a call is in progress; records a manual hang-up if the tracked call ended",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"cached": map[string]any{
						"type":        "boolean",
						"description": "Return the tracked session without querying the phone",
					},
				},
			},
		},
		{
			Name:        "end_call",
			Description: "End the call and store the duration measured by the client",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"contact_id":      stringProp("Contact the call belongs to"),
					"call_start_time": stringProp("ISO-8601 start time, used when duration_seconds is absent"),
					"duration_seconds": map[string]any{
						"type":        "number",
						"description": "Measured duration in seconds",
					},
				},
				"required": []string{"contact_id"},
			},
		},

		// Device
		{
			Name:        "device_status",
			Description: "List phones attached over adb and report the battery level of a ready one",
			ReadOnly:    true,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"skip_battery": map[string]any{
						"type":        "boolean",
						"description": "Only list devices",
					},
				},
			},
		},
	}
}
