package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `calldesk places phone calls through a tethered Android phone and keeps a contact list.

Workflow:
1) Find the contact: list_contacts (query matches names, email, comment, and phone digits).
2) Dial: start_call(contact_id). The call is tracked on the contact (isCurrentlyInCall, callStartTime).
3) While the call runs, call_status reports call_in_progress. If the other party hung up, call_status
   records the duration on the contact and reports hang_up_detected.
4) Finish: hang_up to end the tracked call from this side. end_call is for clients that measured the
   duration themselves.

Only one call is tracked at a time. Device failures come back as DEVICE_* error codes; device_status
shows whether the phone is attached and authorized.

Docs:
- calldesk://docs/call-tracking
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "calldesk://docs/call-tracking",
		Name:        "call_tracking",
		Title:       "How calls are tracked",
		Description: "Probe reconciliation, manual hang-up detection and duration formats.",
		Content: `# Call tracking

The phone is read through two probes:

- **call state**: the telephony registry level (0 idle, 1 ringing, 2 off-hook).
- **call list**: the live calls known to the telecom service.

The call-state probe wins when it can be read. If it reports idle while the call list still shows a
call, the result is *inactive* with ` + "`conflict: true`" + `. If the call-state probe cannot be read the call
list decides. If neither can be read the line is treated as idle.

When a tracked call reads as inactive, it is recorded as a manual hang-up: the contact gets
` + "`isCurrentlyInCall=false`" + `, ` + "`dureeAppel`" + ` and the local date and time of detection.

## Durations

- under an hour: ` + "`MM:SS`" + `
- an hour or more: ` + "`HH:MM:SS`" + `
- unknown start (hang-up with nothing tracked): ` + "`N/A`" + `
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
