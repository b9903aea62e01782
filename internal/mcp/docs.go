package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `projreg is a registry of funded projects. Each project points at a proposal document and, once finished, at a final report.

Core concepts:
- Project ids are assigned 0, 1, 2, ... in creation order and never reused.
- Status moves upcoming -> ongoing -> completed or cancelled. Completed and cancelled are final.
- Only the registry administrator may create projects or change their status. Reads are open.
- Every change emits an event (ProjectCreated, ProjectStatusChanged) readable with list_events.
- Projects are non-transferable. Transfer and approval operations always fail with OPERATION_DISABLED.

Typical workflow:
1) describe_lifecycle once to learn the status machine.
2) create_project with a proposal_uri.
3) advance_project_status to ongoing, then to completed or cancelled with a report_uri.
4) list_events with after_seq set to the last next_seq to follow changes.

Errors are returned as JSON {code, message, recovery_hint}. Codes: PERMISSION_DENIED, NOT_FOUND, INVALID_STATE, INVALID_ARGUMENT, OPERATION_DISABLED.

Docs:
- projreg://docs/lifecycle
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
		URI:         "projreg://docs/lifecycle",
		Name:        "docs_lifecycle",
		Title:       "Project lifecycle",
		Description: "Statuses, allowed transitions, check order and error codes.",
		Content: `# Project lifecycle

| From      | To                            | Report required |
|-----------|-------------------------------|-----------------|
| upcoming  | ongoing                       | no              |
| upcoming  | completed, cancelled          | yes             |
| ongoing   | ongoing, completed, cancelled | terminal only   |
| completed | (none)                        |                 |
| cancelled | (none)                        |                 |

Moving back to upcoming is never allowed.

## Check order

A status change is validated in this order and the first failure wins:

1. Caller is the administrator, else ` + "`PERMISSION_DENIED`" + `.
2. Project exists, else ` + "`NOT_FOUND`" + `.
3. Project is not completed or cancelled, else ` + "`INVALID_STATE`" + `.
4. Target status is known and is not upcoming, else ` + "`INVALID_ARGUMENT`" + `.
5. Completed and cancelled carry a non-empty report_uri, else ` + "`INVALID_ARGUMENT`" + `.

A report_uri passed with ongoing is ignored.

## Events

- ` + "`ProjectCreated`" + `: id, proposal_uri, status upcoming.
- ` + "`ProjectStatusChanged`" + `: id, new status, report_uri for terminal statuses.

Events are numbered by seq. Pass the last seen seq as after_seq to resume.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
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
