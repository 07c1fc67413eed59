package menu

import (
	"github.com/flitsinc/menu-mcp/tools"
)

// ToolName is the name callers invoke the menu tool by.
const ToolName = "get_menu"

// GetMenuParams is empty: get_menu takes no arguments.
type GetMenuParams struct{}

// GetMenuTool exposes svc as the get_menu tool.
func GetMenuTool(svc *Service) tools.Tool {
	return tools.Func(
		"Get menu",
		"Fetch the restaurant menu from the local API and return it as JSON.",
		ToolName,
		func(r tools.Runner, _ GetMenuParams) tools.Result {
			if svc.AuthEnabled() {
				r.Report("requesting token")
			}
			return svc.GetMenu(r.Context())
		})
}
