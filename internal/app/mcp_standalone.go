package app

// ServeMCP runs the MCP server on stdin/stdout with no HTTP surface.
// Destructive calls wait for approvals resolved through the HTTP server of
// a `serve` process sharing the same database.
func (a *App) ServeMCP() error {
	a.approvalQ.SetStore(a.approvals)
	return a.mcpServer().ServeStdio()
}
