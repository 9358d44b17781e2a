package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/tools"
)

// Name is reported as serverInfo.name on both transports.
const Name = "the-mind"

// ProtocolVersion is the protocol revision the line server negotiates.
const ProtocolVersion = "2024-11-05"

// New creates an MCP server with the mind tools registered, for the
// streamable HTTP transport and in-process clients.
func New(mt *tools.MindTools, version string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    Name,
		Version: version,
	}, nil)

	mt.Register(srv)

	return srv
}
