package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/metrics"
	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/tools"
)

// MaxLineSize is the longest request line the stdio loop accepts. Longer
// lines are discarded.
const MaxLineSize = 4 << 20

const readBufferSize = 64 << 10

// Method names handled by the line server.
const (
	MethodInitialize  = "initialize"
	MethodToolsList   = "tools/list"
	MethodToolsCall   = "tools/call"
	MethodInitialized = "notifications/initialized"
)

// CodeMethodNotFound is the JSON-RPC error code for unknown methods.
const CodeMethodNotFound = -32601

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Version string          `json:"version"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// rpcVersion is written under both the jsonrpc and version keys.
const rpcVersion = "2.0"

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Version string          `json:"version"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// LineServer speaks JSON-RPC 2.0 over newline-delimited JSON. It handles one
// request at a time: read, dispatch, write and flush, then the next line.
type LineServer struct {
	tools   *tools.MindTools
	version string
	logger  *zap.Logger
}

// NewLineServer returns a LineServer dispatching tool calls to mt.
func NewLineServer(mt *tools.MindTools, version string, logger *zap.Logger) *LineServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LineServer{tools: mt, version: version, logger: logger}
}

// Serve reads requests from r and writes responses to w until EOF, a read or
// write error, or ctx is done. Blank, malformed and oversized lines are skipped.
func (s *LineServer) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	in := bufio.NewReaderSize(r, readBufferSize)
	out := bufio.NewWriter(w)

	for {
		line, oversized, err := readLine(in)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return goerr.Wrap(err, "read request")
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if oversized {
			s.logger.Warn("skipping oversized request line", zap.Int("max_bytes", MaxLineSize))
			continue
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		resp, ok := s.Handle(ctx, line)
		if !ok {
			continue
		}
		if _, err := out.Write(append(resp, '\n')); err != nil {
			return goerr.Wrap(err, "write response")
		}
		if err := out.Flush(); err != nil {
			return goerr.Wrap(err, "flush response")
		}
	}
}

// readLine returns the next line including any terminator. A line longer
// than MaxLineSize is consumed to its end and reported as oversized with a
// nil line. A final line without a newline is returned before io.EOF.
func readLine(in *bufio.Reader) (line []byte, oversized bool, err error) {
	for {
		chunk, rerr := in.ReadSlice('\n')
		if !oversized {
			line = append(line, chunk...)
			if len(bytes.TrimRight(line, "\r\n")) > MaxLineSize {
				line, oversized = nil, true
			}
		}
		switch {
		case errors.Is(rerr, bufio.ErrBufferFull):
			continue
		case errors.Is(rerr, io.EOF):
			if len(line) > 0 || oversized {
				return line, oversized, nil
			}
			return nil, false, io.EOF
		case rerr != nil:
			return nil, false, rerr
		default:
			return line, oversized, nil
		}
	}
}

// Handle processes one request line and returns the encoded response. ok is
// false when nothing should be written: notifications and unparseable lines.
func (s *LineServer) Handle(ctx context.Context, line []byte) (resp []byte, ok bool) {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		s.logger.Warn("skipping malformed request line", zap.Error(err), zap.Int("bytes", len(line)))
		return nil, false
	}
	metrics.ProtocolRequests.WithLabelValues(methodLabel(req.Method)).Inc()

	if isNotification(req.ID) {
		s.logger.Debug("notification", zap.String("method", req.Method))
		return nil, false
	}

	result, rpcErr := s.dispatch(ctx, req)
	data, err := json.Marshal(response{
		JSONRPC: rpcVersion,
		Version: rpcVersion,
		ID:      req.ID,
		Result:  result,
		Error:   rpcErr,
	})
	if err != nil {
		s.logger.Error("encode response failed", zap.String("method", req.Method), zap.Error(err))
		return nil, false
	}
	return data, true
}

func (s *LineServer) dispatch(ctx context.Context, req request) (any, *rpcError) {
	switch req.Method {
	case MethodInitialize:
		return &mcp.InitializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    &mcp.ServerCapabilities{Tools: &mcp.ToolCapabilities{}},
			ServerInfo:      &mcp.Implementation{Name: Name, Version: s.version},
		}, nil

	case MethodToolsList:
		return &mcp.ListToolsResult{Tools: tools.Definitions()}, nil

	case MethodToolsCall:
		var params callParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				s.logger.Debug("tools/call params not an object", zap.Error(err))
			}
		}
		s.logger.Debug("tools/call", zap.String("tool", params.Name))
		return s.tools.Call(ctx, params.Name, params.Arguments), nil

	default:
		return nil, &rpcError{
			Code:    CodeMethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", req.Method),
		}
	}
}

// isNotification reports whether id is absent or JSON null.
func isNotification(id json.RawMessage) bool {
	trimmed := bytes.TrimSpace(id)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func methodLabel(method string) string {
	switch method {
	case MethodInitialize, MethodToolsList, MethodToolsCall, MethodInitialized:
		return method
	default:
		return "other"
	}
}
