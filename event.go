package skillver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Input is the hook event the host writes to stdin.
type Input struct {
	SessionID      string      `json:"session_id"`
	ToolName       string      `json:"tool_name"`
	ToolInput      ToolInput   `json:"tool_input"`
	ToolOutput     *ToolOutput `json:"tool_output,omitempty"`
	ToolResponse   *ToolOutput `json:"tool_response,omitempty"`
	TranscriptPath string      `json:"transcript_path,omitempty"`
}

// ToolInput holds the tool arguments skillver cares about. Other
// arguments are ignored.
type ToolInput struct {
	FilePath string `json:"file_path,omitempty"`
}

// ToolOutput reports how the tool call went.
type ToolOutput struct {
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// succeeded is true unless success is explicitly false or an error is set.
func (o *ToolOutput) succeeded() bool {
	if o == nil {
		return true
	}
	if o.Success != nil && !*o.Success {
		return false
	}
	return o.Error == ""
}

// EditEvent is one completed file edit.
type EditEvent struct {
	SessionID string
	ToolName  string
	FilePath  string
	Succeeded bool
}

// Event converts the hook input to an EditEvent. Some hosts report the
// outcome as tool_response rather than tool_output; both are accepted,
// with tool_output taking precedence.
func (in *Input) Event() EditEvent {
	out := in.ToolOutput
	if out == nil {
		out = in.ToolResponse
	}
	return EditEvent{
		SessionID: in.SessionID,
		ToolName:  in.ToolName,
		FilePath:  in.ToolInput.FilePath,
		Succeeded: out.succeeded(),
	}
}

// DecodeInput reads a single hook event from r.
func DecodeInput(r io.Reader) (*Input, error) {
	var in Input
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty hook input")
		}
		return nil, fmt.Errorf("decoding hook input: %w", err)
	}
	return &in, nil
}

// Output is the reply written to stdout.
type Output struct {
	// Continue is always true: skillver never halts the host.
	Continue bool   `json:"continue"`
	Message  string `json:"message,omitempty"`
}

// WriteOutput encodes out to w as a single JSON line.
func WriteOutput(w io.Writer, out Output) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
