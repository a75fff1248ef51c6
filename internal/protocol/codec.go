package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Sentinel delimiters bracketing the command JSON in a generation.
const (
	CommandsStart = "__DASHBOARD_COMMANDS_START__"
	CommandsEnd   = "__DASHBOARD_COMMANDS_END__"
)

// ErrShape is returned by DecodeCommands when the payload is valid JSON but
// neither an object nor an array.
var ErrShape = errors.New("commands payload must be a JSON object or array")

// Parsed is the result of splitting a raw generation.
type Parsed struct {
	// Content is the display content.
	Content string `json:"content"`
	// Commands are the embedded commands in wire order. Never nil.
	Commands []Command `json:"commands"`
	// Malformed is set when both sentinels were present but the block
	// between them could not be decoded.
	Malformed bool `json:"-"`
}

// Parse splits raw model output into display content and commands.
//
// Without both sentinels the whole input is content. With both, content is
// the trimmed text before the start sentinel and the text between them is
// decoded by DecodeCommands. Any decode failure yields the original text and
// no commands.
func Parse(raw string) Parsed {
	none := Parsed{Content: raw, Commands: []Command{}}

	startIdx := strings.Index(raw, CommandsStart)
	endIdx := strings.Index(raw, CommandsEnd)
	if startIdx == -1 || endIdx == -1 {
		return none
	}

	payloadStart := startIdx + len(CommandsStart)
	if endIdx < payloadStart {
		none.Malformed = true
		return none
	}

	cmds, err := DecodeCommands([]byte(raw[payloadStart:endIdx]))
	if err != nil {
		none.Malformed = true
		return none
	}

	return Parsed{
		Content:  strings.TrimSpace(raw[:startIdx]),
		Commands: cmds,
	}
}

// DecodeCommands decodes a bare command payload. A single object becomes a
// one-element list; an array is used as-is.
func DecodeCommands(data []byte) ([]Command, error) {
	data = bytes.TrimSpace(data)

	var probe json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	switch {
	case len(data) > 0 && data[0] == '[':
		var cmds []Command
		if err := json.Unmarshal(data, &cmds); err != nil {
			return nil, err
		}
		if cmds == nil {
			cmds = []Command{}
		}
		return cmds, nil
	case len(data) > 0 && data[0] == '{':
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			return nil, err
		}
		return []Command{cmd}, nil
	default:
		return nil, ErrShape
	}
}

// Encode renders content followed by a command block. With no commands the
// content is returned unchanged.
func Encode(content string, cmds []Command) (string, error) {
	if len(cmds) == 0 {
		return content, nil
	}
	payload, err := json.MarshalIndent(cmds, "", "  ")
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(content)
	b.WriteString("\n")
	b.WriteString(CommandsStart)
	b.WriteString("\n")
	b.Write(payload)
	b.WriteString("\n")
	b.WriteString(CommandsEnd)
	return b.String(), nil
}

// Extract accepts either a full response blob with sentinels or a bare
// command payload and returns the commands it carries.
func Extract(data []byte) ([]Command, error) {
	if bytes.Contains(data, []byte(CommandsStart)) {
		p := Parse(string(data))
		if p.Malformed {
			return nil, errors.New("malformed command block")
		}
		return p.Commands, nil
	}
	return DecodeCommands(data)
}
