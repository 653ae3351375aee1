package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"smpctl/core/engine"
	"smpctl/logger"
)

// CommandRequest is either a raw wire command or a name with arguments.
// Args may be a list of {key, value} pairs or an object; both keep their
// order on the wire.
type CommandRequest struct {
	Raw     string          `json:"raw,omitempty"`
	Command string          `json:"command,omitempty"`
	Args    json.RawMessage `json:"args,omitempty"`
	Strict  bool            `json:"strict,omitempty"`
}

// CommandResponse is the JSON form of one engine result.
type CommandResponse struct {
	Command    string                 `json:"command"`
	Name       string                 `json:"name"`
	Status     int32                  `json:"status"`
	StatusText string                 `json:"statusText"`
	OK         bool                   `json:"ok"`
	Text       string                 `json:"text"`
	Truncated  bool                   `json:"truncated,omitempty"`
	Values     map[string]interface{} `json:"values,omitempty"`
	DurationUs int64                  `json:"durationUs"`
	Error      string                 `json:"error,omitempty"`
}

// NewCommandResponse converts a result for JSON output.
func NewCommandResponse(res *engine.Result) CommandResponse {
	resp := CommandResponse{
		Command:    res.Command,
		Name:       res.Name,
		Status:     int32(res.Status),
		StatusText: res.Status.String(),
		OK:         res.OK(),
		Text:       res.Text,
		Truncated:  res.Truncated,
		DurationUs: res.Duration.Microseconds(),
	}
	if res.OK() && res.Values.Len() > 0 {
		resp.Values = res.Typed()
	}
	return resp
}

// encode turns the request into a raw wire command.
func (req CommandRequest) encode() (string, error) {
	if req.Raw != "" {
		if req.Command != "" || len(req.Args) > 0 {
			return "", errors.New("raw excludes command and args")
		}
		if _, err := engine.ParseCommand(req.Raw); err != nil {
			return "", err
		}
		return req.Raw, nil
	}
	if req.Command == "" {
		return "", errors.New("command or raw is required")
	}
	args, err := decodeArgs(req.Args)
	if err != nil {
		return "", err
	}
	return engine.NewCommand(req.Command, args...).Encode()
}

type argPair struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// decodeArgs accepts [{key, value}...] or {key: value...}.
func decodeArgs(raw json.RawMessage) ([]engine.Arg, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	switch raw[0] {
	case '[':
		var pairs []argPair
		if err := dec.Decode(&pairs); err != nil {
			return nil, fmt.Errorf("invalid args: %w", err)
		}
		args := make([]engine.Arg, 0, len(pairs))
		for _, p := range pairs {
			v, err := argValue(p.Value)
			if err != nil {
				return nil, fmt.Errorf("arg %q: %w", p.Key, err)
			}
			args = append(args, engine.A(p.Key, v))
		}
		return args, nil

	case '{':
		// Walk the tokens so the object keeps its order.
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("invalid args: %w", err)
		}
		var args []engine.Arg
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("invalid args: %w", err)
			}
			key, _ := tok.(string)
			var value interface{}
			if err := dec.Decode(&value); err != nil {
				return nil, fmt.Errorf("arg %q: %w", key, err)
			}
			v, err := argValue(value)
			if err != nil {
				return nil, fmt.Errorf("arg %q: %w", key, err)
			}
			args = append(args, engine.A(key, v))
		}
		return args, nil

	default:
		return nil, errors.New("args must be a list or an object")
	}
}

func argValue(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string, bool, json.Number:
		return x, nil
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, item := range x {
			switch item.(type) {
			case string, bool, json.Number:
				out[i] = item
			case nil:
				out[i] = ""
			default:
				return nil, errors.New("list items must be scalars")
			}
		}
		return out, nil
	default:
		return nil, errors.New("value must be a scalar or a list of scalars")
	}
}

// CommandHandler runs one engine command. Lenient requests always answer
// 200 with the engine status; strict requests map failures to HTTP errors.
func (h *APIHandler) CommandHandler(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	raw, err := req.encode()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.client.Exec(r.Context(), raw)
	if err != nil {
		logger.Warn("[Command] 执行失败",
			logger.String("command", raw),
			logger.ErrorField(err))
		writeError(w, engineErrorStatus(err), err.Error())
		return
	}

	resp := NewCommandResponse(res)
	status := http.StatusOK
	if req.Strict {
		if err := res.Err(); err != nil {
			resp.Error = err.Error()
			status = engineErrorStatus(err)
		}
	}
	writeJSON(w, status, resp)
}
