package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pathdss/lisbridge/hl7"
	"github.com/pathdss/lisbridge/logger"
)

// ErrEmptyCommand is returned by NewCommandEngine when no command is given.
var ErrEmptyCommand = errors.New("inference: command is empty")

// CommandEngine runs model inference by spawning an external toolchain
// process per order. The order message is written to the child's stdin and
// a single JSON document matching Result is expected on stdout:
//
//	{"model":"BRAF","predictions":[{"label":"V600E","score":0.97}],
//	 "artifacts":[{"name":"heatmap.png","content_type":"image/png","base64":"..."}]}
//
// A non-zero exit or undecodable output is a processing failure, which the
// worker retries under its normal policy.
type CommandEngine struct {
	name   string
	args   []string
	logger logger.Logger
}

// NewCommandEngine creates a CommandEngine from a command name and its
// arguments.
func NewCommandEngine(name string, args []string, l logger.Logger) (*CommandEngine, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyCommand
	}
	if l == nil {
		l = logger.GetLogger()
	}

	return &CommandEngine{name: name, args: args, logger: l}, nil
}

// Run implements Engine.
func (e *CommandEngine) Run(ctx context.Context, order *hl7.Message) (*Result, error) {
	cmd := exec.CommandContext(ctx, e.name, e.args...)
	cmd.Stdin = strings.NewReader(order.String())

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Debug("spawning inference toolchain",
		"command", e.name,
		"control_id", order.ControlID(),
		"model", order.ModelCode(),
	)

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("run %s: %w: %s", e.name, err, msg)
		}

		return nil, fmt.Errorf("run %s: %w", e.name, err)
	}

	var out commandOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("decode %s output: %w", e.name, err)
	}

	res := &Result{Model: out.Model}
	if res.Model == "" {
		res.Model = order.ModelCode()
	}
	for _, p := range out.Predictions {
		res.Predictions = append(res.Predictions, hl7.Prediction{Label: p.Label, Score: p.Score})
	}
	for _, a := range out.Artifacts {
		res.Artifacts = append(res.Artifacts, hl7.Artifact{
			Name:        a.Name,
			ContentType: a.ContentType,
			Base64:      a.Base64,
		})
	}

	return res, nil
}

// commandOutput is the JSON document the toolchain writes to stdout.
type commandOutput struct {
	Model       string `json:"model"`
	Predictions []struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	} `json:"predictions"`
	Artifacts []struct {
		Name        string `json:"name"`
		ContentType string `json:"content_type"`
		Base64      string `json:"base64"`
	} `json:"artifacts"`
}
