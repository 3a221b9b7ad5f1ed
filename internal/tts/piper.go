package tts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// PiperConfig holds configuration for the local Piper TTS backend.
type PiperConfig struct {
	BinPath   string // default: "piper"
	ModelPath string // required: path to the .onnx voice model
}

// Piper synthesizes speech using the Piper binary via subprocess.
// Voice and language are fixed by the model file, not runtime flags.
type Piper struct {
	cfg PiperConfig
}

// NewPiper creates a Piper backed by a local binary.
func NewPiper(cfg PiperConfig) *Piper {
	if cfg.BinPath == "" {
		cfg.BinPath = "piper"
	}
	return &Piper{cfg: cfg}
}

func (p *Piper) Name() string { return "local-piper" }

// Synthesize pipes text into Piper via stdin and returns the WAV output.
func (p *Piper) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if p.cfg.ModelPath == "" {
		return nil, fmt.Errorf("piper model path is required (set TTS_PIPER_MODEL)")
	}

	cmd := exec.CommandContext(ctx, p.cfg.BinPath, "--model", p.cfg.ModelPath, "--output-raw")

	cmd.Stdin = strings.NewReader(req.Input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("piper failed: %w (stderr: %s)", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("empty audio response")
	}

	return &Result{
		Audio:       stdout.Bytes(),
		ContentType: "audio/wav",
		Ext:         "wav",
	}, nil
}
