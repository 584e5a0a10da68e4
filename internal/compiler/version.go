package compiler

import (
	"context"
	"os/exec"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// VersionInfo describes this build and the engine it would run.
type VersionInfo struct {
	Module        string `json:"module"`
	GoVersion     string `json:"go_version"`
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	EngineCommand string `json:"engine_command,omitempty"`
	EngineVersion string `json:"engine_version,omitempty"`
	NodeVersion   string `json:"node_version,omitempty"`
	EngineError   string `json:"engine_error,omitempty"`
}

// probeTimeout bounds each --version call.
const probeTimeout = 10 * time.Second

// ProbeVersion gathers platform details and asks the engine (if found) and
// node for their versions. Missing tools are reported, not returned as errors.
func ProbeVersion(ctx context.Context, engine *ProcessEngine, engineErr error) VersionInfo {
	info := VersionInfo{
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.Module = bi.Main.Path
	}

	if engineErr != nil {
		info.EngineError = engineErr.Error()
	} else if engine != nil {
		info.EngineCommand = engine.String()
		info.EngineVersion = runVersion(ctx, engine.Command, append(append([]string{}, engine.Args...), "--version")...)
	}
	if node, err := lookPath("node"); err == nil {
		info.NodeVersion = runVersion(ctx, node, "--version")
	}
	return info
}

func runVersion(ctx context.Context, name string, args ...string) string {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
}
