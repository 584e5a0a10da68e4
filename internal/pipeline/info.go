package pipeline

import (
	"github.com/jaypatrick/ad-blocking-sub007/internal/archive"
	"github.com/jaypatrick/ad-blocking-sub007/internal/compiler"
	"github.com/jaypatrick/ad-blocking-sub007/internal/settings"
	"github.com/jaypatrick/ad-blocking-sub007/internal/transformation"
)

// LayerStatus describes a settings layer's load status for display.
type LayerStatus struct {
	Level  string // "system", "user", "project"
	Path   string
	Loaded bool
	Err    string
}

// InfoResult holds environment information for the info command.
type InfoResult struct {
	Version         string
	ConfigPath      string
	ConfigErr       string
	Engine          string
	EngineErr       string
	ArchiveDir      string
	ArchiveSize     int64
	Settings        []LayerStatus
	Transformations []string
	Presets         []string
}

// Info gathers environment information. Every argument except version may be
// zero; the corresponding section is then left empty.
func Info(version string, layers []settings.Layer, configPath string, configErr error, engine *compiler.ProcessEngine, engineErr error, a *archive.Archive) *InfoResult {
	r := &InfoResult{
		Version:         version,
		ConfigPath:      configPath,
		Transformations: transformation.Strings(),
		Presets:         transformation.Presets(),
	}
	if configErr != nil {
		r.ConfigErr = configErr.Error()
	}

	if engine != nil {
		r.Engine = engine.String()
	}
	if engineErr != nil {
		r.EngineErr = engineErr.Error()
	}

	if a != nil {
		r.ArchiveDir = a.Path()
		if size, err := a.Size(); err == nil {
			r.ArchiveSize = size
		}
	}

	for _, l := range layers {
		ls := LayerStatus{Level: string(l.Level), Path: l.Path, Loaded: l.Loaded}
		if l.Err != nil {
			ls.Err = l.Err.Error()
		}
		r.Settings = append(r.Settings, ls)
	}

	return r
}
