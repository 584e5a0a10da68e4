package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"

	"github.com/jaypatrick/ad-blocking-sub007/internal/compiler"
	"github.com/jaypatrick/ad-blocking-sub007/internal/config"
)

func TestRunTransitionHookAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, configPath := setup(t, testConfigJSON)
	engine := NewMockEngine(ctrl)
	engine.EXPECT().Invoke(gomock.Any(), gomock.Any()).Times(0)

	o, _ := newOrchestrator(t, engine)
	var seen []compiler.State
	o.OnTransition = func(s compiler.State) error {
		seen = append(seen, s)
		if s == compiler.StateValidated {
			return errors.New("maintenance window")
		}
		return nil
	}

	result := o.Run(context.Background(), Options{ConfigPath: configPath})
	if result.Success {
		t.Fatal("run succeeded, want abort")
	}
	if !errors.Is(result.Err, ErrHookAborted) {
		t.Errorf("Err = %v, want ErrHookAborted", result.Err)
	}
	if !strings.Contains(result.ErrorMessage, "maintenance window") {
		t.Errorf("ErrorMessage = %q, want hook error", result.ErrorMessage)
	}
	if result.State != compiler.StateAborted {
		t.Errorf("State = %s, want ABORTED", result.State)
	}
	if last := seen[len(seen)-1]; last != compiler.StateAborted {
		t.Errorf("last transition = %s, want ABORTED", last)
	}
}

func TestRunTransitionHookIgnoredAtDone(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir, configPath := setup(t, testConfigJSON)
	engine := NewMockEngine(ctrl)
	engine.EXPECT().Invoke(gomock.Any(), gomock.Any()).DoAndReturn(copyEngine(t)).Times(1)

	o, _ := newOrchestrator(t, engine)
	o.OnTransition = func(s compiler.State) error {
		if s == compiler.StateDone {
			return errors.New("too late")
		}
		return nil
	}

	result := o.Run(context.Background(), Options{ConfigPath: configPath, OutputPath: filepath.Join(dir, "out.txt")})
	if !result.Success {
		t.Fatalf("run failed: %s", result.ErrorMessage)
	}
	if result.State != compiler.StateDone {
		t.Errorf("State = %s, want DONE", result.State)
	}
}

func TestRunValidationHookAddsIssue(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, configPath := setup(t, testConfigJSON)
	engine := NewMockEngine(ctrl)
	engine.EXPECT().Invoke(gomock.Any(), gomock.Any()).Times(0)

	o, _ := newOrchestrator(t, engine)
	o.OnValidation = func(vr *config.ValidationResult) error {
		vr.Errors = append(vr.Errors, config.Issue{Field: "name", Message: "name is reserved"})
		return nil
	}

	result := o.Run(context.Background(), Options{ConfigPath: configPath})
	if !errors.Is(result.Err, config.ErrValidationFailed) {
		t.Errorf("Err = %v, want ErrValidationFailed", result.Err)
	}
	if result.Validation == nil || len(result.Validation.Errors) != 1 {
		t.Errorf("Validation = %+v, want the hook's issue", result.Validation)
	}
}

func TestRunValidationHookAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, configPath := setup(t, testConfigJSON)
	engine := NewMockEngine(ctrl)
	engine.EXPECT().Invoke(gomock.Any(), gomock.Any()).Times(0)

	o, _ := newOrchestrator(t, engine)
	o.OnValidation = func(*config.ValidationResult) error { return errors.New("policy check unavailable") }

	result := o.Run(context.Background(), Options{ConfigPath: configPath})
	if !errors.Is(result.Err, ErrHookAborted) {
		t.Errorf("Err = %v, want ErrHookAborted", result.Err)
	}
}

// touchingEngine rewrites the local source while "compiling", then behaves
// like copyEngine.
func touchingEngine(t *testing.T, source string) func(context.Context, compiler.Invocation) (*compiler.Execution, error) {
	next := copyEngine(t)
	return func(ctx context.Context, inv compiler.Invocation) (*compiler.Execution, error) {
		if err := os.WriteFile(source, []byte("||late.example.com^\n"), 0644); err != nil {
			t.Fatal(err)
		}
		return next(ctx, inv)
	}
}

func TestRunVerifySourcesDetectsChange(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir, configPath := setup(t, testConfigJSON)
	source := filepath.Join(dir, "local.txt")
	engine := NewMockEngine(ctrl)
	engine.EXPECT().Invoke(gomock.Any(), gomock.Any()).DoAndReturn(touchingEngine(t, source)).Times(1)

	o, _ := newOrchestrator(t, engine)
	result := o.Run(context.Background(), Options{
		ConfigPath:    configPath,
		OutputPath:    filepath.Join(dir, "out.txt"),
		VerifySources: true,
	})
	if result.Success {
		t.Fatal("run succeeded, want abort")
	}
	if !errors.Is(result.Err, ErrSourcesChanged) {
		t.Errorf("Err = %v, want ErrSourcesChanged", result.Err)
	}
	if !strings.Contains(result.ErrorMessage, source) {
		t.Errorf("ErrorMessage = %q, want it to name %s", result.ErrorMessage, source)
	}
}

func TestRunWithoutVerifySourcesIgnoresChange(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir, configPath := setup(t, testConfigJSON)
	engine := NewMockEngine(ctrl)
	engine.EXPECT().Invoke(gomock.Any(), gomock.Any()).DoAndReturn(touchingEngine(t, filepath.Join(dir, "local.txt"))).Times(1)

	o, _ := newOrchestrator(t, engine)
	result := o.Run(context.Background(), Options{ConfigPath: configPath, OutputPath: filepath.Join(dir, "out.txt")})
	if !result.Success {
		t.Fatalf("run failed: %s", result.ErrorMessage)
	}
	if result.RuleCount != 1 {
		t.Errorf("RuleCount = %d, want 1", result.RuleCount)
	}
}

func TestRunVerifySourcesUnchanged(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir, configPath := setup(t, testConfigJSON)
	engine := NewMockEngine(ctrl)
	engine.EXPECT().Invoke(gomock.Any(), gomock.Any()).DoAndReturn(copyEngine(t)).Times(1)

	o, _ := newOrchestrator(t, engine)
	result := o.Run(context.Background(), Options{
		ConfigPath:    configPath,
		OutputPath:    filepath.Join(dir, "out.txt"),
		VerifySources: true,
	})
	if !result.Success {
		t.Fatalf("run failed: %s", result.ErrorMessage)
	}
}

func TestRunLogsComponent(t *testing.T) {
	_, configPath := setup(t, `{"name": "", "sources": []}`)

	var buf bytes.Buffer
	o := New(nil, zerolog.New(&buf))
	o.Run(context.Background(), Options{ConfigPath: configPath})

	if !strings.Contains(buf.String(), `"component":"pipeline"`) {
		t.Errorf("log = %s, want component=pipeline", buf.String())
	}
}
