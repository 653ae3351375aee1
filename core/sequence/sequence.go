// Package sequence runs ordered lists of engine commands: the fixed demo
// sequence and user scripts.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"io"

	"smpctl/core/engine"
	"smpctl/logger"
)

// Executor sends one raw command and returns its result whatever the
// status. *engine.Client implements it.
type Executor interface {
	Exec(ctx context.Context, raw string) (*engine.Result, error)
}

// Step is one command of a sequence. Raw, when set, is sent verbatim.
// Run, when set, replaces the engine call entirely.
type Step struct {
	Name    string
	Raw     string
	Command string
	Args    []engine.Arg
	Run     func(ctx context.Context) error
}

// Encode returns the wire form of the step.
func (s Step) Encode() (string, error) {
	if s.Raw != "" {
		return s.Raw, nil
	}
	return engine.NewCommand(s.Command, s.Args...).Encode()
}

// Label names the step in logs and reports.
func (s Step) Label() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Command != "":
		return s.Command
	case s.Raw != "":
		if cmd, err := engine.ParseCommand(s.Raw); err == nil {
			return cmd.Name
		}
		return s.Raw
	default:
		return "step"
	}
}

// DemoSteps is the fixed demo sequence, sent as literal wire strings.
func DemoSteps(driver, filename string) []Step {
	return []Step{
		{Name: "getdrivers", Raw: "command=getdrivers"},
		{Name: "init", Raw: "command=init;driver=" + driver},
		{Name: "show", Raw: "command=show"},
		{Name: "loadfile", Raw: "command=loadfile;filename=" + filename},
		{Name: "start", Raw: "command=start"},
		{Name: "wait", Raw: "command=wait"},
		{Name: "exit", Raw: "command=exit"},
	}
}

// Script is a named sequence with cleanup steps.
type Script struct {
	Name        string
	StopOnError bool
	Steps       []Step
	Finally     []Step
}

// StepResult is the outcome of one step. Result is nil when the command was
// never executed by the engine.
type StepResult struct {
	Step   Step
	Result *engine.Result
	Err    error
}

// Failed reports whether the step did not succeed.
func (sr StepResult) Failed() bool {
	if sr.Err != nil {
		return true
	}
	return sr.Result != nil && !sr.Result.OK()
}

// Report summarizes a run.
type Report struct {
	Executed int
	Failed   int
	Results  []StepResult
}

// Runner executes scripts, printing each response on its own line.
type Runner struct {
	Client      Executor
	Out         io.Writer
	StopOnError bool
}

// Run executes the script's steps in order, then its Finally steps. Failed
// steps are printed and skipped unless StopOnError is set on the runner or
// the script. Finally steps always run on a fresh context. The returned
// error is the one that ended the main steps early, if any.
func (r *Runner) Run(ctx context.Context, script Script) (*Report, error) {
	report := &Report{}
	stopOnError := r.StopOnError || script.StopOnError

	var runErr error
	for _, step := range script.Steps {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		sr := r.runStep(ctx, step)
		report.add(sr)

		if sr.Err != nil && isFatal(sr.Err) {
			runErr = sr.Err
			break
		}
		if stopOnError && sr.Failed() {
			runErr = stepError(sr)
			break
		}
	}

	if len(script.Finally) > 0 {
		cleanup := context.Background()
		for _, step := range script.Finally {
			sr := r.runStep(cleanup, step)
			report.add(sr)
			if sr.Err != nil && errors.Is(sr.Err, engine.ErrClosed) {
				break
			}
		}
	}

	logger.Info("sequence finished",
		logger.String("script", script.Name),
		logger.Int("executed", report.Executed),
		logger.Int("failed", report.Failed))
	return report, runErr
}

func (r *Runner) runStep(ctx context.Context, step Step) StepResult {
	sr := StepResult{Step: step}

	if step.Run != nil {
		sr.Err = step.Run(ctx)
		r.print("")
		if sr.Err != nil {
			r.print(sr.Err.Error())
		}
		return sr
	}

	raw, err := step.Encode()
	if err != nil {
		sr.Err = err
		r.print(err.Error())
		return sr
	}

	res, err := r.Client.Exec(ctx, raw)
	if err != nil {
		sr.Err = err
		r.print(err.Error())
		return sr
	}
	sr.Result = res
	r.print(res.Text)

	if !res.OK() {
		logger.Warn("step failed",
			logger.String("step", step.Label()),
			logger.Int32("status", int32(res.Status)),
			logger.String("message", res.Text))
	}
	return sr
}

func (r *Runner) print(text string) {
	if r.Out != nil {
		fmt.Fprintf(r.Out, "\n%s", text)
	}
}

func (rep *Report) add(sr StepResult) {
	rep.Results = append(rep.Results, sr)
	rep.Executed++
	if sr.Failed() {
		rep.Failed++
	}
}

// isFatal reports errors after which no further command can succeed.
func isFatal(err error) bool {
	return errors.Is(err, engine.ErrClosed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func stepError(sr StepResult) error {
	if sr.Err != nil {
		return fmt.Errorf("step %s: %w", sr.Step.Label(), sr.Err)
	}
	return fmt.Errorf("step %s: %w", sr.Step.Label(), sr.Result.Err())
}
