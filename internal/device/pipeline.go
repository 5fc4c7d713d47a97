// internal/device/pipeline.go
package device

import (
	"log/slog"
	"time"
)

// edges are the per-pass transitions found by input sampling.
type edges struct {
	lowPressureRise bool
	lowPressureFall bool
	runRise         bool
}

// engine runs the logic pipeline over one State.
// Not safe for concurrent use; the Controller serializes passes.
type engine struct {
	st  *State
	tm  Timing
	log *slog.Logger

	runFeedbackCheck bool

	elapsed time.Duration
	edge    edges
}

type stage struct {
	name string
	run  func(*engine)
}

// pipeline is the fixed stage order of one pass.
// Each stage may only read flags written by an earlier stage of the same pass.
var pipeline = []stage{
	{"power-recovery", (*engine).powerRecovery},
	{"pressure-refresh", (*engine).pressureRefresh},
	{"input-sampling", (*engine).sampleInputs},
	{"run-stop-output", (*engine).deriveRunStop},
	{"run-feedback", (*engine).applyRunFeedback},
	{"heat", (*engine).heat},
	{"mode", (*engine).mode},
	{"overload", (*engine).overload},
	{"low-pressure", (*engine).lowPressure},
	{"comm-fault", (*engine).commFault},
	{"run-request-receive", (*engine).runRequestReceive},
	{"run-request-send", (*engine).runRequestSend},
	{"connectivity", (*engine).connectivity},
	{"standby-election", (*engine).standbyElection},
	{"standby-start-alarm", (*engine).standbyStartAlarm},
}

// StageNames lists the pipeline order.
func StageNames() []string {
	out := make([]string, 0, len(pipeline))
	for _, s := range pipeline {
		out = append(out, s.name)
	}
	return out
}

// pass executes every stage once. elapsed is the logic time that passed since
// the previous pass (zero for command-triggered passes).
func (e *engine) pass(elapsed time.Duration) {
	e.elapsed = elapsed
	e.edge = edges{}

	for _, s := range pipeline {
		s.run(e)
	}
}

// ---- small stages ----

func (e *engine) pressureRefresh() {
	e.st.LowPressureTx = e.st.LowPressureIn
}

func (e *engine) sampleInputs() {
	s := e.st

	e.edge.lowPressureRise = s.LowPressureIn && !s.OldLowPressure
	e.edge.lowPressureFall = !s.LowPressureIn && s.OldLowPressure
	e.edge.runRise = s.Run && !s.OldRun

	s.OldLowPressure = s.LowPressureIn
	s.OldRun = s.Run

	// reset button is a held pulse
	if !s.ResetButton {
		s.ResetCounter = 0
		return
	}
	s.ResetCounter += e.elapsed
	if s.ResetCounter >= e.tm.ResetHold {
		s.ResetButton = false
		s.ResetCounter = 0
	}
}

func (e *engine) deriveRunStop() {
	e.st.RunLamp = e.st.Run
	e.st.StopLamp = !e.st.Run
}

func (e *engine) applyRunFeedback() {
	s := e.st
	if !e.runFeedbackCheck {
		return
	}
	if s.RunLamp && !s.RunFeedbackIn {
		s.RunLamp = false
		s.StopLamp = true
	}
}

func (e *engine) heat() {
	s := e.st

	if !s.Heat || s.Run {
		s.HeatingCounter = 0
		s.HeaterOn = false
		return
	}

	if s.HeatingCounter < e.tm.HeatingOn {
		s.HeatingCounter += e.elapsed
	}
	s.HeaterOn = s.HeatingCounter >= e.tm.HeatingOn
}

func (e *engine) mode() {
	s := e.st
	if s.Mode {
		return
	}

	// manual units take no part in redundancy
	if s.StandbyLamp {
		e.log.Info("standby released", "device", s.ID, "reason", "manual mode")
	}
	s.StandbyLamp = false
	s.RequestFlag = false
	s.RunRequest = false
	s.FailoverStart = false
}

// standbyStartAlarm raises standby_start while a fail-over started pump keeps running.
func (e *engine) standbyStartAlarm() {
	s := e.st
	if !s.Run {
		s.FailoverStart = false
	}
	s.StandbyStart = s.Run && s.FailoverStart
}
