package omega

// Holding register map of the CS8DPT.  Floats occupy two consecutive
// registers, as do the 32 bit mode words.
const (
	regCurrentInputValue  = 640
	regRunMode            = 576
	regCurrentSetpoint1   = 544
	regCurrentSetpoint2   = 548
	regAbsoluteSetpoint1  = 738
	regAbsoluteSetpoint2  = 742
	regAlarmHighSetpoint1 = 1282
	regAlarmLowSetpoint1  = 1286
)

// run modes of the controller state machine
const (
	ModeLoad = iota
	ModeIdle
	ModeInputAdjust
	ModeControlAdjust
	ModeModify
	ModeWait
	ModeRun
	ModeStandby
	ModeStop
	ModePause
	ModeFault
	ModeShutdown
	ModeAutotune
)

var runModeNames = map[uint32]string{
	ModeLoad:          "load",
	ModeIdle:          "idle",
	ModeInputAdjust:   "input-adjust",
	ModeControlAdjust: "control-adjust",
	ModeModify:        "modify",
	ModeWait:          "wait",
	ModeRun:           "run",
	ModeStandby:       "standby",
	ModeStop:          "stop",
	ModePause:         "pause",
	ModeFault:         "fault",
	ModeShutdown:      "shutdown",
	ModeAutotune:      "autotune",
}
