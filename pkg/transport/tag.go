package transport

// MsgTag labels the type of content carried by a message. The set is
// closed; every message in the system carries exactly one of these tags.
//
// The numbering brackets the valid range with TagFirst/TagLast sentinels,
// following the MPI implementation's MsgTags enum
// (original_source/src/MsgTags.h): a tag is valid iff it lies strictly
// between the two sentinels.
type MsgTag int

const (
	TagFirst MsgTag = iota + 101

	// TagState carries a worker's [rank, state] pair to the controller.
	TagState

	// TagTaskResults carries an application result payload to the blackboard.
	TagTaskResults

	// TagLogMessage carries a formatted log line to the blackboard.
	TagLogMessage

	// TagErrorMessage carries a formatted error line to the blackboard.
	TagErrorMessage

	// TagInitializeTask tells a worker to initialize its adapter.
	TagInitializeTask

	// TagStartTask tells a worker to start its adapter.
	TagStartTask

	// TagRequestStopTask tells a worker to stop.
	TagRequestStopTask

	// TagRequestPauseTask tells a worker to pause.
	TagRequestPauseTask

	// TagRequestResumeTask tells a worker to resume.
	TagRequestResumeTask

	// TagRequestCmdLineArgs asks the controller for the job's configuration.
	TagRequestCmdLineArgs

	// TagRequestStop asks the controller to shut the whole job down.
	TagRequestStop

	// TagCmdLineArgs carries the configuration back to a requesting worker.
	TagCmdLineArgs

	// TagRequestConfig is reserved; the controller has no handler for it.
	TagRequestConfig

	// TagConfiguration is reserved, paired with TagRequestConfig.
	TagConfiguration

	// TagStopBlackboard tells the blackboard to stop.
	TagStopBlackboard

	// TagConfirmation confirms a request, currently only blackboard shutdown.
	TagConfirmation

	// TagData is reserved for adapter-specific data delivery.
	TagData

	TagLast
)

// IsValid reports whether t lies strictly between TagFirst and TagLast.
func (t MsgTag) IsValid() bool {
	return t > TagFirst && t < TagLast
}

// AnyTag matches any tag when probing or receiving.
const AnyTag MsgTag = -1

var tagNames = map[MsgTag]string{
	TagState:              "STATE",
	TagTaskResults:        "TASK_RESULTS",
	TagLogMessage:         "LOG_MESSAGE",
	TagErrorMessage:       "ERROR_MESSAGE",
	TagInitializeTask:     "INITIALIZE_TASK",
	TagStartTask:          "START_TASK",
	TagRequestStopTask:    "REQUEST_STOP_TASK",
	TagRequestPauseTask:   "REQUEST_PAUSE_TASK",
	TagRequestResumeTask:  "REQUEST_RESUME_TASK",
	TagRequestCmdLineArgs: "REQUEST_CMDLINE_ARGS",
	TagRequestStop:        "REQUEST_STOP",
	TagCmdLineArgs:        "CMDLINE_ARGS",
	TagRequestConfig:      "REQUEST_CONFIG",
	TagConfiguration:      "CONFIGURATION",
	TagStopBlackboard:     "STOP_BLACKBOARD",
	TagConfirmation:       "CONFIRMATION",
	TagData:               "DATA",
	AnyTag:                "ANY",
}

func (t MsgTag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}
