package config

const (
	defaultStagingDir = "~/.local/share/retake/staging"
	defaultLibraryDir = "~/narration"
	defaultLogDir     = "~/.local/share/retake/logs"

	defaultSimilarityThreshold = 0.85
	defaultMinWords            = 3
	defaultKeepPolicy          = "keep_last"
	defaultMetric              = "levenshtein"
	defaultMergeGapSeconds     = 0.25

	defaultAlignMinScore        = 0.5
	defaultAlignSearchWindow    = 8
	defaultAlignAmbiguityEps    = 0.02
	defaultAlignWindowSegments  = 3
	defaultTranscriberBinary    = "whisperx"
	defaultTranscriberModel     = "large-v3-turbo"
	defaultTranscriberTimeout   = 3600
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultHeartbeatInterval    = 15
	defaultHeartbeatTimeout     = 120
	defaultQueuePollInterval    = 5
	defaultErrorRetryInterval   = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
		},
		Detection: Detection{
			SimilarityThreshold: defaultSimilarityThreshold,
			MinWords:            defaultMinWords,
			KeepPolicy:          defaultKeepPolicy,
			Metric:              defaultMetric,
			MergeGapSeconds:     defaultMergeGapSeconds,
		},
		Alignment: Alignment{
			MinScore:         defaultAlignMinScore,
			SearchWindow:     defaultAlignSearchWindow,
			AmbiguityEpsilon: defaultAlignAmbiguityEps,
			WindowSegments:   defaultAlignWindowSegments,
		},
		Transcriber: Transcriber{
			Binary:         defaultTranscriberBinary,
			Model:          defaultTranscriberModel,
			TimeoutSeconds: defaultTranscriberTimeout,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
