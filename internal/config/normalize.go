package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDetection()
	c.normalizeAlignment()
	c.normalizeTranscriber()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDetection() {
	c.Detection.KeepPolicy = strings.ToLower(strings.TrimSpace(c.Detection.KeepPolicy))
	if c.Detection.KeepPolicy == "" {
		c.Detection.KeepPolicy = defaultKeepPolicy
	}
	c.Detection.Metric = strings.ToLower(strings.TrimSpace(c.Detection.Metric))
	if c.Detection.Metric == "" {
		c.Detection.Metric = defaultMetric
	}
	if c.Detection.SimilarityThreshold == 0 {
		c.Detection.SimilarityThreshold = defaultSimilarityThreshold
	}
	if c.Detection.MinWords == 0 {
		c.Detection.MinWords = defaultMinWords
	}
	if c.Detection.MergeGapSeconds == 0 {
		c.Detection.MergeGapSeconds = defaultMergeGapSeconds
	}
}

func (c *Config) normalizeAlignment() {
	if c.Alignment.MinScore == 0 {
		c.Alignment.MinScore = defaultAlignMinScore
	}
	if c.Alignment.SearchWindow == 0 {
		c.Alignment.SearchWindow = defaultAlignSearchWindow
	}
	if c.Alignment.AmbiguityEpsilon == 0 {
		c.Alignment.AmbiguityEpsilon = defaultAlignAmbiguityEps
	}
	if c.Alignment.WindowSegments == 0 {
		c.Alignment.WindowSegments = defaultAlignWindowSegments
	}
}

func (c *Config) normalizeTranscriber() {
	c.Transcriber.Binary = strings.TrimSpace(c.Transcriber.Binary)
	if c.Transcriber.Binary == "" {
		c.Transcriber.Binary = defaultTranscriberBinary
	}
	c.Transcriber.Model = strings.TrimSpace(c.Transcriber.Model)
	if c.Transcriber.Model == "" {
		c.Transcriber.Model = defaultTranscriberModel
	}
	c.Transcriber.Language = strings.TrimSpace(c.Transcriber.Language)
	if c.Transcriber.TimeoutSeconds <= 0 {
		c.Transcriber.TimeoutSeconds = defaultTranscriberTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		c.Workflow.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		c.Workflow.HeartbeatTimeout = defaultHeartbeatTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
