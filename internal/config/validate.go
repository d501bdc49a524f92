package config

import (
	"errors"
	"fmt"
)

// KeepFirst and KeepLast are the recognized duplicate keep policies.
const (
	KeepFirst = "keep_first"
	KeepLast  = "keep_last"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateAlignment(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDetection() error {
	if c.Detection.SimilarityThreshold <= 0 || c.Detection.SimilarityThreshold > 1 {
		return errors.New("detection.similarity_threshold must be in (0, 1]")
	}
	if c.Detection.MinWords < 1 {
		return errors.New("detection.min_words must be at least 1")
	}
	switch c.Detection.KeepPolicy {
	case KeepFirst, KeepLast:
	default:
		return fmt.Errorf("detection.keep_policy must be %q or %q, got %q", KeepFirst, KeepLast, c.Detection.KeepPolicy)
	}
	switch c.Detection.Metric {
	case "levenshtein", "token_overlap":
	default:
		return fmt.Errorf("detection.metric must be \"levenshtein\" or \"token_overlap\", got %q", c.Detection.Metric)
	}
	if c.Detection.MergeGapSeconds < 0 {
		return errors.New("detection.merge_gap_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateAlignment() error {
	if c.Alignment.MinScore < 0 || c.Alignment.MinScore > 1 {
		return errors.New("alignment.min_score must be between 0 and 1")
	}
	if c.Alignment.SearchWindow < 1 {
		return errors.New("alignment.search_window must be at least 1")
	}
	if c.Alignment.AmbiguityEpsilon < 0 || c.Alignment.AmbiguityEpsilon >= 1 {
		return errors.New("alignment.ambiguity_epsilon must be in [0, 1)")
	}
	if c.Alignment.WindowSegments < 1 {
		return errors.New("alignment.window_segments must be at least 1")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must exceed workflow.heartbeat_interval")
	}
	return nil
}
