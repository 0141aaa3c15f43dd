package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/form-autofill/internal/types"
)

// LoadProfile reads and validates a candidate profile JSON file.
func LoadProfile(path string) (*types.CandidateProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file %s: %w", path, err)
	}

	var profile types.CandidateProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile JSON: %w", err)
	}

	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}

	return &profile, nil
}

// LoadJobContext reads a job posting text file into a JobContext. An empty
// path returns nil; the job context is optional.
func LoadJobContext(path, postingURL string) (*types.JobContext, error) {
	if path == "" && postingURL == "" {
		return nil, nil
	}

	job := &types.JobContext{PostingURL: postingURL}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read job file %s: %w", path, err)
		}
		job.PostingText = strings.TrimSpace(string(data))
	}

	return job, nil
}
