package fund

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// RunState is the JSON run manifest: the last run and the latest outcome of
// every fund.
type RunState struct {
	LastRunID string               `json:"last_run_id"`
	LastRunAt time.Time            `json:"last_run_at"`
	Funds     map[string]FundState `json:"funds"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// FundState is the latest outcome of one fund.
type FundState struct {
	RunID        string    `json:"run_id"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	Periods      int       `json:"periods"`
	Observations int       `json:"observations"`
	Regressions  int       `json:"regressions"`
	Files        []string  `json:"files,omitempty"`
	LastSuccess  time.Time `json:"last_success,omitempty"`
}

// LoadState reads the run manifest from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*RunState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &RunState{Funds: map[string]FundState{}}, nil
		}
		return nil, err
	}
	var state RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.Funds == nil {
		state.Funds = map[string]FundState{}
	}
	return &state, nil
}

// SaveState writes the run manifest to a JSON file.
func SaveState(filePath string, state *RunState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
