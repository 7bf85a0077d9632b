package tools

import (
	"context"
	"encoding/json"

	"github.com/bankassist/banking-agent/internal/bank"
)

// BranchFinderTool searches the branch directory by city
type BranchFinderTool struct {
	store *bank.Store
}

// NewBranchFinderTool creates the branch finder tool
func NewBranchFinderTool(store *bank.Store) *BranchFinderTool {
	return &BranchFinderTool{store: store}
}

func (t *BranchFinderTool) Name() string {
	return "find_nearest_branch"
}

func (t *BranchFinderTool) Description() string {
	return "Find bank branches in a specific city with their details and services"
}

func (t *BranchFinderTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"city": {
				"type": "string",
				"description": "City name to search for branches"
			}
		},
		"required": ["city"]
	}`)
}

type branchFinderArgs struct {
	City string `json:"city"`
}

func (t *BranchFinderTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var finderArgs branchFinderArgs
	if err := json.Unmarshal(args, &finderArgs); err != nil {
		return failure("Failed to parse arguments: %v", err), nil
	}

	matched := t.store.BranchesInCity(finderArgs.City)
	if len(matched) == 0 {
		return failure("No branches found in %s. Available cities: Mumbai, Bangalore, Delhi", finderArgs.City), nil
	}

	return jsonResult(struct {
		Success     bool          `json:"success"`
		City        string        `json:"city"`
		BranchCount int           `json:"branch_count"`
		Branches    []bank.Branch `json:"branches"`
	}{Success: true, City: finderArgs.City, BranchCount: len(matched), Branches: matched})
}
