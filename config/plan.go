package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const calldataPrefix = "calldata:"

type PlanAction struct {
	Method      string   `json:"method"`
	Args        []string `json:"args"`
	ABI         string   `json:"abi,omitempty"`
	Description string   `json:"description,omitempty"`
}

type PostDeployment struct {
	Initialize *PlanAction  `json:"initialize,omitempty"`
	Actions    []PlanAction `json:"actions,omitempty"`
}

// PlanContract is one deployment step. ConstructorArgs may reference earlier
// steps as ${Name} and encoded calls as calldata:<Artifact>.<method>.
type PlanContract struct {
	Name            string          `json:"name"`
	Artifact        string          `json:"artifact"`
	ConstructorArgs []string        `json:"constructor_args"`
	Dependencies    []string        `json:"dependencies,omitempty"`
	PostDeployment  *PostDeployment `json:"post_deployment,omitempty"`
}

type Plan struct {
	Contracts []PlanContract `json:"contracts"`
}

// CalldataFunc encodes a no-argument call of method on artifact.
type CalldataFunc func(artifact, method string) ([]byte, error)

// LoadPlan reads and parses a deployment plan file
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}

	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}

	seen := make(map[string]bool)
	for i, c := range plan.Contracts {
		if c.Name == "" {
			return nil, fmt.Errorf("plan contract %d has no name", i)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("plan contract %s listed twice", c.Name)
		}
		seen[c.Name] = true
		if c.Artifact == "" {
			plan.Contracts[i].Artifact = c.Name
		}
	}

	return &plan, nil
}

// GetDeploymentOrder returns contracts sorted by dependency order
func GetDeploymentOrder(contracts []PlanContract) ([]PlanContract, error) {
	known := make(map[string]bool, len(contracts))
	for _, c := range contracts {
		known[c.Name] = true
	}
	for _, c := range contracts {
		for _, dep := range c.Dependencies {
			if !known[dep] {
				return nil, fmt.Errorf("contract %s depends on unknown contract %s", c.Name, dep)
			}
		}
	}

	var ordered []PlanContract
	deployed := make(map[string]bool)

	for len(ordered) < len(contracts) {
		progress := false

		for _, contract := range contracts {
			if deployed[contract.Name] {
				continue
			}

			canDeploy := true
			for _, dep := range contract.Dependencies {
				if !deployed[dep] {
					canDeploy = false
					break
				}
			}

			if canDeploy {
				ordered = append(ordered, contract)
				deployed[contract.Name] = true
				progress = true
			}
		}

		if !progress {
			return nil, fmt.Errorf("circular dependency detected")
		}
	}

	return ordered, nil
}

// ResolveArgs replaces ${Name} references with deployed addresses and
// calldata: references with hex encoded calls.
func ResolveArgs(args []string, deployments []DeploymentRecord, network string, calldata CalldataFunc) ([]string, error) {
	resolved := make([]string, len(args))

	for i, arg := range args {
		switch {
		case strings.HasPrefix(arg, "${") && strings.HasSuffix(arg, "}"):
			name := arg[2 : len(arg)-1]
			record, ok := FindDeployment(deployments, name, network)
			if !ok {
				return nil, fmt.Errorf("dependency contract %s not found in deployments", name)
			}
			resolved[i] = record.Address

		case strings.HasPrefix(arg, calldataPrefix):
			ref := strings.TrimPrefix(arg, calldataPrefix)
			artifact, method, ok := strings.Cut(ref, ".")
			if !ok || artifact == "" || method == "" {
				return nil, fmt.Errorf("invalid calldata reference %q, want calldata:<Artifact>.<method>", arg)
			}
			if calldata == nil {
				return nil, fmt.Errorf("calldata reference %q cannot be resolved here", arg)
			}
			data, err := calldata(artifact, strings.TrimSuffix(method, "()"))
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s: %w", ref, err)
			}
			resolved[i] = fmt.Sprintf("0x%x", data)

		default:
			resolved[i] = arg
		}
	}

	return resolved, nil
}

// ValidateDependencies checks if all required dependencies are deployed
func ValidateDependencies(contract PlanContract, deployments []DeploymentRecord, network string) error {
	for _, dep := range contract.Dependencies {
		if _, ok := FindDeployment(deployments, dep, network); !ok {
			return fmt.Errorf("required dependency %s is not deployed", dep)
		}
	}
	return nil
}
