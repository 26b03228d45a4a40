package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func names(contracts []PlanContract) []string {
	out := make([]string, len(contracts))
	for i, c := range contracts {
		out[i] = c.Name
	}
	return out
}

func TestGetDeploymentOrder(t *testing.T) {
	ordered, err := GetDeploymentOrder([]PlanContract{
		{Name: "BlogProxy", Dependencies: []string{"BlogPlatform"}},
		{Name: "JsonProxy", Dependencies: []string{"JsonStorageV1", "BlogProxy"}},
		{Name: "BlogPlatform"},
		{Name: "JsonStorageV1"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"BlogPlatform", "JsonStorageV1", "BlogProxy", "JsonProxy"}, names(ordered))
}

func TestGetDeploymentOrderErrors(t *testing.T) {
	_, err := GetDeploymentOrder([]PlanContract{
		{Name: "A", Dependencies: []string{"B"}},
		{Name: "B", Dependencies: []string{"A"}},
	})
	require.ErrorContains(t, err, "circular")

	_, err = GetDeploymentOrder([]PlanContract{{Name: "A", Dependencies: []string{"Missing"}}})
	require.ErrorContains(t, err, "unknown contract Missing")
}

func TestResolveArgs(t *testing.T) {
	deployments := []DeploymentRecord{
		{Name: "BlogPlatform", Network: "megaeth-testnet", Address: "0x1111111111111111111111111111111111111111"},
	}
	calldata := func(artifact, method string) ([]byte, error) {
		if artifact == "BlogPlatform" && method == "initialize" {
			return []byte{0x81, 0x29, 0xfc, 0x1c}, nil
		}
		return nil, errors.New("unknown method")
	}

	resolved, err := ResolveArgs(
		[]string{"${BlogPlatform}", "calldata:BlogPlatform.initialize()", "42"},
		deployments, "megaeth-testnet", calldata,
	)
	require.NoError(t, err)
	require.Equal(t, []string{"0x1111111111111111111111111111111111111111", "0x8129fc1c", "42"}, resolved)

	_, err = ResolveArgs([]string{"${Missing}"}, deployments, "megaeth-testnet", calldata)
	require.ErrorContains(t, err, "Missing")

	_, err = ResolveArgs([]string{"calldata:BlogPlatform"}, deployments, "megaeth-testnet", calldata)
	require.ErrorContains(t, err, "invalid calldata reference")

	_, err = ResolveArgs([]string{"calldata:BlogPlatform.draw"}, deployments, "megaeth-testnet", calldata)
	require.ErrorContains(t, err, "unknown method")
}

func TestLoadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "contracts": [
    {"name": "JsonStorageV1"},
    {
      "name": "json-storage",
      "artifact": "MyProxy",
      "dependencies": ["JsonStorageV1"],
      "constructor_args": ["${JsonStorageV1}", "calldata:JsonStorageV1.initialize"],
      "post_deployment": {
        "actions": [{"method": "setJson", "abi": "JsonStorageV1", "args": ["{}", "init"]}]
      }
    }
  ]
}`), 0644))

	plan, err := LoadPlan(path)
	require.NoError(t, err)
	require.Len(t, plan.Contracts, 2)
	require.Equal(t, "JsonStorageV1", plan.Contracts[0].Artifact)
	require.Equal(t, "MyProxy", plan.Contracts[1].Artifact)
	require.Equal(t, "setJson", plan.Contracts[1].PostDeployment.Actions[0].Method)

	require.NoError(t, os.WriteFile(path, []byte(`{"contracts":[{"name":"A"},{"name":"A"}]}`), 0644))
	_, err = LoadPlan(path)
	require.ErrorContains(t, err, "listed twice")
}

func TestValidateDependencies(t *testing.T) {
	contract := PlanContract{Name: "proxy", Dependencies: []string{"logic"}}
	require.Error(t, ValidateDependencies(contract, nil, "development"))
	require.NoError(t, ValidateDependencies(contract, []DeploymentRecord{{Name: "logic", Network: "development"}}, "development"))
}
