package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"
)

type DeploymentsSuite struct {
	suite.Suite
	cfg *Config
}

func (s *DeploymentsSuite) SetupTest() {
	s.cfg = &Config{
		Network:   "megaeth-testnet",
		Workspace: filepath.Join(s.T().TempDir(), "ws"),
		Networks: map[string]Network{
			"megaeth-testnet": {
				Host:      "https://carrot.megaeth.com/rpc",
				Contracts: map[string]string{"nft": "0x90b48E97826d8869E77deB5Be259FBb1A783d7f5"},
			},
		},
	}
}

func (s *DeploymentsSuite) TestEmptyWorkspace() {
	records, err := LoadDeploymentRecords(s.cfg.DeploymentsPath())
	s.Require().NoError(err)
	s.Require().Empty(records)
}

func (s *DeploymentsSuite) TestSaveReplacesSameNetwork() {
	path := s.cfg.DeploymentsPath()
	first := DeploymentRecord{
		Name:       "blog",
		Network:    "megaeth-testnet",
		Artifact:   "MyProxy",
		Address:    "0x1111111111111111111111111111111111111111",
		DeployedAt: time.Unix(1700000000, 0).UTC(),
	}
	s.Require().NoError(SaveDeployment(path, first))

	other := first
	other.Network = "development"
	other.Address = "0x3333333333333333333333333333333333333333"
	s.Require().NoError(SaveDeployment(path, other))

	second := first
	second.Address = "0x2222222222222222222222222222222222222222"
	s.Require().NoError(SaveDeployment(path, second))

	records, err := LoadDeploymentRecords(path)
	s.Require().NoError(err)
	s.Require().Len(records, 2)

	record, ok := FindDeployment(records, "blog", "MEGAETH-TESTNET")
	s.Require().True(ok)
	s.Require().Equal(second.Address, record.Address)
	s.Require().True(record.DeployedAt.Equal(first.DeployedAt))
}

func (s *DeploymentsSuite) TestResolveAddressOrder() {
	override := "0x4444444444444444444444444444444444444444"
	addr, err := s.cfg.ResolveAddress("nft", override)
	s.Require().NoError(err)
	s.Require().Equal(common.HexToAddress(override), addr)

	_, err = s.cfg.ResolveAddress("nft", "not-an-address")
	s.Require().Error(err)

	addr, err = s.cfg.ResolveAddress("nft", "")
	s.Require().NoError(err)
	s.Require().Equal(common.HexToAddress("0x90b48E97826d8869E77deB5Be259FBb1A783d7f5"), addr)

	s.Require().NoError(SaveDeployment(s.cfg.DeploymentsPath(), DeploymentRecord{
		Name:    "nft",
		Network: "megaeth-testnet",
		Address: "0x5555555555555555555555555555555555555555",
	}))
	addr, err = s.cfg.ResolveAddress("nft", "")
	s.Require().NoError(err)
	s.Require().Equal(common.HexToAddress("0x5555555555555555555555555555555555555555"), addr)

	_, err = s.cfg.ResolveAddress("json-storage", "")
	s.Require().ErrorContains(err, "no address")
}

func TestDeployments(t *testing.T) {
	suite.Run(t, new(DeploymentsSuite))
}
