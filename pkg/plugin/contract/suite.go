package contract

import (
	"fmt"

	domainPlugin "github.com/jcttech/specstack/pkg/domain/plugin"
	infraPlugin "github.com/jcttech/specstack/pkg/plugin"
)

// ContractSuite runs all contract assertions against a plugin binary.
type ContractSuite struct {
	loader *infraPlugin.Loader
}

// NewContractSuite creates a new contract suite.
func NewContractSuite() *ContractSuite {
	return &ContractSuite{
		loader: infraPlugin.NewLoader(),
	}
}

// SuiteResult aggregates results from running the full contract suite.
type SuiteResult struct {
	Results []Result
	Passed  int
	Failed  int
}

// RunWithProvider runs the contract suite against an already-loaded provider instance.
func (s *ContractSuite) RunWithProvider(provider domainPlugin.Provider) *SuiteResult {
	assertions := []func(domainPlugin.Provider) Result{
		AssertInitSuccess,
		AssertInitWithBadConfig,
		AssertListOpenIssues,
		AssertViewMissingIssue,
		AssertCreateRoundTrip,
		AssertCloseWithComment,
	}

	sr := &SuiteResult{}
	for _, assert := range assertions {
		result := assert(provider)
		sr.Results = append(sr.Results, result)
		if result.Passed {
			sr.Passed++
		} else {
			sr.Failed++
		}
	}
	return sr
}

// RunBinary loads a plugin binary and runs the full contract suite.
func (s *ContractSuite) RunBinary(path string) (*SuiteResult, error) {
	defer s.loader.Cleanup()

	provider, err := s.loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load plugin: %w", err)
	}

	return s.RunWithProvider(provider), nil
}
