// Package testutil provides programmable fakes for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/prsweep/prsweep/pkg/types"
)

// FakePRSource implements triage.PRSource with scripted responses and
// call accounting. Configure the maps before use; keys are "repo#number".
type FakePRSource struct {
	PullRequests    map[string]*types.PullRequest
	PullRequestErrs map[string]error
	ReviewStates    map[string]*types.ReviewState
	ReviewStateErrs map[string]error
	SearchResults   []*types.PullRequest
	SearchErr       error
	Login           string
	LoginErr        error

	mu               sync.Mutex
	pullRequestCalls map[string]int
	loginCalls       int
}

// PullRequest returns the scripted PR or error for repo#number.
func (f *FakePRSource) PullRequest(_ context.Context, repo string, number int) (*types.PullRequest, error) {
	key := fmt.Sprintf("%s#%d", repo, number)
	f.mu.Lock()
	if f.pullRequestCalls == nil {
		f.pullRequestCalls = make(map[string]int)
	}
	f.pullRequestCalls[key]++
	f.mu.Unlock()

	if err, ok := f.PullRequestErrs[key]; ok {
		return nil, err
	}
	if pr, ok := f.PullRequests[key]; ok {
		return pr, nil
	}
	return nil, fmt.Errorf("testutil: no scripted PR for %s", key)
}

// SearchReviewRequested returns the scripted search results.
func (f *FakePRSource) SearchReviewRequested(context.Context, string, int) ([]*types.PullRequest, error) {
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	return f.SearchResults, nil
}

// ReviewState returns the scripted review state or error for repo#number.
func (f *FakePRSource) ReviewState(_ context.Context, repo string, number int) (*types.ReviewState, error) {
	key := fmt.Sprintf("%s#%d", repo, number)
	if err, ok := f.ReviewStateErrs[key]; ok {
		return nil, err
	}
	if state, ok := f.ReviewStates[key]; ok {
		return state, nil
	}
	return nil, fmt.Errorf("testutil: no scripted review state for %s", key)
}

// CurrentLogin returns the scripted login or error.
func (f *FakePRSource) CurrentLogin(context.Context) (string, error) {
	f.mu.Lock()
	f.loginCalls++
	f.mu.Unlock()
	if f.LoginErr != nil {
		return "", f.LoginErr
	}
	return f.Login, nil
}

// PullRequestCalls reports how many times repo#number was resolved.
func (f *FakePRSource) PullRequestCalls(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pullRequestCalls[key]
}

// LoginCalls reports how many times the identity query ran.
func (f *FakePRSource) LoginCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls
}
