package model

import (
	"time"
)

// Struct to hold a single closed pull request
type PullRequest struct {
	Title      *string    `json:"title,omitempty"`     // Title (may be absent)
	URL        *string    `json:"url,omitempty"`       // html_url
	Author     *string    `json:"author,omitempty"`    // Author login
	MergedAt   *time.Time `json:"merged_at,omitempty"` // nil when closed without merging
	Labels     []Label    `json:"labels,omitempty"`    // Labels
	Base       string     `json:"base"`                // Target branch
	Head       string     `json:"head"`                // Source branch
	Repository string     `json:"repository"`          // owner/name
}

// Struct to hold a label attached to a pull request
type Label struct {
	Name string `json:"name"`
}

// HasLabel reports whether the PR carries a label with exactly this name.
func (pr PullRequest) HasLabel(name string) bool {
	for _, l := range pr.Labels {
		if l.Name == name {
			return true
		}
	}
	return false
}

// IsMerged reports whether the PR has a merge timestamp.
func (pr PullRequest) IsMerged() bool {
	return pr.MergedAt != nil
}

// Struct to hold the announcement post used as the report boundary
type AnnouncementPost struct {
	Title     string    // Post title
	Published time.Time // Publication date
	URL       string    // ap_id of the post
}

// Struct to hold the pull requests of a single author
type AuthorGroup struct {
	Author       string        `json:"author"`
	PullRequests []PullRequest `json:"pull_requests"`
}

// Count returns the number of pull requests in the group.
func (g AuthorGroup) Count() int {
	return len(g.PullRequests)
}

// Struct to hold the ordered author groups of one run
type Report struct {
	Groups []AuthorGroup `json:"groups"`
}

// Which side of the pull request the branch filter applies to
type BranchField string

const (
	BranchFieldBase BranchField = "base"
	BranchFieldHead BranchField = "head"
)

// Struct for setting the branch filter of the pull request query
type BranchFilter struct {
	Field BranchField
	Name  string
}

// Which posts the forum feed query covers
type Scope string

const (
	ScopeLocal Scope = "local"
	ScopeAll   Scope = "all"
)
