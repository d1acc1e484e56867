package search

import (
	"encoding/json"
	"errors"
	"kycflow/bizerror"
	"kycflow/client/es"
	"kycflow/domain/approval"
	"kycflow/indices"
	"kycflow/session"
	"strings"
)

var (
	SearchIndexedWorkflowsFunc = SearchIndexedWorkflows

	searchFields = []string{"applicantName^3", "applicantEmail^3", "fullChain", "lastRemarks", "currentRoleName", "branchName"}
)

const maxSearchHits = 100

// SearchIndexedWorkflows runs a full-text query against the index, the branch scope of the actor
// becomes a filter of the query
func SearchIndexedWorkflows(q *approval.SearchQuery, s *session.Session) ([]approval.WorkflowSummary, error) {
	if !s.Authenticated() {
		return nil, bizerror.ErrUnauthenticated
	}
	keyword := strings.TrimSpace(q.Q)
	if keyword == "" {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("search keyword is required")}
	}

	/*
		{
			"query": {
				"bool": {
					"must": [{"multi_match": {"query": "jane", "fields": ["applicantName^3", ...]}}],
					"filter": [
						{"bool": {"should": [
							{"term": {"branchId": "5"}},
							{"bool": {"must_not": {"exists": {"field": "branchId"}}}}
						]}}
					]
				}
			},
			"size": 100
		}
	*/
	filters := make([]es.H, 0, 1)
	if f := branchFilter(s, q); f != nil {
		filters = append(filters, f)
	}
	must := []es.H{{"multi_match": es.H{"query": keyword, "fields": searchFields, "operator": "AND"}}}
	root := es.H{"bool": es.H{"must": must, "filter": filters}}
	sorts := []interface{}{"_score", es.H{"createTime": es.H{"order": "desc"}}}

	r, err := es.SearchFunc(s.Context, indices.WorkflowIndexName, es.H{"size": maxSearchHits, "query": root, "sort": sorts})
	if err != nil {
		return nil, err
	}

	result := make([]approval.WorkflowSummary, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		doc := indices.WorkflowDocument{}
		if err := json.Unmarshal([]byte(hit.Source), &doc); err != nil {
			return nil, err
		}
		result = append(result, doc.WorkflowSummary)
	}
	return result, nil
}

// branchFilter mirrors the rule of the relational queries: global viewers see everything or the branch
// they ask for, branch staff see their branch plus head office records, others see head office records only
func branchFilter(s *session.Session, q *approval.SearchQuery) es.H {
	headOffice := es.H{"bool": es.H{"must_not": es.H{"exists": es.H{"field": "branchId"}}}}
	if s.Perms.HasGlobalViewRole() {
		if q.BranchID != nil {
			return es.H{"term": es.H{"branchId": q.BranchID.String()}}
		}
		return nil
	}
	if s.HasBranch() {
		return es.H{"bool": es.H{"should": []es.H{{"term": es.H{"branchId": s.BranchID.String()}}, headOffice},
			"minimum_should_match": 1}}
	}
	return headOffice
}
