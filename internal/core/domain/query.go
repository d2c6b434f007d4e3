package domain

// QueryType drives the routing decision between primary and replicas.
type QueryType string

const (
	QueryRead         QueryType = "READ"
	QueryWrite        QueryType = "WRITE"
	QueryVectorSearch QueryType = "VECTOR_SEARCH"
	QueryAnalytics    QueryType = "ANALYTICS"
)

// ReadsFromReplica reports whether this query type is eligible for
// replica routing. Everything else resolves to the primary.
func (qt QueryType) ReadsFromReplica() bool {
	switch qt {
	case QueryRead, QueryVectorSearch, QueryAnalytics:
		return true
	default:
		return false
	}
}
