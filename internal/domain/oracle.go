package domain

import "context"

// OracleRequestType distinguishes the two outbound request kinds the engine
// issues to the oracle collaborator.
type OracleRequestType string

const (
	OracleRequestKickoff OracleRequestType = "kickoff"
	OracleRequestResult  OracleRequestType = "result"
)

// OracleClient constructs outbound requests to the oracle collaborator. The
// answers arrive later as inbound webhook deliveries; the engine never blocks
// on a request.
type OracleClient interface {
	RequestKickoffTime(ctx context.Context, id FixtureID) (requestID string, err error)
	RequestResult(ctx context.Context, id FixtureID) (requestID string, err error)
}
