package nakama

const (
	// RpcDecide is the Nakama RPC id clients call for a one-shot decision
	// over a replayed event log.
	RpcDecide = "janshi_decide"

	// RpcFindAdvisor is the Nakama RPC id clients call to find or create an
	// advisor match with capacity.
	RpcFindAdvisor = "janshi_find_advisor"

	// MatchNameAdvisor is the authoritative match handler name registered with Nakama.
	MatchNameAdvisor = "janshi_advisor"
)

// Op codes for client messages and server replies.
const (
	// Client -> Server
	OpEvents int64 = 1

	// Server -> Client
	OpDecision int64 = 101
	OpError    int64 = 102
)

const (
	// MatchLabelKeyOpen is the label key advisor matches expose for seat queries.
	MatchLabelKeyOpen = "open"
	// MatchLabelKeyKind tells advisor matches apart from anything else on the cluster.
	MatchLabelKeyKind = "kind"

	advisorKind = "advisor"

	// advisorCapacity bounds concurrent sessions per advisor match.
	advisorCapacity = 32
)
