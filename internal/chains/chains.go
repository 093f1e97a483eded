package chains

// Static translation tables between indexer network names, chain ids, and
// cross-chain messaging endpoint ids. The decoder depends on the exact shape
// of these tables; extending them is additive only.

// networkChainIDs maps webhook network names to chain ids.
var networkChainIDs = map[string]uint64{
	"ETH_MAINNET":   1,
	"ETH_SEPOLIA":   11155111,
	"ARB_MAINNET":   42161,
	"OPT_MAINNET":   10,
	"BASE_MAINNET":  8453,
	"MATIC_MAINNET": 137,
	"BNB_MAINNET":   56,
}

// endpointChainIDs maps messaging-layer endpoint ids to chain ids.
var endpointChainIDs = map[uint32]uint64{
	30101: 1,
	40161: 11155111,
	30110: 42161,
	30111: 10,
	30184: 8453,
	30109: 137,
	30102: 56,
}

// chainEndpointIDs is the inverse of endpointChainIDs.
var chainEndpointIDs = func() map[uint64]uint32 {
	out := make(map[uint64]uint32, len(endpointChainIDs))
	for eid, chainID := range endpointChainIDs {
		out[chainID] = eid
	}
	return out
}()

// ChainIDForNetwork resolves a network name to its chain id. Unknown
// networks resolve to 0 so their traffic is still queued and inspectable
// downstream instead of being dropped at the webhook.
func ChainIDForNetwork(network string) uint64 {
	return networkChainIDs[network]
}

// ChainIDForEndpoint resolves an endpoint id to a chain id.
func ChainIDForEndpoint(eid uint32) (uint64, bool) {
	chainID, ok := endpointChainIDs[eid]
	return chainID, ok
}

// EndpointForChain resolves a chain id back to its endpoint id.
func EndpointForChain(chainID uint64) (uint32, bool) {
	eid, ok := chainEndpointIDs[chainID]
	return eid, ok
}
