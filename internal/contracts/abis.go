package contracts

// Names of the read-only ABIs the indexer calls into.
const (
	ERC20            = "ERC20"
	SmartVault       = "SmartVault"
	Task             = "Task"
	Relayer          = "Relayer"
	Authorizer       = "Authorizer"
	Aggregator       = "AggregatorV3"
	UniswapV2Factory = "UniswapV2Factory"
	UniswapV2Pair    = "UniswapV2Pair"
	UniswapV3Router  = "UniswapV3Router"
	UniswapV3Factory = "UniswapV3Factory"
	UniswapV3Pool    = "UniswapV3Pool"
)

var abiJSON = map[string]string{
	ERC20: `[
		{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
		{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
		{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
	]`,
	SmartVault: `[
		{"type":"function","name":"registry","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
		{"type":"function","name":"authorizer","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
		{"type":"function","name":"priceOracle","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}
	]`,
	Task: `[
		{"type":"function","name":"smartVault","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
		{"type":"function","name":"getTokensSource","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
		{"type":"function","name":"EXECUTION_TYPE","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]}
	]`,
	Relayer: `[
		{"type":"function","name":"defaultCollector","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}
	]`,
	Authorizer: `[
		{"type":"function","name":"getPermissionParams","stateMutability":"view",
		 "inputs":[{"name":"who","type":"address"},{"name":"where","type":"address"},{"name":"what","type":"bytes4"}],
		 "outputs":[{"name":"","type":"tuple[]","components":[{"name":"op","type":"uint8"},{"name":"value","type":"uint248"}]}]}
	]`,
	Aggregator: `[
		{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
		{"type":"function","name":"latestRoundData","stateMutability":"view","inputs":[],"outputs":[
			{"name":"roundId","type":"uint80"},{"name":"answer","type":"int256"},{"name":"startedAt","type":"uint256"},
			{"name":"updatedAt","type":"uint256"},{"name":"answeredInRound","type":"uint80"}]}
	]`,
	UniswapV2Factory: `[
		{"type":"function","name":"getPair","stateMutability":"view",
		 "inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"}],
		 "outputs":[{"name":"pair","type":"address"}]}
	]`,
	UniswapV2Pair: `[
		{"type":"function","name":"getReserves","stateMutability":"view","inputs":[],"outputs":[
			{"name":"reserve0","type":"uint112"},{"name":"reserve1","type":"uint112"},{"name":"blockTimestampLast","type":"uint32"}]}
	]`,
	UniswapV3Router: `[
		{"type":"function","name":"factory","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}
	]`,
	UniswapV3Factory: `[
		{"type":"function","name":"getPool","stateMutability":"view",
		 "inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"},{"name":"fee","type":"uint24"}],
		 "outputs":[{"name":"pool","type":"address"}]}
	]`,
	UniswapV3Pool: `[
		{"type":"function","name":"slot0","stateMutability":"view","inputs":[],"outputs":[
			{"name":"sqrtPriceX96","type":"uint160"},{"name":"tick","type":"int24"},{"name":"observationIndex","type":"uint16"},
			{"name":"observationCardinality","type":"uint16"},{"name":"observationCardinalityNext","type":"uint16"},
			{"name":"feeProtocol","type":"uint8"},{"name":"unlocked","type":"bool"}]}
	]`,
}
