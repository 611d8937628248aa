package constants

import "os"

const (
	DefaultIndexDir     = "./out"
	DefaultAddr         = ":8080"
	DefaultDynamoRegion = "localhost"
	DefaultDynamoTable  = "klavier-performances"
	DefaultLogLevel     = "info"
)

// Performances are written as <id>.dat next to the overview and the
// score map.
const (
	OverviewFile = "overview.dat"
	ScoresFile   = "scores.dat"
)

// BatchGetLimit bounds the ids of one DynamoDB lookup.
const BatchGetLimit = 10

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetIndexDir() string {
	return getenv("KLAVIER_INDEX_PATH", DefaultIndexDir)
}

func GetAddr() string {
	return getenv("KLAVIER_ADDR", DefaultAddr)
}

// GetDynamoEndpoint is empty unless the DynamoDB store is enabled.
func GetDynamoEndpoint() string {
	return os.Getenv("KLAVIER_DYNAMO_ENDPOINT")
}

func GetDynamoRegion() string {
	return getenv("KLAVIER_DYNAMO_REGION", DefaultDynamoRegion)
}

func GetDynamoTable() string {
	return getenv("KLAVIER_DYNAMO_TABLE", DefaultDynamoTable)
}

func GetLogLevel() string {
	return getenv("KLAVIER_LOG_LEVEL", DefaultLogLevel)
}
