package redis

import (
	"encoding/json"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/MrSnakeDoc/gieok/internal/domain"
)

const (
	// KeyPrefixCache is the prefix for cached list views
	KeyPrefixCache = "gieok:cache:"
	// KeyPrefixGeneration is the prefix for per-view generation counters
	KeyPrefixGeneration = "gieok:gen:"
	// ChannelPrefixChanges is the pub/sub channel prefix of the change feed
	ChannelPrefixChanges = "gieok:changes:"
)

// GenerationKey returns the counter bumped on every invalidation of view
func GenerationKey(tenant string, view domain.View) string {
	return KeyPrefixGeneration + tenant + ":" + string(view)
}

// ViewPattern matches every cached list of view, all generations included
func ViewPattern(tenant string, view domain.View) string {
	return KeyPrefixCache + tenant + ":" + string(view) + ":*"
}

// ListKey returns the key of one cached list result
func ListKey(tenant string, view domain.View, gen int64, filterHash string) string {
	return KeyPrefixCache + tenant + ":" + string(view) + ":" + strconv.FormatInt(gen, 10) + ":" + filterHash
}

// ChangesChannel returns the pub/sub channel carrying tenant's change events
func ChangesChannel(tenant string) string {
	return ChannelPrefixChanges + tenant
}

// FilterHash fingerprints a filter value. Filters are normalized by the
// caller so equal filters hash equal.
func FilterHash(filter any) (string, error) {
	raw, err := json.Marshal(filter)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(xxhash.Sum64(raw), 16), nil
}
