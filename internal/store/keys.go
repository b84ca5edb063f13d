package store

import "strings"

// Key builders for every key family the engine persists. Stringly-typed
// prefixes stay inside this file; the rest of the code calls constructors.
const (
	listKey         = "ASSET_LIST"
	detailIndexKey  = "DETAIL_INDEX"
	offlineQueueKey = "OFFLINE_QUEUE"

	detailByIDPrefix    = "DETAIL_BY_ID:"
	detailByTokenPrefix = "DETAIL_BY_TOKEN:"
	tokenToIDPrefix     = "TOKEN_TO_ID:"
	preloadDonePrefix   = "PRELOAD_DONE:"
	lastSyncPrefix      = "LAST_SYNC_AT:"
)

// ListKey is the key holding the last-known full asset list.
func ListKey() string { return listKey }

// DetailIndexKey holds the JSON map of detail key → last-touched timestamp.
func DetailIndexKey() string { return detailIndexKey }

// OfflineQueueKey holds the JSON array of queued write requests.
func OfflineQueueKey() string { return offlineQueueKey }

// DetailByIDKey keys an asset detail by its canonical id.
func DetailByIDKey(id string) string { return detailByIDPrefix + id }

// DetailByTokenKey keys an asset detail by its QR token.
func DetailByTokenKey(token string) string { return detailByTokenPrefix + token }

// TokenToIDKey maps a QR token to the canonical asset id.
func TokenToIDKey(token string) string { return tokenToIDPrefix + token }

// PreloadDoneKey marks that the one-time detail prefetch ran for a badge.
func PreloadDoneKey(badge string) string { return preloadDonePrefix + badge }

// LastSyncKey stamps the last completed initial sync for a badge.
func LastSyncKey(badge string) string { return lastSyncPrefix + badge }

// IsDetailKey reports whether key belongs to one of the detail families
// covered by TTL eviction.
func IsDetailKey(key string) bool {
	return strings.HasPrefix(key, detailByIDPrefix) || strings.HasPrefix(key, detailByTokenPrefix)
}

// TokenFromDetailKey extracts the token from a DETAIL_BY_TOKEN key, or ""
// if key is not of that family.
func TokenFromDetailKey(key string) string {
	if strings.HasPrefix(key, detailByTokenPrefix) {
		return strings.TrimPrefix(key, detailByTokenPrefix)
	}
	return ""
}
