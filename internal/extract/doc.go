// Package extract turns fetched LinkedIn pages into JobRecords. Target
// markup ships in several generations at once, so every field is resolved
// through an ordered chain of sources: selector variants first, embedded
// JSON islands second, referrer metadata last. Misses fall through; nothing
// in this package aborts a page.
package extract
