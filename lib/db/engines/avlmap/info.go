package avlmap

import (
	"github.com/ValentinKolb/avlkv/lib/collections/hashmap"
	"github.com/ValentinKolb/avlkv/lib/db"
	"github.com/ValentinKolb/avlkv/lib/db/util"
)

// --------------------------------------------------------------------------
// KVDB Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

const supportedFeatures = db.FeatureSet |
	db.FeatureSetE |
	db.FeatureSetEIfUnset |
	db.FeatureGet |
	db.FeatureExpire |
	db.FeatureDelete |
	db.FeatureHas |
	db.FeatureSave |
	db.FeatureLoad |
	db.FeatureGarbageCollect |
	db.FeatureKeys |
	db.FeatureCount

// entryOverhead approximates the bytes per entry besides key and value
// (three indices plus bucket or node bookkeeping)
const entryOverhead = 64

// Info is the engine specific part of db.DatabaseInfo
type Info struct {
	CurrentWriteIndex uint64                 `json:"current_write_index"`
	Entries           int                    `json:"entries"`
	ShardCount        int                    `json:"shard_count"`
	ShardDistribution util.DistributionStats `json:"shard_distribution"`
	Buckets           hashmap.BucketStats    `json:"buckets"`
	ValueSizes        util.SizeSummary       `json:"value_sizes"`
	ExpireBacklog     int                    `json:"expire_backlog"`
	DeleteBacklog     int                    `json:"delete_backlog"`
	Info              string                 `json:"info"`
}

// GetInfo returns statistics about the database. Bucket statistics visit
// every entry, so this is O(n).
func (d *avlmapImpl) GetInfo() db.DatabaseInfo {
	meta := &Info{
		CurrentWriteIndex: d.currIndex.Load(),
		ShardCount:        len(d.shards),
		ValueSizes:        d.sizes.Summary(),
		Info:              "SizeBytes and value sizes are estimates based on sampled writes.",
	}

	keyBytes := 0
	shardSizes := make([]float64, len(d.shards))
	for i, s := range d.shards {
		t := s.mu.RLock()
		stats := s.data.Stats()
		for k := range s.data.Keys() {
			keyBytes += len(k)
		}
		shardSizes[i] = float64(s.data.Count())
		meta.Entries += s.data.Count()
		meta.ExpireBacklog += s.expireHeap.Len()
		meta.DeleteBacklog += s.deleteHeap.Len()
		s.mu.RUnlock(t)

		meta.Buckets.Buckets += stats.Buckets
		meta.Buckets.Empty += stats.Empty
		meta.Buckets.Single += stats.Single
		meta.Buckets.Trees += stats.Trees
		meta.Buckets.TreeKeys += stats.TreeKeys
		meta.Buckets.Largest = max(meta.Buckets.Largest, stats.Largest)
	}
	meta.ShardDistribution = util.NewDistributionStats(shardSizes)

	features := make([]db.Feature, 0, 12)
	for f := db.FeatureSet; f <= db.FeatureCount; f <<= 1 {
		if supportedFeatures&f != 0 {
			features = append(features, f)
		}
	}

	return db.DatabaseInfo{
		SizeBytes:         d.sizes.EstimateTotal(meta.Entries) + keyBytes + meta.Entries*entryOverhead,
		DbType:            db.ImplAVLMap,
		SupportedFeatures: features,
		Metadata:          meta,
	}
}

// SupportsFeature checks if this implementation supports all given features
func (d *avlmapImpl) SupportsFeature(feature db.Feature) bool {
	return supportedFeatures&feature == feature
}
