package fifo

import (
	"github.com/ValentinKolb/avlkv/lib/db"
	"github.com/ValentinKolb/avlkv/lib/db/util"
)

const supportedFeatures = db.FeatureSet |
	db.FeatureSetE |
	db.FeatureSetEIfUnset |
	db.FeatureGet |
	db.FeatureExpire |
	db.FeatureDelete |
	db.FeatureHas |
	db.FeatureSave |
	db.FeatureLoad |
	db.FeatureKeys |
	db.FeatureCount

// per entry bookkeeping: tree node, queue element and indices
const entryOverhead = 112

// Info is the engine specific part of db.DatabaseInfo
type Info struct {
	CurrentWriteIndex uint64           `json:"current_write_index"`
	Entries           int              `json:"entries"`
	Capacity          int              `json:"capacity"`
	Evictions         uint64           `json:"evictions"`
	OldestKey         string           `json:"oldest_key,omitempty"`
	ValueSizes        util.SizeSummary `json:"value_sizes"`
}

func (d *fifoImpl) GetInfo() db.DatabaseInfo {
	meta := &Info{
		CurrentWriteIndex: d.currIndex.Load(),
		Capacity:          d.capacity,
		Evictions:         d.evictions.Load(),
		ValueSizes:        d.sizes.Summary(),
	}

	keyBytes := 0
	t := d.mu.RLock()
	meta.Entries = d.data.Count()
	for k := range d.data.Oldest() {
		meta.OldestKey = k
		break
	}
	for k := range d.data.Keys() {
		keyBytes += len(k)
	}
	d.mu.RUnlock(t)

	var features []db.Feature
	for f := db.FeatureSet; f <= db.FeatureCount; f <<= 1 {
		if supportedFeatures&f != 0 {
			features = append(features, f)
		}
	}

	return db.DatabaseInfo{
		SizeBytes:         d.sizes.EstimateTotal(meta.Entries) + keyBytes + meta.Entries*entryOverhead,
		DbType:            db.ImplFIFO,
		SupportedFeatures: features,
		Metadata:          meta,
	}
}

// SupportsFeature checks if this implementation supports all given features
func (d *fifoImpl) SupportsFeature(feature db.Feature) bool {
	return supportedFeatures&feature == feature
}
