package models

// SizeEstimate is the pre-flight size prediction for a compression
// request. Derived on demand, never persisted.
type SizeEstimate struct {
	EstimatedBytes int64 `json:"estimated_bytes"`
	// CompressionRatio is estimated bytes over the source file size;
	// 0 when the source size is unknown.
	CompressionRatio float64 `json:"compression_ratio"`
	BitrateMbps      float64 `json:"bitrate_mbps"`
}
