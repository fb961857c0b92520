// Package metrics defines the types and constants used for metric collection
// and reporting across the keelson backend.
package metrics

// Policy defines the aggregation policy for metric values. It determines how
// multiple values for the same metric are combined over a reporting window.
type Policy int

const (
	Policy_None      Policy = iota // No specific policy; the reporter may pick a default.
	Policy_Set                     // Instantaneous value; the last reported value wins.
	Policy_Sum                     // Cumulative value, summing all reported values.
	Policy_Avg                     // Average of all reported values.
	Policy_Max                     // Maximum reported value.
	Policy_Min                     // Minimum reported value.
	Policy_Stopwatch               // Timing metric measuring event durations.
)

// Value represents a metric value as a float64.
type Value float64

// Dimension represents metric dimensions as key-value pairs, providing
// context such as pool name or eviction reason.
type Dimension map[string]string

// Group related constants, prefixed with Group.
const (
	// GroupKeelson is the group name for keelson framework metrics.
	GroupKeelson = "keelson"
)

// Metric related constants.
const (
	// NamePoolAcquireTotal: total successful lease acquisitions.
	// group:keelson dimension:pool
	NamePoolAcquireTotal = "pool_acquire_total"

	// NamePoolAcquireTimeoutTotal: acquisitions that failed on admission deadline.
	// group:keelson dimension:pool
	NamePoolAcquireTimeoutTotal = "pool_acquire_timeout_total"

	// NamePoolAcquireWaitMS: time spent between Acquire entry and lease hand-out.
	// group:keelson dimension:pool
	NamePoolAcquireWaitMS = "pool_acquire_wait_ms"

	// NamePoolItemCreateTotal: connections created by the pool factory.
	// group:keelson dimension:pool
	NamePoolItemCreateTotal = "pool_item_create_total"

	// NamePoolItemDestroyTotal: connections destroyed, labelled with the reason
	// (invalid, evicted, shutdown).
	// group:keelson dimension:pool,reason
	NamePoolItemDestroyTotal = "pool_item_destroy_total"

	// NamePoolValidationFailTotal: health verifier failures, labelled with the
	// stage that detected them (acquire, return, healthcheck).
	// group:keelson dimension:pool,stage
	NamePoolValidationFailTotal = "pool_validation_fail_total"

	// NamePoolSizeCurrent: current pool size (available + active).
	// group:keelson dimension:pool
	NamePoolSizeCurrent = "pool_size_current"

	// NamePoolActiveCurrent: leases currently outstanding.
	// group:keelson dimension:pool
	NamePoolActiveCurrent = "pool_active_current"

	// NameObjPoolCreateTotal: objects created by an instrumented object pool
	// because the pool was empty.
	// group:keelson dimension:poolname
	NameObjPoolCreateTotal = "objpool_create_total"
)

// Dimension related definitions, prefixed with Dim.
const (
	// DimPool is the dimension for resource pool name.
	// group:keelson
	DimPool = "pool"
	// DimReason is the dimension for a destroy reason.
	// group:keelson
	DimReason = "reason"
	// DimStage is the dimension for the validation stage.
	// group:keelson
	DimStage = "stage"
	// DimPoolName is the dimension for an object pool name.
	// group:keelson
	DimPoolName = "poolname"
)

// Metrics is the base interface for all metric types.
type Metrics interface {
	// Name returns the metric name.
	Name() string
	// Group returns the metric group for categorization.
	Group() string
	// Policy returns the aggregation policy for this metric.
	Policy() Policy
}
