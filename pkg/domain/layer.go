package domain

import "context"

// LayerTimeInfo is the resolved temporal metadata of a time-aware layer.
type LayerTimeInfo struct {
	FullTimeExtent            TimeExtent        `json:"full_time_extent"`
	TimeStepInterval          *TimeStepInterval `json:"time_step_interval,omitempty"`
	SupportsInstantaneousTime bool              `json:"supports_instantaneous_time"`
}

// TimeAwareLayer is the collaborator the slider initializes from. How the
// metadata is resolved (remote services, sub-layer inspection) is up to the
// implementation; calls may block and must honor ctx cancellation.
type TimeAwareLayer interface {
	TimeInfo(ctx context.Context) (LayerTimeInfo, error)
}

// TimeAwareLayerFunc adapts a function to TimeAwareLayer.
type TimeAwareLayerFunc func(ctx context.Context) (LayerTimeInfo, error)

// TimeInfo implements TimeAwareLayer.
func (f TimeAwareLayerFunc) TimeInfo(ctx context.Context) (LayerTimeInfo, error) { return f(ctx) }
