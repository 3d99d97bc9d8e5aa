package transport

import (
	"context"
	"fmt"

	blockinsight7000v1 "github.com/goodnatureofminers/blockinsight7000-proto/pkg/blockinsight7000/v1"
)

// ExplorerHandler implements ExplorerServiceServer on top of a tracker.
type ExplorerHandler struct {
	blockinsight7000v1.UnimplementedExplorerServiceServer
	tracker TrackerReader
}

// NewExplorerHandler returns an ExplorerHandler instance.
func NewExplorerHandler(tracker TrackerReader) blockinsight7000v1.ExplorerServiceServer {
	return &ExplorerHandler{tracker: tracker}
}

// Health reports server health and the tip the tracker is at.
func (h *ExplorerHandler) Health(_ context.Context, _ *blockinsight7000v1.HealthRequest) (*blockinsight7000v1.HealthResponse, error) {
	tip := h.tracker.Tip()
	return &blockinsight7000v1.HealthResponse{
		Status:      blockinsight7000v1.HealthStatus_HEALTH_STATUS_HEALTHY,
		Description: fmt.Sprintf("%s tip %d %s", h.tracker.Network(), tip.Height, tip.Hash),
	}, nil
}
