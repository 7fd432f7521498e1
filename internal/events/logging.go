package events

import (
	"context"

	"go.uber.org/zap"
)

// RegisterAuditLogger subscribes a handler that logs every fleet event,
// giving operators a trail of relationship and status changes.
func RegisterAuditLogger(dispatcher Dispatcher, logger *zap.Logger) {
	handler := func(_ context.Context, event Event) error {
		logger.Info("fleet event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.String("vehicle_id", event.VehicleID),
			zap.String("driver_id", event.DriverID),
		)
		return nil
	}
	for _, eventType := range []EventType{
		EventVehicleAssigned,
		EventVehicleUnassigned,
		EventVehicleStatusChanged,
		EventMaintenanceScheduled,
		EventVehicleDeleted,
		EventDriverDeleted,
	} {
		dispatcher.Subscribe(eventType, handler)
	}
}
