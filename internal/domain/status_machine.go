package domain

import (
	"errors"
	"fmt"
)

// StatusEvent is a request to move a vehicle through its lifecycle.
type StatusEvent string

const (
	StatusEventAssign           StatusEvent = "assign"
	StatusEventUnassign         StatusEvent = "unassign"
	StatusEventEnterMaintenance StatusEvent = "enter_maintenance"
	StatusEventExitMaintenance  StatusEvent = "exit_maintenance"
)

// ErrInvalidTransition is returned for transitions absent from the table.
var ErrInvalidTransition = errors.New("invalid vehicle status transition")

// statusTransitions is the explicit transition table. Maintenance is entered
// from any state and left only via an explicit exit request; unassigning a
// vehicle under maintenance clears the reference without changing status.
// Unassign on an available vehicle is a defined no-op at this level so a
// dangling reference left by a partial failure can still be cleared; the
// coordinator rejects unassign requests for vehicles with no holder before
// consulting the table.
// Exit from maintenance is resolved in NextStatus because it depends on
// whether a driver still references the vehicle.
var statusTransitions = map[VehicleStatus]map[StatusEvent]VehicleStatus{
	VehicleStatusAvailable: {
		StatusEventAssign:           VehicleStatusAssigned,
		StatusEventUnassign:         VehicleStatusAvailable,
		StatusEventEnterMaintenance: VehicleStatusMaintenance,
	},
	VehicleStatusAssigned: {
		StatusEventAssign:           VehicleStatusAssigned,
		StatusEventUnassign:         VehicleStatusAvailable,
		StatusEventEnterMaintenance: VehicleStatusMaintenance,
	},
	VehicleStatusMaintenance: {
		StatusEventUnassign:         VehicleStatusMaintenance,
		StatusEventEnterMaintenance: VehicleStatusMaintenance,
	},
}

// NextStatus computes the status that results from applying event to
// current. hasHolder reports whether a driver currently references the
// vehicle; it is consulted only when leaving maintenance, where the
// suspended assignment (if any) is restored.
func NextStatus(current VehicleStatus, event StatusEvent, hasHolder bool) (VehicleStatus, error) {
	if current == VehicleStatusMaintenance && event == StatusEventExitMaintenance {
		if hasHolder {
			return VehicleStatusAssigned, nil
		}
		return VehicleStatusAvailable, nil
	}
	next, ok := statusTransitions[current][event]
	if !ok {
		return current, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, current)
	}
	return next, nil
}

// CanTransition reports whether applying event to current is defined.
func CanTransition(current VehicleStatus, event StatusEvent) bool {
	if current == VehicleStatusMaintenance && event == StatusEventExitMaintenance {
		return true
	}
	_, ok := statusTransitions[current][event]
	return ok
}
