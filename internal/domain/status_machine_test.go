package domain

import (
	"errors"
	"testing"
)

func TestNextStatusAssignUnassign(t *testing.T) {
	next, err := NextStatus(VehicleStatusAvailable, StatusEventAssign, false)
	if err != nil {
		t.Fatalf("NextStatus: %v", err)
	}
	if next != VehicleStatusAssigned {
		t.Fatalf("expected assigned, got %s", next)
	}

	next, err = NextStatus(VehicleStatusAssigned, StatusEventUnassign, false)
	if err != nil {
		t.Fatalf("NextStatus: %v", err)
	}
	if next != VehicleStatusAvailable {
		t.Fatalf("expected available, got %s", next)
	}
}

func TestNextStatusRejectsUndefinedTransitions(t *testing.T) {
	if _, err := NextStatus(VehicleStatusMaintenance, StatusEventAssign, false); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected assign on maintenance rejected, got %v", err)
	}
	if CanTransition(VehicleStatusAvailable, StatusEventExitMaintenance) {
		t.Fatalf("expected exit_maintenance on available not allowed")
	}
}

func TestNextStatusMaintenanceKeepsSuspendedAssignment(t *testing.T) {
	next, err := NextStatus(VehicleStatusAssigned, StatusEventEnterMaintenance, true)
	if err != nil {
		t.Fatalf("NextStatus: %v", err)
	}
	if next != VehicleStatusMaintenance {
		t.Fatalf("expected maintenance, got %s", next)
	}

	// Leaving maintenance restores the assignment when the driver still
	// references the vehicle.
	next, err = NextStatus(VehicleStatusMaintenance, StatusEventExitMaintenance, true)
	if err != nil {
		t.Fatalf("NextStatus: %v", err)
	}
	if next != VehicleStatusAssigned {
		t.Fatalf("expected assigned after exit with holder, got %s", next)
	}

	next, err = NextStatus(VehicleStatusMaintenance, StatusEventExitMaintenance, false)
	if err != nil {
		t.Fatalf("NextStatus: %v", err)
	}
	if next != VehicleStatusAvailable {
		t.Fatalf("expected available after exit without holder, got %s", next)
	}

	// Unassigning under maintenance clears the reference but never the status.
	next, err = NextStatus(VehicleStatusMaintenance, StatusEventUnassign, false)
	if err != nil {
		t.Fatalf("NextStatus: %v", err)
	}
	if next != VehicleStatusMaintenance {
		t.Fatalf("expected maintenance preserved, got %s", next)
	}
}
