package models

import (
	"fmt"
	"strings"
)

// ServiceStatus is the lifecycle state of a ServiceRequest.
type ServiceStatus string

const (
	StatusPending     ServiceStatus = "PENDING"
	StatusOTPVerified ServiceStatus = "OTP_VERIFIED" // defined but never assigned by any transition
	StatusAccepted    ServiceStatus = "ACCEPTED"
	StatusInProgress  ServiceStatus = "IN_PROGRESS"
	StatusCompleted   ServiceStatus = "COMPLETED"
	StatusDelivered   ServiceStatus = "DELIVERED"
)

var serviceStatuses = []ServiceStatus{
	StatusPending, StatusOTPVerified, StatusAccepted,
	StatusInProgress, StatusCompleted, StatusDelivered,
}

// ParseServiceStatus validates a raw status value.
func ParseServiceStatus(raw string) (ServiceStatus, error) {
	s := ServiceStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range serviceStatuses {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown service status %q", raw)
}

// Label is the human readable form used in receipts and tracking views.
func (s ServiceStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusOTPVerified:
		return "OTP Verified"
	case StatusAccepted:
		return "Accepted"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	case StatusDelivered:
		return "Delivered"
	}
	return string(s)
}

// ServiceType is the kind of work requested.
type ServiceType string

const (
	ServiceGeneral    ServiceType = "GENERAL"
	ServiceOilChange  ServiceType = "OIL_CHANGE"
	ServiceBrake      ServiceType = "BRAKE_SERVICE"
	ServiceTyreChange ServiceType = "TYRE_CHANGE"
	ServiceAC         ServiceType = "AC_SERVICE"
	ServiceBattery    ServiceType = "BATTERY"
	ServiceWash       ServiceType = "WASH"
	ServiceFull       ServiceType = "FULL_SERVICE"
	ServiceRepair     ServiceType = "REPAIR"
	ServiceInspection ServiceType = "INSPECTION"
)

var serviceTypeLabels = map[ServiceType]string{
	ServiceGeneral:    "General Service",
	ServiceOilChange:  "Oil Change",
	ServiceBrake:      "Brake Service",
	ServiceTyreChange: "Tyre Change / Rotation",
	ServiceAC:         "AC Service",
	ServiceBattery:    "Battery Check / Replacement",
	ServiceWash:       "Car Wash & Detailing",
	ServiceFull:       "Full Service",
	ServiceRepair:     "Repair",
	ServiceInspection: "Inspection",
}

func ParseServiceType(raw string) (ServiceType, error) {
	t := ServiceType(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := serviceTypeLabels[t]; !ok {
		return "", fmt.Errorf("unknown service type %q", raw)
	}
	return t, nil
}

func (t ServiceType) Label() string {
	if label, ok := serviceTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// PaymentMethod is how a customer settled a request.
type PaymentMethod string

const (
	PaymentOnline  PaymentMethod = "ONLINE"
	PaymentOffline PaymentMethod = "OFFLINE"
	PaymentUPI     PaymentMethod = "UPI"
	PaymentCard    PaymentMethod = "CARD"
)

func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(raw)))
	switch m {
	case PaymentOnline, PaymentOffline, PaymentUPI, PaymentCard:
		return m, nil
	}
	return "", fmt.Errorf("unknown payment method %q", raw)
}

// PaymentStatus of a recorded payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// OTPPurpose scopes a one-time code so it cannot be used across flows.
type OTPPurpose string

const (
	PurposeCustomerLogin OTPPurpose = "customer_login"
	PurposeRegister      OTPPurpose = "register"
	PurposeVerifyVehicle OTPPurpose = "verify_vehicle"
)

func ParseOTPPurpose(raw string) (OTPPurpose, error) {
	p := OTPPurpose(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case PurposeCustomerLogin, PurposeRegister, PurposeVerifyVehicle:
		return p, nil
	}
	return "", fmt.Errorf("unknown otp purpose %q", raw)
}

// VehicleType classifies vehicles by wheel count.
type VehicleType string

const (
	VehicleTwoWheeler   VehicleType = "2W"
	VehicleThreeWheeler VehicleType = "3W"
	VehicleFourWheeler  VehicleType = "4W"
)

func ParseVehicleType(raw string) (VehicleType, error) {
	v := VehicleType(strings.ToUpper(strings.TrimSpace(raw)))
	switch v {
	case VehicleTwoWheeler, VehicleThreeWheeler, VehicleFourWheeler:
		return v, nil
	}
	return "", fmt.Errorf("unknown vehicle type %q", raw)
}

// Role is one of the two flat roles a Principal can hold.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
)
