// internal/models/staff.go
package models

type StaffRecord struct {
	StaffID   string `json:"staff_id"`
	StaffName string `json:"staff_name"`
}
