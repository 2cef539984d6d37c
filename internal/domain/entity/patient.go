package entity

import (
	"strings"
	"time"
)

// Sexo del paciente.
const (
	SexMale    = "MALE"
	SexFemale  = "FEMALE"
	SexOther   = "OTHER"
	SexUnknown = "UNKNOWN"
)

// Patient es un paciente identificado por su PID (cédula tailandesa), clave natural.
type Patient struct {
	ID             string
	PID            string
	FullName       string
	BirthDate      *time.Time
	Sex            string
	CardIssuePlace string
	CardIssuedDate *time.Time
	CardExpiryDate *time.Time
	AddressText    string
	AddressLine1   string
	District       string
	Province       string
	PostalCode     string
	UpdatedAt      time.Time
}

// NormalizeSex acepta M/MALE, F/FEMALE, OTHER; todo lo demás es UNKNOWN.
func NormalizeSex(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "M", "MALE":
		return SexMale
	case "F", "FEMALE":
		return SexFemale
	case "OTHER":
		return SexOther
	}
	return SexUnknown
}
