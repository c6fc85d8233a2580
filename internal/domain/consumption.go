package domain

import (
	"fmt"
	"strings"
)

type ConsumptionMethod string

const (
	ConsumptionMethodDineIn   ConsumptionMethod = "DINE_IN"
	ConsumptionMethodTakeaway ConsumptionMethod = "TAKEAWAY"
)

// ParseConsumptionMethod is case-insensitive; the storefront passes the
// method around as a query parameter and casing is not reliable.
func ParseConsumptionMethod(s string) (ConsumptionMethod, error) {
	switch strings.ToUpper(s) {
	case string(ConsumptionMethodDineIn):
		return ConsumptionMethodDineIn, nil
	case string(ConsumptionMethodTakeaway):
		return ConsumptionMethodTakeaway, nil
	default:
		return "", fmt.Errorf("invalid consumption method %q", s)
	}
}

func (m ConsumptionMethod) String() string {
	return string(m)
}
