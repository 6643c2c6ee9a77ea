package utils

import (
	"fmt"
	"math/rand"

	"github.com/selatan-haulage/driver-leave/backend/internal/domain"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateDriverID returns a roster ID in the DRV-xxxxxx form the admin
// table uses for new rows.
func GenerateDriverID() string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = base36[rand.Intn(len(base36))]
	}
	return "DRV-" + string(suffix)
}

// GenerateSubmissionID keys one committed booking for notification
// idempotency.
func GenerateSubmissionID() string {
	const hex = "0123456789abcdef"
	id := make([]byte, 16)
	for i := range id {
		id[i] = hex[rand.Intn(len(hex))]
	}
	return string(id)
}

var firstNames = []string{
	"Ahmad", "Azlan", "Faizal", "Hafiz", "Iskandar", "Khairul", "Megat", "Nazri",
	"Rahim", "Ramlan", "Syafiq", "Zulkifli", "Arun", "Ravi", "Wei Keong", "Chee Seng",
}
var lastNames = []string{
	"bin Abdullah", "bin Hassan", "bin Ismail", "bin Osman", "bin Yusof",
	"Kumar", "Subramaniam", "Tan", "Lim", "Wong",
}

func GenerateRandomDriverName() string {
	return firstNames[rand.Intn(len(firstNames))] + " " + lastNames[rand.Intn(len(lastNames))]
}

func GenerateRandomCategory() domain.DriverCategory {
	return domain.DriverCategories[rand.Intn(len(domain.DriverCategories))]
}

// GenerateRandomPhone returns a Malaysian mobile number in wire format.
func GenerateRandomPhone() string {
	return fmt.Sprintf("601%d%07d", 1+rand.Intn(8), rand.Intn(10000000))
}

func GenerateRandomDriver() *domain.Driver {
	return &domain.Driver{
		DriverID:    GenerateDriverID(),
		DisplayName: GenerateRandomDriverName(),
		Category:    GenerateRandomCategory(),
		Phone:       GenerateRandomPhone(),
		Active:      rand.Intn(10) > 0, // mostly active
	}
}
