package budget

import (
	"errors"
	"time"

	"foyer-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// MonthKey derives the "YYYY-MM" bucket for an instant, interpreted in the
// configured civil timezone. Transaction attachment and summary reads must
// both go through this function or they silently disagree around month
// boundaries.
func MonthKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01")
}

// EnsureBudget returns the budget id for (sessionID, month), creating a
// zero-opening-balance row when none exists. A duplicate-key error on create
// means another request won the race; the existing row is re-read and
// returned.
func EnsureBudget(db *gorm.DB, sessionID, month string) (string, error) {
	var budget models.Budget
	err := db.Where("session_id = ? AND month = ?", sessionID, month).First(&budget).Error
	if err == nil {
		return budget.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fiber.NewError(fiber.StatusInternalServerError, "Could not resolve budget")
	}

	budget = models.Budget{SessionID: sessionID, Month: month}
	if err := db.Create(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing models.Budget
			if err := db.Where("session_id = ? AND month = ?", sessionID, month).
				First(&existing).Error; err != nil {
				return "", fiber.NewError(fiber.StatusInternalServerError, "Could not resolve budget")
			}
			return existing.ID, nil
		}
		return "", fiber.NewError(fiber.StatusInternalServerError, "Could not create budget")
	}
	return budget.ID, nil
}
