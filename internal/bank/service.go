package bank

import (
	"errors"
	"fmt"

	"foyer-backend/internal/access"
	"foyer-backend/internal/audit"
	"foyer-backend/internal/database"
	"foyer-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateBankInput struct {
	SessionID      string   `json:"sessionId"`
	Label          string   `json:"label"`
	BankName       string   `json:"bankName"`
	InitialBalance *string  `json:"initialBalance"` // decimal string, e.g. "1500.00"
	IsArchived     *bool    `json:"isArchived"`
	MemberIDs      []string `json:"memberIds"`
}

type UpdateBankInput struct {
	Label          *string `json:"label"`
	BankName       *string `json:"bankName"`
	InitialBalance *string `json:"initialBalance"`
	IsArchived     *bool   `json:"isArchived"`
}

type AddMembersInput struct {
	MemberID  *string  `json:"memberId"`
	MemberIDs []string `json:"memberIds"`
}

// AccountWithMembers is the list/create response shape: the account plus its
// member associations.
type AccountWithMembers struct {
	models.BankAccount
	Members []models.Member `json:"members"`
}

// RemoveMemberResult reports whether the cascade deleted the account itself.
type RemoveMemberResult struct {
	Success        bool `json:"success"`
	AccountDeleted bool `json:"accountDeleted"`
}

func parseBalance(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fiber.NewError(fiber.StatusBadRequest, "initialBalance must be a decimal string like \"1500.00\"")
	}
	return d, nil
}

func accountMembers(accountID string) ([]models.Member, error) {
	var members []models.Member
	err := database.DB.
		Joins("JOIN bank_account_members ON bank_account_members.member_id = members.id").
		Where("bank_account_members.bank_account_id = ?", accountID).
		Preload("User").
		Find(&members).Error
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load account members")
	}
	return members, nil
}

func assertMembersInSession(sessionID string, memberIDs []string) error {
	if len(memberIDs) == 0 {
		return nil
	}
	var count int64
	if err := database.DB.Model(&models.Member{}).
		Where("id IN ? AND session_id = ?", memberIDs, sessionID).
		Count(&count).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not check members")
	}
	if count != int64(len(memberIDs)) {
		return fiber.NewError(fiber.StatusBadRequest, "Some 'memberIds' are not in this session")
	}
	return nil
}

// ListBySession returns the session's accounts with their member
// associations. Readable by any participant.
func ListBySession(requesterUserID, sessionID string) ([]AccountWithMembers, error) {
	if _, err := access.ResolveRole(database.DB, sessionID, requesterUserID); err != nil {
		return nil, err
	}

	var accounts []models.BankAccount
	if err := database.DB.
		Where("session_id = ?", sessionID).
		Order("created_at desc").
		Find(&accounts).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not list bank accounts")
	}

	resp := make([]AccountWithMembers, 0, len(accounts))
	for _, acc := range accounts {
		members, err := accountMembers(acc.ID)
		if err != nil {
			return nil, err
		}
		resp = append(resp, AccountWithMembers{BankAccount: acc, Members: members})
	}
	return resp, nil
}

// Create adds a bank account, optionally attaching members of the same
// session.
func Create(requesterUserID string, in CreateBankInput) (*AccountWithMembers, error) {
	if _, err := access.RequireManage(database.DB, in.SessionID, requesterUserID); err != nil {
		return nil, err
	}
	if in.Label == "" || in.BankName == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "label and bankName are required")
	}
	if err := assertMembersInSession(in.SessionID, in.MemberIDs); err != nil {
		return nil, err
	}

	balance := decimal.Zero
	if in.InitialBalance != nil {
		var err error
		if balance, err = parseBalance(*in.InitialBalance); err != nil {
			return nil, err
		}
	}

	account := models.BankAccount{
		SessionID:      in.SessionID,
		Label:          in.Label,
		BankName:       in.BankName,
		InitialBalance: balance,
	}
	if in.IsArchived != nil {
		account.IsArchived = *in.IsArchived
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return err
		}
		for _, memberID := range in.MemberIDs {
			pivot := models.BankAccountMember{BankAccountID: account.ID, MemberID: memberID}
			if err := tx.Create(&pivot).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not create bank account")
	}

	_ = audit.WriteLog(audit.LogOptions{
		SessionID:   account.SessionID,
		UserID:      requesterUserID,
		EntityType:  "bank_account",
		EntityID:    account.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Bank account added: %s (%s)", account.Label, account.BankName),
	})

	members, err := accountMembers(account.ID)
	if err != nil {
		return nil, err
	}
	return &AccountWithMembers{BankAccount: account, Members: members}, nil
}

func load(accountID string) (*models.BankAccount, error) {
	var account models.BankAccount
	if err := database.DB.First(&account, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Bank account not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load bank account")
	}
	return &account, nil
}

// Update patches the account; only fields present in the payload change.
func Update(requesterUserID, accountID string, in UpdateBankInput) (*models.BankAccount, error) {
	account, err := load(accountID)
	if err != nil {
		return nil, err
	}
	if _, err := access.RequireManage(database.DB, account.SessionID, requesterUserID); err != nil {
		return nil, err
	}

	if in.Label != nil {
		account.Label = *in.Label
	}
	if in.BankName != nil {
		account.BankName = *in.BankName
	}
	if in.InitialBalance != nil {
		balance, err := parseBalance(*in.InitialBalance)
		if err != nil {
			return nil, err
		}
		account.InitialBalance = balance
	}
	if in.IsArchived != nil {
		account.IsArchived = *in.IsArchived
	}

	if err := database.DB.Save(account).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not update bank account")
	}

	_ = audit.WriteLog(audit.LogOptions{
		SessionID:   account.SessionID,
		UserID:      requesterUserID,
		EntityType:  "bank_account",
		EntityID:    account.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("Bank account updated: %s", account.Label),
	})

	return account, nil
}

// Remove deletes an account and its member associations.
func Remove(requesterUserID, accountID string) error {
	account, err := load(accountID)
	if err != nil {
		return err
	}
	if _, err := access.RequireManage(database.DB, account.SessionID, requesterUserID); err != nil {
		return err
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.BankAccountMember{}, "bank_account_id = ?", accountID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.BankAccount{}, "id = ?", accountID).Error
	})
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not delete bank account")
	}

	_ = audit.WriteLog(audit.LogOptions{
		SessionID:   account.SessionID,
		UserID:      requesterUserID,
		EntityType:  "bank_account",
		EntityID:    account.ID,
		Action:      models.AuditActionDelete,
		Description: fmt.Sprintf("Bank account deleted: %s", account.Label),
	})

	return nil
}

// AddMembers associates members of the same session with the account.
// Duplicate associations are ignored.
func AddMembers(requesterUserID, accountID string, in AddMembersInput) error {
	account, err := load(accountID)
	if err != nil {
		return err
	}
	if _, err := access.RequireManage(database.DB, account.SessionID, requesterUserID); err != nil {
		return err
	}

	ids := in.MemberIDs
	if len(ids) == 0 && in.MemberID != nil {
		ids = []string{*in.MemberID}
	}
	if len(ids) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Provide 'memberId' or 'memberIds'")
	}

	if err := assertMembersInSession(account.SessionID, ids); err != nil {
		return err
	}

	for _, memberID := range ids {
		pivot := models.BankAccountMember{BankAccountID: accountID, MemberID: memberID}
		if err := database.DB.Create(&pivot).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not attach members")
		}
	}
	return nil
}

// RemoveMember drops one member association. Removing the last association
// deletes the bank account itself: an account with zero members is orphaned
// and pruned. This is destructive and not reversible.
func RemoveMember(requesterUserID, accountID, memberID string) (*RemoveMemberResult, error) {
	account, err := load(accountID)
	if err != nil {
		return nil, err
	}
	if _, err := access.RequireManage(database.DB, account.SessionID, requesterUserID); err != nil {
		return nil, err
	}

	var pivot models.BankAccountMember
	if err := database.DB.
		Where("bank_account_id = ? AND member_id = ?", accountID, memberID).
		First(&pivot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "This member is not on this account")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load association")
	}

	accountDeleted := false
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("bank_account_id = ? AND member_id = ?", accountID, memberID).
			Delete(&models.BankAccountMember{}).Error; err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&models.BankAccountMember{}).
			Where("bank_account_id = ?", accountID).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			accountDeleted = true
			return tx.Delete(&models.BankAccount{}, "id = ?", accountID).Error
		}
		return nil
	})
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not remove member from account")
	}

	if accountDeleted {
		_ = audit.WriteLog(audit.LogOptions{
			SessionID:   account.SessionID,
			UserID:      requesterUserID,
			EntityType:  "bank_account",
			EntityID:    account.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Bank account pruned (last member removed): %s", account.Label),
		})
	}

	return &RemoveMemberResult{Success: true, AccountDeleted: accountDeleted}, nil
}
