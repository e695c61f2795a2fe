package postgres

import (
	"errors"
	"strings"

	"github.com/findinggems/settlement-service/internal/domain"
	"gorm.io/gorm"
)

func toDomainOrder(row orderModel) domain.Order {
	return domain.Order{
		OrderID:       row.OrderID,
		OrderNumber:   row.OrderNumber,
		BuyerID:       row.BuyerID,
		WebsiteID:     row.WebsiteID,
		PricingTierID: row.PricingTierID,
		TotalAmount:   row.TotalAmount,
		PlatformFee:   row.PlatformFee,
		Status:        domain.OrderStatus(row.Status),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		PaidAt:        row.PaidAt,
	}
}

func toDomainRefund(row refundModel) domain.Refund {
	return domain.Refund{
		RefundID:               row.RefundID,
		RefundNumber:           row.RefundNumber,
		OrderID:                row.OrderID,
		RequesterID:            row.RequesterID,
		OriginalAmount:         row.OriginalAmount,
		RefundAmount:           row.RefundAmount,
		ReasonCategory:         row.ReasonCategory,
		Reason:                 row.Reason,
		Status:                 domain.RefundStatus(row.Status),
		StatusMessage:          row.StatusMessage,
		AdminNotes:             row.AdminNotes,
		ReconciliationRequired: row.ReconciliationRequired,
		CreatedAt:              row.CreatedAt,
		UpdatedAt:              row.UpdatedAt,
	}
}

func toDomainPayout(row payoutModel) domain.Payout {
	return domain.Payout{
		PayoutID:      row.PayoutID,
		CreatorID:     row.CreatorID,
		Amount:        row.Amount,
		BankAccountID: row.BankAccountID,
		Status:        domain.PayoutStatus(row.Status),
		StatusMessage: row.StatusMessage,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func toDomainBalance(row creatorBalanceModel) domain.CreatorBalance {
	return domain.CreatorBalance{
		CreatorID:        row.CreatorID,
		AvailableBalance: row.AvailableBalance,
		PendingBalance:   row.PendingBalance,
		ReservedBalance:  row.ReservedBalance,
		WithdrawnBalance: row.WithdrawnBalance,
		TotalEarnings:    row.TotalEarnings,
		TotalRefunded:    row.TotalRefunded,
		UpdatedAt:        row.UpdatedAt,
	}
}

func toDomainBalanceEntry(row balanceEntryModel) domain.BalanceEntry {
	return domain.BalanceEntry{
		EntryID:     row.EntryID,
		CreatorID:   row.CreatorID,
		OrderID:     row.OrderID,
		Amount:      row.Amount,
		Status:      domain.BalanceEntryStatus(row.Status),
		AvailableAt: row.AvailableAt,
		CreatedAt:   row.CreatedAt,
	}
}

func toDomainBankAccount(row bankAccountModel) domain.BankAccount {
	return domain.BankAccount{
		BankAccountID: row.BankAccountID,
		CreatorID:     row.CreatorID,
		BankName:      row.BankName,
		AccountNumber: string(row.AccountNumberEncrypted),
		AccountName:   row.AccountName,
		IsPrimary:     row.IsPrimary,
		CreatedAt:     row.CreatedAt,
	}
}

func toDomainApplication(row creatorApplicationModel) domain.CreatorApplication {
	return domain.CreatorApplication{
		ApplicationID:   row.ApplicationID,
		UserID:          row.UserID,
		Status:          domain.ApplicationStatus(row.Status),
		Bio:             row.Bio,
		Expertise:       row.Expertise,
		PortfolioURL:    row.PortfolioURL,
		RejectionReason: row.RejectionReason,
		ReviewedBy:      row.ReviewedBy,
		ReviewedAt:      row.ReviewedAt,
		CreatedAt:       row.CreatedAt,
	}
}

func toDomainWebsite(row websiteModel) domain.Website {
	return domain.Website{
		WebsiteID:    row.WebsiteID,
		CreatorID:    row.CreatorID,
		Name:         row.Name,
		Status:       domain.WebsiteStatus(row.Status),
		StatusReason: row.StatusReason,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func toDomainTier(row pricingTierModel) domain.PricingTier {
	return domain.PricingTier{
		TierID:       row.TierID,
		WebsiteID:    row.WebsiteID,
		Name:         row.Name,
		Price:        row.Price,
		DurationDays: row.DurationDays,
		IsActive:     row.IsActive,
	}
}

func toDomainReport(row reportModel) domain.Report {
	return domain.Report{
		ReportID:       row.ReportID,
		WebsiteID:      row.WebsiteID,
		ReporterID:     row.ReporterID,
		ReasonCategory: row.ReasonCategory,
		Detail:         row.Detail,
		Status:         domain.ReportStatus(row.Status),
		AdminNote:      row.AdminNote,
		ResolvedBy:     row.ResolvedBy,
		CreatedAt:      row.CreatedAt,
	}
}

func nullableString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
