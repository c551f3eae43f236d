package screens

import (
	"context"

	"librarian/internal/browse"
	"librarian/internal/models"
)

// Dashboard shows library statistics. Every widget loads and fails on its own.
type Dashboard struct {
	deps Deps

	BookCount         *browse.Slot[int]
	ReaderCount       *browse.Slot[int]
	TopOverdue        *browse.Slot[[]models.Borrowing]
	BorrowingsMonthly *browse.Slot[[]models.MonthlyCount]
	ReadersMonthly    *browse.Slot[[]models.MonthlyCount]
}

// NewDashboard creates the dashboard
func NewDashboard(d Deps) *Dashboard {
	d = d.withDefaults()
	return &Dashboard{
		deps:              d,
		BookCount:         browse.NewSlot[int]("count books", d.Notifier),
		ReaderCount:       browse.NewSlot[int]("count readers", d.Notifier),
		TopOverdue:        browse.NewSlot[[]models.Borrowing]("load most overdue", d.Notifier),
		BorrowingsMonthly: browse.NewSlot[[]models.MonthlyCount]("load monthly borrowings", d.Notifier),
		ReadersMonthly:    browse.NewSlot[[]models.MonthlyCount]("load monthly readers", d.Notifier),
	}
}

// Load fetches every widget concurrently
func (s *Dashboard) Load(ctx context.Context) error {
	lib := s.deps.Library
	return browse.FetchAll(ctx,
		func(ctx context.Context) error { return s.BookCount.Load(ctx, lib.CountBooks) },
		func(ctx context.Context) error { return s.ReaderCount.Load(ctx, lib.CountReaders) },
		func(ctx context.Context) error { return s.TopOverdue.Load(ctx, lib.OverdueTop) },
		func(ctx context.Context) error { return s.BorrowingsMonthly.Load(ctx, lib.BorrowingsMonthly) },
		func(ctx context.Context) error { return s.ReadersMonthly.Load(ctx, lib.ReadersMonthly) },
	)
}
