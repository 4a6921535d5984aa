package admin

import (
	"context"
	"fmt"
	"io"
	"time"
)

var bookingColumns = []string{
	"ID", "Client", "Email", "Service", "Date", "Time",
	"Status", "Amount", "Payment", "Payment ID", "Notes", "Created",
}

var clientColumns = []string{"Client ID", "Name", "Email", "Bookings", "Total Spent", "Last Booking"}

// ExportFilename returns the download name for an export made at t.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("bookings_%s.xlsx", t.Format("2006-01-02"))
}

// ExportBookings writes an xlsx workbook with a Bookings and a Clients sheet.
func (s *Service) ExportBookings(ctx context.Context, w io.Writer, f SearchFilter) error {
	xw := NewExcelizeWriter()
	defer func() { _ = xw.Close() }()

	if err := s.export(ctx, xw, f); err != nil {
		return err
	}
	if err := xw.Save(w); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func (s *Service) export(ctx context.Context, xw ExcelWriter, f SearchFilter) error {
	if err := xw.AddSheet("Bookings"); err != nil {
		return err
	}
	if err := xw.WriteHeader(bookingColumns); err != nil {
		return err
	}
	rows := s.SearchBookings(ctx, f)
	for _, r := range rows {
		if err := xw.WriteRow([]any{
			r.ID, r.ClientName, r.ClientEmail, r.ServiceName, r.Date, r.Time,
			string(r.Status), r.TotalAmount, string(r.PaymentStatus), r.PaymentID, r.Notes,
			r.CreatedAt.Format(time.RFC3339),
		}); err != nil {
			return fmt.Errorf("write booking %s: %w", r.ID, err)
		}
	}

	if err := xw.AddSheet("Clients"); err != nil {
		return err
	}
	if err := xw.WriteHeader(clientColumns); err != nil {
		return err
	}
	for _, c := range s.Clients(ctx, "") {
		if err := xw.WriteRow([]any{c.ClientID, c.Name, c.Email, c.Bookings, c.TotalSpent, c.LastBookedAt}); err != nil {
			return fmt.Errorf("write client %s: %w", c.ClientID, err)
		}
	}

	s.logger.Info().Int("bookings", len(rows)).Msg("bookings exported")
	return nil
}
