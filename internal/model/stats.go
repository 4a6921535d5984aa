package model

// MonthRevenue is revenue for one calendar month.
type MonthRevenue struct {
	Month   string `json:"month"`
	Revenue int    `json:"revenue"`
}

// ServiceCount is the number of bookings of one service category.
type ServiceCount struct {
	Service string `json:"service"`
	Count   int    `json:"count"`
}

// DashboardStats aggregates the admin dashboard figures.
type DashboardStats struct {
	TotalBookings     int            `json:"total_bookings"`
	TotalRevenue      int            `json:"total_revenue"`
	TotalClients      int            `json:"total_clients"`
	PendingBookings   int            `json:"pending_bookings"`
	RecentBookings    []Booking      `json:"recent_bookings"`
	RevenueByMonth    []MonthRevenue `json:"revenue_by_month"`
	BookingsByService []ServiceCount `json:"bookings_by_service"`
}

// ClientSummary is a client row of the admin client list.
type ClientSummary struct {
	ClientID     string `json:"client_id"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Bookings     int    `json:"bookings"`
	TotalSpent   int    `json:"total_spent"`
	LastBookedAt string `json:"last_booked_at"`
}
