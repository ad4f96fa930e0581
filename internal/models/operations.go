package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Operational entities the detection agents read. These are owned by the
// wider booking platform; the engine only needs the fields its algorithms
// consume, scoped by tenant like everything else.

// Tenant is an isolated business account.
type Tenant struct {
	ID        string    `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	Name      string    `json:"name" gorm:"column:name;type:varchar(255);not null"`
	IsActive  bool      `json:"is_active" gorm:"column:is_active;type:boolean;not null;default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (Tenant) TableName() string { return "tenants" }

// Customer is a client record for one tenant.
type Customer struct {
	ID        string    `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	TenantID  string    `json:"tenant_id" gorm:"column:tenant_id;type:varchar(255);not null;index"`
	Name      string    `json:"name" gorm:"column:name;type:varchar(255);not null"`
	Email     *string   `json:"email" gorm:"column:email;type:varchar(255)"`
	Phone     *string   `json:"phone" gorm:"column:phone;type:varchar(50)"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime;index"`
}

func (Customer) TableName() string { return "customers" }

// BookingStatus is the booking lifecycle state as seen by the engine.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Booking is an appointment for a customer with a staff member.
type Booking struct {
	ID              string          `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	TenantID        string          `json:"tenant_id" gorm:"column:tenant_id;type:varchar(255);not null;index"`
	CustomerID      string          `json:"customer_id" gorm:"column:customer_id;type:varchar(255);not null;index"`
	StaffID         string          `json:"staff_id" gorm:"column:staff_id;type:varchar(255);not null;index"`
	ServiceName     string          `json:"service_name" gorm:"column:service_name;type:varchar(255);not null"`
	Status          BookingStatus   `json:"status" gorm:"column:status;type:varchar(20);not null;index"`
	StartTime       time.Time       `json:"start_time" gorm:"column:start_time;not null;index"`
	EndTime         time.Time       `json:"end_time" gorm:"column:end_time;not null"`
	DepositRequired bool            `json:"deposit_required" gorm:"column:deposit_required;type:boolean;not null;default:false"`
	DepositPaid     bool            `json:"deposit_paid" gorm:"column:deposit_paid;type:boolean;not null;default:false"`
	DepositAmount   decimal.Decimal `json:"deposit_amount" gorm:"column:deposit_amount;type:decimal(20,2);not null;default:0"`
	CreatedAt       time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (Booking) TableName() string { return "bookings" }

// Staff is a service provider for one tenant.
type Staff struct {
	ID       string `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	TenantID string `json:"tenant_id" gorm:"column:tenant_id;type:varchar(255);not null;index"`
	Name     string `json:"name" gorm:"column:name;type:varchar(255);not null"`
	IsActive bool   `json:"is_active" gorm:"column:is_active;type:boolean;not null;default:true"`
}

func (Staff) TableName() string { return "staff" }

// WorkingHours is one weekly recurring availability window for a staff
// member. Start/end are minutes from midnight in the tenant's timezone.
type WorkingHours struct {
	ID          string `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	TenantID    string `json:"tenant_id" gorm:"column:tenant_id;type:varchar(255);not null;index"`
	StaffID     string `json:"staff_id" gorm:"column:staff_id;type:varchar(255);not null;index"`
	Weekday     int    `json:"weekday" gorm:"column:weekday;type:integer;not null"`
	StartMinute int    `json:"start_minute" gorm:"column:start_minute;type:integer;not null"`
	EndMinute   int    `json:"end_minute" gorm:"column:end_minute;type:integer;not null"`
}

func (WorkingHours) TableName() string { return "working_hours" }

// TimeOff blocks a staff member's availability for an absolute range.
type TimeOff struct {
	ID        string    `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	TenantID  string    `json:"tenant_id" gorm:"column:tenant_id;type:varchar(255);not null;index"`
	StaffID   string    `json:"staff_id" gorm:"column:staff_id;type:varchar(255);not null;index"`
	StartTime time.Time `json:"start_time" gorm:"column:start_time;not null"`
	EndTime   time.Time `json:"end_time" gorm:"column:end_time;not null"`
}

func (TimeOff) TableName() string { return "time_off" }

// WaitlistStatus is the waitlist entry lifecycle state.
type WaitlistStatus string

const (
	WaitlistActive    WaitlistStatus = "ACTIVE"
	WaitlistFulfilled WaitlistStatus = "FULFILLED"
	WaitlistCancelled WaitlistStatus = "CANCELLED"
)

// WaitlistEntry records a customer's wish for an earlier or specific slot.
// Time window bounds are minutes from midnight; zero WindowEnd means no
// time-of-day preference.
type WaitlistEntry struct {
	ID               string         `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	TenantID         string         `json:"tenant_id" gorm:"column:tenant_id;type:varchar(255);not null;index"`
	CustomerID       string         `json:"customer_id" gorm:"column:customer_id;type:varchar(255);not null;index"`
	ServiceName      string         `json:"service_name" gorm:"column:service_name;type:varchar(255);not null"`
	DurationMinutes  int            `json:"duration_minutes" gorm:"column:duration_minutes;type:integer;not null"`
	PreferredStaffID *string        `json:"preferred_staff_id" gorm:"column:preferred_staff_id;type:varchar(255)"`
	DateFrom         time.Time      `json:"date_from" gorm:"column:date_from;not null"`
	DateTo           time.Time      `json:"date_to" gorm:"column:date_to;not null"`
	WindowStart      int            `json:"window_start" gorm:"column:window_start;type:integer;not null;default:0"`
	WindowEnd        int            `json:"window_end" gorm:"column:window_end;type:integer;not null;default:0"`
	Status           WaitlistStatus `json:"status" gorm:"column:status;type:varchar(20);not null;default:'ACTIVE';index"`
	CreatedAt        time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (WaitlistEntry) TableName() string { return "waitlist_entries" }

// QuoteStatus is the quote lifecycle state as seen by the engine.
type QuoteStatus string

const (
	QuotePending  QuoteStatus = "PENDING"
	QuoteAccepted QuoteStatus = "ACCEPTED"
	QuoteDeclined QuoteStatus = "DECLINED"
)

// Quote is a priced proposal sent to a customer.
type Quote struct {
	ID         string          `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	TenantID   string          `json:"tenant_id" gorm:"column:tenant_id;type:varchar(255);not null;index"`
	CustomerID string          `json:"customer_id" gorm:"column:customer_id;type:varchar(255);not null;index"`
	Status     QuoteStatus     `json:"status" gorm:"column:status;type:varchar(20);not null;index"`
	Amount     decimal.Decimal `json:"amount" gorm:"column:amount;type:decimal(20,2);not null"`
	SentAt     time.Time       `json:"sent_at" gorm:"column:sent_at;not null;index"`
	CreatedAt  time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (Quote) TableName() string { return "quotes" }

// Conversation tracks the last message timestamps of a customer thread,
// enough for the overdue-reply heuristic.
type Conversation struct {
	ID             string     `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	TenantID       string     `json:"tenant_id" gorm:"column:tenant_id;type:varchar(255);not null;index"`
	CustomerID     string     `json:"customer_id" gorm:"column:customer_id;type:varchar(255);not null;index"`
	Channel        string     `json:"channel" gorm:"column:channel;type:varchar(50);not null"`
	LastInboundAt  *time.Time `json:"last_inbound_at" gorm:"column:last_inbound_at;index"`
	LastOutboundAt *time.Time `json:"last_outbound_at" gorm:"column:last_outbound_at"`
}

func (Conversation) TableName() string { return "conversations" }

// Interval is a half-open [Start, End) span of free time.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Minutes returns the interval length in whole minutes.
func (iv Interval) Minutes() int {
	return int(iv.End.Sub(iv.Start) / time.Minute)
}

// Slot is a bookable opening for one staff member.
type Slot struct {
	StaffID string    `json:"staff_id"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}
