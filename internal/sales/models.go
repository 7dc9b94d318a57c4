package sales

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DateLayout is the wire and storage format of sale dates.
const DateLayout = "2006-01-02"

// Date is a calendar day formatted as YYYY-MM-DD. Values in that format
// compare chronologically as strings.
type Date string

// ParseDate validates s as a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q", s)
	}
	return Date(t.Format(DateLayout)), nil
}

// DateOf returns the calendar day of t in its own location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

func (d Date) Value() (driver.Value, error) {
	if d == "" {
		return nil, nil
	}
	return string(d), nil
}

func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = DateOf(v)
	case []byte:
		return d.Scan(string(v))
	case string:
		if len(v) > len(DateLayout) {
			v = v[:len(DateLayout)]
		}
		*d = Date(v)
	default:
		return fmt.Errorf("unsupported date type: %T", value)
	}
	return nil
}

// Listing is one submitted garage sale.
//
// The edit token is a bearer capability: whoever holds the manage URL can
// edit or delete the listing. Both tokens are generated by Postgres from
// gen_random_bytes and are never serialized to JSON or logged.
type Listing struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email string    `gorm:"not null" json:"-"`

	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"not null;default:''" json:"description"`
	Categories  pq.StringArray `gorm:"type:text[];not null" json:"categories"`
	Photos      pq.StringArray `gorm:"type:text[];not null" json:"photos"`

	Address   string  `gorm:"not null" json:"address"`
	City      string  `gorm:"not null;index" json:"city"`
	State     string  `gorm:"type:varchar(2);not null;check:chk_garage_sales_state,state IN ('KS','MO')" json:"state"`
	ZipCode   string  `gorm:"not null" json:"zip_code"`
	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`

	StartDate Date   `gorm:"type:date;not null;index" json:"start_date"`
	EndDate   Date   `gorm:"type:date;not null;index" json:"end_date"`
	StartTime string `gorm:"not null" json:"start_time"`
	EndTime   string `gorm:"not null" json:"end_time"`

	IsVerified bool `gorm:"not null;default:false;index" json:"is_verified"`
	IsFeatured bool `gorm:"not null;default:false" json:"is_featured"`

	VerificationToken string `gorm:"uniqueIndex;not null;default:encode(gen_random_bytes(32), 'hex')" json:"-"`
	EditToken         string `gorm:"uniqueIndex;not null;default:encode(gen_random_bytes(32), 'hex')" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Listing) TableName() string {
	return "listings.garage_sales"
}

// Inserted is what the store hands back after creating a listing.
type Inserted struct {
	ID                uuid.UUID
	VerificationToken string
	EditToken         string
	Title             string
}

// EditableFields are the only fields an owner may change after creation.
type EditableFields struct {
	Title       string
	Description string
	StartDate   Date
	EndDate     Date
	StartTime   string
	EndTime     string
	Categories  []string
}

// Filter narrows the public upcoming listing query.
type Filter struct {
	Category string
	City     string
	Query    string
}

// Upload is one photo file posted with a submission.
type Upload struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Submission is the raw owner input for a new listing.
type Submission struct {
	CaptchaToken string `json:"captcha_token"`

	Email       string   `json:"email"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	ZipCode     string   `json:"zip_code"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	Categories  []string `json:"categories"`

	Photos []Upload `json:"-"`
}

// Update is the raw owner input for an edit through the manage link.
type Update struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	Categories  []string `json:"categories"`
}

// VerifyOutcome is the result of redeeming a verification token.
type VerifyOutcome struct {
	ID              uuid.UUID
	AlreadyVerified bool
}
