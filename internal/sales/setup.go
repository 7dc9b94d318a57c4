package sales

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/kcgaragesales/kc-garage-sales/internal/db"
)

// Init creates the listings schema. pgcrypto supplies gen_random_bytes for
// the token column defaults.
func Init(d *gorm.DB) error {
	if err := db.EnsureSchema(d, "listings"); err != nil {
		return fmt.Errorf("ensuring schema listings: %w", err)
	}
	if err := db.EnsureExtension(d, "pgcrypto"); err != nil {
		return fmt.Errorf("enabling pgcrypto: %w", err)
	}
	if err := d.AutoMigrate(&Listing{}); err != nil {
		return fmt.Errorf("migrating listings: %w", err)
	}
	return nil
}
