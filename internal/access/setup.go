package access

import (
	"fmt"

	"github.com/kcgaragesales/kc-garage-sales/internal/db"
	"gorm.io/gorm"
)

// Init creates the admin session table.
func Init(d *gorm.DB) error {
	if err := db.EnsureSchema(d, "app_admin"); err != nil {
		return fmt.Errorf("ensuring schema app_admin: %w", err)
	}
	if err := d.AutoMigrate(&Session{}); err != nil {
		return fmt.Errorf("migrating admin sessions: %w", err)
	}
	return nil
}
