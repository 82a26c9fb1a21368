package repository

import "gorm.io/gorm"

// AutoMigrate creates the tables from the row models. Postgres deployments use
// the SQL migrations in package db; this serves embedded databases in tests.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&proposalRow{}, &profileRow{}, &teamMemberRow{})
}
