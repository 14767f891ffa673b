package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/user"
)

// SeedRolesAndPermissions upserts the static permission and role catalog. Safe to run on
// every start.
func SeedRolesAndPermissions(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		perms := make([]user.Permission, 0, len(auth.AllPermissions()))
		for _, p := range auth.AllPermissions() {
			perms = append(perms, user.Permission{ID: int(p), Name: p.Name(), Description: p.Description()})
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description"}),
		}).Create(&perms).Error; err != nil {
			return err
		}

		roles := make([]user.Role, 0, len(auth.AllRoles()))
		var links []user.RolePermission
		for _, r := range auth.AllRoles() {
			roles = append(roles, user.Role{ID: int(r), Name: r.Name(), Description: r.Description()})
			for _, p := range r.Permissions().Sorted() {
				links = append(links, user.RolePermission{RoleID: int(r), PermissionID: int(p)})
			}
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description"}),
		}).Create(&roles).Error; err != nil {
			return err
		}
		if len(links) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	})
}
