package repository

import (
	"jobdash/internal/db"
	"jobdash/internal/model"
	"net/http"
	"time"

	"gorm.io/gorm/clause"
)

// CookieRepository persists the backend session cookies of the CLI.
type CookieRepository struct{}

func NewCookieRepository() *CookieRepository {
	return &CookieRepository{}
}

func (r *CookieRepository) Load(baseURL string) ([]*http.Cookie, error) {
	var rows []model.Cookie
	if err := db.DB.Where("base_url = ?", baseURL).Find(&rows).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	cookies := make([]*http.Cookie, 0, len(rows))
	for _, row := range rows {
		if row.Expires != nil && row.Expires.Before(now) {
			continue
		}
		c := &http.Cookie{Name: row.Name, Value: row.Value, Path: row.Path}
		if row.Expires != nil {
			c.Expires = *row.Expires
		}
		cookies = append(cookies, c)
	}
	return cookies, nil
}

// Replace stores exactly the given cookies for baseURL.
func (r *CookieRepository) Replace(baseURL string, cookies []*http.Cookie) error {
	tx := db.DB.Begin()
	if err := tx.Unscoped().Where("base_url = ?", baseURL).Delete(&model.Cookie{}).Error; err != nil {
		tx.Rollback()
		return err
	}

	for _, c := range cookies {
		row := model.Cookie{BaseURL: baseURL, Name: c.Name, Value: c.Value, Path: c.Path}
		if !c.Expires.IsZero() {
			row.Expires = new(c.Expires)
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "base_url"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "path", "expires", "updated_at"}),
		}).Create(&row).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit().Error
}

func (r *CookieRepository) Clear(baseURL string) error {
	return db.DB.Unscoped().Where("base_url = ?", baseURL).Delete(&model.Cookie{}).Error
}
