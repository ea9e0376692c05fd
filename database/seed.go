package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
)

type seedService struct {
	Name        string
	Description string
	Duration    int
	Price       float64
}

type seedExpert struct {
	FullName    string
	Specialties []string
}

var seedServices = []seedService{
	{"Saç Kesimi", "Yıkama ve fön dahil saç kesimi", 45, 350},
	{"Saç Boyama", "Tek renk boya uygulaması", 120, 1200},
	{"Fön", "Yıkama ve fön", 30, 200},
	{"Manikür", "Klasik manikür", 45, 300},
	{"Pedikür", "Klasik pedikür", 60, 400},
	{"Cilt Bakımı", "Temizleme ve nem bakımı", 60, 750},
	{"Kaş Tasarımı", "Kaş alma ve şekillendirme", 30, 150},
}

var seedExperts = []seedExpert{
	{"Ayşe Yılmaz", []string{"Saç Kesimi", "Saç Boyama", "Fön"}},
	{"Mehmet Kaya", []string{"Saç Kesimi", "Fön"}},
	{"Zeynep Demir", []string{"Manikür", "Pedikür"}},
	{"Elif Şahin", []string{"Cilt Bakımı", "Kaş Tasarımı"}},
}

const (
	querySeedCount    = `SELECT COUNT(*) FROM services`
	querySeedService  = `INSERT INTO services (name, description, duration_minutes, price, is_active) VALUES (:name, :description, :duration_minutes, :price, TRUE)`
	querySeedExpert   = `INSERT INTO experts (full_name, specialties, is_active) VALUES (:full_name, :specialties, TRUE)`
	querySeedCampaign = `INSERT INTO campaigns (title, description, discount_rate, code, start_date, end_date, is_active) VALUES (:title, :description, :discount_rate, :code, :start_date, :end_date, TRUE)`
)

// Seed fills the catalog tables of an empty database with the default
// services, experts and campaigns.
func Seed(db *sqlx.DB, now time.Time) error {
	var count int
	if err := db.Get(&count, querySeedCount); err != nil {
		return fmt.Errorf("failed to count services: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	exec := func(query string, args map[string]interface{}) error {
		q, a, err := sqlx.Named(query, args)
		if err != nil {
			return err
		}
		_, err = tx.Exec(tx.Rebind(q), a...)
		return err
	}

	for _, s := range seedServices {
		if err := exec(querySeedService, map[string]interface{}{
			"name":             s.Name,
			"description":      s.Description,
			"duration_minutes": s.Duration,
			"price":            s.Price,
		}); err != nil {
			return fmt.Errorf("failed to seed service %s: %w", s.Name, err)
		}
	}

	for _, e := range seedExperts {
		specialties, err := jsoniter.MarshalToString(e.Specialties)
		if err != nil {
			return err
		}
		if err := exec(querySeedExpert, map[string]interface{}{
			"full_name":   e.FullName,
			"specialties": specialties,
		}); err != nil {
			return fmt.Errorf("failed to seed expert %s: %w", e.FullName, err)
		}
	}

	start := now.Format("2006-01-02")
	campaigns := []map[string]interface{}{
		{
			"title":         "İlk Randevu İndirimi",
			"description":   "İlk randevunuzda tüm hizmetlerde geçerli",
			"discount_rate": 15.0,
			"code":          "ILK15",
			"start_date":    start,
			"end_date":      now.AddDate(0, 6, 0).Format("2006-01-02"),
		},
		{
			"title":         "Kış Bakım Kampanyası",
			"description":   "Cilt bakımı ve saç boyamada geçerli",
			"discount_rate": 20.0,
			"code":          "KIS20",
			"start_date":    start,
			"end_date":      now.AddDate(0, 3, 0).Format("2006-01-02"),
		},
	}
	for _, c := range campaigns {
		if err := exec(querySeedCampaign, c); err != nil {
			return fmt.Errorf("failed to seed campaign %v: %w", c["title"], err)
		}
	}

	return tx.Commit()
}
