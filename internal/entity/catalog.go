package entity

type Service struct {
	ID              int64   `db:"id"`
	Name            string  `db:"name"`
	Description     string  `db:"description"`
	DurationMinutes int     `db:"duration_minutes"`
	Price           float64 `db:"price"`
	IsActive        bool    `db:"is_active"`
}

type Expert struct {
	ID          int64    `db:"id"`
	FullName    string   `db:"full_name"`
	Specialties []string `db:"-"`
	IsActive    bool     `db:"is_active"`
}

type Campaign struct {
	ID           int64   `db:"id"`
	Title        string  `db:"title"`
	Description  string  `db:"description"`
	DiscountRate float64 `db:"discount_rate"`
	Code         string  `db:"code"`
	StartDate    string  `db:"start_date"`
	EndDate      string  `db:"end_date"`
	IsActive     bool    `db:"is_active"`
}
