package country

import (
	"time"

	"github.com/ethanbaker/countries/pkg/country"
)

// statusID is the key of the singleton status row
const statusID = 1

// CountryModel represents the database model for a country
type CountryModel struct {
	ID uint `json:"id" gorm:"primaryKey;autoIncrement"`

	Name            string    `json:"name" gorm:"column:name;uniqueIndex;not null;size:255"`
	Capital         *string   `json:"capital" gorm:"column:capital;size:255"`
	Region          *string   `json:"region" gorm:"column:region;size:100;index:idx_region"`
	Population      int64     `json:"population" gorm:"column:population;not null"`
	CurrencyCode    *string   `json:"currency_code" gorm:"column:currency_code;size:10;index:idx_currency"`
	ExchangeRate    *float64  `json:"exchange_rate" gorm:"column:exchange_rate;type:decimal(15,4)"`
	EstimatedGDP    *float64  `json:"estimated_gdp" gorm:"column:estimated_gdp;type:decimal(20,2)"`
	FlagURL         *string   `json:"flag_url" gorm:"column:flag_url;type:text"`
	LastRefreshedAt time.Time `json:"last_refreshed_at" gorm:"column:last_refreshed_at;not null"`
}

// TableName sets the table name for GORM
func (CountryModel) TableName() string {
	return "countries"
}

// StatusModel represents the singleton aggregate status row
type StatusModel struct {
	ID              uint       `json:"id" gorm:"primaryKey;autoIncrement:false"`
	TotalCountries  int64      `json:"total_countries" gorm:"column:total_countries;not null;default:0"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at" gorm:"column:last_refreshed_at"`
}

// TableName sets the table name for GORM
func (StatusModel) TableName() string {
	return "system_status"
}

// upsertColumns are overwritten wholesale when a country already exists
var upsertColumns = []string{
	"capital",
	"region",
	"population",
	"currency_code",
	"exchange_rate",
	"estimated_gdp",
	"flag_url",
	"last_refreshed_at",
}

func fromRecord(r *country.Record, refreshedAt time.Time) *CountryModel {
	return &CountryModel{
		Name:            r.Name,
		Capital:         r.Capital,
		Region:          r.Region,
		Population:      r.Population,
		CurrencyCode:    r.CurrencyCode,
		ExchangeRate:    r.ExchangeRate,
		EstimatedGDP:    r.EstimatedGDP,
		FlagURL:         r.FlagURL,
		LastRefreshedAt: refreshedAt,
	}
}

func (m *CountryModel) toRecord() *country.Record {
	return &country.Record{
		Name:            m.Name,
		Capital:         m.Capital,
		Region:          m.Region,
		Population:      m.Population,
		CurrencyCode:    m.CurrencyCode,
		ExchangeRate:    m.ExchangeRate,
		EstimatedGDP:    m.EstimatedGDP,
		FlagURL:         m.FlagURL,
		LastRefreshedAt: m.LastRefreshedAt,
	}
}
