package country

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ethanbaker/countries/pkg/country"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store handles storage and retrieval of countries using a SQL database
type Store struct {
	db *gorm.DB
}

var _ country.Store = (*Store)(nil)

// NewStore creates a new country store with MySQL connection
func NewStore(databaseURL string) (*Store, error) {
	return NewStoreWithDialector(mysql.Open(databaseURL))
}

// NewSQLiteStore creates a new country store backed by a SQLite file
func NewSQLiteStore(path string) (*Store, error) {
	return NewStoreWithDialector(sqlite.Open(path))
}

// NewStoreWithDialector opens the database, migrates the tables and makes sure
// the status row exists
func NewStoreWithDialector(dialector gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger(slog.Default().Handler())})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}

	// Auto-migrate tables
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	if err := store.bootstrapStatus(); err != nil {
		return nil, fmt.Errorf("failed to bootstrap status row: %w", err)
	}

	return store, nil
}

// newGormLogger routes gorm's own logging through slog. Missing rows are a
// normal lookup outcome and are not logged.
func newGormLogger(handler slog.Handler) logger.Interface {
	return logger.New(
		slog.NewLogLogger(handler, slog.LevelWarn),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)
}

// migrate creates or updates the required database tables
func (s *Store) migrate() error {
	return s.db.AutoMigrate(&CountryModel{}, &StatusModel{})
}

// bootstrapStatus inserts the status row with a zero count unless it already exists
func (s *Store) bootstrapStatus() error {
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&StatusModel{ID: statusID}).Error
}

// UpsertAll writes every record keyed by name, then recounts the table and
// updates the status row. Nothing is committed unless every statement succeeds.
func (s *Store) UpsertAll(ctx context.Context, records []*country.Record, refreshedAt time.Time) (int64, error) {
	var total int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, record := range records {
			model := fromRecord(record, refreshedAt)

			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns(upsertColumns),
			}).Create(model).Error
			if err != nil {
				return fmt.Errorf("failed to upsert country '%s': %w", record.Name, err)
			}
		}

		if err := tx.Model(&CountryModel{}).Count(&total).Error; err != nil {
			return fmt.Errorf("failed to count countries: %w", err)
		}

		return updateStatus(tx, total, &refreshedAt)
	})
	if err != nil {
		return 0, err
	}

	return total, nil
}

// Count returns the live number of stored countries
func (s *Store) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&CountryModel{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count countries: %w", err)
	}
	return total, nil
}

// GetByName retrieves a country by name, ignoring case
func (s *Store) GetByName(ctx context.Context, name string) (*country.Record, error) {
	db := s.db.WithContext(ctx)

	stored, ok, err := resolveName(db, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, country.ErrNotFound
	}

	var model CountryModel
	result := db.Where("name = ?", stored).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, country.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get country: %w", result.Error)
	}

	return model.toRecord(), nil
}

// QueryAll lists countries matching the filter in the requested order
func (s *Store) QueryAll(ctx context.Context, filter country.Filter, order country.SortOrder) ([]*country.Record, error) {
	query := s.db.WithContext(ctx).Model(&CountryModel{})

	if filter.Region != "" {
		query = query.Where("region = ?", filter.Region)
	}
	if filter.CurrencyCode != "" {
		query = query.Where("currency_code = ?", filter.CurrencyCode)
	}

	switch order {
	case country.SortByGDPDesc:
		query = query.Order("estimated_gdp DESC").Order("name ASC")
	case country.SortByGDPAsc:
		query = query.Order("estimated_gdp ASC").Order("name ASC")
	default:
		query = query.Order("name ASC")
	}

	var models []CountryModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query countries: %w", err)
	}

	return toRecords(models), nil
}

// TopByGDP returns up to n countries with a known estimate, largest first
func (s *Store) TopByGDP(ctx context.Context, n int) ([]*country.Record, error) {
	var models []CountryModel
	err := s.db.WithContext(ctx).
		Where("estimated_gdp IS NOT NULL").
		Order("estimated_gdp DESC").
		Limit(n).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query top countries: %w", err)
	}

	return toRecords(models), nil
}

// DeleteByName removes a country by name, ignoring case, and recounts the
// status row. The last refresh time is left untouched.
func (s *Store) DeleteByName(ctx context.Context, name string) (bool, error) {
	found := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, ok, err := resolveName(tx, name)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		result := tx.Where("name = ?", stored).Delete(&CountryModel{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete country: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		found = true

		var total int64
		if err := tx.Model(&CountryModel{}).Count(&total).Error; err != nil {
			return fmt.Errorf("failed to count countries: %w", err)
		}

		return updateStatus(tx, total, nil)
	})
	if err != nil {
		return false, err
	}

	return found, nil
}

// GetStatus returns the aggregate status row
func (s *Store) GetStatus(ctx context.Context) (*country.Status, error) {
	var model StatusModel
	if err := s.db.WithContext(ctx).First(&model, statusID).Error; err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	return &country.Status{
		TotalCountries:  model.TotalCountries,
		LastRefreshedAt: model.LastRefreshedAt,
	}, nil
}

// SetStatus overwrites the total count, and the refresh time when one is given
func (s *Store) SetStatus(ctx context.Context, total int64, refreshedAt *time.Time) error {
	return updateStatus(s.db.WithContext(ctx), total, refreshedAt)
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}
	return sqlDB.Close()
}

// resolveName finds the stored spelling of name, ignoring case. SQLite's LOWER
// only folds ASCII, so non-ASCII names are matched with strings.EqualFold.
func resolveName(tx *gorm.DB, name string) (string, bool, error) {
	var matches []string
	err := tx.Model(&CountryModel{}).
		Where("LOWER(name) = LOWER(?)", name).
		Limit(1).
		Pluck("name", &matches).Error
	if err != nil {
		return "", false, fmt.Errorf("failed to look up country: %w", err)
	}
	if len(matches) > 0 {
		return matches[0], true, nil
	}

	if isASCII(name) {
		return "", false, nil
	}

	var all []string
	if err := tx.Model(&CountryModel{}).Pluck("name", &all).Error; err != nil {
		return "", false, fmt.Errorf("failed to look up country: %w", err)
	}
	for _, stored := range all {
		if strings.EqualFold(stored, name) {
			return stored, true, nil
		}
	}
	return "", false, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func updateStatus(tx *gorm.DB, total int64, refreshedAt *time.Time) error {
	values := map[string]any{"total_countries": total}
	if refreshedAt != nil {
		values["last_refreshed_at"] = *refreshedAt
	}

	if err := tx.Model(&StatusModel{}).Where("id = ?", statusID).Updates(values).Error; err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}

func toRecords(models []CountryModel) []*country.Record {
	records := make([]*country.Record, len(models))
	for i := range models {
		records[i] = models[i].toRecord()
	}
	return records
}
