// Package adapters provides the persistent store implementations for the stocks feature.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stock_watch/internal/feature/stocks/domain/entity"
	"stock_watch/internal/feature/stocks/usecase"

	"gorm.io/gorm"
)

// StockModel is the row layout of the stocks table.
type StockModel struct {
	Symbol           string  `gorm:"column:symbol;primaryKey;size:20"`
	Name             string  `gorm:"column:name;size:255;not null"`
	Price            float64 `gorm:"column:price;not null"`
	PercentageChange float64 `gorm:"column:percentage_change;not null"`
	Changes          float64 `gorm:"column:changes;not null"`
	LastDividend     float64 `gorm:"column:last_dividend;not null"`
	Sector           string  `gorm:"column:sector;size:255;not null"`
	Industry         string  `gorm:"column:industry;size:255;not null"`
	CompanyLogo      string  `gorm:"column:company_logo;size:1024;not null"`
	IsFavorite       bool    `gorm:"column:is_favorite;not null"`
	HasProfileData   bool    `gorm:"column:has_profile_data;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (StockModel) TableName() string {
	return "stocks"
}

func toModel(s entity.Stock) StockModel {
	return StockModel{
		Symbol:           s.Symbol,
		Name:             s.Name,
		Price:            s.Price,
		PercentageChange: s.PercentageChange,
		Changes:          s.Changes,
		LastDividend:     s.LastDividend,
		Sector:           s.Sector,
		Industry:         s.Industry,
		CompanyLogo:      s.CompanyLogo,
		IsFavorite:       s.IsFavorite,
		HasProfileData:   s.HasProfileData,
	}
}

// ToEntity converts the row to a domain record.
func (m StockModel) ToEntity() entity.Stock {
	return entity.Stock{
		Symbol:           m.Symbol,
		Name:             m.Name,
		Price:            m.Price,
		PercentageChange: m.PercentageChange,
		Changes:          m.Changes,
		LastDividend:     m.LastDividend,
		Sector:           m.Sector,
		Industry:         m.Industry,
		CompanyLogo:      m.CompanyLogo,
		IsFavorite:       m.IsFavorite,
		HasProfileData:   m.HasProfileData,
	}
}

// stockGorm is the gorm implementation of usecase.StockRepository.
type stockGorm struct {
	db *gorm.DB
}

var _ usecase.StockRepository = (*stockGorm)(nil)

// NewStockRepository は指定されたDB接続でstockGormリポジトリの新しいインスタンスを生成します。
func NewStockRepository(db *gorm.DB) *stockGorm {
	return &stockGorm{db: db}
}

// Load はsymbol昇順ですべての銘柄を返します。
func (r *stockGorm) Load(ctx context.Context) ([]entity.Stock, error) {
	var rows []StockModel
	if err := r.db.WithContext(ctx).Order("symbol ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", usecase.ErrReadFailure, err)
	}
	out := make([]entity.Stock, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.ToEntity())
	}
	return out, nil
}

// SaveBatch はバッチ内の全更新を1トランザクションで適用します。
// 既存行は更新が宣言したカラムのみを書き換え、存在しない銘柄は新規行として挿入します。
// いずれかの更新が失敗した場合はバッチ全体をロールバックします。
func (r *stockGorm) SaveBatch(ctx context.Context, updates []entity.Update) error {
	if len(updates) == 0 {
		return nil
	}
	for _, u := range updates {
		if err := entity.ValidateSymbol(u.Key()); err != nil {
			return fmt.Errorf("%w: %w", usecase.ErrWriteFailure, err)
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			if err := applyOne(tx, u); err != nil {
				return fmt.Errorf("symbol %s: %w", u.Key(), err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", usecase.ErrWriteFailure, err)
	}
	return nil
}

func applyOne(tx *gorm.DB, u entity.Update) error {
	var row StockModel
	err := tx.Where("symbol = ?", u.Key()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s := entity.Stock{Symbol: u.Key()}
		u.Apply(&s)
		m := toModel(s)
		return tx.Create(&m).Error
	}
	if err != nil {
		return err
	}

	s := row.ToEntity()
	u.Apply(&s)
	m := toModel(s)
	// Select を指定してゼロ値（false や 0）も書き込む
	columns := append(u.Fields(), "updated_at")
	return tx.Model(&row).Select(columns).Updates(&m).Error
}
