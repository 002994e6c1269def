package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

var profiled = Stock{
	Symbol:           "AAPL",
	Name:             "Apple Inc.",
	Price:            150,
	PercentageChange: 1.2,
	Changes:          1.8,
	LastDividend:     0.24,
	Sector:           "Technology",
	Industry:         "Consumer Electronics",
	CompanyLogo:      "https://example.com/aapl.png",
	IsFavorite:       true,
	HasProfileData:   true,
}

// TestMerge_FieldIsolation は各更新が宣言したフィールドのみを書き換えることを検証します。
func TestMerge_FieldIsolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		update   Update
		expected func(s Stock) Stock
	}{
		{
			name:   "list entry touches name and price",
			update: ListEntry{Symbol: "AAPL", Name: "Apple", Price: 151, Exchange: "NASDAQ"},
			expected: func(s Stock) Stock {
				s.Name = "Apple"
				s.Price = 151
				return s
			},
		},
		{
			name:   "price tick touches price only",
			update: PriceTick{Symbol: "AAPL", Price: 152},
			expected: func(s Stock) Stock {
				s.Price = 152
				return s
			},
		},
		{
			name:   "price tick with changes",
			update: PriceTick{Symbol: "AAPL", Price: 152, Changes: ptr(2.0), PercentageChange: ptr(1.3)},
			expected: func(s Stock) Stock {
				s.Price = 152
				s.Changes = 2.0
				s.PercentageChange = 1.3
				return s
			},
		},
		{
			name:   "partial profile keeps absent fields",
			update: Profile{Symbol: "AAPL", Sector: ptr("Tech")},
			expected: func(s Stock) Stock {
				s.Sector = "Tech"
				return s
			},
		},
		{
			name:   "favorite off keeps everything else",
			update: Favorite{Symbol: "AAPL", IsFavorite: false},
			expected: func(s Stock) Stock {
				s.IsFavorite = false
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Merge(profiled, tt.update)

			assert.Equal(t, tt.expected(profiled), got)
		})
	}
}

// TestMerge_DoesNotMutateInput はMergeが元のレコードを変更しないことを検証します。
func TestMerge_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	orig := profiled
	_ = Merge(orig, PriceTick{Symbol: "AAPL", Price: 999})

	assert.Equal(t, profiled, orig)
}

// TestMerge_FavoriteIndependence はお気に入りフラグが価格やプロフィール更新で失われないことを検証します。
func TestMerge_FavoriteIndependence(t *testing.T) {
	t.Parallel()

	s := Stock{Symbol: "MSFT"}
	s = Merge(s, Favorite{Symbol: "MSFT", IsFavorite: true})
	s = Merge(s, ListEntry{Symbol: "MSFT", Name: "Microsoft", Price: 400})
	s = Merge(s, PriceTick{Symbol: "MSFT", Price: 401})
	s = Merge(s, Profile{Symbol: "MSFT", Industry: ptr("Software")})

	assert.True(t, s.IsFavorite)
	assert.True(t, s.HasProfileData)
	assert.Equal(t, "Microsoft", s.Name)
	assert.Equal(t, 401.0, s.Price)
}

func TestProfile_SetsHasProfileData(t *testing.T) {
	t.Parallel()

	s := Merge(Stock{Symbol: "IBM"}, Profile{Symbol: "IBM"})

	assert.True(t, s.HasProfileData)
	assert.Equal(t, []string{FieldHasProfileData}, Profile{Symbol: "IBM"}.Fields())
}

func TestUpdate_Fields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		update   Update
		expected []string
	}{
		{name: "list entry", update: ListEntry{Symbol: "A"}, expected: []string{FieldName, FieldPrice}},
		{name: "bare price tick", update: PriceTick{Symbol: "A"}, expected: []string{FieldPrice}},
		{name: "full price tick", update: PriceTick{Symbol: "A", Changes: ptr(1.0), PercentageChange: ptr(1.0)}, expected: []string{FieldPrice, FieldChanges, FieldPercentageChange}},
		{
			name: "full profile",
			update: Profile{
				Symbol: "A", Industry: ptr("i"), Sector: ptr("s"), LastDividend: ptr(1.0),
				CompanyLogo: ptr("l"), Changes: ptr(1.0), PercentageChange: ptr(1.0),
			},
			expected: []string{
				FieldIndustry, FieldSector, FieldLastDividend, FieldCompanyLogo,
				FieldChanges, FieldPercentageChange, FieldHasProfileData,
			},
		},
		{name: "favorite", update: Favorite{Symbol: "A"}, expected: []string{FieldIsFavorite}},
		{name: "record", update: Record{Stock: Stock{Symbol: "A"}, Columns: []string{FieldIsFavorite}}, expected: []string{FieldIsFavorite}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.update.Fields())
			assert.Equal(t, "A", tt.update.Key())
		})
	}
}

// TestRecord_Apply はRecordが指定したカラムのみを書き込むことを検証します。
func TestRecord_Apply(t *testing.T) {
	t.Parallel()

	cached := Stock{
		Symbol: "AAPL", Name: "Apple", Price: 105, Sector: "Tech", Industry: "Hardware",
		CompanyLogo: "logo", LastDividend: 0.24, Changes: 1, PercentageChange: 0.5,
		IsFavorite: true, HasProfileData: true,
	}
	stored := Stock{Symbol: "AAPL", Name: "Old", Price: 100}

	got := Merge(stored, Record{Stock: cached, Columns: []string{FieldPrice, FieldIsFavorite}})

	assert.Equal(t, Stock{Symbol: "AAPL", Name: "Old", Price: 105, IsFavorite: true}, got)

	all := Merge(stored, Record{Stock: cached, Columns: []string{
		FieldName, FieldPrice, FieldPercentageChange, FieldChanges, FieldLastDividend,
		FieldSector, FieldIndustry, FieldCompanyLogo, FieldIsFavorite, FieldHasProfileData,
	}})
	assert.Equal(t, cached, all)
}
