package entity

// Field names as stored in the stocks table. Update.Fields reports a subset of these.
const (
	FieldSymbol           = "symbol"
	FieldName             = "name"
	FieldPrice            = "price"
	FieldPercentageChange = "percentage_change"
	FieldChanges          = "changes"
	FieldLastDividend     = "last_dividend"
	FieldSector           = "sector"
	FieldIndustry         = "industry"
	FieldCompanyLogo      = "company_logo"
	FieldIsFavorite       = "is_favorite"
	FieldHasProfileData   = "has_profile_data"
)

// Update is a partial change to one Stock. Apply must write exactly the fields
// listed by Fields and leave every other field untouched.
type Update interface {
	// Key returns the symbol of the record the update targets.
	Key() string
	// Fields returns the field names the update overwrites.
	Fields() []string
	// Apply overwrites the declared fields of s.
	Apply(s *Stock)
}

// Merge returns a copy of existing with u applied.
func Merge(existing Stock, u Update) Stock {
	out := existing
	u.Apply(&out)
	return out
}

// ListEntry is one row of a full stock-list refresh.
type ListEntry struct {
	Symbol   string
	Name     string
	Price    float64
	Exchange string // not persisted
}

func (e ListEntry) Key() string      { return e.Symbol }
func (e ListEntry) Fields() []string { return []string{FieldName, FieldPrice} }

func (e ListEntry) Apply(s *Stock) {
	s.Name = e.Name
	s.Price = e.Price
}

// PriceTick carries the latest price. Changes and PercentageChange are only
// written when the source provided them.
type PriceTick struct {
	Symbol           string
	Price            float64
	Changes          *float64
	PercentageChange *float64
}

func (p PriceTick) Key() string { return p.Symbol }

func (p PriceTick) Fields() []string {
	fields := []string{FieldPrice}
	if p.Changes != nil {
		fields = append(fields, FieldChanges)
	}
	if p.PercentageChange != nil {
		fields = append(fields, FieldPercentageChange)
	}
	return fields
}

func (p PriceTick) Apply(s *Stock) {
	s.Price = p.Price
	if p.Changes != nil {
		s.Changes = *p.Changes
	}
	if p.PercentageChange != nil {
		s.PercentageChange = *p.PercentageChange
	}
}

// Profile carries company metadata. Absent (nil) fields keep their current value;
// HasProfileData is always set to true.
type Profile struct {
	Symbol           string
	Industry         *string
	Sector           *string
	LastDividend     *float64
	CompanyLogo      *string
	Changes          *float64
	PercentageChange *float64
}

func (p Profile) Key() string { return p.Symbol }

func (p Profile) Fields() []string {
	fields := make([]string, 0, 7)
	if p.Industry != nil {
		fields = append(fields, FieldIndustry)
	}
	if p.Sector != nil {
		fields = append(fields, FieldSector)
	}
	if p.LastDividend != nil {
		fields = append(fields, FieldLastDividend)
	}
	if p.CompanyLogo != nil {
		fields = append(fields, FieldCompanyLogo)
	}
	if p.Changes != nil {
		fields = append(fields, FieldChanges)
	}
	if p.PercentageChange != nil {
		fields = append(fields, FieldPercentageChange)
	}
	return append(fields, FieldHasProfileData)
}

func (p Profile) Apply(s *Stock) {
	if p.Industry != nil {
		s.Industry = *p.Industry
	}
	if p.Sector != nil {
		s.Sector = *p.Sector
	}
	if p.LastDividend != nil {
		s.LastDividend = *p.LastDividend
	}
	if p.CompanyLogo != nil {
		s.CompanyLogo = *p.CompanyLogo
	}
	if p.Changes != nil {
		s.Changes = *p.Changes
	}
	if p.PercentageChange != nil {
		s.PercentageChange = *p.PercentageChange
	}
	s.HasProfileData = true
}

// Favorite is an explicit user toggle.
type Favorite struct {
	Symbol     string
	IsFavorite bool
}

func (f Favorite) Key() string      { return f.Symbol }
func (f Favorite) Fields() []string { return []string{FieldIsFavorite} }
func (f Favorite) Apply(s *Stock)   { s.IsFavorite = f.IsFavorite }

// Record writes the listed columns of a full cached record. It lets the store
// catch up on columns whose earlier batches were never committed.
type Record struct {
	Stock   Stock
	Columns []string
}

func (r Record) Key() string      { return r.Stock.Symbol }
func (r Record) Fields() []string { return r.Columns }

func (r Record) Apply(s *Stock) {
	for _, f := range r.Columns {
		switch f {
		case FieldName:
			s.Name = r.Stock.Name
		case FieldPrice:
			s.Price = r.Stock.Price
		case FieldPercentageChange:
			s.PercentageChange = r.Stock.PercentageChange
		case FieldChanges:
			s.Changes = r.Stock.Changes
		case FieldLastDividend:
			s.LastDividend = r.Stock.LastDividend
		case FieldSector:
			s.Sector = r.Stock.Sector
		case FieldIndustry:
			s.Industry = r.Stock.Industry
		case FieldCompanyLogo:
			s.CompanyLogo = r.Stock.CompanyLogo
		case FieldIsFavorite:
			s.IsFavorite = r.Stock.IsFavorite
		case FieldHasProfileData:
			s.HasProfileData = r.Stock.HasProfileData
		}
	}
}

var (
	_ Update = ListEntry{}
	_ Update = PriceTick{}
	_ Update = Profile{}
	_ Update = Favorite{}
	_ Update = Record{}
)
