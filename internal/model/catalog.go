package model

// EntityKind names the catalog tables deleteEntity can target.
type EntityKind string

const (
	KindCategory  EntityKind = "category"
	KindSupplier  EntityKind = "supplier"
	KindWarehouse EntityKind = "warehouse"
	KindProduct   EntityKind = "product"
)

type Category struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

type Supplier struct {
	BaseModel
	Name    string `gorm:"type:varchar(100);not null" json:"name"`
	Contact string `gorm:"type:varchar(100)" json:"contact"`
	Email   string `gorm:"type:varchar(100)" json:"email"`
	Phone   string `gorm:"type:varchar(20)" json:"phone"`
}

type Warehouse struct {
	BaseModel
	Name     string `gorm:"type:varchar(100);not null" json:"name"`
	Location string `gorm:"type:varchar(200)" json:"location"`
}

// DefaultCategories are created on first start when the catalog is empty.
var DefaultCategories = []Category{
	{Name: "Electronics"},
	{Name: "Food"},
	{Name: "Clothing"},
	{Name: "Household"},
}
