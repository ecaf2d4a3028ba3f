package storage

// PRModel is the GORM model for the prs table
type PRModel struct {
	Approvals int    `gorm:"not null;default:0"`
	Assignees string `gorm:"not null;default:'[]'"` // JSON array of logins
	Author    string `gorm:"not null;index:idx_prs_author"`
	Branch    string `gorm:"not null;default:''"`
	Draft     bool   `gorm:"not null;default:false"`
	FetchedAt int64  `gorm:"not null;index:idx_prs_fetched_at"`
	HTMLURL   string `gorm:"column:html_url;not null;default:''"`
	Number    int    `gorm:"primaryKey;autoIncrement:false"`
	Repo      string `gorm:"primaryKey"`
	State     string `gorm:"not null;default:'open'"`
	Title     string `gorm:"not null;default:''"`
}

// TableName specifies the table name for GORM
func (PRModel) TableName() string { return "prs" }

// MetadataModel is the GORM model for the metadata key/value table
type MetadataModel struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value string `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (MetadataModel) TableName() string { return "metadata" }
