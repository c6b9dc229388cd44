package db

import (
	"time"
)

// Category maps intel.categories.
type Category struct {
	CategoryID  int64     `gorm:"column:category_id;primaryKey;autoIncrement"`
	Name        string    `gorm:"column:name;type:text;not null"`
	Slug        string    `gorm:"column:slug;type:text;not null;unique"`
	Description *string   `gorm:"column:description;type:text"`
	Priority    int       `gorm:"column:priority;type:integer;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Category) TableName() string { return "intel.categories" }

// Article maps intel.articles.
type Article struct {
	ArticleID   int64      `gorm:"column:article_id;primaryKey;autoIncrement"`
	Title       string     `gorm:"column:title;type:text;not null"`
	Slug        string     `gorm:"column:slug;type:text;not null;unique"`
	OriginalURL string     `gorm:"column:original_url;type:text;not null;unique"`
	SourceName  string     `gorm:"column:source_name;type:text;not null;default:''"`
	PublishedAt *time.Time `gorm:"column:published_at;type:timestamptz"`
	ImageURL    *string    `gorm:"column:image_url;type:text"`
	RawContent  string     `gorm:"column:raw_content;type:text;not null;default:''"`
	CategoryID  *int64     `gorm:"column:category_id;type:bigint"`
	Status      string     `gorm:"column:status;type:text;not null;default:raw"`

	MetaDescription *string `gorm:"column:meta_description;type:text"`
	Keywords        *string `gorm:"column:keywords;type:text"`

	DraftTitle           *string `gorm:"column:draft_title;type:text"`
	DraftBody            *string `gorm:"column:draft_body;type:text"`
	DraftMetaDescription *string `gorm:"column:draft_meta_description;type:text"`
	DraftKeywords        *string `gorm:"column:draft_keywords;type:text"`
	HasDraft             bool    `gorm:"column:has_draft;type:boolean;not null;default:false"`

	ContentType           string `gorm:"column:content_type;type:text;not null;default:news"`
	ProtectedFromDeletion bool   `gorm:"column:protected_from_deletion;type:boolean;not null;default:false"`

	Views       int64    `gorm:"column:views;type:bigint;not null;default:0"`
	Impressions int64    `gorm:"column:impressions;type:bigint;not null;default:0"`
	Position    *float64 `gorm:"column:position;type:double precision"`

	IsEdited bool       `gorm:"column:is_edited;type:boolean;not null;default:false"`
	EditedBy *string    `gorm:"column:edited_by;type:text"`
	EditedAt *time.Time `gorm:"column:edited_at;type:timestamptz"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Article) TableName() string { return "intel.articles" }

// SimplifiedContent maps intel.simplified_contents.
type SimplifiedContent struct {
	SimplifiedContentID int64     `gorm:"column:simplified_content_id;primaryKey;autoIncrement"`
	ArticleID           int64     `gorm:"column:article_id;type:bigint;not null;unique"`
	FriendlySummary     string    `gorm:"column:friendly_summary;type:text;not null"`
	AttackVector        string    `gorm:"column:attack_vector;type:text;not null"`
	BusinessImpact      string    `gorm:"column:business_impact;type:text;not null"`
	ActionSteps         string    `gorm:"column:action_steps;type:jsonb;not null"`
	ThreatLevel         string    `gorm:"column:threat_level;type:text;not null;default:medium"`
	ReadingTimeMinutes  int       `gorm:"column:reading_time_minutes;type:integer;not null;default:2"`
	CreatedAt           time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt           time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (SimplifiedContent) TableName() string { return "intel.simplified_contents" }

// DeletedArticle maps intel.deleted_articles. A tombstone outlives its article row.
type DeletedArticle struct {
	DeletedArticleID int64     `gorm:"column:deleted_article_id;primaryKey;autoIncrement"`
	Slug             string    `gorm:"column:slug;type:text;not null;unique"`
	Reason           string    `gorm:"column:reason;type:text;not null;default:''"`
	DeletedAt        time.Time `gorm:"column:deleted_at;type:timestamptz;not null;default:now()"`
}

func (DeletedArticle) TableName() string { return "intel.deleted_articles" }

// ViewLog maps intel.view_logs. Append-only.
type ViewLog struct {
	ViewLogID int64     `gorm:"column:view_log_id;primaryKey;autoIncrement"`
	ArticleID int64     `gorm:"column:article_id;type:bigint;not null"`
	Referrer  string    `gorm:"column:referrer;type:text;not null;default:''"`
	Source    string    `gorm:"column:source;type:text;not null;default:direct"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (ViewLog) TableName() string { return "intel.view_logs" }

func autoMigrateModels() []any {
	return []any{
		&Category{},
		&Article{},
		&SimplifiedContent{},
		&DeletedArticle{},
		&ViewLog{},
	}
}
