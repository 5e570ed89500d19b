package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type ImageStatus string

const (
	ImagePending ImageStatus = "pending"
	ImageSuccess ImageStatus = "success"
	ImageFailed  ImageStatus = "failed"
)

type EntryStatus string

const (
	EntryDraft EntryStatus = "draft"
	EntrySaved EntryStatus = "saved"
)

var (
	ErrEntryInputRequired = errors.New("input_keywords or input_text is required")
	ErrEmptyDraft         = errors.New("draft is required")
)

type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	Role      Role      `gorm:"type:varchar(16);not null;default:user" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Persona struct {
	ID          string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	AccountID   string      `gorm:"type:varchar(36);index;not null" json:"account_id"`
	OwnerID     string      `gorm:"type:varchar(36);index" json:"-"`
	Name        string      `gorm:"type:varchar(100);not null" json:"name"`
	Tone        string      `gorm:"type:varchar(100);not null" json:"tone"`
	Description string      `gorm:"type:text;not null" json:"description"`
	ImageRef    *string     `gorm:"type:text" json:"-"`
	ImageStatus ImageStatus `gorm:"type:varchar(16);not null;default:pending" json:"image_status"`
	CreatedAt   time.Time   `json:"created_at"`

	DiaryLinks []DiaryPersona `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type Diary struct {
	ID               string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	AccountID        string    `gorm:"type:varchar(36);index;not null" json:"account_id"`
	OwnerID          string    `gorm:"type:varchar(36);index" json:"-"`
	Title            string    `gorm:"type:varchar(120);not null" json:"title"`
	DefaultPersonaID *string   `gorm:"type:varchar(36)" json:"default_persona_id"`
	DefaultPersona   *Persona  `gorm:"foreignKey:DefaultPersonaID;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt        time.Time `json:"created_at"`

	PersonaLinks []DiaryPersona `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Entries      []Entry        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type DiaryPersona struct {
	ID        string `gorm:"type:varchar(36);primaryKey" json:"id"`
	DiaryID   string `gorm:"type:varchar(36);not null;uniqueIndex:uq_diary_persona" json:"diary_id"`
	PersonaID string `gorm:"type:varchar(36);not null;uniqueIndex:uq_diary_persona;index" json:"persona_id"`
	IsDefault bool   `gorm:"not null;default:false" json:"is_default"`
}

type Entry struct {
	ID            string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	DiaryID       string      `gorm:"type:varchar(36);not null;index" json:"diary_id"`
	PersonaID     string      `gorm:"type:varchar(36);not null;index" json:"persona_id"`
	Persona       *Persona    `gorm:"foreignKey:PersonaID" json:"-"`
	InputKeywords *string     `gorm:"type:text;check:ck_entry_input_required,input_keywords IS NOT NULL OR input_text IS NOT NULL" json:"input_keywords"`
	InputText     *string     `gorm:"type:text" json:"input_text"`
	Draft         string      `gorm:"type:text;not null" json:"draft"`
	Status        EntryStatus `gorm:"type:varchar(16);not null;default:draft" json:"status"`
	ImageRef      *string     `gorm:"type:text" json:"-"`
	ImageStatus   ImageStatus `gorm:"type:varchar(16)" json:"image_status,omitempty"`
	CreatedAt     time.Time   `gorm:"index" json:"created_at"`
}

func (User) TableName() string         { return "users" }
func (Persona) TableName() string      { return "personas" }
func (Diary) TableName() string        { return "diaries" }
func (DiaryPersona) TableName() string { return "diary_personas" }
func (Entry) TableName() string        { return "entries" }

func (u *User) BeforeCreate(*gorm.DB) error         { assignID(&u.ID); return nil }
func (p *Persona) BeforeCreate(*gorm.DB) error      { assignID(&p.ID); return nil }
func (d *Diary) BeforeCreate(*gorm.DB) error        { assignID(&d.ID); return nil }
func (l *DiaryPersona) BeforeCreate(*gorm.DB) error { assignID(&l.ID); return nil }

func (e *Entry) BeforeCreate(*gorm.DB) error {
	if e.InputKeywords == nil && e.InputText == nil {
		return ErrEntryInputRequired
	}
	assignID(&e.ID)
	if e.Status == "" {
		e.Status = EntryDraft
	}
	return nil
}

// Source is the text handed to the generator: free text wins over keywords.
func (e *Entry) Source() string {
	if e.InputText != nil && *e.InputText != "" {
		return *e.InputText
	}
	if e.InputKeywords != nil {
		return *e.InputKeywords
	}
	return ""
}

// MarkSaved overwrites the draft and moves the entry to its terminal state.
func (e *Entry) MarkSaved(draft string) error {
	if strings.TrimSpace(draft) == "" {
		return ErrEmptyDraft
	}
	e.Draft = draft
	e.Status = EntrySaved
	return nil
}

func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// NonEmpty maps "" to nil so optional inputs are stored as NULL. Whitespace counts as input.
func NonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// AutoMigrate creates or updates every table, parents first.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Persona{}, &Diary{}, &DiaryPersona{}, &Entry{})
}
