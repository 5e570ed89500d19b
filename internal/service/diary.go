package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"echo-diary/internal/logger"
	"echo-diary/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Generator interface {
	GenerateDraft(ctx context.Context, tone, source string) DraftResult
	GenerateImage(ctx context.Context, diaryText string) ([]byte, bool)
}

type ImageStore interface {
	Upload(ctx context.Context, data []byte, accountID string) (string, bool)
	PresignedURL(ctx context.Context, ref string, ttl time.Duration) (string, bool)
	Fetch(ctx context.Context, ref string) ([]byte, string, bool)
}

type LinkStatus string

const (
	LinkCreated LinkStatus = "linked"
	LinkExists  LinkStatus = "already-linked"
)

type DiaryService struct {
	db     *gorm.DB
	gen    Generator
	store  ImageStore
	strict bool
}

func NewDiaryService(db *gorm.DB, gen Generator, store ImageStore, strict bool) *DiaryService {
	return &DiaryService{db: db, gen: gen, store: store, strict: strict}
}

func (s *DiaryService) CreatePersona(ctx context.Context, owner *model.User, req model.PersonaCreate) (*model.Persona, error) {
	p := model.Persona{
		AccountID:   req.AccountID,
		OwnerID:     owner.ID,
		Name:        req.Name,
		Tone:        req.Tone,
		Description: req.Description,
		ImageStatus: model.ImagePending,
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("insert persona: %w", err)
	}
	return &p, nil
}

// ListPersonas returns the account's personas visible to the caller; admins see all of them.
func (s *DiaryService) ListPersonas(ctx context.Context, caller *model.User, accountID string) ([]model.Persona, error) {
	var personas []model.Persona
	q := s.db.WithContext(ctx).Where("account_id = ?", accountID)
	if caller.Role != model.RoleAdmin {
		q = q.Where("owner_id = ?", caller.ID)
	}
	if err := q.Order("created_at").Find(&personas).Error; err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}
	return personas, nil
}

func (s *DiaryService) CreateDiary(ctx context.Context, owner *model.User, req model.DiaryCreate) (*model.Diary, error) {
	d := model.Diary{AccountID: req.AccountID, OwnerID: owner.ID, Title: req.Title}
	if err := s.db.WithContext(ctx).Create(&d).Error; err != nil {
		return nil, fmt.Errorf("insert diary: %w", err)
	}
	return &d, nil
}

func (s *DiaryService) ListDiaries(ctx context.Context, caller *model.User, accountID string) ([]model.Diary, error) {
	var diaries []model.Diary
	q := s.db.WithContext(ctx).Where("account_id = ?", accountID)
	if caller.Role != model.RoleAdmin {
		q = q.Where("owner_id = ?", caller.ID)
	}
	if err := q.Order("created_at DESC").Find(&diaries).Error; err != nil {
		return nil, fmt.Errorf("list diaries: %w", err)
	}
	return diaries, nil
}

// DeleteDiary removes the diary together with its persona links and entries.
func (s *DiaryService) DeleteDiary(ctx context.Context, caller *model.User, diaryID string) error {
	d, err := s.ownedDiary(ctx, caller, diaryID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Select("PersonaLinks", "Entries").Delete(d).Error; err != nil {
		return fmt.Errorf("delete diary: %w", err)
	}
	logger.Info("diary.deleted", "diary_id", diaryID, "by", caller.ID)
	return nil
}

// LinkPersona is idempotent: a second call for the same pair reports LinkExists.
func (s *DiaryService) LinkPersona(ctx context.Context, caller *model.User, diaryID, personaID string, makeDefault bool) (LinkStatus, error) {
	d, err := s.findDiary(ctx, diaryID)
	if err != nil {
		return "", err
	}
	p, err := s.findPersona(ctx, personaID)
	if err != nil {
		return "", err
	}
	if !CanMutate(caller, d.OwnerID) || !CanMutate(caller, p.OwnerID) {
		return "", fmt.Errorf("diary %s or persona %s: %w", diaryID, personaID, ErrForbidden)
	}

	status := LinkCreated
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		link := model.DiaryPersona{DiaryID: diaryID, PersonaID: personaID}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "diary_id"}, {Name: "persona_id"}},
			DoNothing: true,
		}).Create(&link)
		if res.Error != nil {
			return fmt.Errorf("insert link: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			status = LinkExists
		}

		if !makeDefault {
			return nil
		}
		if err := tx.Model(&model.DiaryPersona{}).Where("diary_id = ?", diaryID).
			Update("is_default", gorm.Expr("persona_id = ?", personaID)).Error; err != nil {
			return fmt.Errorf("update default link: %w", err)
		}
		return tx.Model(d).Update("default_persona_id", personaID).Error
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

// GenerateEntry creates a draft entry from keywords or free text in the persona's tone.
func (s *DiaryService) GenerateEntry(ctx context.Context, caller *model.User, req model.EntryGenerateRequest) (*model.Entry, error) {
	keywords := model.NonEmpty(req.InputKeywords)
	text := model.NonEmpty(req.InputText)
	if keywords == nil && text == nil {
		return nil, fmt.Errorf("%w: %w", model.ErrEntryInputRequired, ErrValidation)
	}

	d, err := s.findDiary(ctx, req.DiaryID)
	if err != nil {
		return nil, err
	}
	personaID := req.PersonaID
	if personaID == "" && d.DefaultPersonaID != nil {
		personaID = *d.DefaultPersonaID
	}
	p, err := s.findPersona(ctx, personaID)
	if err != nil {
		return nil, err
	}
	if !CanMutate(caller, d.OwnerID) || !CanMutate(caller, p.OwnerID) {
		return nil, fmt.Errorf("diary %s or persona %s: %w", d.ID, p.ID, ErrForbidden)
	}

	entry := model.Entry{
		DiaryID:       d.ID,
		PersonaID:     p.ID,
		InputKeywords: keywords,
		InputText:     text,
		Status:        model.EntryDraft,
	}

	res := s.gen.GenerateDraft(ctx, p.Tone, entry.Source())
	if res.Fallback {
		logger.Info("entry.generate.fallback", "diary_id", d.ID, "reason", res.Reason)
		if s.strict && res.Reason == ReasonProviderError {
			return nil, fmt.Errorf("%v: %w", res.Err, ErrUpstream)
		}
	}
	entry.Draft = res.Text

	if req.WithImage {
		entry.ImageStatus = model.ImageFailed
		if data, ok := s.gen.GenerateImage(ctx, entry.Draft); ok {
			if key, ok := s.store.Upload(ctx, data, d.AccountID); ok {
				entry.ImageRef = &key
				entry.ImageStatus = model.ImageSuccess
			}
		}
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	logger.Info("entry.generated", "entry_id", entry.ID, "diary_id", d.ID, "persona_id", p.ID, "fallback", res.Fallback)
	return &entry, nil
}

// SaveEntry overwrites the draft text and marks the entry saved.
func (s *DiaryService) SaveEntry(ctx context.Context, caller *model.User, entryID, draft string) (*model.Entry, error) {
	if strings.TrimSpace(draft) == "" {
		return nil, fmt.Errorf("%w: %w", model.ErrEmptyDraft, ErrValidation)
	}
	entry, err := s.findEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedDiary(ctx, caller, entry.DiaryID); err != nil {
		return nil, err
	}
	if err := entry.MarkSaved(draft); err != nil {
		return nil, fmt.Errorf("%w: %w", err, ErrValidation)
	}
	err = s.db.WithContext(ctx).Model(entry).Updates(map[string]interface{}{
		"draft":  entry.Draft,
		"status": entry.Status,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	return entry, nil
}

// ListEntries returns the diary's entries newest first, with presigned image URLs when available.
func (s *DiaryService) ListEntries(ctx context.Context, caller *model.User, diaryID string) ([]model.EntryView, error) {
	if _, err := s.ownedDiary(ctx, caller, diaryID); err != nil {
		return nil, err
	}
	var entries []model.Entry
	err := s.db.WithContext(ctx).Where("diary_id = ?", diaryID).Order("created_at DESC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	views := make([]model.EntryView, 0, len(entries))
	for _, e := range entries {
		v := model.EntryView{ID: e.ID, Draft: e.Draft, Status: e.Status, CreatedAt: e.CreatedAt}
		if e.ImageRef != nil {
			v.ImageURL, _ = s.store.PresignedURL(ctx, *e.ImageRef, 0)
		}
		views = append(views, v)
	}
	return views, nil
}

// EntryImage returns the stored illustration of an entry.
func (s *DiaryService) EntryImage(ctx context.Context, caller *model.User, entryID string) ([]byte, string, error) {
	entry, err := s.findEntry(ctx, entryID)
	if err != nil {
		return nil, "", err
	}
	if _, err := s.ownedDiary(ctx, caller, entry.DiaryID); err != nil {
		return nil, "", err
	}
	if entry.ImageRef == nil {
		return nil, "", fmt.Errorf("entry %s has no image: %w", entryID, ErrNotFound)
	}
	data, contentType, ok := s.store.Fetch(ctx, *entry.ImageRef)
	if !ok {
		return nil, "", fmt.Errorf("image for entry %s: %w", entryID, ErrNotFound)
	}
	return data, contentType, nil
}

// GeneratePersonaImage illustrates a persona from its description and records the outcome.
func (s *DiaryService) GeneratePersonaImage(ctx context.Context, caller *model.User, personaID string) (*model.PersonaImageResponse, error) {
	p, err := s.findPersona(ctx, personaID)
	if err != nil {
		return nil, err
	}
	if !CanMutate(caller, p.OwnerID) {
		return nil, fmt.Errorf("persona %s: %w", personaID, ErrForbidden)
	}

	status := model.ImageFailed
	var ref *string
	if data, ok := s.gen.GenerateImage(ctx, fmt.Sprintf("%s (%s): %s", p.Name, p.Tone, p.Description)); ok {
		if key, ok := s.store.Upload(ctx, data, p.AccountID); ok {
			ref = &key
			status = model.ImageSuccess
		}
	}
	err = s.db.WithContext(ctx).Model(p).Updates(map[string]interface{}{
		"image_ref":    ref,
		"image_status": status,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update persona image: %w", err)
	}

	resp := &model.PersonaImageResponse{ID: p.ID, ImageStatus: status}
	if ref != nil {
		resp.ImageURL, _ = s.store.PresignedURL(ctx, *ref, 0)
	}
	return resp, nil
}

func (s *DiaryService) ownedDiary(ctx context.Context, caller *model.User, diaryID string) (*model.Diary, error) {
	d, err := s.findDiary(ctx, diaryID)
	if err != nil {
		return nil, err
	}
	if !CanMutate(caller, d.OwnerID) {
		return nil, fmt.Errorf("diary %s: %w", diaryID, ErrForbidden)
	}
	return d, nil
}

func (s *DiaryService) findDiary(ctx context.Context, id string) (*model.Diary, error) {
	var d model.Diary
	if err := first(ctx, s.db, &d, id); err != nil {
		return nil, fmt.Errorf("diary %q: %w", id, err)
	}
	return &d, nil
}

func (s *DiaryService) findPersona(ctx context.Context, id string) (*model.Persona, error) {
	var p model.Persona
	if err := first(ctx, s.db, &p, id); err != nil {
		return nil, fmt.Errorf("persona %q: %w", id, err)
	}
	return &p, nil
}

func (s *DiaryService) findEntry(ctx context.Context, id string) (*model.Entry, error) {
	var e model.Entry
	if err := first(ctx, s.db, &e, id); err != nil {
		return nil, fmt.Errorf("entry %q: %w", id, err)
	}
	return &e, nil
}

func first(ctx context.Context, db *gorm.DB, dst interface{}, id string) error {
	if id == "" {
		return ErrNotFound
	}
	err := db.WithContext(ctx).First(dst, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
