package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Repository is the persistent listing store. Every method is a single round
// trip; nothing spans a transaction.
type Repository interface {
	Insert(ctx context.Context, l *Listing) (Inserted, error)
	FindByID(ctx context.Context, id uuid.UUID) (Listing, error)
	FindPublicByID(ctx context.Context, id uuid.UUID) (Listing, error)
	FindByVerificationToken(ctx context.Context, token string) (Listing, error)
	FindByEditToken(ctx context.Context, token string) (Listing, error)
	ListPublicUpcoming(ctx context.Context, today Date, f Filter) ([]Listing, error)
	ListAllForModeration(ctx context.Context) ([]Listing, error)
	// MarkVerified flips an unverified listing to verified and reports
	// whether this call made the change.
	MarkVerified(ctx context.Context, id uuid.UUID) (bool, error)
	SetVerified(ctx context.Context, id uuid.UUID, verified bool) error
	UpdateEditableFields(ctx context.Context, id uuid.UUID, f EditableFields) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Insert creates l. The id and both tokens are left zero so Postgres fills
// them from the column defaults; gorm reads them back via RETURNING.
func (r *GormRepository) Insert(ctx context.Context, l *Listing) (Inserted, error) {
	l.ID = uuid.Nil
	l.VerificationToken = ""
	l.EditToken = ""
	l.IsVerified = false
	l.IsFeatured = false
	if l.Categories == nil {
		l.Categories = pq.StringArray{}
	}
	if l.Photos == nil {
		l.Photos = pq.StringArray{}
	}

	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return Inserted{}, fmt.Errorf("inserting listing: %w", err)
	}
	return Inserted{
		ID:                l.ID,
		VerificationToken: l.VerificationToken,
		EditToken:         l.EditToken,
		Title:             l.Title,
	}, nil
}

func (r *GormRepository) first(ctx context.Context, query string, args ...interface{}) (Listing, error) {
	var l Listing
	err := r.db.WithContext(ctx).Where(query, args...).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Listing{}, ErrNotFound
	}
	if err != nil {
		return Listing{}, fmt.Errorf("loading listing: %w", err)
	}
	return l, nil
}

func (r *GormRepository) FindByID(ctx context.Context, id uuid.UUID) (Listing, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GormRepository) FindPublicByID(ctx context.Context, id uuid.UUID) (Listing, error) {
	return r.first(ctx, "id = ? AND is_verified = ?", id, true)
}

func (r *GormRepository) FindByVerificationToken(ctx context.Context, token string) (Listing, error) {
	if token == "" {
		return Listing{}, ErrNotFound
	}
	return r.first(ctx, "verification_token = ?", token)
}

func (r *GormRepository) FindByEditToken(ctx context.Context, token string) (Listing, error) {
	if token == "" {
		return Listing{}, ErrNotFound
	}
	return r.first(ctx, "edit_token = ?", token)
}

func (r *GormRepository) ListPublicUpcoming(ctx context.Context, today Date, f Filter) ([]Listing, error) {
	q := r.db.WithContext(ctx).
		Where("is_verified = ? AND end_date >= ?", true, today)

	if f.Category != "" {
		q = q.Where("? = ANY(categories)", f.Category)
	}
	if f.City != "" {
		q = q.Where("lower(city) = lower(?)", f.City)
	}
	if f.Query != "" {
		like := "%" + escapeLike(f.Query) + "%"
		q = q.Where("(title ILIKE ? OR description ILIKE ?)", like, like)
	}

	var out []Listing
	if err := q.Order("start_date ASC").Order("start_time ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing upcoming sales: %w", err)
	}
	return out, nil
}

func (r *GormRepository) ListAllForModeration(ctx context.Context) ([]Listing, error) {
	var out []Listing
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing sales for moderation: %w", err)
	}
	return out, nil
}

func (r *GormRepository) MarkVerified(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Listing{}).
		Where("id = ? AND is_verified = ?", id, false).
		Updates(map[string]interface{}{"is_verified": true, "updated_at": time.Now()})
	if res.Error != nil {
		return false, fmt.Errorf("verifying listing: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepository) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	res := r.db.WithContext(ctx).Model(&Listing{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_verified": verified, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("setting verified: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) UpdateEditableFields(ctx context.Context, id uuid.UUID, f EditableFields) error {
	categories := pq.StringArray(f.Categories)
	if categories == nil {
		categories = pq.StringArray{}
	}
	res := r.db.WithContext(ctx).Model(&Listing{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"title":       f.Title,
			"description": f.Description,
			"start_date":  f.StartDate,
			"end_date":    f.EndDate,
			"start_time":  f.StartTime,
			"end_time":    f.EndTime,
			"categories":  categories,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("updating listing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Listing{})
	if res.Error != nil {
		return fmt.Errorf("deleting listing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
