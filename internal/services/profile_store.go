package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileStore is the record store behind onboarding, the portal and the waitlist.
// Every write is an upsert keyed on user_id or (user_id, role) except
// InsertWaitlist, which is a plain insert.
type ProfileStore interface {
	GetRoleStage(ctx context.Context, userID uuid.UUID, role models.Role) (*models.UserRole, error)
	// ListRoleStages returns the user's roles ordered by enabled_at, then role;
	// an empty stage matches all.
	ListRoleStages(ctx context.Context, userID uuid.UUID, stage models.Stage) ([]models.UserRole, error)
	UpsertRoleStage(ctx context.Context, rec *models.UserRole) error
	// EnableRole creates an enabled row unless one already exists.
	EnableRole(ctx context.Context, userID uuid.UUID, role models.Role) error

	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpsertProfile(ctx context.Context, p *models.Profile) error

	GetRoleProfile(ctx context.Context, userID uuid.UUID, role models.Role) (models.RoleProfile, error)
	// UpsertRoleProfile inserts p or, on conflict, overwrites only the named
	// columns. With no columns every column is overwritten.
	UpsertRoleProfile(ctx context.Context, p models.RoleProfile, columns ...string) error

	InsertWaitlist(ctx context.Context, s *models.WaitlistSubmission) error
	ListWaitlist(ctx context.Context, limit, offset int) ([]models.WaitlistSubmission, int64, error)
}

const pgUniqueViolation = "23505"

// stageRankSQL mirrors models.Stage.Rank so postgres can refuse backward moves.
func stageRankSQL(col string) string {
	return "CASE " + col +
		" WHEN '" + string(models.StageEnabled) + "' THEN 1" +
		" WHEN '" + string(models.StageBasicsDone) + "' THEN 2" +
		" WHEN '" + string(models.StageProfileDone) + "' THEN 3" +
		" ELSE 0 END"
}

type GormProfileStore struct {
	db *gorm.DB
}

func NewGormProfileStore(db *gorm.DB) *GormProfileStore {
	return &GormProfileStore{db: db}
}

func (s *GormProfileStore) GetRoleStage(ctx context.Context, userID uuid.UUID, role models.Role) (*models.UserRole, error) {
	var rec models.UserRole
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND role = ?", userID, role).
		First(&rec).Error
	if err != nil {
		return nil, notFound(err, "querying role stage")
	}
	return &rec, nil
}

func (s *GormProfileStore) ListRoleStages(ctx context.Context, userID uuid.UUID, stage models.Stage) ([]models.UserRole, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if stage != "" {
		q = q.Where("stage = ?", stage)
	}

	var recs []models.UserRole
	if err := q.Order("enabled_at ASC, role ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing role stages: %w", err)
	}
	return recs, nil
}

func (s *GormProfileStore) UpsertRoleStage(ctx context.Context, rec *models.UserRole) error {
	if _, ok := models.ParseRole(string(rec.Role)); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidRole, rec.Role)
	}
	if !rec.Stage.Valid() {
		return fmt.Errorf("invalid stage %q", rec.Stage)
	}
	if rec.EnabledAt.IsZero() {
		rec.EnabledAt = time.Now().UTC()
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "role"}},
		DoUpdates: clause.AssignmentColumns([]string{"stage", "enabled_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: stageRankSQL("user_roles.stage") + " <= " + stageRankSQL("excluded.stage")},
		}},
	}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("upserting role stage: %w", err)
	}
	return nil
}

func (s *GormProfileStore) EnableRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	rec := models.UserRole{
		UserID:    userID,
		Role:      role,
		Stage:     models.StageEnabled,
		EnabledAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("enabling role: %w", err)
	}
	return nil
}

func (s *GormProfileStore) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	if err := s.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, notFound(err, "querying profile")
	}
	return &p, nil
}

func (s *GormProfileStore) UpsertProfile(ctx context.Context, p *models.Profile) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_name", "city", "updated_at"}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}

func (s *GormProfileStore) GetRoleProfile(ctx context.Context, userID uuid.UUID, role models.Role) (models.RoleProfile, error) {
	var dest models.RoleProfile
	switch role {
	case models.RoleWorker:
		dest = &models.WorkerProfile{}
	case models.RoleCustomer:
		dest = &models.CustomerProfile{}
	case models.RoleBusiness:
		dest = &models.BusinessProfile{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	if err := s.db.WithContext(ctx).First(dest, "user_id = ?", userID).Error; err != nil {
		return nil, notFound(err, "querying "+string(role)+" profile")
	}
	return dest, nil
}

func (s *GormProfileStore) UpsertRoleProfile(ctx context.Context, p models.RoleProfile, columns ...string) error {
	switch p.(type) {
	case *models.WorkerProfile, *models.CustomerProfile, *models.BusinessProfile:
	default:
		return fmt.Errorf("%w: unsupported profile type %T", ErrInvalidRole, p)
	}
	if p.OwnerID() == uuid.Nil {
		return errors.New("role profile has no owner")
	}

	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}}
	if len(columns) > 0 {
		onConflict.DoUpdates = clause.AssignmentColumns(columns)
	} else {
		onConflict.UpdateAll = true
	}
	if err := s.db.WithContext(ctx).Clauses(onConflict).Create(p).Error; err != nil {
		return fmt.Errorf("upserting %s profile: %w", p.ProfileRole(), err)
	}
	return nil
}

func (s *GormProfileStore) InsertWaitlist(ctx context.Context, sub *models.WaitlistSubmission) error {
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("inserting waitlist submission: %w", err)
	}
	return nil
}

func (s *GormProfileStore) ListWaitlist(ctx context.Context, limit, offset int) ([]models.WaitlistSubmission, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.WaitlistSubmission{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting waitlist: %w", err)
	}

	var subs []models.WaitlistSubmission
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&subs).Error; err != nil {
		return nil, 0, fmt.Errorf("listing waitlist: %w", err)
	}
	return subs, total, nil
}

func notFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
