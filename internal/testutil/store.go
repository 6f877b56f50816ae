// Package testutil provides in-memory stand-ins for the service dependencies.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/models"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/services"
	"github.com/google/uuid"
	"gorm.io/gorm/schema"
)

type roleKey struct {
	userID uuid.UUID
	role   models.Role
}

// MemStore is a ProfileStore kept in maps. It applies the same forward-only
// stage rule as the postgres store. Set Err to make every call fail.
type MemStore struct {
	mu           sync.Mutex
	stages       map[roleKey]models.UserRole
	profiles     map[uuid.UUID]models.Profile
	roleProfiles map[roleKey]models.RoleProfile
	waitlist     []models.WaitlistSubmission

	Err error
}

var _ services.ProfileStore = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		stages:       map[roleKey]models.UserRole{},
		profiles:     map[uuid.UUID]models.Profile{},
		roleProfiles: map[roleKey]models.RoleProfile{},
	}
}

func (s *MemStore) GetRoleStage(_ context.Context, userID uuid.UUID, role models.Role) (*models.UserRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	rec, ok := s.stages[roleKey{userID, role}]
	if !ok {
		return nil, services.ErrNotFound
	}
	return &rec, nil
}

func (s *MemStore) ListRoleStages(_ context.Context, userID uuid.UUID, stage models.Stage) ([]models.UserRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	var keys []roleKey
	for k, rec := range s.stages {
		if k.userID == userID && (stage == "" || rec.Stage == stage) {
			keys = append(keys, k)
		}
	}
	// Same order as the postgres store: enabled_at, then role.
	sort.Slice(keys, func(i, j int) bool {
		a, b := s.stages[keys[i]], s.stages[keys[j]]
		if !a.EnabledAt.Equal(b.EnabledAt) {
			return a.EnabledAt.Before(b.EnabledAt)
		}
		return a.Role < b.Role
	})

	out := make([]models.UserRole, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.stages[k])
	}
	return out, nil
}

func (s *MemStore) UpsertRoleStage(_ context.Context, rec *models.UserRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := models.ParseRole(string(rec.Role)); !ok {
		return services.ErrInvalidRole
	}
	if !rec.Stage.Valid() {
		return errors.New("invalid stage")
	}

	k := roleKey{rec.UserID, rec.Role}
	if rec.EnabledAt.IsZero() {
		rec.EnabledAt = time.Now().UTC()
	}
	if cur, ok := s.stages[k]; ok && cur.Stage.Rank() > rec.Stage.Rank() {
		return nil
	}
	s.stages[k] = *rec
	return nil
}

func (s *MemStore) EnableRole(_ context.Context, userID uuid.UUID, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	k := roleKey{userID, role}
	if _, ok := s.stages[k]; ok {
		return nil
	}
	s.stages[k] = models.UserRole{UserID: userID, Role: role, Stage: models.StageEnabled, EnabledAt: time.Now().UTC()}
	return nil
}

func (s *MemStore) GetProfile(_ context.Context, userID uuid.UUID) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.profiles[userID]
	if !ok {
		return nil, services.ErrNotFound
	}
	return &p, nil
}

func (s *MemStore) UpsertProfile(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.profiles[p.UserID] = *p
	return nil
}

func (s *MemStore) GetRoleProfile(_ context.Context, userID uuid.UUID, role models.Role) (models.RoleProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	rp, ok := s.roleProfiles[roleKey{userID, role}]
	if !ok {
		return nil, services.ErrNotFound
	}
	return rp, nil
}

func (s *MemStore) UpsertRoleProfile(ctx context.Context, p models.RoleProfile, columns ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	key := roleKey{p.OwnerID(), p.ProfileRole()}
	existing, ok := s.roleProfiles[key]
	if !ok || len(columns) == 0 {
		s.roleProfiles[key] = p
		return nil
	}

	merged, err := assignColumns(ctx, existing, p, columns)
	if err != nil {
		return err
	}
	s.roleProfiles[key] = merged
	return nil
}

var schemaCache sync.Map

// assignColumns copies the named columns of src onto a copy of dst, the way
// ON CONFLICT DO UPDATE SET col = excluded.col does.
func assignColumns(ctx context.Context, dst, src models.RoleProfile, columns []string) (models.RoleProfile, error) {
	sch, err := schema.Parse(src, &schemaCache, schema.NamingStrategy{})
	if err != nil {
		return nil, err
	}
	out := reflect.New(reflect.TypeOf(dst).Elem())
	out.Elem().Set(reflect.ValueOf(dst).Elem())
	for _, col := range columns {
		field := sch.LookUpField(col)
		if field == nil {
			return nil, fmt.Errorf("column %q not found on %T", col, src)
		}
		field.ReflectValueOf(ctx, out).Set(field.ReflectValueOf(ctx, reflect.ValueOf(src)))
	}
	return out.Interface().(models.RoleProfile), nil
}

func (s *MemStore) InsertWaitlist(_ context.Context, sub *models.WaitlistSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, existing := range s.waitlist {
		if existing.Email == sub.Email && equalPtr(existing.Role, sub.Role) {
			return services.ErrDuplicate
		}
	}
	sub.ID = uuid.New()
	sub.CreatedAt = time.Now().UTC()
	s.waitlist = append(s.waitlist, *sub)
	return nil
}

func (s *MemStore) ListWaitlist(_ context.Context, limit, offset int) ([]models.WaitlistSubmission, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}

	total := len(s.waitlist)
	out := make([]models.WaitlistSubmission, 0, limit)
	for i := total - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.waitlist[i])
	}
	return out, int64(total), nil
}

// Stage returns the stored stage, or "" when the role has no row.
func (s *MemStore) Stage(userID uuid.UUID, role models.Role) models.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stages[roleKey{userID, role}].Stage
}

// RowCount returns how many stage rows the user has.
func (s *MemStore) RowCount(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.stages {
		if k.userID == userID {
			n++
		}
	}
	return n
}

// equalPtr matches the unique index, where two NULL roles never collide.
func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
