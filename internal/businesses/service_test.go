package businesses

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/enums"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/visibility"
)

type stubBusinessRepo struct {
	business *models.Business
	err      error
	updated  *models.Business
	taken    map[string]bool
}

func (s *stubBusinessRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.business == nil || s.business.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *s.business
	return &clone, nil
}

func (s *stubBusinessRepo) Update(ctx context.Context, business *models.Business) error {
	s.updated = business
	return nil
}

func (s *stubBusinessRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	return s.taken[code], nil
}

func baseBusiness() *models.Business {
	email := "owner@duka.co.ke"
	return &models.Business{ID: uuid.New(), Code: "RP0A1B2C3D", Name: "Duka Bora", OwnerUsername: "owner", Email: &email}
}

func TestNewServiceRequiresRepo(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error creating service without repo")
	}
}

func TestServiceGet(t *testing.T) {
	business := baseBusiness()
	svc, err := NewService(&stubBusinessRepo{business: business})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	actor := visibility.Actor{UserID: uuid.New(), BusinessID: business.ID, Role: enums.RoleStorekeeper}
	dto, err := svc.Get(context.Background(), actor)
	if err != nil {
		t.Fatalf("get business: %v", err)
	}
	if dto.Code != business.Code || dto.Name != business.Name {
		t.Fatalf("unexpected dto %+v", dto)
	}

	_, err = svc.Get(context.Background(), visibility.Actor{Role: enums.RoleSuperadmin})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for operator, got %v", err)
	}
}

func TestServiceGetDependencyError(t *testing.T) {
	svc, _ := NewService(&stubBusinessRepo{err: errors.New("boom")})
	_, err := svc.Get(context.Background(), visibility.Actor{BusinessID: uuid.New(), Role: enums.RoleAdmin})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestServiceUpdate(t *testing.T) {
	business := baseBusiness()
	repo := &stubBusinessRepo{business: business}
	svc, _ := NewService(repo)
	admin := visibility.Actor{UserID: uuid.New(), BusinessID: business.ID, Role: enums.RoleAdmin}

	name := " Duka Bora Ltd "
	email := ""
	dto, err := svc.Update(context.Background(), admin, UpdateBusinessInput{Name: &name, Email: &email})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.Name != "Duka Bora Ltd" || dto.Email != nil {
		t.Fatalf("unexpected dto %+v", dto)
	}
	if repo.updated == nil || repo.updated.Name != "Duka Bora Ltd" {
		t.Fatalf("update not persisted: %+v", repo.updated)
	}

	manager := visibility.Actor{UserID: uuid.New(), BusinessID: business.ID, Role: enums.RoleManager}
	_, err = svc.Update(context.Background(), manager, UpdateBusinessInput{Name: &name})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestNewCodeFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^RP[0-9A-F]{8}$`)
	for i := 0; i < 20; i++ {
		code, err := NewCode()
		if err != nil {
			t.Fatalf("new code: %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("code %q does not match format", code)
		}
	}
}

func TestUniqueCodeGivesUpAfterCollisions(t *testing.T) {
	_, err := UniqueCode(context.Background(), alwaysTaken{})
	if err == nil {
		t.Fatal("expected error when every code is taken")
	}

	code, err := UniqueCode(context.Background(), &stubBusinessRepo{})
	if err != nil || code == "" {
		t.Fatalf("expected a free code, got %q err=%v", code, err)
	}
}

type alwaysTaken struct{}

func (alwaysTaken) CodeExists(context.Context, string) (bool, error) { return true, nil }
